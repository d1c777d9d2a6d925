// Package service orchestrates the core flows behind the interactive
// surface: market lookups, build and loyalty-offer costing, store
// browsing, and scan analysis. Replies go to a caller-supplied Sink so
// the package stays independent of any particular chat transport.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/cost"
	"github.com/rustybot/rustybot/pkg/market"
	"github.com/rustybot/rustybot/pkg/provider"
	"github.com/rustybot/rustybot/pkg/resolver"
	"github.com/rustybot/rustybot/pkg/scan"
	"github.com/rustybot/rustybot/pkg/session"
)

// Sink receives rendered replies. Supplied by the front-end.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// OfferSource fetches a corporation's loyalty-store offers.
type OfferSource interface {
	LoyaltyOffers(ctx context.Context, corpID int64) ([]provider.LoyaltyOffer, error)
}

// BrowsePage is one rendered page of a loyalty-store browse session.
type BrowsePage struct {
	SessionID  string
	Page       int
	TotalPages int
	Text       string
}

// ScanReply is a rendered scan analysis plus the session id holding
// its raw-text form for copy-out.
type ScanReply struct {
	SessionID string
	Text      string
}

// Service wires the resolution, aggregation, costing, and session
// components into user-facing flows. Expected failures inside a flow
// (unknown names, upstream trouble, missing data) are rendered as reply
// messages; only sink delivery and internal errors surface as Go
// errors.
type Service struct {
	resolver   *resolver.Resolver
	aggregator *market.Aggregator
	calculator *cost.Calculator
	recipes    cost.RecipeProvider
	offers     OfferSource
	analyzer   *scan.Analyzer
	sessions   *session.Store
	logger     zerolog.Logger
}

// New creates the service over its component graph.
func New(
	res *resolver.Resolver,
	agg *market.Aggregator,
	calc *cost.Calculator,
	recipes cost.RecipeProvider,
	offers OfferSource,
	analyzer *scan.Analyzer,
	sessions *session.Store,
	logger zerolog.Logger,
) *Service {
	return &Service{
		resolver:   res,
		aggregator: agg,
		calculator: calc,
		recipes:    recipes,
		offers:     offers,
		analyzer:   analyzer,
		sessions:   sessions,
		logger:     logger.With().Str("component", "service").Logger(),
	}
}

// displayName prefers the dataset's proper name over the user's typed
// form, falling back to the input when the identifier is not indexed.
func (s *Service) displayName(typed string, typeID int64) string {
	name := s.resolver.NameOf(typeID)
	if strings.HasPrefix(name, "Item (ID:") {
		return strings.TrimSpace(typed)
	}
	return name
}

// MarketLookup resolves a name and replies with per-market best quotes.
// Quantity scales the displayed prices only.
func (s *Service) MarketLookup(ctx context.Context, name string, quantity int64, sink Sink) error {
	if quantity < 1 {
		quantity = 1
	}

	typeID, err := s.resolver.Resolve(ctx, name)
	if errors.Is(err, resolver.ErrNotFound) {
		return sink.Send(ctx, fmt.Sprintf("Could not find an item named %q. Check the spelling and try again.", strings.TrimSpace(name)))
	}
	if err != nil {
		return err
	}

	scope := market.ScopeFor(typeID)
	results := s.aggregator.FetchAcrossMarkets(ctx, typeID, scope)
	return sink.Send(ctx, formatMarketReply(s.displayName(name, typeID), quantity, scope, results))
}

// BuildCost resolves a name and replies with its manufacturing cost
// breakdown, or with reference alternatives when no recipe data source
// is available.
func (s *Service) BuildCost(ctx context.Context, name string, sink Sink) error {
	typeID, err := s.resolver.Resolve(ctx, name)
	if errors.Is(err, resolver.ErrNotFound) {
		return sink.Send(ctx, fmt.Sprintf("Could not find an item named %q.", strings.TrimSpace(name)))
	}
	if err != nil {
		return err
	}
	display := s.displayName(name, typeID)

	recipe, err := s.recipes.Recipe(ctx, typeID)
	if errors.Is(err, cost.ErrRecipeUnavailable) {
		return sink.Send(ctx, fmt.Sprintf(
			"Build cost data for %s is unavailable. Check %s for manufacturing details, or use a market lookup for current prices.",
			display, everefLink(typeID)))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("item", display).Msg("Recipe lookup failed")
		return sink.Send(ctx, fmt.Sprintf("Could not load the recipe for %s right now.", display))
	}

	breakdown := s.calculator.BuildCost(ctx, cost.Request{
		ProductTypeID:   recipe.ProductTypeID,
		ProductQuantity: 1,
		Materials:       recipe.Materials,
	})
	return sink.Send(ctx, fmt.Sprintf("Build cost for %s:\n%s", display, formatBreakdown(breakdown)))
}

// LPOfferLookup prices a single loyalty-store offer: corporation and
// item resolve concurrently, then the matching offer is costed.
func (s *Service) LPOfferLookup(ctx context.Context, corpName, itemName string, sink Sink) error {
	corpID, ok := resolver.ResolveCorp(corpName)
	if !ok {
		names := resolver.CorpNames()
		sort.Strings(names)
		return sink.Send(ctx, fmt.Sprintf("Unknown corporation %q. Known stores: %s.", corpName, strings.Join(names, ", ")))
	}

	var (
		wg      sync.WaitGroup
		typeID  int64
		resErr  error
		offers  []provider.LoyaltyOffer
		offErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		typeID, resErr = s.resolver.Resolve(ctx, itemName)
	}()
	go func() {
		defer wg.Done()
		offers, offErr = s.offers.LoyaltyOffers(ctx, corpID)
	}()
	wg.Wait()

	if errors.Is(resErr, resolver.ErrNotFound) {
		return sink.Send(ctx, fmt.Sprintf("Could not find an item named %q.", strings.TrimSpace(itemName)))
	}
	if resErr != nil {
		return resErr
	}
	if offErr != nil {
		s.logger.Warn().Err(offErr).Int64("corp_id", corpID).Msg("Offer fetch failed")
		return sink.Send(ctx, "Loyalty store data is unavailable right now. Try again in a moment.")
	}

	display := s.displayName(itemName, typeID)
	for _, offer := range offers {
		if offer.TypeID == typeID {
			ob := s.calculator.OfferCost(ctx, offer)
			return sink.Send(ctx, formatOfferReply(display, ob))
		}
	}
	return sink.Send(ctx, fmt.Sprintf("No loyalty offer for %s in that store.", display))
}

// LPBrowse opens a paginated browse session over a corporation's
// loyalty store. Offers are de-duplicated by item, keeping the cheapest
// LP variant of each.
func (s *Service) LPBrowse(ctx context.Context, corpName, interactionID string) (*BrowsePage, error) {
	corpID, ok := resolver.ResolveCorp(corpName)
	if !ok {
		return nil, fmt.Errorf("unknown corporation %q", corpName)
	}

	offers, err := s.offers.LoyaltyOffers(ctx, corpID)
	if err != nil {
		return nil, fmt.Errorf("fetch offers: %w", err)
	}
	if len(offers) == 0 {
		return nil, fmt.Errorf("no offers for corporation %q", corpName)
	}

	deduped := dedupeOffers(offers)
	sort.Slice(deduped, func(i, j int) bool {
		return s.resolver.NameOf(deduped[i].TypeID) < s.resolver.NameOf(deduped[j].TypeID)
	})

	list := &session.OfferList{CorpID: corpID, CorpName: corpName, Offers: deduped}
	id, err := s.sessions.Create(session.KindPagination, interactionID, list)
	if err != nil {
		return nil, err
	}

	return &BrowsePage{
		SessionID:  id,
		Page:       0,
		TotalPages: list.TotalPages(),
		Text:       formatOfferPage(list, s.resolver),
	}, nil
}

// dedupeOffers keeps one offer per item, preferring the lowest LP cost.
func dedupeOffers(offers []provider.LoyaltyOffer) []provider.LoyaltyOffer {
	best := make(map[int64]provider.LoyaltyOffer, len(offers))
	for _, offer := range offers {
		if prev, ok := best[offer.TypeID]; !ok || offer.LPCost < prev.LPCost {
			best[offer.TypeID] = offer
		}
	}
	out := make([]provider.LoyaltyOffer, 0, len(best))
	for _, offer := range best {
		out = append(out, offer)
	}
	return out
}

// LPPage moves a browse session's cursor forward or backward and
// renders the new page. The cursor clamps at both ends.
func (s *Service) LPPage(ctx context.Context, sessionID string, forward bool) (*BrowsePage, error) {
	var err error
	if forward {
		_, err = s.sessions.NextPage(sessionID)
	} else {
		_, err = s.sessions.PrevPage(sessionID)
	}
	if err != nil {
		return nil, err
	}

	payload, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	list, ok := payload.(*session.OfferList)
	if !ok {
		return nil, session.ErrExpired
	}

	return &BrowsePage{
		SessionID:  sessionID,
		Page:       list.Page,
		TotalPages: list.TotalPages(),
		Text:       formatOfferPage(list, s.resolver),
	}, nil
}

// LPSelect consumes a browse session and replies with the full cost
// breakdown of the selected offer. Selections are single-use: the
// session is gone afterwards even if the TTL has not elapsed.
func (s *Service) LPSelect(ctx context.Context, sessionID string, typeID int64, sink Sink) error {
	payload, err := s.sessions.Consume(sessionID)
	if err != nil {
		return err
	}
	list, ok := payload.(*session.OfferList)
	if !ok {
		return session.ErrExpired
	}

	for _, offer := range list.Offers {
		if offer.TypeID == typeID {
			ob := s.calculator.OfferCost(ctx, offer)
			return sink.Send(ctx, formatOfferReply(s.resolver.NameOf(typeID), ob))
		}
	}
	return sink.Send(ctx, "That offer is no longer part of this browse session.")
}

// DScan parses and analyzes a scan paste, storing the raw-text report
// in a copy-out session.
func (s *Service) DScan(ctx context.Context, text, interactionID string) (*ScanReply, error) {
	result, err := scan.Parse(text)
	if err != nil {
		return nil, err
	}

	report := s.analyzer.Analyze(ctx, result)
	raw := report.RenderText()

	id, err := s.sessions.Create(session.KindRawCopy, interactionID, raw)
	if err != nil {
		return nil, err
	}
	return &ScanReply{SessionID: id, Text: raw}, nil
}

// DScanRaw returns the stored raw-text report of an earlier scan.
func (s *Service) DScanRaw(ctx context.Context, sessionID string) (string, error) {
	payload, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	raw, ok := payload.(string)
	if !ok {
		return "", session.ErrExpired
	}
	return raw, nil
}

// ItemInfo resolves a name and replies with its reference-site link.
func (s *Service) ItemInfo(ctx context.Context, name string, sink Sink) error {
	typeID, err := s.resolver.Resolve(ctx, name)
	if errors.Is(err, resolver.ErrNotFound) {
		return sink.Send(ctx, fmt.Sprintf("Could not find an item named %q.", strings.TrimSpace(name)))
	}
	if err != nil {
		return err
	}
	return sink.Send(ctx, fmt.Sprintf("%s: %s", s.displayName(name, typeID), everefLink(typeID)))
}
