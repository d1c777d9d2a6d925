package market

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/provider"
)

// Prometheus metrics for market aggregation.
var (
	marketQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_queries_total",
		Help: "Per-market aggregation outcomes",
	}, []string{"market", "outcome"})
)

// ErrNoPrice indicates no order was available to price against.
var ErrNoPrice = errors.New("no price available")

// Status is the per-market aggregation outcome.
type Status int

const (
	// StatusSuccess means at least one side produced a best quote.
	StatusSuccess Status = iota

	// StatusEmpty means both sides returned zero matching orders.
	StatusEmpty

	// StatusFailed means a side's fetch failed; the market is reported
	// failed without affecting sibling markets.
	StatusFailed
)

// Quote is one side's best order for a market. Prices stay per-unit;
// quantity is applied only at formatting time so raw quotes remain
// comparable across calls.
type Quote struct {
	TypeID int64
	Market string
	Side   provider.OrderSide
	Price  float64
}

// Result is the outcome for one market. BestSell/BestBuy are nil when
// that side had no matching orders — absent, never zero.
type Result struct {
	Status   Status
	BestSell *Quote
	BestBuy  *Quote
	Err      error
}

// OrderSource fetches one side of a region's order book.
type OrderSource interface {
	MarketOrders(ctx context.Context, regionID int64, side provider.OrderSide, typeID int64) ([]provider.Order, error)
}

// Aggregator issues parallel order-book queries across markets and
// merges them into per-market best quotes.
type Aggregator struct {
	source OrderSource
	logger zerolog.Logger
}

// NewAggregator creates an aggregator over the given order source.
func NewAggregator(source OrderSource, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		logger: logger.With().Str("component", "market-aggregator").Logger(),
	}
}

// FetchAcrossMarkets queries every market in the scope concurrently,
// both order sides per market in parallel. Each market's failure is
// isolated: the returned map always holds one Result per requested
// market.
func (a *Aggregator) FetchAcrossMarkets(ctx context.Context, typeID int64, scope Scope) map[string]Result {
	results := make(map[string]Result, len(scope.Markets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, m := range scope.Markets {
		wg.Add(1)
		go func(m Market) {
			defer wg.Done()
			res := a.fetchMarket(ctx, typeID, m, scope.Kind)

			outcome := "success"
			switch res.Status {
			case StatusEmpty:
				outcome = "empty"
			case StatusFailed:
				outcome = "failed"
			}
			marketQueriesTotal.WithLabelValues(m.Name, outcome).Inc()

			mu.Lock()
			results[m.Name] = res
			mu.Unlock()
		}(m)
	}
	wg.Wait()

	return results
}

// fetchMarket fetches both sides for one market via two parallel gated
// calls and merges them into a Result.
func (a *Aggregator) fetchMarket(ctx context.Context, typeID int64, m Market, kind ScopeKind) Result {
	var sellOrders, buyOrders []provider.Order
	var sellErr, buyErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sellOrders, sellErr = a.source.MarketOrders(ctx, m.RegionID, provider.SideSell, typeID)
	}()
	go func() {
		defer wg.Done()
		buyOrders, buyErr = a.source.MarketOrders(ctx, m.RegionID, provider.SideBuy, typeID)
	}()
	wg.Wait()

	if sellErr != nil || buyErr != nil {
		err := sellErr
		if err == nil {
			err = buyErr
		}
		a.logger.Warn().
			Err(err).
			Str("market", m.Name).
			Int64("type_id", typeID).
			Msg("Market query failed")
		return Result{Status: StatusFailed, Err: err}
	}

	// The hub filter applies only to regional markets.
	filterSystem := int64(0)
	if kind == KindPerRegion {
		filterSystem = m.SystemID
	}

	res := Result{Status: StatusEmpty}
	if q := bestQuote(sellOrders, provider.SideSell, m.Name, typeID, filterSystem); q != nil {
		res.BestSell = q
		res.Status = StatusSuccess
	}
	if q := bestQuote(buyOrders, provider.SideBuy, m.Name, typeID, filterSystem); q != nil {
		res.BestBuy = q
		res.Status = StatusSuccess
	}
	return res
}

// bestQuote picks min price for sells and max for buys, restricted to
// the hub system when filterSystem is non-zero. Nil when no order
// matches.
func bestQuote(orders []provider.Order, side provider.OrderSide, market string, typeID, filterSystem int64) *Quote {
	var best *provider.Order
	for i := range orders {
		o := &orders[i]
		if filterSystem != 0 && o.SystemID != filterSystem {
			continue
		}
		if best == nil {
			best = o
			continue
		}
		if side == provider.SideSell && o.Price < best.Price {
			best = o
		}
		if side == provider.SideBuy && o.Price > best.Price {
			best = o
		}
	}
	if best == nil {
		return nil
	}
	return &Quote{TypeID: typeID, Market: market, Side: side, Price: best.Price}
}

// LowestSell resolves the lowest sell price for an identifier in its
// pricing venue (Jita hub, or the global venue for PLEX). Returns
// ErrNoPrice when no matching sell order exists.
func (a *Aggregator) LowestSell(ctx context.Context, typeID int64) (float64, error) {
	m, kind := PricingMarket(typeID)

	orders, err := a.source.MarketOrders(ctx, m.RegionID, provider.SideSell, typeID)
	if err != nil {
		return 0, err
	}

	filterSystem := int64(0)
	if kind == KindPerRegion {
		filterSystem = m.SystemID
	}
	q := bestQuote(orders, provider.SideSell, m.Name, typeID, filterSystem)
	if q == nil {
		return 0, ErrNoPrice
	}
	return q.Price, nil
}
