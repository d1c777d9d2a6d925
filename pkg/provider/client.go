// Package provider is the outbound HTTP boundary to the external data
// providers: name lookup, market order books, reference data, and
// loyalty-store offers. Every call is routed through the provider gate
// and degrades to a typed error instead of raising on upstream trouble.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/pkg/gate"
)

// Prometheus metrics for provider calls.
var (
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_requests_total",
		Help: "Total provider requests by endpoint and status",
	}, []string{"endpoint", "status"})

	providerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_request_duration_seconds",
		Help:    "Provider request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	providerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_errors_total",
		Help: "Total provider errors by class",
	}, []string{"class"})
)

// Config holds the provider client configuration.
type Config struct {
	// User-Agent header attached to every outbound request. Required:
	// the upstream providers mandate an identifying string.
	UserAgent string

	// Base URLs. Defaults point at the public providers; tests swap in
	// an httptest server.
	MarketBaseURL string // ESI-compatible API root
	LookupBaseURL string // name -> identifier lookup service
	DatasetURL    string // bulk name/identifier dataset

	// Call-scoped timeouts. Each applies to the whole attempt,
	// including time spent queued at the gate.
	LookupTimeout  time.Duration
	OrdersTimeout  time.Duration
	OffersTimeout  time.Duration
	DatasetTimeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:      userAgent,
		MarketBaseURL:  "https://esi.evetech.net/latest",
		LookupBaseURL:  "https://www.fuzzwork.co.uk/api",
		DatasetURL:     "https://eve-files.com/chribba/typeid.txt",
		LookupTimeout:  5 * time.Second,
		OrdersTimeout:  7 * time.Second,
		OffersTimeout:  10 * time.Second,
		DatasetTimeout: 30 * time.Second,
	}
}

// Client is the gated upstream client.
type Client struct {
	httpClient *http.Client
	gate       *gate.Gate
	config     Config
	logger     zerolog.Logger
}

// New creates a provider client. All calls are scheduled on g.
func New(cfg Config, g *gate.Gate, logger zerolog.Logger) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if g == nil {
		return nil, fmt.Errorf("gate is required")
	}

	def := DefaultConfig(cfg.UserAgent)
	if cfg.MarketBaseURL == "" {
		cfg.MarketBaseURL = def.MarketBaseURL
	}
	if cfg.LookupBaseURL == "" {
		cfg.LookupBaseURL = def.LookupBaseURL
	}
	if cfg.DatasetURL == "" {
		cfg.DatasetURL = def.DatasetURL
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = def.LookupTimeout
	}
	if cfg.OrdersTimeout <= 0 {
		cfg.OrdersTimeout = def.OrdersTimeout
	}
	if cfg.OffersTimeout <= 0 {
		cfg.OffersTimeout = def.OffersTimeout
	}
	if cfg.DatasetTimeout <= 0 {
		cfg.DatasetTimeout = def.DatasetTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       g,
		config:     cfg,
		logger:     logger.With().Str("component", "provider").Logger(),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// LookupTypeID resolves a free-text name to an identifier via the
// remote lookup service. The response may be a single object or an
// array of candidates; for arrays the case-insensitive exact name match
// wins, otherwise the first candidate (the provider's own relevance
// ranking). Timeouts and non-2xx responses degrade to ErrNotFound for
// this attempt.
func (c *Client) LookupTypeID(ctx context.Context, name string) (int64, error) {
	u := fmt.Sprintf("%s/typeid.php?typename=%s", c.config.LookupBaseURL, url.QueryEscape(name))

	body, err := c.getBody(ctx, "lookup", u, c.config.LookupTimeout)
	if err != nil {
		c.logger.Warn().Err(err).Str("name", name).Msg("Name lookup failed")
		return 0, ErrNotFound
	}

	id, ok := parseLookupResponse(body, name)
	if !ok {
		c.logger.Debug().Str("name", name).Msg("Name lookup returned no match")
		return 0, ErrNotFound
	}
	return id, nil
}

// parseLookupResponse extracts the identifier from an object or array
// lookup response.
func parseLookupResponse(body []byte, name string) (int64, bool) {
	lower := strings.ToLower(name)

	var candidates []typeIDCandidate
	if err := json.Unmarshal(body, &candidates); err == nil {
		if len(candidates) == 0 {
			return 0, false
		}
		pick := candidates[0]
		for _, cand := range candidates {
			if strings.ToLower(cand.TypeName) == lower {
				pick = cand
				break
			}
		}
		id, err := pick.TypeID.Int64()
		return id, err == nil && id > 0
	}

	var single typeIDCandidate
	if err := json.Unmarshal(body, &single); err != nil {
		return 0, false
	}
	id, err := single.TypeID.Int64()
	return id, err == nil && id > 0
}

// MarketOrders fetches one side of a region's order book for a type.
func (c *Client) MarketOrders(ctx context.Context, regionID int64, side OrderSide, typeID int64) ([]Order, error) {
	u := fmt.Sprintf("%s/markets/%d/orders/?datasource=tranquility&order_type=%s&type_id=%d",
		c.config.MarketBaseURL, regionID, side, typeID)

	var orders []Order
	if err := c.getJSON(ctx, "orders", u, c.config.OrdersTimeout, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// TypeInfo fetches the reference record for a type identifier.
func (c *Client) TypeInfo(ctx context.Context, typeID int64) (*TypeInfo, error) {
	u := fmt.Sprintf("%s/universe/types/%d/?datasource=tranquility", c.config.MarketBaseURL, typeID)

	var info TypeInfo
	if err := c.getJSON(ctx, "types", u, c.config.LookupTimeout, &info); err != nil {
		return nil, err
	}
	if info.TypeID == 0 {
		info.TypeID = typeID
	}
	return &info, nil
}

// GroupInfo fetches the reference record for a group identifier.
func (c *Client) GroupInfo(ctx context.Context, groupID int64) (*GroupInfo, error) {
	u := fmt.Sprintf("%s/universe/groups/%d/?datasource=tranquility", c.config.MarketBaseURL, groupID)

	var info GroupInfo
	if err := c.getJSON(ctx, "groups", u, c.config.LookupTimeout, &info); err != nil {
		return nil, err
	}
	if info.GroupID == 0 {
		info.GroupID = groupID
	}
	return &info, nil
}

// LoyaltyOffers fetches the loyalty-store offer list for a corporation.
func (c *Client) LoyaltyOffers(ctx context.Context, corpID int64) ([]LoyaltyOffer, error) {
	u := fmt.Sprintf("%s/loyalty/stores/%d/offers/?datasource=tranquility", c.config.MarketBaseURL, corpID)

	var offers []LoyaltyOffer
	if err := c.getJSON(ctx, "offers", u, c.config.OffersTimeout, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// FetchTypeDataset downloads the bulk name/identifier dataset. The
// caller owns the returned body.
func (c *Client) FetchTypeDataset(ctx context.Context) ([]byte, error) {
	return c.getBody(ctx, "dataset", c.config.DatasetURL, c.config.DatasetTimeout)
}

// getJSON performs a gated GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, timeout time.Duration, v any) error {
	body, err := c.getBody(ctx, endpoint, rawURL, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Class: ErrorClassServer, Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// getBody performs a gated GET and returns the response body. The
// timeout covers the whole attempt, gate wait included.
func (c *Client) getBody(ctx context.Context, endpoint, rawURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		providerRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var body []byte
	err := c.gate.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			providerErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			providerRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &Error{Class: ErrorClassNetwork, Endpoint: endpoint, Err: err}
		}
		defer resp.Body.Close()

		providerRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			providerErrorsTotal.WithLabelValues(string(class)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Provider request error")
			return &Error{StatusCode: resp.StatusCode, Class: class, Endpoint: endpoint}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			providerErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &Error{Class: ErrorClassNetwork, Endpoint: endpoint, Err: err}
		}
		return nil
	})
	if err != nil {
		// Context expiry while queued or in flight counts as a network
		// failure for this attempt.
		if ctx.Err() != nil {
			return nil, &Error{Class: ErrorClassNetwork, Endpoint: endpoint, Err: ctx.Err()}
		}
		return nil, err
	}
	return body, nil
}

// classifyStatus categorizes an HTTP status for observability.
func classifyStatus(status int) ErrorClass {
	if status >= 400 && status < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}
