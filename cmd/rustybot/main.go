// Command rustybot runs the market-data service: it wires the gated
// provider client, resolution chain, aggregation, costing, and session
// components behind a small HTTP surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rustybot/rustybot/internal/config"
	"github.com/rustybot/rustybot/pkg/cost"
	"github.com/rustybot/rustybot/pkg/gate"
	"github.com/rustybot/rustybot/pkg/logging"
	"github.com/rustybot/rustybot/pkg/market"
	"github.com/rustybot/rustybot/pkg/provider"
	"github.com/rustybot/rustybot/pkg/refgraph"
	"github.com/rustybot/rustybot/pkg/resolver"
	"github.com/rustybot/rustybot/pkg/scan"
	"github.com/rustybot/rustybot/pkg/service"
	"github.com/rustybot/rustybot/pkg/session"
)

func main() {
	cfg, err := config.Load(os.Getenv("RUSTYBOT_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Service failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providerGate, err := gate.New(gate.Config{
		Name:          "provider",
		MinInterval:   cfg.Gates.ProviderInterval,
		MaxConcurrent: cfg.Gates.ProviderConcurrency,
	}, logger)
	if err != nil {
		return fmt.Errorf("provider gate: %w", err)
	}
	interactiveGate, err := gate.New(gate.Config{
		Name:          "interactive",
		MinInterval:   cfg.Gates.InteractiveInterval,
		MaxConcurrent: cfg.Gates.InteractiveConcurrency,
	}, logger)
	if err != nil {
		return fmt.Errorf("interactive gate: %w", err)
	}

	client, err := provider.New(provider.Config{
		UserAgent:     cfg.UserAgent,
		MarketBaseURL: cfg.Provider.MarketBaseURL,
		LookupBaseURL: cfg.Provider.LookupBaseURL,
		DatasetURL:    cfg.Provider.DatasetURL,
	}, providerGate, logger)
	if err != nil {
		return fmt.Errorf("provider client: %w", err)
	}

	index := resolver.NewNameIndex(logger)
	go loadDataset(ctx, client, index, logger)

	res := resolver.New(index, client, logger)
	aggregator := market.NewAggregator(client, logger)
	calculator := cost.NewCalculator(aggregator, res, logger)
	analyzer := scan.NewAnalyzer(refgraph.NewClassifier(client, logger), logger)
	sessions := session.NewStore(cfg.SessionTTL, nil, logger)

	svc := service.New(res, aggregator, calculator, cost.UnavailableRecipeSource{},
		client, analyzer, sessions, logger)

	app := newApp(svc, index, sessions, interactiveGate, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("Server starting")
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

// loadDataset fetches the bulk name dataset and flips the index to
// ready. Until then the resolver serves from the remote layer only.
func loadDataset(ctx context.Context, client *provider.Client, index *resolver.NameIndex, logger zerolog.Logger) {
	data, err := client.FetchTypeDataset(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Bulk dataset fetch failed; exact-match layer disabled")
		return
	}
	if err := index.Load(data); err != nil {
		logger.Error().Err(err).Msg("Bulk dataset load failed")
	}
}

// newApp builds the HTTP surface. Each lookup route runs through the
// interactive gate so reply pacing is enforced at the boundary.
func newApp(svc *service.Service, index *resolver.NameIndex, sessions *session.Store, g *gate.Gate, logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "rustybot", "status": "ok"})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":          "ok",
			"index_ready":     index.Ready(),
			"sessions_active": sessions.Len(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/market", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
		}
		quantity, _ := strconv.ParseInt(c.Query("quantity", "1"), 10, 64)

		return reply(c, g, func(ctx context.Context, sink service.Sink) error {
			return svc.MarketLookup(ctx, name, quantity, sink)
		})
	})

	app.Get("/item", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
		}
		return reply(c, g, func(ctx context.Context, sink service.Sink) error {
			return svc.ItemInfo(ctx, name, sink)
		})
	})

	app.Get("/build", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
		}
		return reply(c, g, func(ctx context.Context, sink service.Sink) error {
			return svc.BuildCost(ctx, name, sink)
		})
	})

	app.Get("/lp", func(c *fiber.Ctx) error {
		corp, item := c.Query("corp"), c.Query("item")
		if corp == "" || item == "" {
			return fiber.NewError(fiber.StatusBadRequest, "corp and item query parameters are required")
		}
		return reply(c, g, func(ctx context.Context, sink service.Sink) error {
			return svc.LPOfferLookup(ctx, corp, item, sink)
		})
	})

	app.Get("/lp/browse", func(c *fiber.Ctx) error {
		corp := c.Query("corp")
		if corp == "" {
			return fiber.NewError(fiber.StatusBadRequest, "corp query parameter is required")
		}

		var page *service.BrowsePage
		err := g.Do(c.UserContext(), func(ctx context.Context) error {
			var err error
			page, err = svc.LPBrowse(ctx, corp, "")
			return err
		})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(browsePageJSON(page))
	})

	app.Post("/lp/:session/page", func(c *fiber.Ctx) error {
		forward := c.Query("dir", "next") != "prev"

		page, err := svc.LPPage(c.UserContext(), c.Params("session"), forward)
		if errors.Is(err, session.ErrExpired) {
			return fiber.NewError(fiber.StatusGone, "session expired")
		}
		if err != nil {
			return err
		}
		return c.JSON(browsePageJSON(page))
	})

	app.Post("/lp/:session/select", func(c *fiber.Ctx) error {
		typeID, err := strconv.ParseInt(c.Query("type_id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "type_id query parameter is required")
		}

		sink := &bufferSink{}
		err = g.Do(c.UserContext(), func(ctx context.Context) error {
			return svc.LPSelect(ctx, c.Params("session"), typeID, sink)
		})
		if errors.Is(err, session.ErrExpired) {
			return fiber.NewError(fiber.StatusGone, "session expired")
		}
		if err != nil {
			return err
		}
		return c.SendString(strings.Join(sink.messages, "\n"))
	})

	app.Post("/dscan", func(c *fiber.Ctx) error {
		var out *service.ScanReply
		err := g.Do(c.UserContext(), func(ctx context.Context) error {
			var err error
			out, err = svc.DScan(ctx, string(c.Body()), "")
			return err
		})
		if errors.Is(err, scan.ErrMalformed) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"session_id": out.SessionID, "report": out.Text})
	})

	app.Get("/dscan/:session/raw", func(c *fiber.Ctx) error {
		raw, err := svc.DScanRaw(c.UserContext(), c.Params("session"))
		if errors.Is(err, session.ErrExpired) {
			return fiber.NewError(fiber.StatusGone, "session expired")
		}
		if err != nil {
			return err
		}
		return c.SendString(raw)
	})

	return app
}

// browsePageJSON renders a browse page for the JSON surface.
func browsePageJSON(page *service.BrowsePage) fiber.Map {
	return fiber.Map{
		"session_id":  page.SessionID,
		"page":        page.Page,
		"total_pages": page.TotalPages,
		"text":        page.Text,
	}
}

// reply runs a sink-based flow through the interactive gate and sends
// the collected reply as plain text.
func reply(c *fiber.Ctx, g *gate.Gate, flow func(ctx context.Context, sink service.Sink) error) error {
	sink := &bufferSink{}
	if err := g.Do(c.UserContext(), func(ctx context.Context) error {
		return flow(ctx, sink)
	}); err != nil {
		return err
	}
	return c.SendString(strings.Join(sink.messages, "\n"))
}

// bufferSink collects flow replies for the HTTP response.
type bufferSink struct {
	messages []string
}

func (b *bufferSink) Send(ctx context.Context, message string) error {
	b.messages = append(b.messages, message)
	return nil
}
