package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/instrument-catalog/internal/domain/compare"
	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
	"github.com/xenking/instrument-catalog/internal/handler"
	"github.com/xenking/instrument-catalog/internal/render"
	"github.com/xenking/instrument-catalog/internal/storage/postgres"
	"github.com/xenking/instrument-catalog/internal/view"
	"github.com/xenking/instrument-catalog/pkg/health"
	"github.com/xenking/instrument-catalog/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))
	ctx = zctx.Base(ctx, lg)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Repositories and domain services.
	catalog := instrument.NewCatalog(postgres.NewInstrumentRepository(pool))
	augmenter, err := details.NewAugmenter(postgres.NewDetailsRepository(pool), details.AugmenterConfig{
		FetchTimeout:   cfg.Details.FetchTimeout,
		BloomFPR:       cfg.Details.BloomFPR,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create details augmenter")
	}
	comparisons := compare.NewStore(cfg.Compare.SessionTTL)

	// Initial load: catalog snapshot and details index in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return catalog.Load(gctx)
	})
	g.Go(func() error {
		return augmenter.RebuildIndex(gctx)
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "initial load")
	}
	lg.Info("Catalog loaded", zap.Int("instruments", catalog.Len()))

	if cfg.Catalog.RefreshInterval > 0 {
		catalog.StartRefresh(ctx, cfg.Catalog.RefreshInterval, func(ctx context.Context) {
			if err := augmenter.RebuildIndex(ctx); err != nil {
				zctx.From(ctx).Warn("Rebuild details index", zap.Error(err))
			}
		})
	}
	augmenter.StartIndexRefresh(ctx, cfg.Details.IndexRefresh)
	if cfg.Compare.SessionTTL > 0 {
		comparisons.StartCleanup(ctx, cfg.Compare.SessionTTL/4)
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Check{
		Name:    "postgres",
		Kind:    health.Readiness,
		Timeout: 5 * time.Second,
		Func:    health.PingCheck(pool),
	})
	healthSvc.Add(health.Check{
		Name: "catalog",
		Kind: health.Readiness,
		Func: health.LoadedCheck("catalog", catalog),
	})
	healthSvc.Add(health.Check{
		Name: "goroutines",
		Kind: health.Liveness,
		Func: health.GoroutineCountCheck(10000),
	})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	renderer, err := render.New()
	if err != nil {
		return errors.Wrap(err, "parse templates")
	}
	h, err := handler.New(
		handler.Config{
			RenderWait:    cfg.Details.RenderWait,
			FragmentWait:  cfg.Details.FetchTimeout,
			MeterProvider: m.MeterProvider(),
		},
		catalog,
		augmenter,
		comparisons,
		renderer,
		view.NewFormatter(view.DisplayConfig{
			Locale:           cfg.Display.Locale,
			CurrencyPrefix:   cfg.Display.CurrencyPrefix,
			PlaceholderImage: cfg.Display.PlaceholderImage,
			ImageBaseURL:     cfg.ImageBaseURL,
		}),
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	go limiter.Run(ctx)

	// Mux: health endpoints, pages, JSON API and static assets on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux, limiter.Middleware())
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.Instrument("instrument-catalog", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
			httpmiddleware.Session(httpmiddleware.SessionConfig{
				CookieName: cfg.Compare.Cookie,
				Secure:     cfg.Compare.Secure,
				MaxAge:     cfg.Compare.SessionTTL,
			}),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
