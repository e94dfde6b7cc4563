package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/order"
	"github.com/evermart/storefront/internal/domain/pricing"
	"github.com/evermart/storefront/internal/domain/product"
	"github.com/evermart/storefront/internal/domain/report"
	"github.com/evermart/storefront/internal/handler"
	"github.com/evermart/storefront/internal/repository"
	"github.com/evermart/storefront/pkg/health"
	"github.com/evermart/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + schema.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Probes.
	checker := health.NewChecker()
	checker.Register("postgres", health.Readiness, 5*time.Second, 3, health.DatabaseProbe(pool))
	checker.Register("goroutines", health.Liveness, time.Second, 3, health.GoroutineProbe(10000))
	checker.Start(ctx, 10*time.Second)
	checker.SetReady(true)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	catalog := product.NewService(productRepo)
	carts := cart.NewService(cartRepo, productRepo)
	pricer := pricing.NewEngine(couponRepo)
	orders := order.NewService(pricer, productRepo, orderRepo)
	reports := report.NewService(orderRepo)

	// HTTP surface.
	security := handler.NewSecurity(apikeyRepo, []byte(cfg.APIKeyPepper))
	h := handler.NewHandler(catalog, carts, couponRepo, pricer, orders, reports, security)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", checker.LiveHandler)
	mux.HandleFunc("/readyz", checker.ReadyHandler)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-User-ID", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: stop reporting ready, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		checker.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		checker.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
