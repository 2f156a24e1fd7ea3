package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/kitstore-backend/api/controllers"
	"github.com/angelmondragon/kitstore-backend/api/routes"
	"github.com/angelmondragon/kitstore-backend/internal/admin"
	"github.com/angelmondragon/kitstore-backend/internal/analytics"
	"github.com/angelmondragon/kitstore-backend/internal/auth"
	"github.com/angelmondragon/kitstore-backend/internal/banners"
	"github.com/angelmondragon/kitstore-backend/internal/cart"
	"github.com/angelmondragon/kitstore-backend/internal/checkout"
	"github.com/angelmondragon/kitstore-backend/internal/delivery"
	"github.com/angelmondragon/kitstore-backend/internal/leagues"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/internal/users"
	"github.com/angelmondragon/kitstore-backend/pkg/auth/session"
	"github.com/angelmondragon/kitstore-backend/pkg/bigquery"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/instance"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/metrics"
	"github.com/angelmondragon/kitstore-backend/pkg/migrate"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox"
	"github.com/angelmondragon/kitstore-backend/pkg/paystack"
	"github.com/angelmondragon/kitstore-backend/pkg/redis"
	"github.com/angelmondragon/kitstore-backend/pkg/storage/s3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		FilePath:    cfg.App.LogFile,
	})
	defer logg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, cleanup, err := buildServices(ctx, cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}
	defer cleanup()

	handler := routes.NewRouter(routes.Params{
		Config:      cfg,
		Logger:      logg,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Auth:        services.auth,
		Leagues:     services.leagues,
		Products:    services.products,
		Cart:        services.cart,
		Orders:      services.orders,
		Checkout:    services.checkout,
		Delivery:    services.delivery,
		Banners:     services.banners,
		Admin:       services.admin,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Readiness: []controllers.ReadinessCheck{
			{Name: "database", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown failed", err)
		}
	}
}

type apiServices struct {
	auth     auth.Service
	leagues  leagues.Service
	products products.Service
	cart     cart.Service
	orders   orders.Service
	checkout checkout.Service
	delivery delivery.Service
	banners  banners.Service
	admin    admin.Service
}

// buildServices wires repositories and optional cloud clients into the
// domain services. The returned cleanup closes any clients it opened.
func buildServices(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessions *session.Manager) (*apiServices, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logg.Error(context.Background(), "error closing client", err)
			}
		}
	}

	amounts, err := cfg.Checkout.Amounts()
	if err != nil {
		return nil, cleanup, err
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, cleanup, err
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		return nil, cleanup, err
	}

	leagueParams := leagues.ServiceParams{
		Repo:     leagues.NewRepository(conn),
		Products: productService,
		Logger:   logg,
	}
	if cfg.FeatureFlags.LeagueCacheEnabled {
		leagueParams.Cache = redisClient
	}
	leagueService, err := leagues.NewService(leagueParams)
	if err != nil {
		return nil, cleanup, err
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     cart.NewRepository(conn),
		Products: productRepo,
		Tx:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		return nil, cleanup, err
	}

	deliveryService, err := delivery.NewService(delivery.NewRepository(conn), amounts.DefaultDeliveryFee)
	if err != nil {
		return nil, cleanup, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              orderRepo,
		Tx:                dbClient,
		Outbox:            emitter,
		StrictTransitions: cfg.FeatureFlags.StrictStatusProgress,
	})
	if err != nil {
		return nil, cleanup, err
	}

	gateway, err := paystack.NewClient(cfg.Paystack.SecretKey, paystack.WithBaseURL(cfg.Paystack.BaseURL))
	if err != nil {
		return nil, cleanup, err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Orders:         orderRepo,
		Products:       productRepo,
		Sessions:       checkout.NewSessionRepository(conn),
		Delivery:       deliveryService,
		Gateway:        gateway,
		Outbox:         emitter,
		Logger:         logg,
		Amounts:        amounts,
		Currency:       cfg.Paystack.Currency,
		CallbackURL:    cfg.Paystack.CallbackURL,
		WebhookSecret:  cfg.Paystack.SecretKey,
		VerifyPayments: cfg.FeatureFlags.VerifyPayments,
		GracePeriod:    cfg.Checkout.PaymentGracePeriod,
		AbandonAfter:   cfg.Checkout.PaymentAbandonTTL,
	})
	if err != nil {
		return nil, cleanup, err
	}

	var revenue analytics.RevenueService
	if cfg.GCP.ProjectID != "" {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, bq.Close)
		revenue, err = analytics.NewRevenueService(bq, cfg.BigQuery.OrdersTable)
		if err != nil {
			return nil, cleanup, err
		}
	} else {
		logg.Warn(ctx, "gcp project not configured, revenue analytics disabled")
	}

	adminService, err := admin.NewService(admin.ServiceParams{
		Orders:   orderService,
		Users:    userRepo,
		Products: productRepo,
		Revenue:  revenue,
	})
	if err != nil {
		return nil, cleanup, err
	}

	bannerRepo := banners.NewRepository(conn)
	var bannerService banners.Service
	if cfg.Storage.Bucket != "" {
		uploader, err := s3.NewClient(ctx, cfg.AWS, cfg.Storage, logg)
		if err != nil {
			return nil, cleanup, err
		}
		bannerService, err = banners.NewService(bannerRepo, uploader)
		if err != nil {
			return nil, cleanup, err
		}
	} else {
		logg.Warn(ctx, "s3 bucket not configured, banner uploads disabled")
		bannerService, err = banners.NewService(bannerRepo, nil)
		if err != nil {
			return nil, cleanup, err
		}
	}

	return &apiServices{
		auth:     authService,
		leagues:  leagueService,
		products: productService,
		cart:     cartService,
		orders:   orderService,
		checkout: checkoutService,
		delivery: deliveryService,
		banners:  bannerService,
		admin:    adminService,
	}, cleanup, nil
}
