package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/kitstore-backend/internal/checkout"
	"github.com/angelmondragon/kitstore-backend/internal/cron"
	"github.com/angelmondragon/kitstore-backend/internal/delivery"
	"github.com/angelmondragon/kitstore-backend/internal/leagues"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/instance"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/metrics"
	"github.com/angelmondragon/kitstore-backend/pkg/migrate"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox"
	"github.com/angelmondragon/kitstore-backend/pkg/paystack"
	"github.com/angelmondragon/kitstore-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		FilePath:    cfg.App.LogFile,
	})
	defer logg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})

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

	jobs, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockName, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		Outbox:      outboxRepo,
		DeadLetters: outbox.NewDLQRepository(conn),
		Retention:   cfg.Outbox.Retention,
	})
	if err != nil {
		return nil, err
	}

	productRepo := products.NewRepository(conn)
	productService, err := products.NewService(productRepo)
	if err != nil {
		return nil, err
	}
	leagueService, err := leagues.NewService(leagues.ServiceParams{
		Repo:     leagues.NewRepository(conn),
		Products: productService,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}
	teamLink, err := cron.NewTeamLinkJob(logg, leagueService, 0)
	if err != nil {
		return nil, err
	}

	amounts, err := cfg.Checkout.Amounts()
	if err != nil {
		return nil, err
	}
	deliveryService, err := delivery.NewService(delivery.NewRepository(conn), amounts.DefaultDeliveryFee)
	if err != nil {
		return nil, err
	}
	gateway, err := paystack.NewClient(cfg.Paystack.SecretKey, paystack.WithBaseURL(cfg.Paystack.BaseURL))
	if err != nil {
		return nil, err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Orders:         orders.NewRepository(conn),
		Products:       productRepo,
		Sessions:       checkout.NewSessionRepository(conn),
		Delivery:       deliveryService,
		Gateway:        gateway,
		Outbox:         outbox.NewService(outboxRepo, logg),
		Logger:         logg,
		Amounts:        amounts,
		Currency:       cfg.Paystack.Currency,
		VerifyPayments: cfg.FeatureFlags.VerifyPayments,
		GracePeriod:    cfg.Checkout.PaymentGracePeriod,
		AbandonAfter:   cfg.Checkout.PaymentAbandonTTL,
	})
	if err != nil {
		return nil, err
	}
	reconcile, err := cron.NewPaymentReconcileJob(logg, checkoutService, 0)
	if err != nil {
		return nil, err
	}

	return []cron.Job{retention, teamLink, reconcile}, nil
}
