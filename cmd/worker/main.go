package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/kitstore-backend/internal/analytics"
	"github.com/angelmondragon/kitstore-backend/internal/notifications"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/pkg/bigquery"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/email"
	"github.com/angelmondragon/kitstore-backend/pkg/instance"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/metrics"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/registry"
	"github.com/angelmondragon/kitstore-backend/pkg/pubsub"
	"github.com/angelmondragon/kitstore-backend/pkg/redis"
	"github.com/angelmondragon/kitstore-backend/pkg/sms"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		logg.Error(ctx, "failed to build event registry", err)
		os.Exit(1)
	}
	processed, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	deps := []dependency{
		{name: "database", pinger: dbClient},
		{name: "redis", pinger: redisClient},
		{name: "pubsub", pinger: pubsubClient},
	}

	notificationConsumer, err := buildNotificationConsumer(ctx, cfg, logg, dbClient, pubsubClient, eventRegistry, processed)
	if err != nil {
		logg.Error(ctx, "failed to create notification consumer", err)
		os.Exit(1)
	}
	consumers := []namedConsumer{{name: "notifications", consumer: notificationConsumer}}

	if cfg.FeatureFlags.AnalyticsIngestion {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bq.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		writer, err := analytics.NewWriter(bq, cfg.BigQuery.OrdersTable, analytics.RetryPolicy{})
		if err != nil {
			logg.Error(ctx, "failed to create analytics writer", err)
			os.Exit(1)
		}
		analyticsConsumer, err := analytics.NewConsumer(analytics.ConsumerParams{
			Subscription: pubsubClient.AnalyticsSubscription(),
			Registry:     eventRegistry,
			Idempotency:  processed,
			Writer:       writer,
			Logger:       logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create analytics consumer", err)
			os.Exit(1)
		}
		deps = append(deps, dependency{name: "bigquery", pinger: bq})
		consumers = append(consumers, namedConsumer{name: "analytics", consumer: analyticsConsumer})
	} else {
		logg.Warn(ctx, "analytics ingestion disabled")
	}

	service, err := NewService(ServiceParams{
		Logger:       logg,
		Dependencies: deps,
		Consumers:    consumers,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func buildNotificationConsumer(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, pubsubClient *pubsub.Client, eventRegistry *registry.EventRegistry, processed *idempotency.Manager) (*notifications.Consumer, error) {
	params := notifications.DispatcherParams{
		Metrics:      metrics.NewNotificationMetrics(prometheus.DefaultRegisterer),
		Logger:       logg,
		TrackBaseURL: cfg.App.PublicURL,
	}
	if cfg.FeatureFlags.EmailNotifications && cfg.Email.Enabled() {
		sender, err := email.NewSESSender(ctx, cfg.AWS, cfg.Email)
		if err != nil {
			return nil, err
		}
		params.Email = sender
	} else {
		logg.Warn(ctx, "email notifications disabled")
	}
	if cfg.FeatureFlags.SMSNotifications && cfg.SMS.Enabled() {
		client, err := sms.NewClient(cfg.SMS)
		if err != nil {
			return nil, err
		}
		params.SMS = client
	} else {
		logg.Warn(ctx, "sms notifications disabled")
	}

	return notifications.NewConsumer(notifications.ConsumerParams{
		Subscription: pubsubClient.NotificationSubscription(),
		Orders:       orders.NewRepository(dbClient.DB()),
		Registry:     eventRegistry,
		Idempotency:  processed,
		Dispatcher:   notifications.NewDispatcher(params),
		Logger:       logg,
	})
}
