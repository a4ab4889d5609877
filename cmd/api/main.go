package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/influencelytic/marketplace/internal/config"
	"github.com/influencelytic/marketplace/internal/handler"
	"github.com/influencelytic/marketplace/internal/infra/postgresql"
	"github.com/influencelytic/marketplace/internal/infra/postgresql/migrations"
	infraredis "github.com/influencelytic/marketplace/internal/infra/redis"
	"github.com/influencelytic/marketplace/internal/observability"
	"github.com/influencelytic/marketplace/internal/provider"
	"github.com/influencelytic/marketplace/internal/queue"
	"github.com/influencelytic/marketplace/internal/repository"
	"github.com/influencelytic/marketplace/internal/service"
	"github.com/influencelytic/marketplace/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.DispatcherConcurrency, logger)

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.PaymentRateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	dedup, err := infraredis.NewEventDedup(rdb)
	if err != nil {
		logger.Fatal("event dedup initialization failed", zap.Error(err))
	}

	stripeClient, err := provider.NewStripeClient(cfg.StripeAPIKey)
	if err != nil {
		logger.Fatal("stripe client initialization failed", zap.Error(err))
	}

	var mailer provider.Mailer
	if cfg.SendGridAPIKey != "" {
		sendgrid, err := provider.NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromEmail)
		if err != nil {
			logger.Fatal("sendgrid mailer initialization failed", zap.Error(err))
		}
		mailer = sendgrid
	} else {
		logger.Warn("sendgrid api key not configured, email delivery disabled")
	}

	metrics := observability.NewMetrics()

	campaignRepo := repository.NewGormCampaignRepo(db)
	applicationRepo := repository.NewGormApplicationRepo(db)
	transactionRepo := repository.NewGormTransactionRepo(db)
	profileRepo := repository.NewGormProfileRepo(db)
	notificationRepo := repository.NewGormNotificationRepo(db)

	campaignService, err := service.NewCampaignService(campaignRepo, applicationRepo, logger)
	if err != nil {
		logger.Fatal("campaign service initialization failed", zap.Error(err))
	}

	applicationService, err := service.NewApplicationService(applicationRepo, campaignRepo, publisher, logger)
	if err != nil {
		logger.Fatal("application service initialization failed", zap.Error(err))
	}

	paymentService, err := service.NewPaymentService(
		transactionRepo,
		applicationRepo,
		campaignRepo,
		profileRepo,
		stripeClient,
		rateLimiter,
		publisher,
		metrics,
		cfg.FrontendURL,
		logger,
	)
	if err != nil {
		logger.Fatal("payment service initialization failed", zap.Error(err))
	}

	webhookService, err := service.NewWebhookService(paymentService, profileRepo, dedup, publisher, metrics, logger)
	if err != nil {
		logger.Fatal("webhook service initialization failed", zap.Error(err))
	}

	notificationService, err := service.NewNotificationService(notificationRepo, logger)
	if err != nil {
		logger.Fatal("notification service initialization failed", zap.Error(err))
	}

	dispatchWorker, err := service.NewDispatchWorker(
		notificationRepo,
		profileRepo,
		consumer,
		mailer,
		metrics,
		cfg.DispatcherConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatch worker initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "marketplace-api",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(transport.CorrelationMiddleware())
	app.Use(transport.IdentityMiddleware())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, rabbit)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterCampaignRoutes(app, campaignService); err != nil {
		logger.Fatal("campaign routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterApplicationRoutes(app, applicationService); err != nil {
		logger.Fatal("application routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterPaymentRoutes(app, paymentService); err != nil {
		logger.Fatal("payment routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterNotificationRoutes(app, notificationService); err != nil {
		logger.Fatal("notification routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterWebhookRoutes(app, webhookService, cfg.StripeWebhookSecret); err != nil {
		logger.Fatal("webhook routes registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("marketplace api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return dispatchWorker.Start(groupCtx)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("service terminated", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
