package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muniworks/land-office/internal/ago"
	"github.com/muniworks/land-office/internal/auth"
	"github.com/muniworks/land-office/internal/config"
	"github.com/muniworks/land-office/internal/handler"
	"github.com/muniworks/land-office/internal/infra/postgresql"
	"github.com/muniworks/land-office/internal/infra/postgresql/migrations"
	infraredis "github.com/muniworks/land-office/internal/infra/redis"
	"github.com/muniworks/land-office/internal/observability"
	"github.com/muniworks/land-office/internal/queue"
	"github.com/muniworks/land-office/internal/repository"
	"github.com/muniworks/land-office/internal/service"
	"github.com/muniworks/land-office/internal/transport"
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("land-office api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer broker.Close()

	agoClient, err := ago.NewRESTClient(cfg.ArcGISSyncURL)
	if err != nil {
		return fmt.Errorf("sync client initialization failed: %w", err)
	}

	verifier, err := auth.NewTokenVerifier(cfg.AuthTokenSecret)
	if err != nil {
		return fmt.Errorf("token verifier initialization failed: %w", err)
	}

	metrics := observability.NewMetrics()

	entityRepo := repository.NewGormEntityRepo(db)
	userRepo := repository.NewGormUserRepo(db)
	auditRepo := repository.NewGormAuditRepo(db)
	activityRepo := repository.NewGormActivityRepo(db)
	notificationRepo := repository.NewGormNotificationRepo(db)
	retryRepo := repository.NewGormSyncRetryRepo(db)

	effects := service.NewEffectsProcessor(auditRepo, activityRepo, notificationRepo, userRepo, metrics, logger)
	publisher := queue.NewRabbitMQPublisher(broker)
	dispatcher := service.NewTransitionDispatcher(publisher, effects, metrics, logger)

	syncService := service.NewSyncService(entityRepo, retryRepo, activityRepo, userRepo, notificationRepo, agoClient, metrics, logger)
	workflowService := service.NewWorkflowService(entityRepo, dispatcher, syncService, metrics, logger)
	entityService := service.NewEntityService(entityRepo, dispatcher, logger)
	logService := service.NewLogService(auditRepo, activityRepo, entityRepo, userRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)

	sweeper, err := service.NewSweeper(retryRepo, syncService,
		time.Duration(cfg.SyncSweepIntervalSec)*time.Second, cfg.SyncSweepLimit, logger)
	if err != nil {
		return fmt.Errorf("sweeper initialization failed: %w", err)
	}

	consumer := queue.NewRabbitMQConsumer(broker, cfg.EffectsConcurrency, logger)
	defer consumer.Close()

	worker, err := service.NewEffectsWorker(consumer, effects, cfg.EffectsConcurrency, logger)
	if err != nil {
		return fmt.Errorf("effects worker initialization failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.NewErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/", auth.Middleware(verifier, userRepo))
	writeGuard := auth.RateLimitMiddleware(limiter)

	if err := handler.RegisterEntityRoutes(api, entityService, writeGuard); err != nil {
		return fmt.Errorf("entity routes registration failed: %w", err)
	}
	if err := handler.RegisterWorkflowRoutes(api, workflowService, logService, writeGuard); err != nil {
		return fmt.Errorf("workflow routes registration failed: %w", err)
	}
	if err := handler.RegisterNotificationRoutes(api, notificationService); err != nil {
		return fmt.Errorf("notification routes registration failed: %w", err)
	}
	if err := handler.RegisterSyncRoutes(api, syncService, sweeper, writeGuard); err != nil {
		return fmt.Errorf("sync routes registration failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("land-office api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return worker.Start(gctx)
	})

	g.Go(func() error {
		return sweeper.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
