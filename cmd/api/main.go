package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tourism-service/internal/api/http"
	"github.com/spec-kit/tourism-service/internal/api/http/handlers"
	"github.com/spec-kit/tourism-service/internal/auth"
	"github.com/spec-kit/tourism-service/internal/cache"
	"github.com/spec-kit/tourism-service/internal/config"
	"github.com/spec-kit/tourism-service/internal/events"
	"github.com/spec-kit/tourism-service/internal/notify"
	"github.com/spec-kit/tourism-service/internal/observability"
	"github.com/spec-kit/tourism-service/internal/persistence"
	"github.com/spec-kit/tourism-service/internal/repository"
	"github.com/spec-kit/tourism-service/internal/service"
	"github.com/spec-kit/tourism-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.UsesDefaultSecret() && !cfg.App.IsDevelopment() {
		logger.Warn("AUTH_JWT_SECRET is not set; using the insecure fallback secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, redisUp := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.Pool
	accountRepo := repository.NewAccountRepository(pool)
	tourRepo := repository.NewTourRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	campaignRepo := repository.NewCampaignRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	mailer, err := notify.NewMailer(cfg.Notification, logger)
	if err != nil {
		logger.Fatal("failed to configure mailer", zap.Error(err))
	}
	queued := cfg.Notification.UseQueue && redisUp
	var notifier notify.Notifier = notify.NewDirectNotifier(mailer, metrics)
	if queued {
		notifier = notify.NewQueueNotifier(redis.Client, cfg.Notification.QueueKey)
	} else if cfg.Notification.UseQueue {
		logger.Warn("redis unavailable; sending notifications inline")
	}
	renderer := notify.NewRenderer(cfg.Notification.ClientURL, time.Duration(cfg.Auth.PasswordResetTTLMinutes)*time.Minute)

	var tourCache service.TourCache
	if cfg.Cache.Enabled && redisUp {
		tourCache = cache.NewTourCache(redis.Client, cfg.Cache.TTL, logger)
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		AccountRepo:       accountRepo,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	accountService := service.NewAccountService(accountRepo, cfg.Auth.BcryptCost, logger)
	tourService := service.NewTourService(tourRepo, tourCache, logger)
	bookingService := service.NewBookingService(service.BookingDependencies{
		BookingRepo: bookingRepo,
		TourRepo:    tourRepo,
		AccountRepo: accountRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	analyticsService := service.NewAnalyticsService(reportRepo)
	crmService := service.NewCRMService(service.CRMDependencies{
		AccountRepo:  accountRepo,
		BookingRepo:  bookingRepo,
		ReportRepo:   reportRepo,
		CampaignRepo: campaignRepo,
		Logger:       logger,
	})
	service.NewNotificationService(dispatcher, renderer, notifier, logger).RegisterHandlers()

	if queued {
		notificationWorker := worker.NewNotificationWorker(redis.Client, mailer, worker.NotificationWorkerConfig{
			QueueKey:     cfg.Notification.QueueKey,
			MaxAttempts:  cfg.Notification.MaxAttempts,
			RetryBackoff: cfg.Notification.RetryBackoff,
			PollTimeout:  5 * time.Second,
		}, metrics, logger)
		go notificationWorker.Run(ctx)
	}

	scheduler := worker.NewCampaignScheduler(campaignRepo, reportRepo, renderer, notifier, logger)
	if err := scheduler.Start(ctx, cfg.Scheduler.CampaignSchedule); err != nil {
		logger.Fatal("failed to start campaign scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.NewErrorHandler(logger, metrics, cfg.App.IsDevelopment()),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    cfg.App.RequestTimeout(),
		CORSOrigin: cfg.App.CORSOrigin,
	})

	var redisPinger handlers.Pinger
	if redisUp {
		redisPinger = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger),
		Auth:           handlers.NewAuthHandler(authService),
		Tours:          handlers.NewTourHandler(tourService),
		Bookings:       handlers.NewBookingHandler(bookingService),
		Users:          handlers.NewUserHandler(accountService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		CRM:            handlers.NewCRMHandler(crmService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), accountRepo),
		Metrics:        metrics,
		RateLimit:      cfg.RateLimit,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
