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

	httptransport "github.com/spec-kit/townhall-portal/internal/api/http"
	"github.com/spec-kit/townhall-portal/internal/api/http/handlers"
	"github.com/spec-kit/townhall-portal/internal/auth"
	"github.com/spec-kit/townhall-portal/internal/config"
	"github.com/spec-kit/townhall-portal/internal/events"
	"github.com/spec-kit/townhall-portal/internal/lockout"
	"github.com/spec-kit/townhall-portal/internal/observability"
	"github.com/spec-kit/townhall-portal/internal/persistence"
	"github.com/spec-kit/townhall-portal/internal/repository"
	"github.com/spec-kit/townhall-portal/internal/service"
	"github.com/spec-kit/townhall-portal/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.Migrations(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	useRedis := cfg.Lockout.Backend == config.LockoutBackendRedis
	var redisConn *persistence.Redis
	if useRedis {
		redisConn, err = persistence.NewRedis(ctx, cfg.Redis, true, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisConn.Close()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	policy := lockout.PolicyFromConfig(cfg.Lockout)
	var tracker lockout.Tracker = lockout.NewMemoryTracker(policy)
	if useRedis {
		tracker = lockout.NewRedisTracker(redisConn.Client, policy)
	}
	logger.Info("lockout tracker ready",
		zap.String("backend", cfg.Lockout.Backend),
		zap.Int("threshold", policy.Threshold),
		zap.Duration("lock_duration", policy.LockDuration))

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	accountService := service.NewAccountService(service.AccountDependencies{
		UserRepo:   userRepo,
		Hasher:     hasher,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		UserRepo:    userRepo,
		RequestRepo: requestRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Hasher:            hasher,
		Tokens:            tokens,
		Tracker:           tracker,
		Dispatcher:        dispatcher,
		Metrics:           metrics,
		Logger:            logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App)

	var redisProbe handlers.Pinger
	if useRedis {
		redisProbe = redisConn
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisProbe),
		Users:          handlers.NewUsersHandler(accountService, authService),
		Requests:       handlers.NewRequestsHandler(intakeService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
