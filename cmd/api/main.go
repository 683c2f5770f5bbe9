package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/shreyansh2708-git/samadhan/internal/api/http"
	"github.com/shreyansh2708-git/samadhan/internal/api/http/handlers"
	"github.com/shreyansh2708-git/samadhan/internal/auth"
	"github.com/shreyansh2708-git/samadhan/internal/config"
	"github.com/shreyansh2708-git/samadhan/internal/events"
	"github.com/shreyansh2708-git/samadhan/internal/observability"
	"github.com/shreyansh2708-git/samadhan/internal/persistence"
	"github.com/shreyansh2708-git/samadhan/internal/repository"
	"github.com/shreyansh2708-git/samadhan/internal/service"
	"github.com/shreyansh2708-git/samadhan/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		issueRepo   repository.IssueRepository
		userRepo    repository.UserRepository
		historyRepo repository.IssueHistoryRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		issueRepo = repository.NewIssueRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		historyRepo = repository.NewIssueHistoryRepository(pool)
	} else {
		issueRepo = repository.NewMemoryIssueRepository()
		userRepo = repository.NewMemoryUserRepository()
		historyRepo = repository.NewMemoryIssueHistoryRepository()
	}

	var sequence repository.IssueSequence
	if redis.Ping(ctx) == nil {
		sequence = repository.NewRedisIssueSequence(redis.ClientHandle())
	} else {
		sequence = repository.NewMemoryIssueSequence()
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:    issueRepo,
		HistoryRepo:  historyRepo,
		Sequence:     sequence,
		Dispatcher:   dispatcher,
		SLA:          cfg.SLA.Table(),
		StoreTimeout: cfg.App.StoreTimeout(),
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		IssueRepo:      issueRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
		FallbackWindow: cfg.Escalation.Threshold(),
		MaxRetries:     cfg.Escalation.MaxRetries,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	escalationWorker := worker.NewEscalationWorker(escalationService, metrics, logger, cfg.Escalation.PollInterval())
	go escalationWorker.Run(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		AdminIssues:    handlers.NewAdminIssuesHandler(issueService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
