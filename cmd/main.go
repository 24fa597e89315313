package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jiyufengluo/taskly-kanban/internal/app/registry"
	"github.com/jiyufengluo/taskly-kanban/internal/app/server"
	"github.com/jiyufengluo/taskly-kanban/internal/app/server/handlers"
	"github.com/jiyufengluo/taskly-kanban/internal/app/worker"
	"github.com/jiyufengluo/taskly-kanban/internal/config"
	"github.com/jiyufengluo/taskly-kanban/internal/core/services"
	"github.com/jiyufengluo/taskly-kanban/internal/platform/logger"
	"github.com/jiyufengluo/taskly-kanban/internal/platform/telemetry"
	"github.com/jiyufengluo/taskly-kanban/internal/plugins/postgres"
	redisplugin "github.com/jiyufengluo/taskly-kanban/internal/plugins/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.NewLogger(*cfg)

	shutdownTracer, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", "error", err)
		}
	}()

	db, err := postgres.New(ctx, *cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redisplugin.NewRedisClient(ctx, *cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Plugins.
	userRepo := postgres.NewUserRepository(db)
	projectRepo := postgres.NewProjectRepo(db)
	memberRepo := postgres.NewMemberRepo(db)
	boardRepo := postgres.NewBoardRepo(db)
	listRepo := postgres.NewListRepo(db)
	cardRepo := postgres.NewCardRepo(db)
	activityRepo := postgres.NewActivityRepo(db)
	cache := redisplugin.NewRedisCache(rdb)
	queue := redisplugin.NewRedisNotificationQueue(rdb)
	store := redisplugin.NewRedisNotificationStore(rdb)

	// Realtime core.
	reg := registry.NewRegistry()
	engine := services.NewBroadcastEngine(log, reg)
	presence := services.NewPresenceTracker(log, reg, engine)
	router := services.NewRouter(log, engine, presence)

	// Domain services.
	txManager := services.NewTxManager(log, db)
	tokens := services.NewTokenService(cfg.SecretToken, cfg.TokenTTL)
	users := services.NewUserService(log, userRepo, txManager)
	membership := services.NewMembershipService(log, memberRepo, cache)
	notifier := services.NewNotifier(log, engine, cache, queue, activityRepo)
	projects := services.NewProjectService(log, projectRepo, membership, notifier, txManager)
	boards := services.NewBoardService(log, boardRepo, listRepo, membership, notifier, cache, txManager)
	cards := services.NewCardService(log, cardRepo, listRepo, boardRepo, membership, notifier, txManager)

	notifWorker := worker.NewNotificationWorker(log, queue, store, cfg.Worker.NotificationGroup)
	go func() {
		if err := notifWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notification worker stopped", "error", err)
		}
	}()

	janitor := worker.NewActivityJanitor(log, activityRepo, cfg.Worker.ActivityRetention)
	go func() {
		if err := janitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("activity janitor stopped", "error", err)
		}
	}()

	deps := server.Deps{
		Auth:          handlers.NewAuthHandler(users, tokens),
		Projects:      handlers.NewProjectHandler(projects, membership),
		Boards:        handlers.NewBoardHandler(boards),
		Cards:         handlers.NewCardHandler(cards),
		Activities:    handlers.NewActivityHandler(activityRepo, membership),
		Notifications: handlers.NewNotificationHandler(store),
		Stats:         handlers.NewStatsHandler(reg),
		WS:            handlers.NewWSHandler(log, reg, engine, presence, router, tokens, users, membership, *cfg.WS),
		Tokens:        tokens,
	}

	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, deps)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("service stopped")
	return nil
}
