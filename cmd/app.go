package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/config"
	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/application/metric"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/memory"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/postgres"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/redisstore"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/handlers"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/server"
	"github.com/Akshay-cybersec/NeuroVibe/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	var roomRepo repository.RoomRepository
	if cfg.Postgres.URL != "" {
		dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.DSN())
		if err != nil {
			slog.Error("connect to postgres", slog.Any(constant.Error, err))
			os.Exit(1)
		}
		defer dbConn.Close()

		roomRepo = postgres.NewRoomRepo(dbConn)
	} else {
		slog.Warn("POSTGRES_URL not set, using in-memory room store")
		roomRepo = memory.NewRoomRepository()
	}

	var notificationRepo repository.NotificationRepository
	if cfg.Redis.URL != "" {
		notificationRepo, err = redisstore.NewNotificationRepository(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("connect to redis", slog.Any(constant.Error, err))
			os.Exit(1)
		}
	} else {
		slog.Warn("REDIS_URL not set, using in-memory notification store")
		notificationRepo = memory.NewNotificationRepository()
	}

	connRepo := memory.NewRoomConnectionRepository()

	roomUsecase := usecase.NewRoomUsecase(roomRepo, notificationRepo, cfg.InviteTTL)
	signalingUsecase := usecase.NewSignalingUsecase(connRepo)

	authHandler := handlers.NewAuthHandler(cfg.JWTSecret)
	roomHandler := handlers.NewRoomHandler(roomUsecase)
	wsHandler := handlers.NewWebSocketHandler(cfg, roomUsecase, signalingUsecase)

	echoSrv := server.New(cfg, authHandler, roomHandler, wsHandler)
	metricSrv := metric.NewServer()

	go func() {
		if err := metricSrv.Start(":" + cfg.MetricsPort); err != nil {
			slog.Error("metrics server failed", slog.Any(constant.Error, err))
		}
	}()

	srvCh := make(chan error, 1)
	go func() {
		srvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server due to context cancel")
	case err = <-srvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)

		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown server", slog.Any(constant.Error, err))
	}

	if err := metricSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metrics server", slog.Any(constant.Error, err))
	}
}
