package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/matchmaking"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/service"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	roomRepo, closeStore, err := newRoomRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	rooms := service.NewRoomService(roomRepo)
	stats := service.NewStatsService()
	gameManager := usecase.NewGameManager(logger, matchmaking.NewQueue(), rooms, stats)

	wsServer := websocket.New(logger, gameManager, websocket.Options{
		AllowedOrigins: conf.WebSocket.AllowedOrigins,
		SendBuffer:     conf.WebSocket.SendBuffer,
		MaxMessageSize: conf.WebSocket.MaxMessageSize,
		PingPeriod:     conf.WebSocket.PingPeriod,
		PongWait:       conf.WebSocket.PongWait,
		WriteWait:      conf.WebSocket.WriteWait,
	})
	restServer := rest.New(logger, stats, gameManager)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := restServer.Start(groupCtx, conf.HTTPPort); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if err := wsServer.Start(groupCtx, conf.SocketPort); err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}
		return nil
	})

	err = group.Wait()
	log.Info("Application stopped", "error", err)

	return err
}

func newRoomRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomRepository, func(), error) {
	if conf.Storage.Driver != config.StorageRedis {
		log.Info("Using in-memory room store")
		return repository.NewMemoryRoomRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if conf.Redis.Host == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis room store", "addr", redisAddrString, "ttl", conf.Storage.RoomTTL)

	closeStore := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewRedisRoomRepository(redisStorage.Connection, conf.Storage.RoomTTL), closeStore, nil
}
