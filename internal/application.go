package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/config"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/repository"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-cafe/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT/SIGTERM or a component fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gameRepo, closeRepo, err := initGameRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeRepo()

	gameUseCase := usecase.NewGameManager(logger, gameRepo, conf.Game.Retention)
	httpServer := rest.New(logger, gameUseCase, conf.CORSOrigin)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := httpServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}

		return nil
	})

	group.Go(func() error {
		log.Info("Starting game sweeper",
			"interval", conf.Game.SweepInterval,
			"retention", conf.Game.Retention,
		)

		return gameUseCase.RunSweeper(ctx, conf.Game.SweepInterval)
	})

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Application stopped")

	return nil
}

func initGameRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.GameRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		log.Info("Using in-memory game storage")
		return repository.NewMemoryGameRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis game storage", "addr", redisAddrString, "db", conf.Redis.DB)

	closeFn := func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewGameRepository(redisStorage.Connection), closeFn, nil
}
