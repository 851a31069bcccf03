package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
)

const (
	gameKeyPrefix = "game:"
	gameIndexKey  = "games"
)

// GameRepository stores game records by code. Implementations hand out
// copies, never the stored record itself.
type GameRepository interface {
	// Create stores a new record and fails with apperror.ErrGameAlreadyExists
	// if the code is taken.
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error
	GetByCode(ctx context.Context, code string) (*entity.Game, error)
	DeleteByCode(ctx context.Context, code string) error
	Codes(ctx context.Context) ([]string, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	created, err := that.client.SetNX(ctx, gameKey(game.Code), gameJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: code %s", apperror.ErrGameAlreadyExists, game.Code)
	}

	if err = that.client.SAdd(ctx, gameIndexKey, game.Code).Err(); err != nil {
		// an unindexed record is never swept, so it must not outlive the call
		if delErr := that.client.Del(context.WithoutCancel(ctx), gameKey(game.Code)).Err(); delErr != nil {
			return fmt.Errorf("failed to index game: %w (rollback failed: %w)", err, delErr)
		}

		return fmt.Errorf("failed to index game: %w", err)
	}

	return nil
}

func (that *dbGame) Update(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	updated, err := that.client.SetXX(ctx, gameKey(game.Code), gameJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if !updated {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *dbGame) GetByCode(ctx context.Context, code string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(code)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by code: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *dbGame) DeleteByCode(ctx context.Context, code string) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, gameKey(code))
		pipe.SRem(ctx, gameIndexKey, code)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game by code: %w", err)
	}

	return nil
}

func (that *dbGame) Codes(ctx context.Context) ([]string, error) {
	codes, err := that.client.SMembers(ctx, gameIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list game codes: %w", err)
	}

	return codes, nil
}

func gameKey(code string) string {
	return gameKeyPrefix + code
}
