package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
)

// memoryGame keeps records in process memory. State is lost on restart.
type memoryGame struct {
	mu    sync.RWMutex
	games map[string]*entity.Game
}

func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]*entity.Game),
	}
}

func (that *memoryGame) Create(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.Code]; ok {
		return fmt.Errorf("%w: code %s", apperror.ErrGameAlreadyExists, game.Code)
	}

	that.games[game.Code] = game.Clone()

	return nil
}

func (that *memoryGame) Update(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.Code]; !ok {
		return apperror.ErrGameNotFound
	}

	that.games[game.Code] = game.Clone()

	return nil
}

func (that *memoryGame) GetByCode(_ context.Context, code string) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[code]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return game.Clone(), nil
}

func (that *memoryGame) DeleteByCode(_ context.Context, code string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games, code)

	return nil
}

func (that *memoryGame) Codes(_ context.Context) ([]string, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	codes := make([]string, 0, len(that.games))
	for code := range that.games {
		codes = append(codes, code)
	}

	return codes, nil
}
