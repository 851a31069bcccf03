package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/tictactoe"
)

const maxCodeAttempts = 10

var ErrCodeSpaceExhausted = errors.New("could not generate a free game code")

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, game *entity.Game) error
	GetByCode(ctx context.Context, code string) (*entity.Game, error)
	DeleteByCode(ctx context.Context, code string) error
	Codes(ctx context.Context) ([]string, error)
}

// GameManager owns every game record. Each operation runs under the lock of
// the game code it touches, so a read-validate-write never interleaves with
// another write to the same game.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	locks    *codeLocks

	retention    time.Duration
	now          func() time.Time
	generateCode func() (string, error)
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, retention time.Duration) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		locks:    newCodeLocks(),

		retention:    retention,
		now:          time.Now,
		generateCode: pkg.GenerateGameCode,
	}
}

// CreateGame opens a lobby with the player in seat 1 and returns its code.
func (that *GameManager) CreateGame(ctx context.Context, playerName string) (string, error) {
	log := that.logger.With("method", "CreateGame")

	name := strings.TrimSpace(playerName)
	if name == "" {
		return "", apperror.ErrEmptyPlayerName
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := that.generateCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate game code: %w", err)
		}

		err = that.gameRepo.Create(ctx, entity.NewGame(code, name, that.now()))
		if errors.Is(err, apperror.ErrGameAlreadyExists) {
			log.Warn("game code collision, regenerating", "code", code, "attempt", attempt)
			continue
		}

		if err != nil {
			return "", fmt.Errorf("failed to create game: %w", err)
		}

		log.Info("game created", "code", code)

		return code, nil
	}

	return "", ErrCodeSpaceExhausted
}

// JoinGame seats the player in seat 2 and returns the seat with the name of
// the player in seat 1.
func (that *GameManager) JoinGame(ctx context.Context, code, playerName string) (entity.Seat, string, error) {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return entity.SeatNone, "", apperror.ErrEmptyPlayerName
	}

	code = pkg.NormalizeGameCode(code)

	unlock := that.locks.Lock(code)
	defer unlock()

	game, err := that.gameRepo.GetByCode(ctx, code)
	if err != nil {
		return entity.SeatNone, "", fmt.Errorf("failed to get game: %w", err)
	}

	seat, err := tictactoe.JoinGame(game, name)
	if err != nil {
		return entity.SeatNone, "", fmt.Errorf("failed to join game: %w", err)
	}

	game.Touch(that.now())

	if err = that.gameRepo.Update(ctx, game); err != nil {
		return entity.SeatNone, "", fmt.Errorf("failed to update game: %w", err)
	}

	that.logger.Info("player joined", "method", "JoinGame", "code", code)

	return seat, game.PlayerName(entity.SeatX), nil
}

// MakeMove applies a move for seat and returns the resulting outcome.
func (that *GameManager) MakeMove(ctx context.Context, code string, seat entity.Seat, position int) (entity.Outcome, error) {
	if !seat.IsValid() {
		return entity.Outcome{}, apperror.ErrInvalidSeat
	}

	code = pkg.NormalizeGameCode(code)

	unlock := that.locks.Lock(code)
	defer unlock()

	game, err := that.gameRepo.GetByCode(ctx, code)
	if err != nil {
		return entity.Outcome{}, fmt.Errorf("failed to get game: %w", err)
	}

	if err = tictactoe.MakeTurn(game, seat, position); err != nil {
		return entity.Outcome{}, fmt.Errorf("failed to make move: %w", err)
	}

	game.Touch(that.now())

	if err = that.gameRepo.Update(ctx, game); err != nil {
		return entity.Outcome{}, fmt.Errorf("failed to update game: %w", err)
	}

	if game.IsCompleted() {
		that.logger.Info("game completed", "method", "MakeMove", "code", code, "winner", game.Winner.String())
	}

	return game.Outcome(), nil
}

// GetState returns a snapshot for seat, which may be SeatNone. ok is false
// for an unknown code.
func (that *GameManager) GetState(ctx context.Context, code string, seat entity.Seat) (entity.Snapshot, bool, error) {
	if seat != entity.SeatNone && !seat.IsValid() {
		return entity.Snapshot{}, false, apperror.ErrInvalidSeat
	}

	game, err := that.gameRepo.GetByCode(ctx, pkg.NormalizeGameCode(code))
	if errors.Is(err, apperror.ErrGameNotFound) {
		return entity.Snapshot{}, false, nil
	}

	if err != nil {
		return entity.Snapshot{}, false, fmt.Errorf("failed to get game: %w", err)
	}

	return game.Snapshot(seat), true, nil
}

// Quit removes a waiting lobby or forfeits an active game. It reports false
// when there was nothing to quit.
func (that *GameManager) Quit(ctx context.Context, code string, seat entity.Seat) (bool, error) {
	log := that.logger.With("method", "Quit")

	if !seat.IsValid() {
		return false, apperror.ErrInvalidSeat
	}

	code = pkg.NormalizeGameCode(code)

	unlock := that.locks.Lock(code)
	defer unlock()

	game, err := that.gameRepo.GetByCode(ctx, code)
	if errors.Is(err, apperror.ErrGameNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to get game: %w", err)
	}

	switch {
	case game.IsWaiting():
		if err = that.gameRepo.DeleteByCode(ctx, code); err != nil {
			return false, fmt.Errorf("failed to delete game: %w", err)
		}

		log.Info("lobby abandoned", "code", code)

		return true, nil
	case game.IsActive():
		if err = tictactoe.Forfeit(game, seat); err != nil {
			return false, fmt.Errorf("failed to forfeit game: %w", err)
		}

		game.Touch(that.now())

		if err = that.gameRepo.Update(ctx, game); err != nil {
			return false, fmt.Errorf("failed to update game: %w", err)
		}

		log.Info("game abandoned", "code", code, "seat", int(seat))

		return true, nil
	default:
		return false, nil
	}
}

// Sweep deletes completed and abandoned games idle for longer than the
// retention window and returns how many were removed.
func (that *GameManager) Sweep(ctx context.Context) (int, error) {
	log := that.logger.With("method", "Sweep")

	codes, err := that.gameRepo.Codes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list games: %w", err)
	}

	removed := 0
	for _, code := range codes {
		swept, err := that.sweepGame(ctx, code)
		if err != nil {
			log.Error("failed to sweep game", "code", code, "error", err)
			continue
		}

		if swept {
			removed++
		}
	}

	if removed > 0 {
		log.Info("retired games removed", "count", removed)
	}

	return removed, nil
}

func (that *GameManager) sweepGame(ctx context.Context, code string) (bool, error) {
	unlock := that.locks.Lock(code)
	defer unlock()

	game, err := that.gameRepo.GetByCode(ctx, code)
	if errors.Is(err, apperror.ErrGameNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to get game: %w", err)
	}

	if !game.IsTerminal() || that.now().Sub(game.LastActivity) <= that.retention {
		return false, nil
	}

	if err = that.gameRepo.DeleteByCode(ctx, code); err != nil {
		return false, fmt.Errorf("failed to delete game: %w", err)
	}

	return true, nil
}

// RunSweeper calls Sweep every interval until ctx is canceled.
func (that *GameManager) RunSweeper(ctx context.Context, interval time.Duration) error {
	log := that.logger.With("method", "RunSweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := that.Sweep(ctx); err != nil {
				log.Error("sweep failed", "error", err)
			}
		}
	}
}
