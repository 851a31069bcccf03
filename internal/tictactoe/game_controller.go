package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
)

// JoinGame seats a second player and starts the game with seat 1 to move.
func JoinGame(game *entity.Game, playerName string) (entity.Seat, error) {
	if len(game.Players) >= 2 {
		return entity.SeatNone, apperror.ErrGameFull
	}

	if !game.IsWaiting() {
		return entity.SeatNone, apperror.ErrGameAlreadyStarted
	}

	game.Players = append(game.Players, entity.Player{Seat: entity.SeatO, Name: playerName})
	game.Status = entity.StatusActive
	game.CurrentPlayer = entity.SeatX

	return entity.SeatO, nil
}

// MakeTurn writes the seat's mark and resolves win, draw or turn change.
// The game is left untouched when an error is returned.
func MakeTurn(game *entity.Game, seat entity.Seat, cell int) error {
	if err := validateMove(game, seat, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	game.Board[cell] = seat.Mark()
	updateGameStatus(game, seat)

	return nil
}

// Forfeit ends an active game in favour of the seat that did not quit.
func Forfeit(game *entity.Game, quitter entity.Seat) error {
	if err := game.ConfirmActiveState(); err != nil {
		return err
	}

	game.Status = entity.StatusAbandoned
	game.Winner = entity.WinnerFromSeat(quitter.Other())
	game.CurrentPlayer = entity.SeatNone

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(game *entity.Game, seat entity.Seat, cell int) error {
	if err := game.ConfirmActiveState(); err != nil {
		return err
	}

	if game.CurrentPlayer != seat {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(game.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if game.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(game *entity.Game, mover entity.Seat) {
	switch winner := Winner(game.Board); {
	case winner != entity.SeatNone:
		game.Winner = entity.WinnerFromSeat(winner)
		game.Status = entity.StatusCompleted
		game.CurrentPlayer = entity.SeatNone
	case IsDraw(game.Board):
		game.Winner = entity.WinnerDraw
		game.Status = entity.StatusCompleted
		game.CurrentPlayer = entity.SeatNone
	default:
		game.CurrentPlayer = mover.Other()
	}
}
