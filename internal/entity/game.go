package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
)

const BoardSize = 9

// Status is the lifecycle state of a game record.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Board holds cells 0-8 of a 3x3 grid, row-major. It is an array, so
// assigning or returning it copies the cells.
type Board [BoardSize]string

// IsFull reports whether no empty cell is left.
func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Count returns how many cells hold the mark.
func (that Board) Count(mark string) int {
	n := 0
	for _, cell := range that {
		if cell == mark {
			n++
		}
	}

	return n
}

// Game is the authoritative record of one game. Only the registry mutates it.
type Game struct {
	Code          string    `json:"code"`
	Board         Board     `json:"board"`
	Players       []Player  `json:"players"`
	CurrentPlayer Seat      `json:"currentPlayer"`
	Status        Status    `json:"status"`
	Winner        Winner    `json:"winner"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActivity  time.Time `json:"lastActivity"`
}

// NewGame creates a lobby with the creator in seat 1.
func NewGame(code, playerName string, now time.Time) *Game {
	return &Game{
		Code:         code,
		Board:        Board{},
		Players:      []Player{{Seat: SeatX, Name: playerName}},
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
	}
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Game) IsCompleted() bool {
	return that.Status == StatusCompleted
}

func (that *Game) IsAbandoned() bool {
	return that.Status == StatusAbandoned
}

// IsTerminal reports whether the board is frozen.
func (that *Game) IsTerminal() bool {
	return that.IsCompleted() || that.IsAbandoned()
}

func (that *Game) ConfirmActiveState() error {
	switch that.Status {
	case StatusActive:
		return nil
	case StatusWaiting, StatusCompleted, StatusAbandoned:
		return apperror.ErrGameNotActive
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

// PlayerName returns the name seated at seat, or "" if the seat is empty.
func (that *Game) PlayerName(seat Seat) string {
	for _, player := range that.Players {
		if player.Seat == seat {
			return player.Name
		}
	}

	return ""
}

// Touch records activity for the retention sweep.
func (that *Game) Touch(now time.Time) {
	that.LastActivity = now
}

// Clone returns a deep copy.
func (that *Game) Clone() *Game {
	clone := *that
	clone.Players = append([]Player(nil), that.Players...)

	return &clone
}

// Snapshot returns an immutable copy of the state as seen by seat. When seat
// is SeatNone YourTurn is left nil.
func (that *Game) Snapshot(seat Seat) Snapshot {
	snapshot := Snapshot{
		Board:         that.Board,
		CurrentPlayer: that.CurrentPlayer,
		Status:        that.Status,
		Players:       append([]Player(nil), that.Players...),
		Winner:        that.Winner,
		IsDraw:        that.Winner.IsDraw(),
	}

	if seat != SeatNone {
		yourTurn := that.IsActive() && that.CurrentPlayer == seat
		snapshot.YourTurn = &yourTurn
	}

	return snapshot
}

// Outcome is the result of an accepted move.
func (that *Game) Outcome() Outcome {
	return Outcome{
		Board:         that.Board,
		CurrentPlayer: that.CurrentPlayer,
		Status:        that.Status,
		Winner:        that.Winner,
		IsDraw:        that.Winner.IsDraw(),
	}
}
