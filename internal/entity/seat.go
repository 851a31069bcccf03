package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Seat is the numeric identity of a player within one game.
type Seat int

const (
	SeatNone Seat = 0
	SeatX    Seat = 1
	SeatO    Seat = 2
)

const (
	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""
)

func (that Seat) IsValid() bool {
	return that == SeatX || that == SeatO
}

// Mark returns the board marker the seat plays.
func (that Seat) Mark() string {
	switch that {
	case SeatX:
		return MarkX
	case SeatO:
		return MarkO
	default:
		return EmptyCell
	}
}

// Other returns the opposing seat.
func (that Seat) Other() Seat {
	switch that {
	case SeatX:
		return SeatO
	case SeatO:
		return SeatX
	default:
		return SeatNone
	}
}

// SeatForMark maps a board marker back to its seat.
func SeatForMark(mark string) Seat {
	switch mark {
	case MarkX:
		return SeatX
	case MarkO:
		return SeatO
	default:
		return SeatNone
	}
}

// MarshalJSON encodes SeatNone as null.
func (that Seat) MarshalJSON() ([]byte, error) {
	if that == SeatNone {
		return []byte("null"), nil
	}

	return json.Marshal(int(that))
}

func (that *Seat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*that = SeatNone
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode seat: %w", err)
	}

	*that = Seat(n)

	return nil
}
