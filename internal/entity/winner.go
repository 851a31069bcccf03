package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const drawLiteral = "draw"

var ErrUnknownWinner = errors.New("unknown winner value")

// Winner is unset, one of the seats, or a draw.
type Winner int

const (
	WinnerNone  Winner = 0
	WinnerSeatX Winner = 1
	WinnerSeatO Winner = 2
	WinnerDraw  Winner = 3
)

// WinnerFromSeat converts a winning seat into a Winner.
func WinnerFromSeat(seat Seat) Winner {
	switch seat {
	case SeatX:
		return WinnerSeatX
	case SeatO:
		return WinnerSeatO
	default:
		return WinnerNone
	}
}

// Seat returns the winning seat, or SeatNone for a draw or no winner.
func (that Winner) Seat() Seat {
	switch that {
	case WinnerSeatX:
		return SeatX
	case WinnerSeatO:
		return SeatO
	default:
		return SeatNone
	}
}

func (that Winner) IsSet() bool {
	return that != WinnerNone
}

func (that Winner) IsDraw() bool {
	return that == WinnerDraw
}

func (that Winner) String() string {
	switch that {
	case WinnerSeatX:
		return "1"
	case WinnerSeatO:
		return "2"
	case WinnerDraw:
		return drawLiteral
	default:
		return ""
	}
}

// MarshalJSON encodes a winner as 1, 2, "draw" or null.
func (that Winner) MarshalJSON() ([]byte, error) {
	switch that {
	case WinnerSeatX, WinnerSeatO:
		return json.Marshal(int(that))
	case WinnerDraw:
		return json.Marshal(drawLiteral)
	default:
		return []byte("null"), nil
	}
}

func (that *Winner) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*that = WinnerNone
	case bytes.Equal(data, []byte(`"draw"`)):
		*that = WinnerDraw
	case bytes.Equal(data, []byte("1")):
		*that = WinnerSeatX
	case bytes.Equal(data, []byte("2")):
		*that = WinnerSeatO
	default:
		return fmt.Errorf("%w: %s", ErrUnknownWinner, data)
	}

	return nil
}
