package entity

import "errors"

var ErrUnknownGameStatus = errors.New("unknown game status")

// Snapshot is a read-only copy of a game handed to callers.
type Snapshot struct {
	Board         Board    `json:"board"`
	CurrentPlayer Seat     `json:"currentPlayer"`
	Status        Status   `json:"status"`
	Players       []Player `json:"players"`
	Winner        Winner   `json:"winner"`
	IsDraw        bool     `json:"isDraw"`
	YourTurn      *bool    `json:"yourTurn"`
}

// IsTerminal reports whether no further moves will be accepted.
func (that Snapshot) IsTerminal() bool {
	return that.Status == StatusCompleted || that.Status == StatusAbandoned
}

// Opponent returns the name of the player not sitting at seat.
func (that Snapshot) Opponent(seat Seat) (string, bool) {
	for _, player := range that.Players {
		if player.Seat != seat {
			return player.Name, true
		}
	}

	return "", false
}

// Outcome is what an accepted move returns.
type Outcome struct {
	Board         Board  `json:"board"`
	CurrentPlayer Seat   `json:"currentPlayer"`
	Status        Status `json:"status"`
	Winner        Winner `json:"winner"`
	IsDraw        bool   `json:"isDraw"`
}
