// Package protocol holds the JSON bodies exchanged between the HTTP API and
// its clients.
package protocol

import "github.com/rocketscienceinc/tictactoe-cafe/internal/entity"

type CreateGameRequest struct {
	PlayerName string `json:"playerName"`
}

type CreateGameResponse struct {
	GameCode string `json:"gameCode"`
}

type JoinGameRequest struct {
	GameCode   string `json:"gameCode"`
	PlayerName string `json:"playerName"`
}

type JoinGameResponse struct {
	Success      bool        `json:"success"`
	Seat         entity.Seat `json:"seat,omitempty"`
	OpponentName string      `json:"opponentName,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// MoveRequest uses pointers so a missing seat or position can be told apart
// from zero.
type MoveRequest struct {
	GameCode string `json:"gameCode"`
	Seat     *int   `json:"seat"`
	Position *int   `json:"position"`
}

// MoveResponse is {valid:true, ...outcome} or {valid:false, message}.
type MoveResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`

	*entity.Outcome
}

type StateResponse = entity.Snapshot

type QuitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
