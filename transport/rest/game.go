package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/protocol"
)

const (
	msgInternal          = "Something went wrong!"
	msgBadJSON           = "Request body must be valid JSON"
	msgNameRequired      = "Player name is required"
	msgJoinFieldsMissing = "Both game code and player name are required"
	msgMoveFieldsMissing = "Game code, seat and position are required"
	msgQuitFieldsMissing = "Game code and seat are required"
	msgInvalidSeat       = "Seat must be 1 or 2"
	msgGameNotFound      = "Game not found"
)

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, msgBadJSON)
		return
	}

	if strings.TrimSpace(req.PlayerName) == "" {
		that.writeError(w, http.StatusBadRequest, msgNameRequired)
		return
	}

	code, err := that.games.CreateGame(r.Context(), req.PlayerName)
	if err != nil {
		that.writeFailure(w, r, err, func(message string) any {
			return protocol.ErrorResponse{Error: message}
		})
		return
	}

	that.writeJSON(w, http.StatusOK, protocol.CreateGameResponse{GameCode: code})
}

func (that *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, msgBadJSON)
		return
	}

	if pkg.NormalizeGameCode(req.GameCode) == "" || strings.TrimSpace(req.PlayerName) == "" {
		that.writeError(w, http.StatusBadRequest, msgJoinFieldsMissing)
		return
	}

	seat, opponent, err := that.games.JoinGame(r.Context(), req.GameCode, req.PlayerName)
	if err != nil {
		that.writeFailure(w, r, err, func(message string) any {
			return protocol.JoinGameResponse{Success: false, Message: message}
		})
		return
	}

	that.writeJSON(w, http.StatusOK, protocol.JoinGameResponse{
		Success:      true,
		Seat:         seat,
		OpponentName: opponent,
	})
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req protocol.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, msgBadJSON)
		return
	}

	if pkg.NormalizeGameCode(req.GameCode) == "" || req.Seat == nil || req.Position == nil {
		that.writeError(w, http.StatusBadRequest, msgMoveFieldsMissing)
		return
	}

	outcome, err := that.games.MakeMove(r.Context(), req.GameCode, entity.Seat(*req.Seat), *req.Position)
	if err != nil {
		that.writeFailure(w, r, err, func(message string) any {
			return protocol.MoveResponse{Valid: false, Message: message}
		})
		return
	}

	that.writeJSON(w, http.StatusOK, protocol.MoveResponse{Valid: true, Outcome: &outcome})
}

func (that *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "gameCode")

	seat := entity.SeatNone
	if raw := r.URL.Query().Get("seat"); raw != "" {
		parsed, err := parseSeat(raw)
		if err != nil {
			that.writeError(w, http.StatusBadRequest, msgInvalidSeat)
			return
		}
		seat = parsed
	}

	state, ok, err := that.games.GetState(r.Context(), code, seat)
	if err != nil {
		that.writeFailure(w, r, err, func(message string) any {
			return protocol.ErrorResponse{Error: message}
		})
		return
	}

	if !ok {
		that.writeError(w, http.StatusNotFound, msgGameNotFound)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

// handleQuit is best-effort: the caller has already left, so anything short
// of missing fields or an internal failure answers 200.
func (that *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	code := pkg.NormalizeGameCode(chi.URLParam(r, "gameCode"))
	raw := r.URL.Query().Get("seat")

	if code == "" || raw == "" {
		that.writeError(w, http.StatusBadRequest, msgQuitFieldsMissing)
		return
	}

	seat, err := parseSeat(raw)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, msgInvalidSeat)
		return
	}

	quit, err := that.games.Quit(r.Context(), code, seat)
	if err != nil {
		that.writeFailure(w, r, err, func(message string) any {
			return protocol.QuitResponse{Success: false, Message: message}
		})
		return
	}

	message := fmt.Sprintf("Player %d has left the game", seat)
	if !quit {
		message = "Nothing to quit"
	}

	that.writeJSON(w, http.StatusOK, protocol.QuitResponse{Success: quit, Message: message})
}

func parseSeat(raw string) (entity.Seat, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return entity.SeatNone, fmt.Errorf("%w: %q", apperror.ErrInvalidSeat, raw)
	}

	seat := entity.Seat(n)
	if !seat.IsValid() {
		return entity.SeatNone, apperror.ErrInvalidSeat
	}

	return seat, nil
}

// writeFailure maps a use case error to a status and message, logs internal
// errors and writes the body built by render.
func (that *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, render func(message string) any) {
	status, message := describeError(err)

	if status == http.StatusInternalServerError {
		that.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	that.writeJSON(w, status, render(message))
}

func describeError(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound, msgGameNotFound
	case errors.Is(err, apperror.ErrGameFull):
		return http.StatusConflict, "Full"
	case errors.Is(err, apperror.ErrGameAlreadyStarted):
		return http.StatusConflict, "Game already started"
	case errors.Is(err, apperror.ErrGameNotActive):
		return http.StatusBadRequest, "Game not active"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return http.StatusBadRequest, "Not your turn"
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, apperror.ErrCellOccupied):
		return http.StatusBadRequest, "Invalid move"
	case errors.Is(err, apperror.ErrEmptyPlayerName):
		return http.StatusBadRequest, msgNameRequired
	case errors.Is(err, apperror.ErrInvalidSeat):
		return http.StatusBadRequest, msgInvalidSeat
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, protocol.ErrorResponse{Error: message})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
