// Package client talks to the game HTTP API and keeps a local view of a game
// in sync with the server by polling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/protocol"
)

const defaultRequestTimeout = 5 * time.Second

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrJoinRejected     = errors.New("join rejected")
)

// API is a thin JSON client for the game endpoints.
type API struct {
	baseURL string
	http    *http.Client
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Create opens a lobby and returns its code.
func (that *API) Create(ctx context.Context, playerName string) (string, error) {
	var resp protocol.CreateGameResponse

	status, err := that.do(ctx, http.MethodPost, "/game/create", protocol.CreateGameRequest{PlayerName: playerName}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	if status != http.StatusOK {
		return "", fmt.Errorf("failed to create game: %w: %d", ErrUnexpectedStatus, status)
	}

	return resp.GameCode, nil
}

// Join takes seat 2 of the lobby. A lobby that is unknown, full or already
// started comes back as ErrJoinRejected carrying the server message.
func (that *API) Join(ctx context.Context, code, playerName string) (protocol.JoinGameResponse, error) {
	var resp protocol.JoinGameResponse

	status, err := that.do(ctx, http.MethodPost, "/game/join", protocol.JoinGameRequest{GameCode: code, PlayerName: playerName}, &resp)
	if err != nil {
		return protocol.JoinGameResponse{}, fmt.Errorf("failed to join game: %w", err)
	}

	switch status {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound, http.StatusConflict:
		return resp, fmt.Errorf("%w: %s", ErrJoinRejected, resp.Message)
	default:
		return resp, fmt.Errorf("failed to join game: %w: %d", ErrUnexpectedStatus, status)
	}
}

// Move submits a move. An illegal move is not an error: it returns a
// response with Valid false and the server message.
func (that *API) Move(ctx context.Context, code string, seat entity.Seat, position int) (protocol.MoveResponse, error) {
	var resp protocol.MoveResponse

	seatNum := int(seat)
	req := protocol.MoveRequest{GameCode: code, Seat: &seatNum, Position: &position}

	status, err := that.do(ctx, http.MethodPost, "/game/move", req, &resp)
	if err != nil {
		return protocol.MoveResponse{}, fmt.Errorf("failed to send move: %w", err)
	}

	if status != http.StatusOK && status != http.StatusBadRequest {
		return protocol.MoveResponse{}, fmt.Errorf("failed to send move: %w: %d", ErrUnexpectedStatus, status)
	}

	return resp, nil
}

// State fetches the current snapshot as seen from seat.
func (that *API) State(ctx context.Context, code string, seat entity.Seat) (entity.Snapshot, error) {
	var snapshot entity.Snapshot

	path := "/game/state/" + url.PathEscape(code) + "?seat=" + strconv.Itoa(int(seat))

	status, err := that.do(ctx, http.MethodGet, path, nil, &snapshot)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to fetch state: %w", err)
	}

	switch status {
	case http.StatusOK:
		return snapshot, nil
	case http.StatusNotFound:
		return entity.Snapshot{}, apperror.ErrGameNotFound
	default:
		return entity.Snapshot{}, fmt.Errorf("failed to fetch state: %w: %d", ErrUnexpectedStatus, status)
	}
}

// Quit tells the server that seat has left.
func (that *API) Quit(ctx context.Context, code string, seat entity.Seat) error {
	var resp protocol.QuitResponse

	path := "/game/quit/" + url.PathEscape(code) + "?seat=" + strconv.Itoa(int(seat))

	status, err := that.do(ctx, http.MethodPost, path, nil, &resp)
	if err != nil {
		return fmt.Errorf("failed to quit game: %w", err)
	}

	if status != http.StatusOK {
		return fmt.Errorf("failed to quit game: %w: %d", ErrUnexpectedStatus, status)
	}

	return nil
}

func (that *API) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, that.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := that.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
