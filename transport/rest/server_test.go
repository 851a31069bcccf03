package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/repository"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(), time.Minute)

	srv := httptest.NewServer(New(logger, manager, "http://localhost:3000").Handler())
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func intPtr(n int) *int {
	return &n
}

func createAndJoin(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	var created protocol.CreateGameResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/game/create", protocol.CreateGameRequest{PlayerName: "Alice"}, &created)
	require.Equal(t, http.StatusOK, status)

	var joined protocol.JoinGameResponse
	status = doJSON(t, http.MethodPost, srv.URL+"/game/join", protocol.JoinGameRequest{GameCode: created.GameCode, PlayerName: "Bob"}, &joined)
	require.Equal(t, http.StatusOK, status)
	require.True(t, joined.Success)

	return created.GameCode
}

func TestServer_CreateAndJoin(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Create then join with a lower-cased code", func(t *testing.T) {
		// Given: Alice creates a game
		var created protocol.CreateGameResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/create", protocol.CreateGameRequest{PlayerName: "Alice"}, &created)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, created.GameCode, 6)

		// When: Bob joins typing the code in lower case
		var joined protocol.JoinGameResponse
		status = doJSON(t, http.MethodPost, srv.URL+"/game/join",
			protocol.JoinGameRequest{GameCode: strings.ToLower(created.GameCode), PlayerName: "Bob"}, &joined)

		// Then: Bob gets seat 2 and learns Alice's name
		require.Equal(t, http.StatusOK, status)
		assert.True(t, joined.Success)
		assert.Equal(t, entity.SeatO, joined.Seat)
		assert.Equal(t, "Alice", joined.OpponentName)
	})

	t.Run("Create without a name is rejected", func(t *testing.T) {
		var resp protocol.ErrorResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/create", protocol.CreateGameRequest{PlayerName: "  "}, &resp)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Player name is required", resp.Error)
	})

	t.Run("Join with missing fields is rejected", func(t *testing.T) {
		var resp protocol.ErrorResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/join", protocol.JoinGameRequest{GameCode: "ABC234"}, &resp)

		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Join on an unknown code is not found", func(t *testing.T) {
		var resp protocol.JoinGameResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/join", protocol.JoinGameRequest{GameCode: "ZZZZZZ", PlayerName: "Bob"}, &resp)

		assert.Equal(t, http.StatusNotFound, status)
		assert.False(t, resp.Success)
		assert.Equal(t, "Game not found", resp.Message)
	})

	t.Run("Join on a full game answers Full", func(t *testing.T) {
		code := createAndJoin(t, srv)

		var resp protocol.JoinGameResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/join", protocol.JoinGameRequest{GameCode: code, PlayerName: "Carol"}, &resp)

		assert.Equal(t, http.StatusConflict, status)
		assert.False(t, resp.Success)
		assert.Equal(t, "Full", resp.Message)
	})
}

func TestServer_MoveAndState(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Valid move returns the new board and the state follows", func(t *testing.T) {
		code := createAndJoin(t, srv)

		// When: seat 1 plays the centre
		var move protocol.MoveResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/move",
			protocol.MoveRequest{GameCode: code, Seat: intPtr(1), Position: intPtr(4)}, &move)

		// Then: the move is accepted
		require.Equal(t, http.StatusOK, status)
		require.True(t, move.Valid)
		require.NotNil(t, move.Outcome)
		assert.Equal(t, entity.MarkX, move.Board[4])
		assert.Equal(t, entity.SeatO, move.CurrentPlayer)

		// And: seat 2 sees it is their turn
		var state protocol.StateResponse
		status = doJSON(t, http.MethodGet, srv.URL+"/game/state/"+code+"?seat=2", nil, &state)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, entity.MarkX, state.Board[4])
		require.NotNil(t, state.YourTurn)
		assert.True(t, *state.YourTurn)
	})

	t.Run("Out of turn move is rejected with a message", func(t *testing.T) {
		code := createAndJoin(t, srv)

		var move protocol.MoveResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/move",
			protocol.MoveRequest{GameCode: code, Seat: intPtr(2), Position: intPtr(0)}, &move)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.False(t, move.Valid)
		assert.Equal(t, "Not your turn", move.Message)
		assert.Nil(t, move.Outcome)
	})

	t.Run("Move with a missing position is rejected", func(t *testing.T) {
		code := createAndJoin(t, srv)

		status := doJSON(t, http.MethodPost, srv.URL+"/game/move", protocol.MoveRequest{GameCode: code, Seat: intPtr(1)}, nil)

		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Move on a finished game is rejected", func(t *testing.T) {
		code := createAndJoin(t, srv)
		for _, m := range [][2]int{{1, 0}, {2, 3}, {1, 1}, {2, 4}, {1, 2}} {
			var move protocol.MoveResponse
			require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/game/move",
				protocol.MoveRequest{GameCode: code, Seat: intPtr(m[0]), Position: intPtr(m[1])}, &move))
		}

		var move protocol.MoveResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/move",
			protocol.MoveRequest{GameCode: code, Seat: intPtr(2), Position: intPtr(5)}, &move)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Game not active", move.Message)

		var state protocol.StateResponse
		doJSON(t, http.MethodGet, srv.URL+"/game/state/"+code, nil, &state)
		assert.Equal(t, entity.StatusCompleted, state.Status)
		assert.Equal(t, entity.WinnerSeatX, state.Winner)
		assert.Nil(t, state.YourTurn)
	})

	t.Run("Unknown game state is 404", func(t *testing.T) {
		var resp protocol.ErrorResponse
		status := doJSON(t, http.MethodGet, srv.URL+"/game/state/ZZZZZZ?seat=1", nil, &resp)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Game not found", resp.Error)
	})

	t.Run("Bad seat query is 400", func(t *testing.T) {
		code := createAndJoin(t, srv)

		status := doJSON(t, http.MethodGet, srv.URL+"/game/state/"+code+"?seat=3", nil, nil)

		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestServer_Quit(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Quit forfeits an active game", func(t *testing.T) {
		code := createAndJoin(t, srv)

		var resp protocol.QuitResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/quit/"+code+"?seat=1", nil, &resp)

		require.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Success)
		assert.Equal(t, "Player 1 has left the game", resp.Message)

		var state protocol.StateResponse
		doJSON(t, http.MethodGet, srv.URL+"/game/state/"+code+"?seat=2", nil, &state)
		assert.Equal(t, entity.StatusAbandoned, state.Status)
		assert.Equal(t, entity.WinnerSeatO, state.Winner)
	})

	t.Run("Quit on an unknown game is still 200", func(t *testing.T) {
		var resp protocol.QuitResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/quit/ZZZZZZ?seat=1", nil, &resp)

		assert.Equal(t, http.StatusOK, status)
		assert.False(t, resp.Success)
	})

	t.Run("Quit without a seat is 400", func(t *testing.T) {
		status := doJSON(t, http.MethodPost, srv.URL+"/game/quit/ABC234", nil, nil)

		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestServer_Ambient(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Ping answers pong", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ping")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pong", string(body))
	})

	t.Run("Unknown route answers JSON 404", func(t *testing.T) {
		var resp protocol.ErrorResponse
		status := doJSON(t, http.MethodGet, srv.URL+"/nope", nil, &resp)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Endpoint not found", resp.Error)
	})

	t.Run("Preflight carries CORS headers", func(t *testing.T) {
		// Given: a browser preflight from the configured origin
		req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, srv.URL+"/game/create", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")

		// When
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		// Then: the origin and method are allowed
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("Foreign origin gets no CORS grant", func(t *testing.T) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/ping", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://evil.example")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

type failingGames struct {
	gameUseCase
}

func (failingGames) GetState(context.Context, string, entity.Seat) (entity.Snapshot, bool, error) {
	return entity.Snapshot{}, false, errors.New("storage inconsistency")
}

func (failingGames) CreateGame(context.Context, string) (string, error) {
	panic("boom")
}

func TestServer_InternalFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(logger, failingGames{}, "*").Handler())
	t.Cleanup(srv.Close)

	t.Run("Storage error is a generic 500", func(t *testing.T) {
		var resp protocol.ErrorResponse
		status := doJSON(t, http.MethodGet, srv.URL+"/game/state/ABC234", nil, &resp)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Something went wrong!", resp.Error)
	})

	t.Run("Panic is recovered into a generic 500", func(t *testing.T) {
		var resp protocol.ErrorResponse
		status := doJSON(t, http.MethodPost, srv.URL+"/game/create", protocol.CreateGameRequest{PlayerName: "Alice"}, &resp)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Something went wrong!", resp.Error)
	})
}
