package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/client"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/repository"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-cafe/transport/rest"
)

type finishRecorder struct {
	mu      sync.Mutex
	results []client.Result
}

func (that *finishRecorder) OnUpdate(entity.Snapshot) {}

func (that *finishRecorder) OnConnectivity(client.Connectivity) {}

func (that *finishRecorder) OnGameGone() {}

func (that *finishRecorder) OnFinished(result client.Result, _ entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.results = append(that.results, result)
}

func (that *finishRecorder) get() []client.Result {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]client.Result(nil), that.results...)
}

func newAPI(t *testing.T) *client.API {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(), time.Minute)
	srv := httptest.NewServer(rest.New(logger, manager, "*").Handler())
	t.Cleanup(srv.Close)

	return client.NewAPI(srv.URL, time.Second)
}

func waitTurn(t *testing.T, session *client.Session, seat entity.Seat) {
	t.Helper()

	require.Eventually(t, func() bool {
		snapshot, ok := session.Snapshot()
		return ok && snapshot.CurrentPlayer == seat
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAPI_FullGame(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)

	// Given: Alice creates a lobby and Bob joins it
	code, err := api.Create(ctx, "Alice")
	require.NoError(t, err)

	opponent := make(chan string, 1)
	go func() {
		name, _ := client.WaitForOpponent(ctx, api, code, entity.SeatX, 10*time.Millisecond)
		opponent <- name
	}()

	joined, err := api.Join(ctx, code, "Bob")
	require.NoError(t, err)
	require.Equal(t, entity.SeatO, joined.Seat)
	assert.Equal(t, "Alice", joined.OpponentName)
	assert.Equal(t, "Bob", <-opponent)

	aliceObs, bobObs := &finishRecorder{}, &finishRecorder{}
	alice := client.NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)), api, aliceObs, code, entity.SeatX, 10*time.Millisecond)
	bob := client.NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)), api, bobObs, code, entity.SeatO, 10*time.Millisecond)
	alice.Start(ctx)
	bob.Start(ctx)
	t.Cleanup(alice.Stop)
	t.Cleanup(bob.Stop)

	// When: Alice completes the top row
	moves := []struct {
		session *client.Session
		seat    entity.Seat
		cell    int
	}{
		{alice, entity.SeatX, 0},
		{bob, entity.SeatO, 3},
		{alice, entity.SeatX, 1},
		{bob, entity.SeatO, 4},
		{alice, entity.SeatX, 2},
	}

	for _, m := range moves {
		waitTurn(t, m.session, m.seat)
		require.NoError(t, m.session.Move(ctx, m.cell))
	}

	// Then: both sessions finish once with opposite results
	<-alice.Done()
	<-bob.Done()

	assert.Equal(t, []client.Result{client.ResultWin}, aliceObs.get())
	assert.Equal(t, []client.Result{client.ResultLoss}, bobObs.get())
}

func TestAPI_Errors(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)

	t.Run("Join on an unknown code is rejected", func(t *testing.T) {
		resp, err := api.Join(ctx, "ZZZZZZ", "Bob")

		require.ErrorIs(t, err, client.ErrJoinRejected)
		assert.Equal(t, "Game not found", resp.Message)
	})

	t.Run("Illegal move is an answer, not an error", func(t *testing.T) {
		code, err := api.Create(ctx, "Alice")
		require.NoError(t, err)
		_, err = api.Join(ctx, code, "Bob")
		require.NoError(t, err)

		resp, err := api.Move(ctx, code, entity.SeatO, 0)

		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Equal(t, "Not your turn", resp.Message)
	})

	t.Run("Quit is accepted for an unknown game", func(t *testing.T) {
		require.NoError(t, api.Quit(ctx, "ZZZZZZ", entity.SeatX))
	})

	t.Run("Unreachable server is a transport error", func(t *testing.T) {
		offline := client.NewAPI("http://127.0.0.1:1", 100*time.Millisecond)

		_, err := offline.State(ctx, "ABC234", entity.SeatX)

		require.Error(t, err)
	})
}
