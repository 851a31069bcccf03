package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/protocol"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	defaultQuitTimeout  = 3 * time.Second
)

var (
	ErrInputFrozen  = errors.New("session does not accept moves")
	ErrMoveRejected = errors.New("move rejected by server")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhasePolling
	PhaseTerminal
)

type Connectivity int

const (
	Connected Connectivity = iota
	Reconnecting
)

type Result int

const (
	ResultWin Result = iota
	ResultLoss
	ResultDraw
)

func (that Result) String() string {
	switch that {
	case ResultWin:
		return "win"
	case ResultLoss:
		return "loss"
	default:
		return "draw"
	}
}

// GameAPI is the part of the server the session needs.
type GameAPI interface {
	State(ctx context.Context, code string, seat entity.Seat) (entity.Snapshot, error)
	Move(ctx context.Context, code string, seat entity.Seat, position int) (protocol.MoveResponse, error)
	Quit(ctx context.Context, code string, seat entity.Seat) error
}

// Observer receives session events. Calls never happen while the session
// holds its lock, so an observer may call back into the session.
type Observer interface {
	OnUpdate(snapshot entity.Snapshot)
	OnConnectivity(state Connectivity)
	OnFinished(result Result, snapshot entity.Snapshot)
	// OnGameGone fires when the server no longer knows the game, for
	// example after the lobby was removed or the record was swept.
	OnGameGone()
}

// Session keeps one seat's view of a game in sync with the server.
type Session struct {
	logger   *slog.Logger
	api      GameAPI
	observer Observer
	code     string
	seat     entity.Seat
	interval time.Duration

	mu           sync.Mutex
	phase        Phase
	connectivity Connectivity
	last         *entity.Snapshot
	stopped      bool

	inFlight atomic.Bool
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

func NewSession(logger *slog.Logger, api GameAPI, observer Observer, code string, seat entity.Seat, interval time.Duration) *Session {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Session{
		logger:   logger.With("component", "session", "code", code, "seat", int(seat)),
		api:      api,
		observer: observer,
		code:     code,
		seat:     seat,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start polls immediately and then on every tick until Stop, Quit or a
// terminal status.
func (that *Session) Start(ctx context.Context) {
	that.mu.Lock()
	if that.stopped || that.cancel != nil {
		that.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	that.cancel = cancel
	that.phase = PhasePolling
	that.mu.Unlock()

	go that.loop(ctx)
}

// Done is closed once the polling loop has exited.
func (that *Session) Done() <-chan struct{} {
	return that.done
}

// Stop ends polling. It is safe to call more than once.
func (that *Session) Stop() {
	that.stopOnce.Do(func() {
		that.mu.Lock()
		that.stopped = true
		cancel := that.cancel
		that.mu.Unlock()

		if cancel != nil {
			cancel()
		} else {
			close(that.done)
		}
	})
}

func (that *Session) Phase() Phase {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.phase
}

func (that *Session) Connectivity() Connectivity {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.connectivity
}

// Snapshot returns the last observed state, if any.
func (that *Session) Snapshot() (entity.Snapshot, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.last == nil {
		return entity.Snapshot{}, false
	}

	return *that.last, true
}

// Move checks the move against the last observed state and submits it. The
// local view only changes through the poll that follows an accepted move.
func (that *Session) Move(ctx context.Context, position int) error {
	if err := that.precheck(position); err != nil {
		return err
	}

	resp, err := that.api.Move(ctx, that.code, that.seat, position)
	if err != nil {
		return err
	}

	if !resp.Valid {
		return fmt.Errorf("%w: %s", ErrMoveRejected, resp.Message)
	}

	that.poll(ctx)

	return nil
}

func (that *Session) precheck(position int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.phase != PhasePolling || that.last == nil {
		return ErrInputFrozen
	}

	switch {
	case that.last.Status != entity.StatusActive:
		return apperror.ErrGameNotActive
	case that.last.CurrentPlayer != that.seat:
		return apperror.ErrNotYourTurn
	case position < 0 || position >= entity.BoardSize:
		return apperror.ErrInvalidCell
	case that.last.Board[position] != entity.EmptyCell:
		return apperror.ErrCellOccupied
	}

	return nil
}

// Quit stops polling, drops local state and tells the server in the
// background. Failure to notify is only logged.
func (that *Session) Quit(ctx context.Context) {
	that.Stop()

	that.mu.Lock()
	that.phase = PhaseIdle
	that.last = nil
	that.mu.Unlock()

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultQuitTimeout)
	go func() {
		defer cancel()

		if err := that.api.Quit(notifyCtx, that.code, that.seat); err != nil {
			that.logger.Warn("failed to notify server about quit", "error", err)
		}
	}()
}

func (that *Session) loop(ctx context.Context) {
	defer close(that.done)

	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	that.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.poll(ctx)
		}
	}
}

// poll fetches the state once. A poll that finds another one in flight
// does nothing.
func (that *Session) poll(ctx context.Context) {
	if !that.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer that.inFlight.Store(false)

	snapshot, err := that.api.State(ctx, that.code, that.seat)
	if ctx.Err() != nil {
		return
	}

	var events []func()

	that.mu.Lock()
	if that.phase != PhasePolling {
		that.mu.Unlock()
		return
	}

	if errors.Is(err, apperror.ErrGameNotFound) {
		that.phase = PhaseTerminal
		that.mu.Unlock()

		that.logger.Info("game is gone from the server")
		that.Stop()
		that.emit([]func(){func() { that.observer.OnGameGone() }})

		return
	}

	if err != nil {
		if that.last == nil || !that.last.IsTerminal() {
			that.logger.Debug("poll failed", "error", err)
			events = that.setConnectivity(Reconnecting, events)
		}
		that.mu.Unlock()
		that.emit(events)

		return
	}

	events = that.setConnectivity(Connected, events)

	changed := that.last == nil || that.last.Status != snapshot.Status || that.last.Board != snapshot.Board
	stored := snapshot
	that.last = &stored

	if changed {
		events = append(events, func() { that.observer.OnUpdate(snapshot) })
	}

	if snapshot.IsTerminal() {
		that.phase = PhaseTerminal
		result := that.resultOf(snapshot)
		events = append(events, func() { that.observer.OnFinished(result, snapshot) })
	}
	that.mu.Unlock()

	if snapshot.IsTerminal() {
		that.Stop()
	}

	that.emit(events)
}

func (that *Session) setConnectivity(state Connectivity, events []func()) []func() {
	if that.connectivity == state {
		return events
	}

	that.connectivity = state

	return append(events, func() { that.observer.OnConnectivity(state) })
}

func (that *Session) resultOf(snapshot entity.Snapshot) Result {
	switch {
	case snapshot.Winner.IsDraw():
		return ResultDraw
	case snapshot.Winner.Seat() == that.seat:
		return ResultWin
	default:
		return ResultLoss
	}
}

func (that *Session) emit(events []func()) {
	if that.observer == nil {
		return
	}

	for _, event := range events {
		event()
	}
}

// WaitForOpponent polls a lobby until a second player is seated and returns
// their name. Transport failures are retried on the next tick.
func WaitForOpponent(ctx context.Context, api GameAPI, code string, seat entity.Seat, interval time.Duration) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snapshot, err := api.State(ctx, code, seat)

		switch {
		case errors.Is(err, apperror.ErrGameNotFound):
			return "", err
		case err == nil && !snapshot.IsTerminal() && snapshot.Status != entity.StatusWaiting:
			if name, ok := snapshot.Opponent(seat); ok {
				return name, nil
			}
		case err == nil && snapshot.IsTerminal():
			return "", apperror.ErrGameNotActive
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
