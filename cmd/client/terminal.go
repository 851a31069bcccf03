package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/client"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
)

// terminal renders session events as text.
type terminal struct {
	mu       sync.Mutex
	out      io.Writer
	seat     entity.Seat
	finished chan struct{}
}

func newTerminal(out io.Writer, seat entity.Seat) *terminal {
	return &terminal{out: out, seat: seat, finished: make(chan struct{})}
}

func (that *terminal) OnUpdate(snapshot entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintln(that.out, renderBoard(snapshot.Board))

	if snapshot.Status == entity.StatusActive {
		if snapshot.YourTurn != nil && *snapshot.YourTurn {
			fmt.Fprintln(that.out, "Your turn.")
		} else {
			fmt.Fprintln(that.out, "Waiting for the opponent...")
		}
	}
}

func (that *terminal) OnConnectivity(state client.Connectivity) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if state == client.Reconnecting {
		fmt.Fprintln(that.out, "(connection lost, retrying)")
		return
	}

	fmt.Fprintln(that.out, "(connected)")
}

func (that *terminal) OnFinished(result client.Result, snapshot entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case snapshot.Status == entity.StatusAbandoned:
		fmt.Fprintln(that.out, "Your opponent left. You win!")
	case result == client.ResultWin:
		fmt.Fprintln(that.out, "You win!")
	case result == client.ResultLoss:
		fmt.Fprintln(that.out, "You lose.")
	default:
		fmt.Fprintln(that.out, "It's a draw.")
	}

	close(that.finished)
}

func (that *terminal) OnGameGone() {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintln(that.out, "The game no longer exists on the server. Back to the lobby.")
	close(that.finished)
}

// renderBoard draws marks, with empty cells showing their index.
func renderBoard(board entity.Board) string {
	var sb strings.Builder

	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cells[col] = board[i]
			if cells[col] == entity.EmptyCell {
				cells[col] = strconv.Itoa(i)
			}
		}

		sb.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}

	return sb.String()
}
