// Command client plays a game against the server from a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/client"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
	"github.com/rocketscienceinc/tictactoe-cafe/internal/pkg"
)

const lobbyPollInterval = 2 * time.Second

var errNameRequired = errors.New("a player name is required (-name)")

func main() {
	server := flag.String("server", "http://localhost:3001", "game server base URL")
	name := flag.String("name", "", "your player name")
	code := flag.String("code", "", "game code to join; empty creates a new game")
	debug := flag.Bool("debug", false, "log client internals to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, client.NewAPI(*server, 0), *name, *code, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, api *client.API, name, code string, in io.Reader, out io.Writer) error {
	if strings.TrimSpace(name) == "" {
		return errNameRequired
	}

	code, seat, err := enterGame(ctx, api, name, code, out)
	if err != nil {
		return err
	}

	view := newTerminal(out, seat)
	session := client.NewSession(logger, api, view, code, seat, client.DefaultPollInterval)
	session.Start(ctx)
	defer session.Stop()

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	lines := readLines(readCtx, in)

	fmt.Fprintln(out, "Enter a cell 0-8 to move, q to quit.")

	for {
		select {
		case <-ctx.Done():
			session.Quit(ctx)
			return nil
		case <-view.finished:
			return nil
		case line, ok := <-lines:
			if !ok || line == "q" {
				session.Quit(ctx)
				fmt.Fprintln(out, "You left the game.")
				return nil
			}

			cell, convErr := strconv.Atoi(line)
			if convErr != nil {
				fmt.Fprintln(out, "Enter a number from 0 to 8.")
				continue
			}

			if moveErr := session.Move(ctx, cell); moveErr != nil {
				fmt.Fprintf(out, "Move refused: %v\n", moveErr)
			}
		}
	}
}

// enterGame joins code when given and otherwise creates a lobby and waits
// in it. It returns the game code and the seat taken.
func enterGame(ctx context.Context, api *client.API, name, code string, out io.Writer) (string, entity.Seat, error) {
	if code = pkg.NormalizeGameCode(code); code != "" {
		resp, err := api.Join(ctx, code, name)
		if err != nil {
			return "", entity.SeatNone, err
		}

		fmt.Fprintf(out, "Joined game %s against %s. You play O.\n", code, resp.OpponentName)

		return code, resp.Seat, nil
	}

	code, err := api.Create(ctx, name)
	if err != nil {
		return "", entity.SeatNone, err
	}

	fmt.Fprintf(out, "Game code: %s. Waiting for an opponent...\n", code)

	opponent, err := client.WaitForOpponent(ctx, api, code, entity.SeatX, lobbyPollInterval)
	if err != nil {
		return "", entity.SeatNone, fmt.Errorf("waiting for opponent: %w", err)
	}

	fmt.Fprintf(out, "%s joined. You play X.\n", opponent)

	return code, entity.SeatX, nil
}

// readLines forwards trimmed lines from in until it is exhausted or ctx is
// done. The channel is closed in both cases.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}
