package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rocketscienceinc/tictactoe-cafe/internal/entity"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	idleTimeout     = 30 * time.Second
	handlerTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

type gameUseCase interface {
	CreateGame(ctx context.Context, playerName string) (string, error)
	JoinGame(ctx context.Context, code, playerName string) (entity.Seat, string, error)
	MakeMove(ctx context.Context, code string, seat entity.Seat, position int) (entity.Outcome, error)
	GetState(ctx context.Context, code string, seat entity.Seat) (entity.Snapshot, bool, error)
	Quit(ctx context.Context, code string, seat entity.Seat) (bool, error)
}

// Server is the HTTP/JSON boundary in front of the game registry.
type Server struct {
	logger *slog.Logger
	games  gameUseCase
	router chi.Router
}

func New(logger *slog.Logger, games gameUseCase, corsOrigin string) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		games:  games,
		router: chi.NewRouter(),
	}

	server.router.Use(chimw.RequestID)
	server.router.Use(chimw.RealIP)
	server.router.Use(server.logRequests)
	server.router.Use(server.recoverer)
	server.router.Use(chimw.Timeout(handlerTimeout))
	server.router.Use(jsonContentType)
	server.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	server.router.Get("/ping", server.pingHandler)

	server.router.Route("/game", func(r chi.Router) {
		r.Post("/create", server.handleCreateGame)
		r.Post("/join", server.handleJoinGame)
		r.Post("/move", server.handleMove)
		r.Get("/state/{gameCode}", server.handleGetState)
		r.Post("/quit/{gameCode}", server.handleQuit)
	})

	server.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		server.writeError(w, http.StatusNotFound, "Endpoint not found")
	})

	return server
}

// Handler exposes the router, mostly for tests.
func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - serves HTTP on port until ctx is canceled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
