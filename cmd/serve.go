package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"smart-notes/config"
	"smart-notes/db"
	"smart-notes/handlers"
	"smart-notes/llm"
	appmw "smart-notes/middleware"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	store, err := openStore(a.cfg, a.log)
	if err != nil {
		return err
	}
	defer store.Close()

	h := handlers.New(store, newAssistant(a.cfg, a.log), a.log)
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           NewRouter(h, a.cfg.CORSOrigins, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("store", store.Kind()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// NewRouter mounts the API with the request id, recovery, access log and
// CORS middleware in front of it.
func NewRouter(h *handlers.Handler, origins []string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(appmw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS(origins))

	h.Register(r)
	return r
}

// openStore returns the in-memory store when no database is configured.
func openStore(cfg config.Config, log zerolog.Logger) (db.NoteStore, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, notes are kept in memory only")
		return db.NewMemoryStore(), nil
	}
	return db.Open(cfg.DatabaseURL, log)
}

// newAssistant builds the LLM client. Without a token the server still
// starts and the LLM endpoints answer 500.
func newAssistant(cfg config.Config, log zerolog.Logger) handlers.Assistant {
	client, err := llm.New(cfg.LLM(), log)
	if err != nil {
		log.Warn().Err(err).Msg("LLM features disabled")
		return llm.Unavailable{Err: err}
	}
	return client
}
