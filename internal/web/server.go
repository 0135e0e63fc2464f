// Package web exposes the site editor over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aisites/siteeditor/internal/journal"
	"github.com/aisites/siteeditor/internal/pipeline"
	"github.com/aisites/siteeditor/internal/storage"
)

// maxRequestBody caps the JSON body of an edit request.
const maxRequestBody = 5 << 20

// Editor runs one edit request.
type Editor interface {
	Edit(ctx context.Context, siteID, command string) (pipeline.Result, error)
}

// EditLog reads back recorded edits.
type EditLog interface {
	Recent(ctx context.Context, siteID string, limit int) ([]journal.Entry, error)
	Search(ctx context.Context, siteID, query string, limit int) ([]journal.Entry, error)
}

type Server struct {
	logger  *slog.Logger
	editor  Editor
	store   storage.DocumentStore
	journal EditLog
}

// NewServer wires the handlers. journal may be nil, in which case the edit
// history endpoint answers 503.
func NewServer(logger *slog.Logger, editor Editor, store storage.DocumentStore, journal EditLog) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger, editor: editor, store: store, journal: journal}
}

// Handler returns the routed handler with request logging and gzip.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests, gzipHandler)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/chatbot", s.handleChatbot)
	r.Get("/api/sites/{siteID}/edits", s.handleEdits)
	r.Get("/sites/{siteID}", redirectSlash)
	r.Get("/sites/{siteID}/", s.handleSite)
	r.Get("/sites/{siteID}/index.html", s.handleSite)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	return r
}

// ListenAndServe serves until ctx is done, then drains open requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
