// Package app assembles the editor and its dependencies from a Config.
// Both the server and the CLIs start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aisites/siteeditor/internal/config"
	"github.com/aisites/siteeditor/internal/journal"
	"github.com/aisites/siteeditor/internal/llm"
	"github.com/aisites/siteeditor/internal/pipeline"
	"github.com/aisites/siteeditor/internal/storage"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   storage.DocumentStore
	Journal *journal.SQLiteJournal
	Editor  *pipeline.Editor
}

// New builds the store, the journal (when journal_path is set), the
// generator and the editor.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	gen, err := llm.New(ctx, cfg.LLM, cfg.EditTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Store: store}
	editor := &pipeline.Editor{
		Store:     store,
		Generator: gen,
		Logger:    logger,
		Options:   pipeline.OptionsFromConfig(cfg),
	}

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		a.Journal = j
		editor.Journal = j
	}
	a.Editor = editor

	logger.Info("editor ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"storage", cfg.Storage.Backend,
		"journal", cfg.JournalPath != "")
	return a, nil
}

// EditLog returns the journal as a read interface, or nil when none is
// configured. A typed nil must not leak into an interface value.
func (a *App) EditLog() interface {
	Recent(ctx context.Context, siteID string, limit int) ([]journal.Entry, error)
	Search(ctx context.Context, siteID, query string, limit int) ([]journal.Entry, error)
} {
	if a.Journal == nil {
		return nil
	}
	return a.Journal
}

func (a *App) Close() error {
	var errs []error
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	return errors.Join(errs...)
}
