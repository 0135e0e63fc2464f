package pipeline

import (
	"errors"
	"time"

	"github.com/aisites/siteeditor/internal/config"
	"github.com/aisites/siteeditor/internal/patch"
)

var (
	// ErrInvalidInput is returned for a blank site id or command.
	ErrInvalidInput = errors.New("siteId and command are required")
	// ErrEditFailed is returned when both the patch path and the fallback
	// rewrite failed. It wraps the fallback error.
	ErrEditFailed = errors.New("edit failed")
)

// Mode tells which path produced the saved document.
type Mode string

const (
	ModePatch    Mode = "patch"
	ModeFallback Mode = "fallback"
)

// Caller-facing confirmation messages.
const (
	MessageUpdated         = "Site updated."
	MessageUpdatedFallback = "Site updated. (fallback)"
	MessageFailed          = "AI edit failed."
)

// Result describes a successful edit.
type Result struct {
	SiteID   string
	Mode     Mode
	Report   patch.Report
	Snippets int
	Duration time.Duration
}

// Message is the confirmation shown to the user for r.
func (r Result) Message() string {
	if r.Mode == ModeFallback {
		return MessageUpdatedFallback
	}
	return MessageUpdated
}

// Options tune an Editor. The zero value runs without generation timeouts,
// without sanitizing snippets, one snippet at a time and without locking.
type Options struct {
	Timeout            time.Duration
	SnippetConcurrency int
	SanitizeSnippets   bool
	LockDocuments      bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:            cfg.EditTimeout(),
		SnippetConcurrency: cfg.Edit.SnippetConcurrency,
		SanitizeSnippets:   cfg.SanitizeSnippets(),
		LockDocuments:      cfg.LockDocuments(),
	}
}

// patchError marks a failure of the structured path; the caller recovers
// from it with the fallback rewrite.
type patchError struct {
	Stage string
	Err   error
}

func (e *patchError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *patchError) Unwrap() error { return e.Err }
