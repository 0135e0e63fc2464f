// Package pipeline turns a natural-language command into an edit of a
// stored site document.
//
// The structured path asks the generator for a small patch plan and
// applies it to the parsed tree. If any stage of that path fails, a coarse
// fallback asks for a complete replacement body instead.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/aisites/siteeditor/internal/dom"
	"github.com/aisites/siteeditor/internal/journal"
	"github.com/aisites/siteeditor/internal/llm"
	"github.com/aisites/siteeditor/internal/patch"
	"github.com/aisites/siteeditor/internal/storage"
	"github.com/aisites/siteeditor/internal/transform"
)

const (
	planMaxTokens   = 550
	planTemperature = 0.2
)

type Editor struct {
	Store     storage.DocumentStore
	Generator llm.Generator
	Journal   journal.Recorder
	Logger    *slog.Logger
	Options   Options

	locks      keyedMutex
	policyOnce sync.Once
	policy     *bluemonday.Policy
}

func (e *Editor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Editor) snippetPolicy() *bluemonday.Policy {
	if !e.Options.SanitizeSnippets {
		return nil
	}
	e.policyOnce.Do(func() { e.policy = snippetPolicy() })
	return e.policy
}

// Edit applies command to the document of siteID and saves it. Input
// errors (ErrInvalidInput, storage.ErrInvalidID, storage.ErrNotFound) are
// returned before any generation happens. Otherwise the error, if any,
// wraps ErrEditFailed.
func (e *Editor) Edit(ctx context.Context, siteID, command string) (Result, error) {
	if e.Store == nil || e.Generator == nil {
		return Result{}, errors.New("editor missing dependencies")
	}
	siteID = strings.TrimSpace(siteID)
	command = strings.TrimSpace(command)
	if siteID == "" || command == "" {
		return Result{}, ErrInvalidInput
	}
	if err := storage.ValidateID(siteID); err != nil {
		return Result{}, err
	}

	if e.Options.LockDocuments {
		unlock := e.locks.Lock(siteID)
		defer unlock()
	}

	start := time.Now()
	log := e.logger().With("site", siteID)

	raw, err := e.Store.Load(ctx, siteID)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{}, err
	}

	res := Result{SiteID: siteID, Mode: ModePatch}
	if err == nil {
		err = e.patch(ctx, log, &res, siteID, command, raw)
	} else {
		err = &patchError{Stage: "load", Err: err}
	}

	if err != nil {
		log.Warn("patch path failed, rewriting body", "error", err)
		res.Mode = ModeFallback
		if ferr := e.rewrite(ctx, siteID, command); ferr != nil {
			res.Duration = time.Since(start)
			ferr = fmt.Errorf("%w: %w", ErrEditFailed, ferr)
			log.Error("edit failed", "error", ferr, "duration", res.Duration)
			e.record(ctx, log, res, command, ferr)
			return Result{}, ferr
		}
	}

	res.Duration = time.Since(start)
	log.Info("edit done",
		"mode", res.Mode,
		"applied", res.Report.Applied,
		"skipped", res.Report.Skipped,
		"failed", res.Report.Failed,
		"snippets", res.Snippets,
		"duration", res.Duration)
	e.record(ctx, log, res, command, nil)
	return res, nil
}

// patch runs the structured path on raw and saves the result. res collects
// the report even when a later stage fails.
func (e *Editor) patch(ctx context.Context, log *slog.Logger, res *Result, siteID, command string, raw []byte) error {
	doc, err := dom.Load(bytes.NewReader(raw))
	if err != nil {
		return &patchError{Stage: "parse", Err: err}
	}

	document := string(raw)
	body, found := transform.ExtractBody(document)
	if !found {
		body = document
	}
	prompt, err := planPrompt(command, transform.BuildIndex(body), transform.Slim(document))
	if err != nil {
		return &patchError{Stage: "prompt", Err: err}
	}

	text, err := e.Generator.Complete(ctx, llm.Request{
		Purpose:     "plan",
		System:      planSystem,
		User:        prompt,
		MaxTokens:   planMaxTokens,
		Temperature: planTemperature,
		Timeout:     e.Options.Timeout,
	})
	// A blank answer is the empty plan, not a failed call.
	if errors.Is(err, llm.ErrEmptyCompletion) {
		text, err = "", nil
	}
	if err != nil {
		return &patchError{Stage: "plan", Err: err}
	}

	plan := patch.Parse(text)
	log.Debug("plan parsed", "ops", len(plan.Ops))
	res.Snippets = fillSnippets(ctx, e.Generator, &plan, command, e.Options, e.snippetPolicy(), log)
	res.Report = patch.Apply(doc, plan, log)

	out, err := doc.Render()
	if err != nil {
		return &patchError{Stage: "render", Err: err}
	}
	if err := e.Store.Save(ctx, siteID, []byte(out)); err != nil {
		return &patchError{Stage: "save", Err: err}
	}
	return nil
}

// record writes the journal entry. Journal failures never fail the edit.
func (e *Editor) record(ctx context.Context, log *slog.Logger, res Result, command string, editErr error) {
	if e.Journal == nil {
		return
	}
	entry := journal.Entry{
		SiteID:     res.SiteID,
		Command:    command,
		Mode:       string(res.Mode),
		Status:     "ok",
		OpsTotal:   len(res.Report.Results),
		OpsApplied: res.Report.Applied,
		OpsSkipped: res.Report.Skipped,
		OpsFailed:  res.Report.Failed,
		DurationMS: res.Duration.Milliseconds(),
	}
	if editErr != nil {
		entry.Status = "failed"
		entry.Error = editErr.Error()
	}
	// The request context may already be done; the entry is still wanted.
	if _, err := e.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("journal write failed", "error", err)
	}
}
