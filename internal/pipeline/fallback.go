package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aisites/siteeditor/internal/llm"
	"github.com/aisites/siteeditor/internal/transform"
)

const (
	fallbackMaxTokens   = 1200
	fallbackTemperature = 0.25
)

var errEmptyRewrite = errors.New("generator returned an empty body")

// rewrite is the coarse recovery path: it re-reads the stored document,
// asks the generator to rewrite the whole body and splices the answer over
// the old body by text position. Nothing is parsed, so it also works on
// documents the structured path could not handle.
func (e *Editor) rewrite(ctx context.Context, siteID, command string) error {
	raw, err := e.Store.Load(ctx, siteID)
	if err != nil {
		return fmt.Errorf("reload document: %w", err)
	}
	document := string(raw)

	body, found := transform.ExtractBody(document)
	if !found {
		body = document
	}
	body = transform.TruncateChars(body, transform.MaxFallbackBodyChars)

	text, err := e.Generator.Complete(ctx, llm.Request{
		Purpose:     "fallback",
		System:      fallbackSystem,
		User:        fallbackPrompt(command, body),
		MaxTokens:   fallbackMaxTokens,
		Temperature: fallbackTemperature,
		Timeout:     e.Options.Timeout,
	})
	if err != nil {
		return fmt.Errorf("generate body: %w", err)
	}
	newBody := strings.TrimSpace(transform.StripFence(text))
	if newBody == "" {
		return errEmptyRewrite
	}

	if err := e.Store.Save(ctx, siteID, []byte(transform.ReplaceBody(document, newBody))); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
