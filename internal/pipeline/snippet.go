package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/aisites/siteeditor/internal/llm"
	"github.com/aisites/siteeditor/internal/patch"
	"github.com/aisites/siteeditor/internal/transform"
)

const (
	snippetMaxTokens   = 250
	snippetTemperature = 0.2
)

// snippetPolicy allows ordinary page markup with inline styles and ids but
// no scripts, event handlers or embedded frames.
func snippetPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowAttrs("id", "title", "role", "aria-label").Globally()
	p.AllowStyles("color", "background", "background-color", "font-size", "font-weight", "font-style",
		"text-align", "text-decoration", "margin", "padding", "border", "border-radius",
		"display", "gap", "width", "max-width", "height").Globally()
	p.AllowElements("section", "header", "footer", "nav", "main", "article", "aside", "figure", "figcaption", "span", "div")
	p.AllowAttrs("type", "name", "disabled").OnElements("button")
	p.AllowElements("button")
	p.AllowAttrs("type", "name", "placeholder", "value", "required").OnElements("input", "textarea", "select")
	p.AllowAttrs("action", "method").OnElements("form")
	p.AllowElements("form", "label", "option")
	p.AllowAttrs("for").OnElements("label")
	p.AllowAttrs("value").OnElements("option")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	p.RequireNoFollowOnLinks(false)
	return p
}

// fillSnippets asks the generator for markup for every appendHtml op that
// has none. Fills run concurrently up to limit; all finish before it
// returns. A failed fill leaves the op empty, which inserts nothing.
func fillSnippets(ctx context.Context, gen llm.Generator, plan *patch.Plan, command string, opts Options, policy *bluemonday.Policy, logger *slog.Logger) int {
	limit := opts.SnippetConcurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	filled := make([]bool, len(plan.Ops))
	for i := range plan.Ops {
		op := &plan.Ops[i]
		if !op.NeedsSnippet() || op.Inert() {
			continue
		}
		g.Go(func() error {
			text, err := gen.Complete(ctx, llm.Request{
				Purpose:     "snippet",
				System:      snippetSystem,
				User:        snippetPrompt(command, op.Selector),
				MaxTokens:   snippetMaxTokens,
				Temperature: snippetTemperature,
				Timeout:     opts.Timeout,
			})
			if err != nil {
				logger.Warn("snippet generation failed", "index", i, "selector", op.Selector, "error", err)
				return nil
			}
			html := transform.StripFence(text)
			if policy != nil {
				html = policy.Sanitize(html)
			}
			op.HTML = strings.TrimSpace(html)
			filled[i] = op.HTML != ""
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range filled {
		if ok {
			n++
		}
	}
	return n
}
