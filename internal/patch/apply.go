package patch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aisites/siteeditor/internal/dom"
)

// Outcome classifies what happened to a single op.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

var (
	errInert     = errors.New("op has no selector or an unknown kind")
	errNoMatch   = errors.New("selector matched nothing")
	errNoName    = errors.New("setAttr without a name")
	errNoRoot    = errors.New("document has no root")
	errAttrName  = errors.New("invalid attribute name")
	errSkipCause = []error{errInert, errNoMatch, errNoName}
)

// OpError describes why one op did not apply. It is logged and recorded in
// the Report, never returned to callers of Apply.
type OpError struct {
	Index    int
	Kind     Kind
	Selector string
	Err      error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s %q): %v", e.Index, e.Kind, e.Selector, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// OpResult is the per-op entry of a Report.
type OpResult struct {
	Index   int
	Kind    Kind
	Outcome Outcome
	Matched int
	Err     error
}

// Report summarises a plan application.
type Report struct {
	Applied int
	Skipped int
	Failed  int
	Results []OpResult
}

// Apply executes plan against doc in order. Each op resolves its selector
// against the tree as left by the previous ops. A failing op is logged and
// abandoned; the remaining ops still run, so a partially applied plan is a
// normal outcome. Apply never returns an error.
func Apply(doc *dom.Document, plan Plan, logger *slog.Logger) Report {
	if logger == nil {
		logger = slog.Default()
	}

	report := Report{Results: make([]OpResult, 0, len(plan.Ops))}
	for i, op := range plan.Ops {
		matched, err := applyOp(doc, op)
		res := OpResult{Index: i, Kind: op.Kind, Matched: matched, Outcome: OutcomeApplied}

		if err != nil {
			opErr := &OpError{Index: i, Kind: op.Kind, Selector: op.Selector, Err: err}
			res.Err = opErr
			if isSkip(err) {
				res.Outcome = OutcomeSkipped
				logger.Debug("patch op skipped", "index", i, "op", op.Kind, "selector", op.Selector, "reason", err)
			} else {
				res.Outcome = OutcomeFailed
				logger.Warn("patch op failed", "index", i, "op", op.Kind, "selector", op.Selector, "error", err)
			}
		}

		switch res.Outcome {
		case OutcomeApplied:
			report.Applied++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeFailed:
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func isSkip(err error) bool {
	for _, cause := range errSkipCause {
		if errors.Is(err, cause) {
			return true
		}
	}
	return false
}

// applyOp runs a single op. The tree library panics on some inconsistent
// manipulations; such a panic is turned into this op's error.
func applyOp(doc *dom.Document, op Op) (matched int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if op.Inert() {
		return 0, errInert
	}
	if op.Kind == KindSetAttr && op.Name == "" {
		return 0, errNoName
	}
	if op.Kind == KindSetAttr && !dom.ValidAttrName(op.Name) {
		return 0, fmt.Errorf("%w %q", errAttrName, op.Name)
	}
	if doc == nil || doc.Root() == nil {
		return 0, errNoRoot
	}

	nodes, err := doc.QuerySelectorAll(op.Selector)
	if err != nil {
		return 0, err
	}
	if len(nodes) == 0 {
		return 0, errNoMatch
	}
	// Checked before any mutation so a rejected op leaves every match as it was.
	if insertsChildren(op) {
		for _, n := range nodes {
			if dom.IsVoid(n) {
				return len(nodes), fmt.Errorf("%w: <%s>", dom.ErrVoidElement, n.Data)
			}
		}
	}

	switch op.Kind {
	case KindReplaceText:
		text := ""
		if op.Text != nil {
			text = *op.Text
		}
		for _, n := range nodes {
			dom.SetText(n, text)
		}
	case KindAppendHTML:
		pos := insertPosition(op.Position)
		for _, n := range nodes {
			if err := dom.InsertHTML(n, pos, op.HTML); err != nil {
				return len(nodes), err
			}
		}
	case KindSetAttr:
		value := ""
		if op.Value != nil {
			value = *op.Value
		}
		for _, n := range nodes {
			dom.SetAttr(n, op.Name, value)
		}
	case KindRemove:
		for _, n := range nodes {
			dom.Detach(n)
		}
	}
	return len(nodes), nil
}

func insertsChildren(op Op) bool {
	switch op.Kind {
	case KindReplaceText:
		return true
	case KindAppendHTML:
		if op.NeedsSnippet() {
			return false
		}
		pos := insertPosition(op.Position)
		return pos == dom.AfterBegin || pos == dom.BeforeEnd
	}
	return false
}

func insertPosition(position string) dom.Position {
	switch position {
	case PositionAfterBegin:
		return dom.AfterBegin
	case PositionBefore:
		return dom.BeforeBegin
	case PositionAfter:
		return dom.AfterEnd
	default:
		return dom.BeforeEnd
	}
}
