// Package patch holds the patch plan model and applies plans to a dom.Document.
//
// Plans come from an unreliable text generator, so parsing never fails and
// every operation is validated lazily, one at a time, while it is applied.
package patch

import (
	"encoding/json"
	"strings"

	"github.com/aisites/siteeditor/internal/transform"
)

// Kind is the operation tag carried in the "op" field.
type Kind string

const (
	KindReplaceText Kind = "replaceText"
	KindAppendHTML  Kind = "appendHtml"
	KindSetAttr     Kind = "setAttr"
	KindRemove      Kind = "remove"
)

// Position values accepted by appendHtml.
const (
	PositionBeforeEnd  = "beforeend"
	PositionAfterBegin = "afterbegin"
	PositionBefore     = "before"
	PositionAfter      = "after"
)

// Op is one edit. Fields that do not apply to Kind are ignored.
type Op struct {
	Kind     Kind    `json:"op"`
	Selector string  `json:"selector"`
	Text     *string `json:"text,omitempty"`
	Position string  `json:"position,omitempty"`
	HTML     string  `json:"html,omitempty"`
	Name     string  `json:"name,omitempty"`
	Value    *string `json:"value,omitempty"`
}

// Plan is an ordered list of operations. Each operation sees the effects
// of the ones before it.
type Plan struct {
	Ops []Op `json:"ops"`
}

// Inert reports whether the op can never do anything: no kind, an unknown
// kind or no selector.
func (o Op) Inert() bool {
	if strings.TrimSpace(o.Selector) == "" {
		return true
	}
	switch o.Kind {
	case KindReplaceText, KindAppendHTML, KindSetAttr, KindRemove:
		return false
	}
	return true
}

// NeedsSnippet reports whether the op is an appendHtml without markup.
func (o Op) NeedsSnippet() bool {
	return o.Kind == KindAppendHTML && strings.TrimSpace(o.HTML) == ""
}

type wirePlan struct {
	Ops []json.RawMessage `json:"ops"`
}

// Parse turns generator output into a Plan. A fenced-code wrapper is
// stripped first. Text that is not a JSON object with an "ops" array
// yields the empty plan. An individual op that fails to decode (for
// example a number where a string belongs) is kept as an inert op so it is
// reported as skipped while the rest of the plan still applies.
func Parse(text string) Plan {
	var wire wirePlan
	if err := json.Unmarshal([]byte(transform.StripFence(text)), &wire); err != nil {
		return Plan{Ops: []Op{}}
	}

	plan := Plan{Ops: make([]Op, 0, len(wire.Ops))}
	for _, raw := range wire.Ops {
		var op Op
		if err := json.Unmarshal(raw, &op); err != nil {
			op = Op{}
		}
		plan.Ops = append(plan.Ops, op)
	}
	return plan
}
