package toolserver

import (
	"fmt"

	"github.com/ametel01/claw-browser-automation/internal/actions"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// selectorArg is the wire shape of one Selector strategy: callers send a
// bare css string, or one of role/text/label/testId/xpath, or a chain of
// these tried in order. Exactly one of css/role/text/label/testId/xpath
// should be set per element; css is the fallback when nothing else is.
type selectorArg struct {
	CSS    string        `json:"css,omitempty"`
	Role   string        `json:"role,omitempty"`
	Name   string        `json:"name,omitempty"`
	Text   string        `json:"text,omitempty"`
	Exact  bool          `json:"exact,omitempty"`
	Label  string        `json:"label,omitempty"`
	TestID string        `json:"testId,omitempty"`
	XPath  string        `json:"xpath,omitempty"`
	Chain  []selectorArg `json:"chain,omitempty"`
}

func (a selectorArg) strategy() selector.Strategy {
	switch {
	case a.Role != "":
		return selector.ARIA(a.Role, a.Name)
	case a.Text != "":
		return selector.Text(a.Text, a.Exact)
	case a.Label != "":
		return selector.Label(a.Label)
	case a.TestID != "":
		return selector.TestID(a.TestID)
	case a.XPath != "":
		return selector.XPath(a.XPath)
	default:
		return selector.CSS(a.CSS)
	}
}

func (a selectorArg) toSelector() selector.Selector {
	if len(a.Chain) > 0 {
		strategies := make([]selector.Strategy, len(a.Chain))
		for i, link := range a.Chain {
			strategies[i] = link.strategy()
		}
		return selector.FromChain(strategies)
	}
	return selector.FromStrategy(a.strategy())
}

// targetArg is the wire shape of an actions.Target: either a selector or a
// previously registered handle id. handleId takes precedence when both are
// sent, matching actions.Target's own documented precedence.
type targetArg struct {
	Selector *selectorArg `json:"selector,omitempty"`
	HandleID string       `json:"handleId,omitempty"`
}

func (t targetArg) toTarget() (actions.Target, error) {
	if t.HandleID != "" {
		return actions.Target{HandleID: t.HandleID}, nil
	}
	if t.Selector == nil {
		return actions.Target{}, fmt.Errorf("selector or handleId is required")
	}
	return actions.Target{Selector: t.Selector.toSelector()}, nil
}

// targetKey renders a resolved Target for the action log, matching what a
// human skimming the log wants to see: the handle id it was addressed by, or
// its first selector strategy when addressed directly.
func targetKey(tgt actions.Target) string {
	if tgt.HandleID != "" {
		return "handle:" + tgt.HandleID
	}
	strategies := tgt.Selector.Strategies()
	if len(strategies) == 0 {
		return ""
	}
	return strategies[0].String()
}

const selectorSchemaFragment = `{
	"type": "object",
	"description": "One selector strategy: a css string, or exactly one of role/text/label/testId/xpath, or a chain of these tried in order.",
	"properties": {
		"css": {"type": "string", "description": "CSS selector"},
		"role": {"type": "string", "description": "ARIA role"},
		"name": {"type": "string", "description": "Accessible name, paired with role"},
		"text": {"type": "string", "description": "Visible text to match"},
		"exact": {"type": "boolean", "description": "Require an exact text match"},
		"label": {"type": "string", "description": "Associated label text"},
		"testId": {"type": "string", "description": "data-testid value"},
		"xpath": {"type": "string", "description": "XPath expression"},
		"chain": {"type": "array", "description": "Ordered fallback chain of selector strategies", "items": {"type": "object"}}
	}
}`

const targetSchemaFragment = `{
	"type": "object",
	"description": "Either a selector or a previously registered element handle id.",
	"properties": {
		"selector": ` + selectorSchemaFragment + `,
		"handleId": {"type": "string", "description": "A handle id returned by register_element"}
	}
}`
