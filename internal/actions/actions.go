// Package actions implements every per-action primitive named in spec §4.5:
// navigation, click, the four type modes, select/check/uncheck,
// hover/dragAndDrop, fill(map), the extract family, the wait family, the
// page family (screenshot/pdf/scroll/getPageState), assertion helper
// factories, the five semantic actions, and structured extraction. Every
// primitive wraps engine.ExecuteAction, so it inherits retries, popup
// dismissal, trace emission, and screenshot-on-failure for free.
package actions

import (
	"context"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/handle"
	"github.com/ametel01/claw-browser-automation/internal/resilience"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// defaultResolveBudget bounds a single selector resolution when the caller
// does not supply one explicitly.
const defaultResolveBudget = 15 * time.Second

// Target identifies the element an action acts on: either a fresh selector
// to resolve, or a handle ID to re-resolve via the session's registry.
// Exactly one should be set; HandleID takes precedence when both are.
type Target struct {
	Selector selector.Selector
	HandleID string
}

// Context bundles the per-call dependencies action primitives need beyond
// what engine.Session already carries: the session's handle registry and
// the artifact writer used by screenshot/pdf.
type Context struct {
	Session       *engine.Session
	Handles       *handle.Registry
	WriteArtifact func(sessionID string, epochMs int64, action, label, ext string, data []byte) (string, error)
}

// resolve locates tgt's element, going through the handle registry when a
// HandleID is set and through a fresh selector.Resolve otherwise.
func (c *Context) resolve(ctx context.Context, tgt Target, state selector.WaitState, budget time.Duration) (driver.Element, selector.Resolution, error) {
	if budget <= 0 {
		budget = defaultResolveBudget
	}

	if tgt.HandleID != "" {
		outcome, err := handle.Resolve(ctx, c.Handles, c.Session.Page, tgt.HandleID, budget)
		if err != nil {
			return nil, selector.Resolution{}, err
		}
		return outcome.Element, outcome.Resolution, nil
	}

	res, err := selector.Resolve(ctx, c.Session.Page, tgt.Selector, state, budget)
	if err != nil {
		return nil, selector.Resolution{}, err
	}
	return res.Locator, res, nil
}

// stabilize runs the default DOM-stability wait and records one wait in the
// current attempt's trace metadata.
func stabilize(ctx context.Context, page driver.Page) {
	resilience.WaitForDOMStability(ctx, page, resilience.DefaultStabilityOptions())
	recordWait(ctx)
}

func recordWait(ctx context.Context) {
	if meta := engine.TraceMetaFrom(ctx); meta != nil {
		meta.WaitsPerformed++
	}
}

func recordSelectorResolved(ctx context.Context, res selector.Resolution) {
	if meta := engine.TraceMetaFrom(ctx); meta != nil {
		meta.SelectorResolved = res.Strategy.String()
	}
}

func recordEvent(ctx context.Context) {
	if meta := engine.TraceMetaFrom(ctx); meta != nil {
		meta.EventsDispatched++
	}
}

func recordAssertion(ctx context.Context) {
	if meta := engine.TraceMetaFrom(ctx); meta != nil {
		meta.AssertionsChecked++
	}
}

// scrollIntoView brings el into the viewport before an interaction that
// requires it, tolerating drivers that do not support bounding-box queries
// by treating a query error as "already visible enough."
func scrollIntoView(ctx context.Context, page driver.Page, el driver.Element) {
	rect, err := el.BoundingBox(ctx)
	if err != nil {
		return
	}
	_, _ = page.Evaluate(ctx, scrollIntoViewScript, []float64{rect.X, rect.Y})
}

const scrollIntoViewScript = `([x, y]) => window.scrollTo({top: Math.max(y - 100, 0), left: Math.max(x - 100, 0), behavior: "instant"})`

func timeoutErr(action string) error {
	return errtax.New(errtax.TimeoutExceeded, action+" timed out")
}

// readBackValue reads an input-like element's current value for
// fill-mode verification: the "value" attribute when present, falling back
// to text content for elements that carry their content as text rather
// than a value attribute.
func readBackValue(ctx context.Context, el driver.Element) (string, error) {
	if value, ok, err := el.GetAttribute(ctx, "value"); err == nil && ok {
		return value, nil
	}
	return el.TextContent(ctx)
}
