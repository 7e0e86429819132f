// Package selector resolves a Selector (CSS string, single strategy, or an
// ordered fallback chain) against a driver.Page, reporting which strategy
// won and how long resolution took.
package selector

import (
	"context"
	"fmt"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
)

// Kind tags a Strategy variant.
type Kind string

const (
	KindCSS   Kind = "css"
	KindARIA  Kind = "aria"
	KindText  Kind = "text"
	KindLabel Kind = "label"
	KindTestID Kind = "testid"
	KindXPath Kind = "xpath"
)

// Strategy is a tagged-union value describing how to locate an element.
// Exactly the fields relevant to Kind are populated; callers should build
// these via the New* constructors rather than setting fields directly.
type Strategy struct {
	Kind Kind

	// aria
	Role string
	Name string

	// text
	Text  string
	Exact bool

	// label
	Label string

	// testid
	TestID string

	// css
	CSS string

	// xpath
	XPath string
}

func CSS(css string) Strategy          { return Strategy{Kind: KindCSS, CSS: css} }
func ARIA(role, name string) Strategy  { return Strategy{Kind: KindARIA, Role: role, Name: name} }
func Text(text string, exact bool) Strategy { return Strategy{Kind: KindText, Text: text, Exact: exact} }
func Label(text string) Strategy       { return Strategy{Kind: KindLabel, Label: text} }
func TestID(id string) Strategy        { return Strategy{Kind: KindTestID, TestID: id} }
func XPath(expr string) Strategy       { return Strategy{Kind: KindXPath, XPath: expr} }

// Equal reports deep equality between two strategies — used by the handle
// registry to detect a winning-strategy change across re-resolution.
func (s Strategy) Equal(other Strategy) bool {
	return s == other
}

func (s Strategy) String() string {
	switch s.Kind {
	case KindCSS:
		return fmt.Sprintf("css(%s)", s.CSS)
	case KindARIA:
		return fmt.Sprintf("aria(%s,%s)", s.Role, s.Name)
	case KindText:
		return fmt.Sprintf("text(%s,exact=%v)", s.Text, s.Exact)
	case KindLabel:
		return fmt.Sprintf("label(%s)", s.Label)
	case KindTestID:
		return fmt.Sprintf("testid(%s)", s.TestID)
	case KindXPath:
		return fmt.Sprintf("xpath(%s)", s.XPath)
	default:
		return "unknown"
	}
}

// Selector is either a bare CSS string, a single strategy, or a non-empty
// ordered fallback chain. Exactly one of the three should be set; use the
// New* constructors.
type Selector struct {
	css      string
	single   *Strategy
	chain    []Strategy
}

func FromCSS(css string) Selector            { return Selector{css: css} }
func FromStrategy(s Strategy) Selector       { return Selector{single: &s} }
func FromChain(chain []Strategy) Selector    { return Selector{chain: chain} }

// Strategies returns the selector as an ordered chain, regardless of which
// constructor built it. A bare CSS string or single strategy becomes a
// one-element chain.
func (s Selector) Strategies() []Strategy {
	if s.css != "" {
		return []Strategy{CSS(s.css)}
	}
	if s.single != nil {
		return []Strategy{*s.single}
	}
	return s.chain
}

// WaitState is the desired presence/visibility state to resolve against.
type WaitState string

const (
	Visible  WaitState = "visible"
	Hidden   WaitState = "hidden"
	Attached WaitState = "attached"
	Detached WaitState = "detached"
)

// Resolution records which strategy won and how.
type Resolution struct {
	Locator       driver.Element
	Strategy      Strategy
	StrategyIndex int
	ResolutionMs  int64
	ChainLength   int
}

// perStrategyCap bounds how long a single strategy probe may consume
// within the overall budget, so one unlucky entry in a long chain cannot
// starve the rest.
const perStrategyCap = 2000 * time.Millisecond

// Resolve resolves sel against page for the desired wait state, within
// budget. See internal/selector's package doc and spec §4.2 for the full
// contract: hidden/detached probe only the first strategy; visible/attached
// try left-to-right, each capped at min(remaining, 2000ms).
func Resolve(ctx context.Context, page driver.Page, sel Selector, state WaitState, budget time.Duration) (Resolution, error) {
	chain := sel.Strategies()
	if len(chain) == 0 {
		return Resolution{}, errtax.New(errtax.TargetNotFound, "selector chain is empty").
			WithHint("provide at least one selector strategy")
	}

	start := time.Now()
	deadline := start.Add(budget)

	probeCount := len(chain)
	if state == Hidden || state == Detached {
		probeCount = 1
	}

	for i := 0; i < probeCount; i++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		perCall := remaining
		if perCall > perStrategyCap {
			perCall = perStrategyCap
		}

		el, ok, err := probe(ctx, page, chain[i], state, perCall)
		if err != nil {
			continue // strategies that error are skipped, not fatal
		}
		if ok {
			return Resolution{
				Locator:       el,
				Strategy:      chain[i],
				StrategyIndex: i,
				ResolutionMs:  time.Since(start).Milliseconds(),
				ChainLength:   len(chain),
			}, nil
		}
	}

	return Resolution{}, errtax.New(errtax.TargetNotFound, "no strategy in the chain matched within budget").
		WithHint("widen the selector chain or increase the timeout")
}

// probe resolves a single strategy and polls until it satisfies state or
// timeout elapses. Returns ok=false (no error) on a clean timeout with no
// match; returns an error only when the driver call itself failed.
func probe(ctx context.Context, page driver.Page, s Strategy, state WaitState, timeout time.Duration) (driver.Element, bool, error) {
	deadline := time.Now().Add(timeout)
	const pollInterval = 50 * time.Millisecond

	for {
		els, err := query(ctx, page, s)
		if err != nil {
			return nil, false, err
		}

		switch state {
		case Hidden, Detached:
			if len(els) == 0 {
				return nil, true, nil
			}
			visible, _ := els[0].IsVisible(ctx)
			attached, _ := els[0].IsAttached(ctx)
			if state == Hidden && !visible {
				return els[0], true, nil
			}
			if state == Detached && !attached {
				return nil, true, nil
			}
		default: // Visible, Attached
			if len(els) > 0 {
				el := els[0]
				attached, _ := el.IsAttached(ctx)
				if state == Attached && attached {
					return el, true, nil
				}
				if state == Visible {
					visible, _ := el.IsVisible(ctx)
					if visible {
						return el, true, nil
					}
				}
			}
		}

		if time.Now().After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func query(ctx context.Context, page driver.Page, s Strategy) ([]driver.Element, error) {
	switch s.Kind {
	case KindCSS:
		el, err := page.QuerySelector(ctx, s.CSS)
		if err != nil {
			return nil, err
		}
		if el == nil {
			return nil, nil
		}
		return []driver.Element{el}, nil
	case KindARIA:
		return page.QueryByRole(ctx, s.Role, s.Name)
	case KindText:
		return page.QueryByText(ctx, s.Text, s.Exact)
	case KindLabel:
		return page.QueryByLabel(ctx, s.Label)
	case KindTestID:
		return page.QueryByTestID(ctx, s.TestID)
	case KindXPath:
		return page.QueryByXPath(ctx, s.XPath)
	default:
		return nil, fmt.Errorf("selector: unknown strategy kind %q", s.Kind)
	}
}
