package actions

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/selector"
)

const assertResolveBudget = 2 * time.Second

// Predicate is the shape engine.Options' Precondition/Postcondition fields
// expect: an assertion that reports (true, nil) on success, (false, nil) on
// a clean failure the caller should surface as AssertionFailed, or a
// non-nil error for anything else.
type Predicate func(ctx context.Context) (bool, error)

// AssertURLContains builds a predicate that checks the current page URL for
// substr.
func (c *Context) AssertURLContains(substr string) Predicate {
	return func(ctx context.Context) (bool, error) {
		recordAssertion(ctx)
		return strings.Contains(c.Session.Page.URL(), substr), nil
	}
}

// AssertElementVisible builds a predicate that checks sel resolves and is
// visible within a short budget.
func (c *Context) AssertElementVisible(sel selector.Selector) Predicate {
	return func(ctx context.Context) (bool, error) {
		recordAssertion(ctx)
		_, err := selector.Resolve(ctx, c.Session.Page, sel, selector.Visible, assertResolveBudget)
		return err == nil, nil
	}
}

// AssertElementGone builds a predicate that checks sel is detached (absent
// from the DOM) within a short budget.
func (c *Context) AssertElementGone(sel selector.Selector) Predicate {
	return func(ctx context.Context) (bool, error) {
		recordAssertion(ctx)
		_, err := selector.Resolve(ctx, c.Session.Page, sel, selector.Detached, assertResolveBudget)
		return err == nil, nil
	}
}

// AssertElementText builds a predicate that resolves sel and checks its
// text content against want, which may be either a literal substring or a
// compiled regular expression.
func (c *Context) AssertElementText(sel selector.Selector, want any) Predicate {
	return func(ctx context.Context) (bool, error) {
		recordAssertion(ctx)
		res, err := selector.Resolve(ctx, c.Session.Page, sel, selector.Visible, assertResolveBudget)
		if err != nil {
			return false, nil
		}
		text, err := res.Locator.TextContent(ctx)
		if err != nil {
			return false, nil
		}

		switch w := want.(type) {
		case *regexp.Regexp:
			return w.MatchString(text), nil
		case string:
			return strings.Contains(text, w), nil
		default:
			return false, nil
		}
	}
}

// AllOf composes predicates, short-circuiting on the first one that fails
// or errors.
func AllOf(predicates ...Predicate) Predicate {
	return func(ctx context.Context) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}
