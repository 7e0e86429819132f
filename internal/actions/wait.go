package actions

import (
	"context"
	"strings"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// WaitForSelector blocks until tgt satisfies state (visible/hidden/attached/
// detached) or budget elapses.
func (c *Context) WaitForSelector(ctx context.Context, sel selector.Selector, state selector.WaitState, budget time.Duration, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "waitForSelector", opts, func(ctx context.Context) (struct{}, error) {
		_, err := selector.Resolve(ctx, c.Session.Page, sel, state, budget)
		recordWait(ctx)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

// WaitForCondition polls predicate until it returns true or budget elapses.
func (c *Context) WaitForCondition(ctx context.Context, predicate func(ctx context.Context) (bool, error), budget time.Duration, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "waitForCondition", opts, func(ctx context.Context) (struct{}, error) {
		deadline := time.Now().Add(budget)
		for {
			ok, err := predicate(ctx)
			if err != nil {
				return struct{}{}, err
			}
			if ok {
				recordWait(ctx)
				return struct{}{}, nil
			}
			if time.Now().After(deadline) {
				recordWait(ctx)
				return struct{}{}, errtax.New(errtax.TimeoutExceeded, "waitForCondition timed out")
			}
			select {
			case <-ctx.Done():
				return struct{}{}, errtax.Wrap(errtax.TimeoutExceeded, ctx.Err(), "waitForCondition cancelled")
			case <-time.After(50 * time.Millisecond):
			}
		}
	})
}

// WaitForNetworkIdle waits for the driver's "networkidle" load state.
func (c *Context) WaitForNetworkIdle(ctx context.Context, budget time.Duration, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "waitForNetworkIdle", opts, func(ctx context.Context) (struct{}, error) {
		err := c.Session.Page.WaitForLoadState(ctx, "networkidle", budget)
		recordWait(ctx)
		return struct{}{}, err
	})
}

// WaitForURL polls the page's current URL until it contains substr or
// budget elapses.
func (c *Context) WaitForURL(ctx context.Context, substr string, budget time.Duration, opts engine.Options) engine.ActionResult[struct{}] {
	return c.WaitForCondition(ctx, func(ctx context.Context) (bool, error) {
		return strings.Contains(c.Session.Page.URL(), substr), nil
	}, budget, opts)
}
