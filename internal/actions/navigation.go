package actions

import (
	"context"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
)

// NavigationResult is what navigate/reload/back/forward return.
type NavigationResult struct {
	URL string
}

func navigationErr(cause error) error {
	return errtax.Wrap(errtax.NavigationInterrupted, cause, "")
}

// Navigate goes to url, waiting for the "load" lifecycle event.
func (c *Context) Navigate(ctx context.Context, url string, opts engine.Options) engine.ActionResult[NavigationResult] {
	return engine.ExecuteAction(ctx, c.Session, "navigate", opts, func(ctx context.Context) (NavigationResult, error) {
		if err := c.Session.Page.Goto(ctx, url, timeoutOf(ctx, opts)); err != nil {
			return NavigationResult{}, navigationErr(err)
		}
		return NavigationResult{URL: c.Session.Page.URL()}, nil
	})
}

// Reload reloads the current page.
func (c *Context) Reload(ctx context.Context, opts engine.Options) engine.ActionResult[NavigationResult] {
	return engine.ExecuteAction(ctx, c.Session, "reload", opts, func(ctx context.Context) (NavigationResult, error) {
		if err := c.Session.Page.Reload(ctx, timeoutOf(ctx, opts)); err != nil {
			return NavigationResult{}, navigationErr(err)
		}
		return NavigationResult{URL: c.Session.Page.URL()}, nil
	})
}

// Back navigates one entry back in session history.
func (c *Context) Back(ctx context.Context, opts engine.Options) engine.ActionResult[NavigationResult] {
	return engine.ExecuteAction(ctx, c.Session, "back", opts, func(ctx context.Context) (NavigationResult, error) {
		if err := c.Session.Page.GoBack(ctx, timeoutOf(ctx, opts)); err != nil {
			return NavigationResult{}, navigationErr(err)
		}
		return NavigationResult{URL: c.Session.Page.URL()}, nil
	})
}

// Forward navigates one entry forward in session history.
func (c *Context) Forward(ctx context.Context, opts engine.Options) engine.ActionResult[NavigationResult] {
	return engine.ExecuteAction(ctx, c.Session, "forward", opts, func(ctx context.Context) (NavigationResult, error) {
		if err := c.Session.Page.GoForward(ctx, timeoutOf(ctx, opts)); err != nil {
			return NavigationResult{}, navigationErr(err)
		}
		return NavigationResult{URL: c.Session.Page.URL()}, nil
	})
}

// WaitForNavigation blocks until the next navigation completes.
func (c *Context) WaitForNavigation(ctx context.Context, opts engine.Options) engine.ActionResult[NavigationResult] {
	return engine.ExecuteAction(ctx, c.Session, "waitForNavigation", opts, func(ctx context.Context) (NavigationResult, error) {
		if err := c.Session.Page.WaitForNavigation(ctx, timeoutOf(ctx, opts)); err != nil {
			return NavigationResult{}, navigationErr(err)
		}
		recordWait(ctx)
		return NavigationResult{URL: c.Session.Page.URL()}, nil
	})
}

// timeoutOf derives a per-call driver timeout from the context deadline
// ExecuteAction installed, falling back to the medium tier when none is set
// (e.g. a body invoked outside the engine envelope in a unit test).
func timeoutOf(ctx context.Context, opts engine.Options) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return 15 * time.Second
}
