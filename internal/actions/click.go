package actions

import (
	"context"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// ClickResult reports whether the click executed or was skipped by the
// duplicate-click guard.
type ClickResult struct {
	Skipped bool
}

const duplicateClickWindow = 500 * time.Millisecond

type clickMemo struct {
	key string
	at  time.Time
}

// Click waits for DOM stability, resolves tgt visible, scrolls it into
// view, clicks, then waits for stability again. A second click against the
// same selector key within 500ms of the last one is skipped and reported
// as a successful no-op, matching spec's duplicate-click guard.
func (c *Context) Click(ctx context.Context, tgt Target, clickOpts driver.ClickOptions, opts engine.Options) engine.ActionResult[ClickResult] {
	key := targetKey(tgt)

	return engine.ExecuteAction(ctx, c.Session, "click", opts, func(ctx context.Context) (ClickResult, error) {
		if state := engine.RetryStateFrom(ctx); state != nil {
			if v, ok := state.Get("lastClick"); ok {
				if memo, ok := v.(clickMemo); ok && memo.key == key && time.Since(memo.at) < duplicateClickWindow {
					return ClickResult{Skipped: true}, nil
				}
			}
		}

		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return ClickResult{}, err
		}
		recordSelectorResolved(ctx, res)

		scrollIntoView(ctx, c.Session.Page, el)

		if err := el.Click(ctx, clickOpts); err != nil {
			return ClickResult{}, err
		}
		recordEvent(ctx)

		stabilize(ctx, c.Session.Page)

		if state := engine.RetryStateFrom(ctx); state != nil {
			state.Set("lastClick", clickMemo{key: key, at: time.Now()})
		}

		return ClickResult{}, nil
	})
}

func targetKey(tgt Target) string {
	if tgt.HandleID != "" {
		return "handle:" + tgt.HandleID
	}
	if len(tgt.Selector.Strategies()) > 0 {
		return tgt.Selector.Strategies()[0].String()
	}
	return ""
}
