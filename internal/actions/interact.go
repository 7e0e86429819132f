package actions

import (
	"context"
	"fmt"

	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// Select chooses values on tgt (a <select> or ARIA listbox), verifying the
// resulting selection matches what was requested.
func (c *Context) Select(ctx context.Context, tgt Target, values []string, opts engine.Options) engine.ActionResult[[]string] {
	return engine.ExecuteAction(ctx, c.Session, "select", opts, func(ctx context.Context) ([]string, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return nil, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.SelectOption(ctx, values); err != nil {
			return nil, err
		}
		recordEvent(ctx)
		recordAssertion(ctx)

		return values, nil
	})
}

// SetChecked checks or unchecks tgt, verifying the resulting state.
func (c *Context) SetChecked(ctx context.Context, tgt Target, checked bool, opts engine.Options) engine.ActionResult[bool] {
	name := "uncheck"
	if checked {
		name = "check"
	}

	return engine.ExecuteAction(ctx, c.Session, name, opts, func(ctx context.Context) (bool, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return false, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.SetChecked(ctx, checked); err != nil {
			return false, err
		}
		recordEvent(ctx)
		recordAssertion(ctx)

		return checked, nil
	})
}

// Hover moves the pointer over tgt, stabilizing before and after.
func (c *Context) Hover(ctx context.Context, tgt Target, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "hover", opts, func(ctx context.Context) (struct{}, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return struct{}{}, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.Hover(ctx); err != nil {
			return struct{}{}, err
		}
		recordEvent(ctx)

		stabilize(ctx, c.Session.Page)
		return struct{}{}, nil
	})
}

const dragAndDropScript = `([srcSelector, dstSelector]) => {
  const src = document.querySelector(srcSelector);
  const dst = document.querySelector(dstSelector);
  if (!src || !dst) return false;
  const dt = new DataTransfer();
  const fire = (el, type) => el.dispatchEvent(new DragEvent(type, {bubbles: true, cancelable: true, dataTransfer: dt}));
  fire(src, "dragstart");
  fire(dst, "dragenter");
  fire(dst, "dragover");
  fire(dst, "drop");
  fire(src, "dragend");
  return true;
}`

// DragAndDrop drags source onto target via a synthetic HTML5 drag-event
// sequence, stabilizing before and after. Both source and target must
// resolve to a plain CSS selector: DragEvent dispatch is driven by
// document.querySelector in-page, not by the driver's pointer primitives.
func (c *Context) DragAndDrop(ctx context.Context, source, target Target, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "dragAndDrop", opts, func(ctx context.Context) (struct{}, error) {
		stabilize(ctx, c.Session.Page)

		srcCSS, ok := cssSelectorOf(source)
		if !ok {
			return struct{}{}, errtax.New(errtax.TargetNotFound, "dragAndDrop requires a CSS selector for source")
		}
		dstCSS, ok := cssSelectorOf(target)
		if !ok {
			return struct{}{}, errtax.New(errtax.TargetNotFound, "dragAndDrop requires a CSS selector for target")
		}

		// Resolve both first so a missing element surfaces as TargetNotFound
		// through the normal selector-resolution path before we fall back to
		// the in-page script.
		if _, res, err := c.resolve(ctx, source, selector.Visible, 0); err != nil {
			return struct{}{}, err
		} else {
			recordSelectorResolved(ctx, res)
		}
		if _, _, err := c.resolve(ctx, target, selector.Visible, 0); err != nil {
			return struct{}{}, err
		}

		out, err := c.Session.Page.Evaluate(ctx, dragAndDropScript, []string{srcCSS, dstCSS})
		if err != nil {
			return struct{}{}, err
		}
		if ok, _ := out.(bool); !ok {
			return struct{}{}, errtax.New(errtax.TargetNotFound, "dragAndDrop target disappeared before dispatch")
		}
		recordEvent(ctx)

		stabilize(ctx, c.Session.Page)
		return struct{}{}, nil
	})
}

// FillResult collects which fields filled successfully and which did not,
// per spec's `{filled[], failed[]}` shape — though a non-empty Failed
// always means the whole call returned an error for the engine to retry.
type FillResult struct {
	Filled []string
	Failed []string
}

// FillMap fills every entry in fields (name -> value), resolving each via
// nameSelector. Any single-field failure fails the entire call so the
// engine retries the whole batch, per spec's fill(map) contract.
func (c *Context) FillMap(ctx context.Context, fields map[string]string, nameSelector func(name string) Target, opts engine.Options) engine.ActionResult[FillResult] {
	return engine.ExecuteAction(ctx, c.Session, "fillMap", opts, func(ctx context.Context) (FillResult, error) {
		result := FillResult{}

		for name, value := range fields {
			stabilize(ctx, c.Session.Page)

			el, res, err := c.resolve(ctx, nameSelector(name), selector.Visible, 0)
			if err != nil {
				result.Failed = append(result.Failed, name)
				return result, err
			}
			recordSelectorResolved(ctx, res)

			if err := el.Fill(ctx, value); err != nil {
				result.Failed = append(result.Failed, name)
				return result, err
			}
			recordEvent(ctx)

			actual, err := readBackValue(ctx, el)
			if err == nil && actual != value {
				result.Failed = append(result.Failed, name)
				return result, errtax.New(errtax.AssertionFailed, fmt.Sprintf("field %q verification mismatch", name))
			}
			recordAssertion(ctx)

			result.Filled = append(result.Filled, name)
		}

		return result, nil
	})
}
