package actions

import (
	"context"
	"fmt"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// setFieldCandidates builds the ordered fallback chain setField tries for a
// human-facing field identifier: named form control, placeholder text,
// aria-label, then an associated <label>.
func setFieldCandidates(identifier string) selector.Selector {
	return selector.FromChain([]selector.Strategy{
		selector.CSS(fmt.Sprintf(`input[name=%q], textarea[name=%q], select[name=%q]`, identifier, identifier, identifier)),
		selector.CSS(fmt.Sprintf(`[placeholder=%q]`, identifier)),
		selector.CSS(fmt.Sprintf(`[aria-label=%q]`, identifier)),
		selector.Label(identifier),
	})
}

// SetField fills a form field identified by a human-facing name, label, or
// placeholder rather than a raw selector, trying each candidate in turn
// before falling back to the chain's own confidence-based resolution.
func (c *Context) SetField(ctx context.Context, identifier, value string, opts engine.Options) engine.ActionResult[TypeResult] {
	return engine.ExecuteAction(ctx, c.Session, "setField", opts, func(ctx context.Context) (TypeResult, error) {
		stabilize(ctx, c.Session.Page)

		tgt := Target{Selector: setFieldCandidates(identifier)}
		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return TypeResult{}, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.Fill(ctx, value); err != nil {
			return TypeResult{}, err
		}
		recordEvent(ctx)
		stabilize(ctx, c.Session.Page)

		actual, err := readBackValue(ctx, el)
		recordAssertion(ctx)
		if err == nil && actual != value {
			return TypeResult{Value: actual}, errtax.New(errtax.AssertionFailed, fmt.Sprintf("setField %q verification mismatch: want %q, got %q", identifier, value, actual))
		}
		return TypeResult{Value: actual}, nil
	})
}

// submitCandidates builds submitForm's default chain, optionally scoped to
// a containing form selector.
func submitCandidates(scope string) selector.Selector {
	prefix := ""
	if scope != "" {
		prefix = scope + " "
	}
	return selector.FromChain([]selector.Strategy{
		selector.CSS(prefix + `button[type="submit"]`),
		selector.CSS(prefix + `input[type="submit"]`),
		selector.ARIA("button", "Submit"),
		selector.CSS(prefix + `button`),
	})
}

// SubmitForm clicks the first matching submit control, optionally scoped to
// a containing form/section selector.
func (c *Context) SubmitForm(ctx context.Context, scope string, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "submitForm", opts, func(ctx context.Context) (struct{}, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, Target{Selector: submitCandidates(scope)}, selector.Visible, 0)
		if err != nil {
			return struct{}{}, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.Click(ctx, driver.ClickOptions{}); err != nil {
			return struct{}{}, err
		}
		recordEvent(ctx)

		stabilize(ctx, c.Session.Page)
		return struct{}{}, nil
	})
}

// applyCandidates builds applyFilter's default apply-control chain, tried
// when the caller does not supply an explicit apply selector.
func applyCandidates() selector.Selector {
	return selector.FromChain([]selector.Strategy{
		selector.CSS(`button[type="submit"]`),
		selector.ARIA("button", "Apply"),
		selector.ARIA("button", "Search"),
		selector.ARIA("button", "Filter"),
	})
}

// ApplyFilter fills every named field and then clicks an apply control,
// resolved via applySelector when set, the default chain otherwise, or
// skipped entirely when skipApply is true (some filter UIs apply live, with
// no separate submit step).
func (c *Context) ApplyFilter(ctx context.Context, fields map[string]string, nameSelector func(name string) Target, applySelector *selector.Selector, skipApply bool, opts engine.Options) engine.ActionResult[FillResult] {
	return engine.ExecuteAction(ctx, c.Session, "applyFilter", opts, func(ctx context.Context) (FillResult, error) {
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
				return result, errtax.New(errtax.AssertionFailed, fmt.Sprintf("applyFilter field %q verification mismatch", name))
			}
			recordAssertion(ctx)

			result.Filled = append(result.Filled, name)
		}

		if skipApply {
			return result, nil
		}

		sel := applyCandidates()
		if applySelector != nil {
			sel = *applySelector
		}

		el, res, err := c.resolve(ctx, Target{Selector: sel}, selector.Visible, 0)
		if err != nil {
			return result, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.Click(ctx, driver.ClickOptions{}); err != nil {
			return result, err
		}
		recordEvent(ctx)

		stabilize(ctx, c.Session.Page)
		return result, nil
	})
}

// optionCandidates builds selectAutocomplete's option-matching chain: ARIA
// option role first, then an exact/substring text match, then structural
// fallbacks for widgets that skip ARIA roles entirely.
func optionCandidates(matchText string) selector.Selector {
	return selector.FromChain([]selector.Strategy{
		selector.ARIA("option", matchText),
		selector.Text(matchText, false),
		selector.CSS(`[role="listbox"] [role="option"]`),
		selector.CSS(`li, .option, [class*="option"]`),
	})
}

// SelectAutocomplete types query into tgt, waits for the suggestion list to
// render, then clicks the option matching matchText.
func (c *Context) SelectAutocomplete(ctx context.Context, tgt Target, query, matchText string, opts engine.Options) engine.ActionResult[struct{}] {
	return engine.ExecuteAction(ctx, c.Session, "selectAutocomplete", opts, func(ctx context.Context) (struct{}, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return struct{}{}, err
		}
		recordSelectorResolved(ctx, res)

		if err := el.Type(ctx, query, 20); err != nil {
			return struct{}{}, err
		}
		recordEvent(ctx)
		stabilize(ctx, c.Session.Page)

		optEl, optRes, err := c.resolve(ctx, Target{Selector: optionCandidates(matchText)}, selector.Visible, 0)
		if err != nil {
			return struct{}{}, err
		}
		recordSelectorResolved(ctx, optRes)

		if err := optEl.Click(ctx, driver.ClickOptions{}); err != nil {
			return struct{}{}, err
		}
		recordEvent(ctx)

		stabilize(ctx, c.Session.Page)
		return struct{}{}, nil
	})
}

// SetDateField sets tgt's value via the native property setter (date inputs
// routinely reject Fill/Type because they render a native picker on focus),
// then presses Enter then Escape to close whatever popover the setter's
// input/change events opened, and verifies the result is non-empty.
func (c *Context) SetDateField(ctx context.Context, tgt Target, value string, opts engine.Options) engine.ActionResult[TypeResult] {
	return engine.ExecuteAction(ctx, c.Session, "setDateField", opts, func(ctx context.Context) (TypeResult, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return TypeResult{}, err
		}
		recordSelectorResolved(ctx, res)

		cssSel, ok := cssSelectorOf(tgt)
		if !ok {
			return TypeResult{}, errtax.New(errtax.TargetNotFound, "setDateField requires a CSS selector")
		}

		out, err := c.Session.Page.Evaluate(ctx, nativeSetterScript, []any{cssSel, value})
		if err != nil {
			return TypeResult{}, err
		}
		if applied, _ := out.(bool); !applied {
			return TypeResult{}, errtax.New(errtax.TargetNotFound, "setDateField target not found")
		}
		recordEvent(ctx)

		if err := el.Press(ctx, "Enter"); err != nil {
			return TypeResult{}, err
		}
		if err := el.Press(ctx, "Escape"); err != nil {
			return TypeResult{}, err
		}
		recordEvent(ctx)
		stabilize(ctx, c.Session.Page)

		actual, err := readBackValue(ctx, el)
		recordAssertion(ctx)
		if err == nil && actual == "" {
			return TypeResult{}, errtax.New(errtax.AssertionFailed, "setDateField resulted in an empty value")
		}
		return TypeResult{Value: actual}, nil
	})
}
