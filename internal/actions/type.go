package actions

import (
	"context"
	"fmt"

	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// TypeMode selects one of the four input strategies spec §4.5 names.
type TypeMode string

const (
	// ModeFill sets the value programmatically, then reads it back and
	// fails AssertionFailed on mismatch.
	ModeFill TypeMode = "fill"
	// ModeSequential types one keystroke at a time, for autocomplete
	// widgets that react to individual key events.
	ModeSequential TypeMode = "sequential"
	// ModePaste dispatches a clipboard paste event carrying a DataTransfer
	// payload, falling back to value-set + input/change if unsupported.
	ModePaste TypeMode = "paste"
	// ModeNativeSetter uses the native value-property setter and dispatches
	// input/change/blur so controlled React/Vue-style inputs observe it.
	ModeNativeSetter TypeMode = "nativeSetter"
)

// TypeOptions configures a single Type call.
type TypeOptions struct {
	Mode     TypeMode // defaults to ModeFill
	DelayMs  int      // used by ModeSequential; defaults to 20ms
	Verify   bool     // read back and assert equality; defaults to true for Fill/NativeSetter
}

// TypeResult is the value read back for verification, when verification ran.
type TypeResult struct {
	Value string
}

const pasteScript = `(value) => {
  const el = document.activeElement;
  if (!el) return false;
  try {
    const dt = new DataTransfer();
    dt.setData("text/plain", value);
    const evt = new ClipboardEvent("paste", {clipboardData: dt, bubbles: true, cancelable: true});
    el.dispatchEvent(evt);
    return true;
  } catch (e) {
    return false;
  }
}`

const nativeSetterScript = `([selector, value]) => {
  const el = document.querySelector(selector);
  if (!el) return false;
  const proto = Object.getPrototypeOf(el);
  const setter = Object.getOwnPropertyDescriptor(proto, "value")?.set;
  if (setter) { setter.call(el, value); } else { el.value = value; }
  el.dispatchEvent(new Event("input", {bubbles: true}));
  el.dispatchEvent(new Event("change", {bubbles: true}));
  el.dispatchEvent(new Event("blur", {bubbles: true}));
  return true;
}`

// Type fills tgt with value using the requested mode, verifying the result
// when verification applies to that mode.
func (c *Context) Type(ctx context.Context, tgt Target, value string, opts TypeOptions, actionOpts engine.Options) engine.ActionResult[TypeResult] {
	if opts.Mode == "" {
		opts.Mode = ModeFill
	}
	if opts.DelayMs == 0 {
		opts.DelayMs = 20
	}

	return engine.ExecuteAction(ctx, c.Session, "type", actionOpts, func(ctx context.Context) (TypeResult, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return TypeResult{}, err
		}
		recordSelectorResolved(ctx, res)

		switch opts.Mode {
		case ModeSequential:
			if err := el.Type(ctx, value, opts.DelayMs); err != nil {
				return TypeResult{}, err
			}
			recordEvent(ctx)

		case ModePaste:
			out, err := c.Session.Page.Evaluate(ctx, pasteScript, value)
			ok, _ := out.(bool)
			if err != nil || !ok {
				if err := el.Fill(ctx, value); err != nil {
					return TypeResult{}, err
				}
			}
			recordEvent(ctx)

		case ModeNativeSetter:
			cssSel, ok := cssSelectorOf(tgt)
			if !ok {
				return TypeResult{}, errtax.New(errtax.TargetNotFound, "nativeSetter mode requires a CSS selector")
			}
			out, err := c.Session.Page.Evaluate(ctx, nativeSetterScript, []any{cssSel, value})
			if err != nil {
				return TypeResult{}, err
			}
			if applied, _ := out.(bool); !applied {
				return TypeResult{}, errtax.New(errtax.TargetNotFound, "nativeSetter target not found")
			}
			recordEvent(ctx)

		default: // ModeFill
			if err := el.Fill(ctx, value); err != nil {
				return TypeResult{}, err
			}
			recordEvent(ctx)
		}

		stabilize(ctx, c.Session.Page)

		result := TypeResult{Value: value}
		if opts.Mode == ModeFill || opts.Mode == ModeNativeSetter {
			if actual, err := readBackValue(ctx, el); err == nil {
				result.Value = actual
			}
			recordAssertion(ctx)
			if result.Value != value {
				return result, errtax.New(errtax.AssertionFailed, fmt.Sprintf("type verification mismatch: want %q, got %q", value, result.Value))
			}
		}

		return result, nil
	})
}

// cssSelectorOf extracts a plain CSS selector string from tgt, the only
// form nativeSetter's document.querySelector-based script can use.
func cssSelectorOf(tgt Target) (string, bool) {
	strategies := tgt.Selector.Strategies()
	if len(strategies) == 0 {
		return "", false
	}
	first := strategies[0]
	if first.Kind == selector.KindCSS {
		return first.CSS, true
	}
	return "", false
}
