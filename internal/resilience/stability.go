package resilience

import (
	"context"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
)

// stabilityScript installs a MutationObserver and resolves once the page has
// gone quiet for the idle window, or immediately if no mutation is observed
// within the first tick.
const stabilityScript = `
([idleMs, hardMs]) => new Promise((resolve) => {
  let timer = null;
  const done = () => { observer.disconnect(); resolve(true); };
  const observer = new MutationObserver(() => {
    if (timer) clearTimeout(timer);
    timer = setTimeout(done, idleMs);
  });
  observer.observe(document, { childList: true, subtree: true, attributes: true });
  timer = setTimeout(done, idleMs);
  setTimeout(done, hardMs);
})`

// StabilityOptions tunes the idle and hard-deadline timers.
type StabilityOptions struct {
	IdleWindow   time.Duration
	HardDeadline time.Duration
}

// DefaultStabilityOptions matches spec defaults: 200ms idle, 5s hard cap.
func DefaultStabilityOptions() StabilityOptions {
	return StabilityOptions{IdleWindow: 200 * time.Millisecond, HardDeadline: 5 * time.Second}
}

// WaitForDOMStability installs the mutation-observer script and waits for
// whichever of the idle timer or hard deadline fires first. It never
// returns an error into the action path: a failure to evaluate the script
// (e.g. on about:blank) is treated as "already stable".
func WaitForDOMStability(ctx context.Context, page driver.Page, opts StabilityOptions) {
	if opts.IdleWindow <= 0 {
		opts = DefaultStabilityOptions()
	}
	done := make(chan struct{}, 1)
	go func() {
		_, _ = page.Evaluate(ctx, stabilityScript, []float64{
			float64(opts.IdleWindow.Milliseconds()),
			float64(opts.HardDeadline.Milliseconds()),
		})
		done <- struct{}{}
	}()

	select {
	case <-done:
	case <-time.After(opts.HardDeadline + time.Second):
		// belt-and-braces: never let a broken page.Evaluate hang the action
		// past the hard deadline plus a grace margin.
	case <-ctx.Done():
	}
}
