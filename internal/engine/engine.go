// Package engine implements the Action Engine: a precondition→execute→verify
// loop with retries, timeout tiers, a navigation guard, selector rotation on
// TargetNotFound, and trace/screenshot emission, per spec §4.4.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/resilience"
	"github.com/ametel01/claw-browser-automation/internal/selector"
	"github.com/ametel01/claw-browser-automation/internal/trace"
)

// Tier is one of the three named timeout tiers.
type Tier string

const (
	Short  Tier = "short"
	Medium Tier = "medium"
	Long   Tier = "long"
)

func (t Tier) duration() time.Duration {
	switch t {
	case Short:
		return 5 * time.Second
	case Long:
		return 45 * time.Second
	default:
		return 15 * time.Second
	}
}

// Options configures a single ExecuteAction call.
type Options struct {
	// Timeout is the explicit per-attempt budget. If zero, Tier is used
	// (defaulting to Medium, 15s).
	Timeout time.Duration
	Tier    Tier

	// Retries is the maximum number of additional attempts beyond the
	// first. Defaults to 3 when left at its zero value; pass RetriesNone
	// explicitly for a single-attempt action.
	Retries *int

	// ScreenshotOnFailure captures an artifact on terminal failure. Nil
	// defaults to true.
	ScreenshotOnFailure *bool

	Precondition  func(ctx context.Context) (bool, error)
	Postcondition func(ctx context.Context) (bool, error)

	// SelectorStrategies, when set, is rotated (head moved to tail) after a
	// TargetNotFound failure so the next attempt tries a different
	// strategy first.
	SelectorStrategies *[]selector.Strategy
}

func intPtr(v int) *int   { return &v }
func boolPtr(v bool) *bool { return &v }

// RetriesNone disables retries: the action runs exactly once.
func RetriesNone() *int { return intPtr(0) }

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	tier := o.Tier
	if tier == "" {
		tier = Medium
	}
	return tier.duration()
}

func (o Options) retries() int {
	if o.Retries == nil {
		return 3
	}
	return *o.Retries
}

func (o Options) screenshotOnFailure() bool {
	if o.ScreenshotOnFailure == nil {
		return true
	}
	return *o.ScreenshotOnFailure
}

// Session bundles the per-action dependencies ExecuteAction needs: the live
// page, the popup dismisser guarding it, the process trace store, the
// session identifier trace entries are filed under, and an optional
// artifact screenshot hook (nil disables screenshot-on-failure entirely).
type Session struct {
	ID         string
	Page       driver.Page
	Dismisser  *resilience.PopupDismisser
	Trace      *trace.Store
	Screenshot func(ctx context.Context, sessionID, action string) (path string, err error)
}

// ActionResult is the outcome of one ExecuteAction call.
type ActionResult[T any] struct {
	OK             bool
	Data           T
	Err            string
	StructuredErr  *errtax.StructuredError
	Retries        int
	DurationMs     int64
	ScreenshotPath string
}


// ExecuteAction runs body inside the full retry/verify envelope described by
// spec §4.4: navigation guard, a popup dismisser armed for the whole action
// (background interval sweep plus an explicit sweep at the top of every
// attempt), precondition check, body execution, postcondition check,
// selector-chain rotation on TargetNotFound, jittered back-off between
// attempts, and trace/screenshot emission on terminal outcome.
func ExecuteAction[T any](ctx context.Context, sess *Session, name string, opts Options, body func(ctx context.Context) (T, error)) ActionResult[T] {
	start := time.Now()
	startURL := sess.Page.URL()
	maxAttempts := opts.retries() + 1

	ctx, _ = WithRetryState(ctx)

	if sess.Dismisser != nil {
		sess.Dismisser.Start(ctx)
		defer sess.Dismisser.Stop()
	}

	var lastErr error
	var lastMeta *TraceMeta
	var value T
	attemptsPerformed := 0

	for k := 0; k < maxAttempts; k++ {
		if k >= 1 {
			if sess.Page.URL() != startURL {
				return finishNavigationInterrupted[T](sess, name, start, attemptsPerformed, opts)
			}
		}

		if sess.Dismisser != nil {
			sess.Dismisser.Sweep(ctx)
		}

		attemptCtx, meta := WithTraceMeta(ctx)
		attemptCtx, cancel := context.WithTimeout(attemptCtx, opts.timeout())

		attemptsPerformed++
		value, lastErr = runAttempt(attemptCtx, opts, body)
		lastMeta = meta
		cancel()

		if lastErr == nil {
			return finishSuccess(sess, name, start, attemptsPerformed-1, lastMeta, value)
		}

		if errtax.Is(lastErr, errtax.TargetNotFound) && opts.SelectorStrategies != nil {
			rotate(opts.SelectorStrategies)
		}

		if k < maxAttempts-1 {
			sleepBackoff(ctx, attemptsPerformed)
		}
	}

	return finishFailure[T](sess, name, start, attemptsPerformed-1, lastMeta, lastErr, opts)
}

func runAttempt[T any](ctx context.Context, opts Options, body func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if opts.Precondition != nil {
		ok, err := opts.Precondition(ctx)
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, errtax.New(errtax.AssertionFailed, "precondition failed")
		}
	}

	value, err := body(ctx)
	if err != nil {
		return zero, err
	}

	if opts.Postcondition != nil {
		ok, err := opts.Postcondition(ctx)
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, errtax.New(errtax.AssertionFailed, "postcondition failed")
		}
	}

	return value, nil
}

func rotate(strategies *[]selector.Strategy) {
	chain := *strategies
	if len(chain) < 2 {
		return
	}
	*strategies = append(chain[1:], chain[0])
}

// sleepBackoff blocks for min(100*2^attempt, 2000)ms plus jitter in
// [0, 500)ms, per spec §4.4. attempt is 1-indexed (the attempt that just
// failed).
func sleepBackoff(ctx context.Context, attempt int) {
	base := math.Min(100*math.Pow(2, float64(attempt)), 2000)
	jitter := rand.Float64() * 500 // #nosec G404 -- jitter does not require cryptographic randomness
	d := time.Duration(base+jitter) * time.Millisecond

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func finishSuccess[T any](sess *Session, name string, start time.Time, retries int, meta *TraceMeta, value T) ActionResult[T] {
	entry := trace.Entry{
		Action:     name,
		Timestamp:  start,
		DurationMs: time.Since(start).Milliseconds(),
		OK:         true,
		Retries:    retries,
	}
	if meta != nil {
		entry.SelectorResolved = meta.SelectorResolved
		entry.EventsDispatched = meta.EventsDispatched
		entry.WaitsPerformed = meta.WaitsPerformed
		entry.AssertionsChecked = meta.AssertionsChecked
	}
	if sess.Trace != nil {
		sess.Trace.Record(sess.ID, entry)
	}

	return ActionResult[T]{
		OK:         true,
		Data:       value,
		Retries:    retries,
		DurationMs: entry.DurationMs,
	}
}

func finishFailure[T any](sess *Session, name string, start time.Time, retries int, meta *TraceMeta, cause error, opts Options) ActionResult[T] {
	var zero T
	result := ActionResult[T]{
		OK:         false,
		Data:       zero,
		Retries:    retries,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if cause != nil {
		result.Err = cause.Error()
		if se, ok := errtax.FromError(cause); ok {
			result.StructuredErr = &se
		}
	}

	if sess.Screenshot != nil && opts.screenshotOnFailure() {
		if path, err := sess.Screenshot(context.Background(), sess.ID, name); err == nil {
			result.ScreenshotPath = path
		}
	}

	entry := trace.Entry{
		Action:     name,
		Timestamp:  start,
		DurationMs: result.DurationMs,
		OK:         false,
		Error:      result.Err,
		Retries:    retries,
	}
	if meta != nil {
		entry.SelectorResolved = meta.SelectorResolved
		entry.EventsDispatched = meta.EventsDispatched
		entry.WaitsPerformed = meta.WaitsPerformed
		entry.AssertionsChecked = meta.AssertionsChecked
	}
	if sess.Trace != nil {
		sess.Trace.Record(sess.ID, entry)
	}

	return result
}

func finishNavigationInterrupted[T any](sess *Session, name string, start time.Time, attemptsPerformed int, opts Options) ActionResult[T] {
	cause := errtax.New(errtax.NavigationInterrupted, fmt.Sprintf("page navigated away during %s", name)).
		WithHint("re-issue the action against the new page state")
	// retries is attempts performed beyond the first, matching the
	// convention used by every other terminal outcome; the nav guard
	// itself never runs the body, so it contributes no extra attempt.
	return finishFailure[T](sess, name, start, attemptsPerformed-1, nil, cause, opts)
}
