package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
)

// commonDismissPatterns is the default sweep list for consent/overlay/banner
// close buttons — cookie and GDPR banners plus generic modal/overlay
// dismissal affordances.
var commonDismissPatterns = []string{
	`button#onetrust-accept-btn-handler`,
	`button[aria-label="Accept all"]`,
	`button[aria-label="Accept cookies"]`,
	`[id*="cookie" i] button[id*="accept" i]`,
	`[class*="cookie" i] button[class*="accept" i]`,
	`[class*="gdpr" i] button[class*="accept" i]`,
	`[class*="consent" i] button[class*="accept" i]`,
	`[class*="modal" i] button[aria-label="Close" i]`,
	`[class*="overlay" i] button[aria-label="Close" i]`,
	`[class*="banner" i] button[aria-label="Dismiss" i]`,
	`button[class*="close" i][class*="modal" i]`,
}

// PopupDismisser is a per-action background watcher with two arms: a sweep
// of common consent/overlay close buttons on a tunable interval, and a
// native-dialog auto-dismiss handler so alert/confirm/prompt never hang the
// page. Start it before the first attempt of an action and Stop it in a
// defer, so every action is dismissal-protected for its entire lifetime.
type PopupDismisser struct {
	page     driver.Page
	patterns []string
	interval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	stopped bool
}

// NewPopupDismisser builds a dismisser with the default pattern list and a
// 3s sweep interval, attaching the native dialog handler immediately.
func NewPopupDismisser(page driver.Page) *PopupDismisser {
	d := &PopupDismisser{page: page, patterns: commonDismissPatterns, interval: 3 * time.Second}
	page.OnDialog(func(dlg driver.Dialog) {
		_ = dlg.Dismiss(context.Background())
	})
	return d
}

// Start begins the periodic sweep. Safe to call once per action.
func (d *PopupDismisser) Start(ctx context.Context) {
	d.mu.Lock()
	d.stopCh = make(chan struct{})
	stopCh := d.stopCh
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.Sweep(ctx)
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Sweep performs one immediate pass over the pattern list, clicking the
// first visible match. Called explicitly at the start of each retry
// attempt, in addition to the background interval sweeps.
func (d *PopupDismisser) Sweep(ctx context.Context) {
	for _, pattern := range d.patterns {
		el, err := d.page.QuerySelector(ctx, pattern)
		if err != nil || el == nil {
			continue
		}
		visible, err := el.IsVisible(ctx)
		if err != nil || !visible {
			continue
		}
		_ = el.Click(ctx, driver.ClickOptions{})
		return
	}
}

// Stop halts the background sweep. Safe to call multiple times.
func (d *PopupDismisser) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.stopCh != nil {
		close(d.stopCh)
	}
}
