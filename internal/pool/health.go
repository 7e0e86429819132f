package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
)

// healthMonitor races a readyState probe against a timeout for each tracked
// page on a fixed interval, marking a session unhealthy after maxFailures
// consecutive probe failures, per spec §4.8.
type healthMonitor struct {
	interval     time.Duration
	probeTimeout time.Duration
	maxFailures  int
	onUnhealthy  func(id string)

	mu       sync.Mutex
	tracked  map[string]*trackedSession
	stopCh   chan struct{}
	stopped  bool
	started  bool
}

type trackedSession struct {
	page     driver.Page
	failures int
}

func newHealthMonitor(interval, probeTimeout time.Duration, maxFailures int, onUnhealthy func(id string)) *healthMonitor {
	return &healthMonitor{
		interval:     interval,
		probeTimeout: probeTimeout,
		maxFailures:  maxFailures,
		onUnhealthy:  onUnhealthy,
		tracked:      make(map[string]*trackedSession),
		stopCh:       make(chan struct{}),
	}
}

func (m *healthMonitor) track(id string, page driver.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked[id] = &trackedSession{page: page}
}

func (m *healthMonitor) untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, id)
}

func (m *healthMonitor) start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.sweep(ctx)
			}
		}
	}()
}

func (m *healthMonitor) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stopCh)
}

// sweep probes every tracked session once. Each probe races page.Evaluate
// against probeTimeout; a valid readyState resets the failure counter, a
// timeout or error increments it. Crossing maxFailures fires onUnhealthy and
// stops tracking the session (the recovery callback re-tracks it under the
// same id once a replacement page exists).
func (m *healthMonitor) sweep(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.probeOne(ctx, id)
	}
}

func (m *healthMonitor) probeOne(ctx context.Context, id string) {
	m.mu.Lock()
	ts, ok := m.tracked[id]
	m.mu.Unlock()
	if !ok {
		return
	}

	ok2 := probeReadyState(ctx, ts.page, m.probeTimeout)

	m.mu.Lock()
	ts, stillTracked := m.tracked[id]
	if !stillTracked {
		m.mu.Unlock()
		return
	}
	if ok2 {
		ts.failures = 0
		m.mu.Unlock()
		return
	}
	ts.failures++
	unhealthy := ts.failures >= m.maxFailures
	if unhealthy {
		delete(m.tracked, id)
	}
	m.mu.Unlock()

	if unhealthy && m.onUnhealthy != nil {
		m.onUnhealthy(id)
	}
}

var readyStateScript = `() => document.readyState`

func probeReadyState(ctx context.Context, page driver.Page, timeout time.Duration) bool {
	resultCh := make(chan bool, 1)
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go func() {
		v, err := page.Evaluate(probeCtx, readyStateScript, nil)
		if err != nil {
			resultCh <- false
			return
		}
		s, _ := v.(string)
		switch s {
		case "loading", "interactive", "complete":
			resultCh <- true
		default:
			resultCh <- false
		}
	}()

	select {
	case ok := <-resultCh:
		return ok
	case <-probeCtx.Done():
		return false
	}
}
