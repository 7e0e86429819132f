// Package session implements BrowserSession: a context/page pair with
// snapshot/restore, owned exclusively by the pool, per spec §4.7.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/handle"
)

// Snapshot is a serialisable capture of a session's navigable state.
type Snapshot struct {
	SessionID    string            `json:"sessionId"`
	URL          string            `json:"url"`
	Cookies      []driver.Cookie   `json:"cookies"`
	LocalStorage map[string]string `json:"localStorage"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Session wraps a browser context and its single active page, exposing
// snapshot/restore and health tracking. A session owns exactly one active
// page and its own handle registry.
type Session struct {
	ID      string
	Profile string

	mu      sync.RWMutex
	context driver.BrowserContext
	page    driver.Page
	healthy bool
	lastSnapshotAt time.Time

	Handles *handle.Registry
}

// New wraps context/page under a fresh or caller-supplied ID.
func New(id string, ctx driver.BrowserContext, page driver.Page, profile string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		ID:      id,
		Profile: profile,
		context: ctx,
		page:    page,
		healthy: true,
		Handles: handle.New(),
	}
	page.OnCrash(func() { s.MarkUnhealthy() })
	page.OnClose(func() { s.MarkUnhealthy() })
	return s
}

func (s *Session) Page() driver.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *Session) Context() driver.BrowserContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

func (s *Session) CurrentURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

func (s *Session) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

func (s *Session) MarkHealthy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = true
}

func (s *Session) MarkUnhealthy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = false
}

// ReplacePageAndContext swaps in a freshly launched context/page while
// keeping the session's identity — the mechanism pool auto-recovery uses to
// implement preserve-id recovery.
func (s *Session) ReplacePageAndContext(ctx driver.BrowserContext, page driver.Page) {
	s.mu.Lock()
	s.context = ctx
	s.page = page
	s.healthy = true
	s.mu.Unlock()

	page.OnCrash(func() { s.MarkUnhealthy() })
	page.OnClose(func() { s.MarkUnhealthy() })
}

const localStorageReadScript = `() => { const o = {}; for (let i=0;i<localStorage.length;i++){ const k = localStorage.key(i); o[k]=localStorage.getItem(k);} return o; }`

// Snapshot captures {url, cookies, localStorage, timestamp}. localStorage
// capture tolerates about:blank (and any page where the script throws)
// without failing the whole snapshot.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	page := s.page
	bctx := s.context
	sessID := s.ID
	s.mu.RUnlock()

	if page == nil || bctx == nil {
		return Snapshot{}, fmt.Errorf("session %s has no active page", sessID)
	}

	cookies, err := bctx.Cookies(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot cookies: %w", err)
	}

	localStorage := map[string]string{}
	if raw, err := page.Evaluate(ctx, localStorageReadScript, nil); err == nil {
		if m, ok := raw.(map[string]any); ok {
			for k, v := range m {
				if sv, ok := v.(string); ok {
					localStorage[k] = sv
				}
			}
		}
	}

	now := time.Now()
	s.mu.Lock()
	if !now.After(s.lastSnapshotAt) {
		now = s.lastSnapshotAt.Add(time.Millisecond)
	}
	s.lastSnapshotAt = now
	s.mu.Unlock()

	return Snapshot{
		SessionID:    sessID,
		URL:          page.URL(),
		Cookies:      cookies,
		LocalStorage: localStorage,
		Timestamp:    now,
	}, nil
}

const localStorageWriteScript = `(entries) => { for (const [k,v] of entries) { localStorage.setItem(k, v); } }`

// Restore clears cookies, re-adds the snapshot's cookies, navigates to the
// snapshot URL (waiting for domcontentloaded), then re-populates
// localStorage. If the page had been closed, a new one is opened first.
func (s *Session) Restore(ctx context.Context, snap Snapshot, navTimeout time.Duration) error {
	s.mu.RLock()
	page := s.page
	bctx := s.context
	s.mu.RUnlock()

	if page == nil || page.IsClosed() {
		var err error
		page, err = bctx.NewPage(ctx)
		if err != nil {
			return fmt.Errorf("restore: open replacement page: %w", err)
		}
		s.mu.Lock()
		s.page = page
		s.mu.Unlock()
	}

	if err := bctx.ClearCookies(ctx); err != nil {
		return fmt.Errorf("restore: clear cookies: %w", err)
	}
	if len(snap.Cookies) > 0 {
		if err := bctx.AddCookies(ctx, snap.Cookies); err != nil {
			return fmt.Errorf("restore: add cookies: %w", err)
		}
	}

	if snap.URL != "" {
		if err := page.Goto(ctx, snap.URL, navTimeout); err != nil {
			return fmt.Errorf("restore: navigate: %w", err)
		}
		_ = page.WaitForLoadState(ctx, "domcontentloaded", navTimeout)
	}

	if len(snap.LocalStorage) > 0 {
		entries := make([][2]string, 0, len(snap.LocalStorage))
		for k, v := range snap.LocalStorage {
			entries = append(entries, [2]string{k, v})
		}
		_, _ = page.Evaluate(ctx, localStorageWriteScript, entries)
	}

	return nil
}

// NewPage replaces the session's active page with a freshly opened one in
// the same context.
func (s *Session) NewPage(ctx context.Context) error {
	s.mu.Lock()
	bctx := s.context
	s.mu.Unlock()

	page, err := bctx.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open new page: %w", err)
	}

	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	page.OnCrash(func() { s.MarkUnhealthy() })
	page.OnClose(func() { s.MarkUnhealthy() })
	return nil
}

// Close closes the page and context owned by this session.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	page, bctx := s.page, s.context
	s.mu.Unlock()

	var firstErr error
	if page != nil {
		if err := page.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if bctx != nil {
		if err := bctx.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MarshalSnapshot is a convenience for persistence layers that store
// snapshots as opaque JSON blobs.
func MarshalSnapshot(snap Snapshot) ([]byte, error) { return json.Marshal(snap) }

// UnmarshalSnapshot is the inverse of MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	err := json.Unmarshal(data, &snap)
	return snap, err
}
