// Package pool implements the Browser Session Pool: admission control,
// profile-backed snapshot/restore, a health monitor, and crash-preserving
// auto-recovery that keeps a session's identity stable across the
// underlying context being replaced, per spec §4.8.
package pool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/session"
)

var profileNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const snapshotFileName = "session-snapshot.json"

// Config configures pool admission limits, health monitoring cadence, and
// where profile directories are rooted.
type Config struct {
	MaxContexts int

	LaunchOpts driver.LaunchOptions
	NewContext driver.NewContextOptions

	ProfilesDir string

	HealthInterval    time.Duration
	HealthProbeTimeout time.Duration
	MaxFailures       int

	NavTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxContexts == 0 {
		c.MaxContexts = 5
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = 30 * time.Second
	}
	if c.HealthProbeTimeout == 0 {
		c.HealthProbeTimeout = 5 * time.Second
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.NavTimeout == 0 {
		c.NavTimeout = 30 * time.Second
	}
	return c
}

// AcquireOptions parametrises a single acquire call.
type AcquireOptions struct {
	Profile string
	URL     string
}

// Pool owns a single shared browser handle and the set of live sessions
// launched from it.
type Pool struct {
	cfg    Config
	engine driver.Engine

	mu       sync.Mutex
	browser  driver.Browser
	sessions map[string]*session.Session
	monitor  *healthMonitor
	shutdown bool

	launchMu sync.Mutex
}

// New constructs a Pool against engine, which is not yet launched: the
// first Acquire call performs the lazy, deduplicated launch.
func New(engine driver.Engine, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:      cfg,
		engine:   engine,
		sessions: make(map[string]*session.Session),
	}
	p.monitor = newHealthMonitor(cfg.HealthInterval, cfg.HealthProbeTimeout, cfg.MaxFailures, p.handleUnhealthy)
	return p
}

// Start begins the health monitor's background ticking.
func (p *Pool) Start(ctx context.Context) { p.monitor.start(ctx) }

// Acquire launches (lazily, once) the shared browser if needed, then opens a
// new isolated context/page pair as a tracked session.
func (p *Pool) Acquire(ctx context.Context, opts AcquireOptions) (*session.Session, error) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil, errtax.New(errtax.SessionUnhealthy, "pool is shut down")
	}
	if len(p.sessions) >= p.cfg.MaxContexts {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool limit reached")
	}
	p.mu.Unlock()

	if opts.Profile != "" && !profileNamePattern.MatchString(opts.Profile) {
		return nil, fmt.Errorf("invalid profile name %q", opts.Profile)
	}

	browser, err := p.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	bctx, err := browser.NewContext(ctx, p.cfg.NewContext)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}

	page, err := bctx.NewPage(ctx)
	if err != nil {
		_ = bctx.Close(ctx)
		return nil, fmt.Errorf("new page: %w", err)
	}

	sess := session.New("", bctx, page, opts.Profile)

	if opts.Profile != "" {
		if snap, ok, err := p.loadProfileSnapshot(opts.Profile); err == nil && ok {
			_ = sess.Restore(ctx, snap, p.cfg.NavTimeout)
		}
	}

	if opts.URL != "" {
		if err := page.Goto(ctx, opts.URL, p.cfg.NavTimeout); err != nil {
			_ = sess.Close(ctx)
			return nil, fmt.Errorf("navigate: %w", err)
		}
	}

	p.mu.Lock()
	p.sessions[sess.ID] = sess
	p.mu.Unlock()
	p.monitor.track(sess.ID, sess.Page())

	return sess, nil
}

// ensureBrowser launches the shared browser at most once, deduplicating
// concurrent callers onto a single in-flight launch.
func (p *Pool) ensureBrowser(ctx context.Context) (driver.Browser, error) {
	p.mu.Lock()
	if p.browser != nil && p.browser.IsConnected() {
		b := p.browser
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	p.launchMu.Lock()
	defer p.launchMu.Unlock()

	p.mu.Lock()
	if p.browser != nil && p.browser.IsConnected() {
		b := p.browser
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	b, err := p.engine.Launch(ctx, p.cfg.LaunchOpts)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b.OnDisconnected(p.handleBrowserDisconnected)

	p.mu.Lock()
	p.browser = b
	p.mu.Unlock()
	return b, nil
}

// handleBrowserDisconnected implements spec §4.8's browser-wide trigger: a
// dropped browser.disconnected event means every session riding on that
// browser process lost its context, not just whichever one happens to next
// fail a health probe. It runs the same handleUnhealthy recovery sequence
// for every tracked session concurrently (all-settled: one session's
// recovery failing never blocks another's), matching Shutdown's pattern for
// fanning out per-session work.
func (p *Pool) handleBrowserDisconnected() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			p.handleUnhealthy(id)
		}(id)
	}
	wg.Wait()
}

// GetSession returns the tracked session for id, if any.
func (p *Pool) GetSession(id string) (*session.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	return s, ok
}

// ActiveSessions returns the number of currently tracked sessions.
func (p *Pool) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// ListSessions returns every currently tracked session, for tools that need
// to enumerate rather than look up a single id by name.
func (p *Pool) ListSessions() []*session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, s)
	}
	return out
}

// Release snapshots a profile-bound session to disk (best-effort: failures
// are swallowed, not propagated, since they must not block close), then
// closes and untracks it.
func (p *Pool) Release(ctx context.Context, id string) error {
	p.mu.Lock()
	sess, ok := p.sessions[id]
	if ok {
		delete(p.sessions, id)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}

	p.monitor.untrack(id)

	if sess.Profile != "" {
		if snap, err := sess.Snapshot(ctx); err == nil {
			_ = p.saveProfileSnapshot(sess.Profile, snap)
		}
	}

	return sess.Close(ctx)
}

func (p *Pool) profileDir(profile string) string {
	return filepath.Join(p.cfg.ProfilesDir, profile)
}

func (p *Pool) loadProfileSnapshot(profile string) (session.Snapshot, bool, error) {
	path := filepath.Join(p.profileDir(profile), snapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.Snapshot{}, false, nil
		}
		return session.Snapshot{}, false, err
	}
	snap, err := session.UnmarshalSnapshot(data)
	if err != nil {
		return session.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (p *Pool) saveProfileSnapshot(profile string, snap session.Snapshot) error {
	dir := p.profileDir(profile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := session.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, snapshotFileName), data, 0o644)
}

// handleUnhealthy implements the preserve-id auto-recovery sequence: snapshot
// the failing session (falling back to its profile's stored snapshot),
// untrack and close the old context best-effort, launch a replacement
// context/page, and re-insert the *same* session object (same id) restored
// from whichever snapshot was available.
func (p *Pool) handleUnhealthy(id string) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	sess, ok := p.sessions[id]
	p.mu.Unlock()
	if !ok {
		return
	}

	sess.MarkUnhealthy()

	ctx := context.Background()

	var snap session.Snapshot
	var haveSnap bool
	if s, err := sess.Snapshot(ctx); err == nil {
		snap, haveSnap = s, true
	} else if sess.Profile != "" {
		if s, ok, err := p.loadProfileSnapshot(sess.Profile); err == nil && ok {
			snap, haveSnap = s, true
		}
	}

	p.monitor.untrack(id)
	_ = sess.Close(ctx)

	browser, err := p.ensureBrowser(ctx)
	if err != nil {
		return
	}
	bctx, err := browser.NewContext(ctx, p.cfg.NewContext)
	if err != nil {
		return
	}
	page, err := bctx.NewPage(ctx)
	if err != nil {
		_ = bctx.Close(ctx)
		return
	}

	sess.ReplacePageAndContext(bctx, page)
	if haveSnap {
		_ = sess.Restore(ctx, snap, p.cfg.NavTimeout)
	}

	p.mu.Lock()
	p.sessions[id] = sess
	p.mu.Unlock()
	p.monitor.track(id, sess.Page())
}

// Shutdown closes every tracked session concurrently (all-settled
// semantics: one session's close error never stops the others), closes the
// shared browser, stops the health monitor, and marks the pool unusable.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil
	}
	p.shutdown = true
	sessions := make([]*session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = make(map[string]*session.Session)
	browser := p.browser
	p.browser = nil
	p.mu.Unlock()

	p.monitor.stop()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			_ = s.Close(ctx)
		}(s)
	}
	wg.Wait()

	if browser != nil {
		return browser.Close(ctx)
	}
	return nil
}
