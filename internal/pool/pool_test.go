package pool

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
)

func readyEvalFunc(ctx context.Context, script string, arg any) (any, error) {
	return "complete", nil
}

func newTestPool(t *testing.T, cfg Config) (*Pool, *drivertest.Engine) {
	t.Helper()
	if cfg.ProfilesDir == "" {
		cfg.ProfilesDir = t.TempDir()
	}
	eng := drivertest.NewEngine()
	return New(eng, cfg), eng
}

func TestAcquire_LaunchesBrowserLazilyOnce(t *testing.T) {
	ctx := context.Background()
	p, eng := newTestPool(t, Config{MaxContexts: 2})

	s1, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)
	s2, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)

	require.Equal(t, 1, eng.Launches)
	require.NotEqual(t, s1.ID, s2.ID)
	require.Equal(t, 2, p.ActiveSessions())
}

func TestAcquire_RejectsAtLimit(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, Config{MaxContexts: 1})

	_, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)

	_, err = p.Acquire(ctx, AcquireOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "pool limit reached")
}

func TestAcquire_RejectsInvalidProfileName(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, Config{MaxContexts: 2})

	_, err := p.Acquire(ctx, AcquireOptions{Profile: "../../etc"})
	require.Error(t, err)
}

func TestAcquire_NavigatesWhenURLGiven(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, Config{MaxContexts: 2})

	sess, err := p.Acquire(ctx, AcquireOptions{URL: "https://example.com/start"})
	require.NoError(t, err)
	require.Equal(t, "https://example.com/start", sess.CurrentURL())
}

func TestRelease_SnapshotsProfileBoundSessionBeforeClose(t *testing.T) {
	ctx := context.Background()
	profilesDir := t.TempDir()
	p, _ := newTestPool(t, Config{MaxContexts: 2, ProfilesDir: profilesDir})

	sess, err := p.Acquire(ctx, AcquireOptions{Profile: "alice", URL: "https://example.com/home"})
	require.NoError(t, err)

	require.NoError(t, p.Release(ctx, sess.ID))

	_, err = os.Stat(profilesDir + "/alice/session-snapshot.json")
	require.NoError(t, err)

	_, ok := p.GetSession(sess.ID)
	require.False(t, ok)
}

func TestRelease_UnknownSessionIsNoop(t *testing.T) {
	p, _ := newTestPool(t, Config{MaxContexts: 2})
	require.NoError(t, p.Release(context.Background(), "nonexistent"))
}

func TestHealthMonitor_MarksUnhealthyAfterMaxFailuresAndRecovers(t *testing.T) {
	ctx := context.Background()
	p, eng := newTestPool(t, Config{
		MaxContexts:        2,
		HealthInterval:     10 * time.Millisecond,
		HealthProbeTimeout: 50 * time.Millisecond,
		MaxFailures:        2,
	})

	sess, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)
	originalID := sess.ID

	// Leave EvalFunc unset, so probes fail by default.
	p.Start(ctx)

	require.Eventually(t, func() bool {
		s, ok := p.GetSession(originalID)
		return ok && s.Healthy()
	}, 2*time.Second, 5*time.Millisecond, "recovered session should regain the same id and become healthy")

	require.GreaterOrEqual(t, eng.Launches, 1)

	p.monitor.stop()
}

func TestBrowserDisconnected_RecoversEveryTrackedSession(t *testing.T) {
	ctx := context.Background()
	p, eng := newTestPool(t, Config{MaxContexts: 2})

	s1, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)
	s2, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)
	id1, id2 := s1.ID, s2.ID

	p.mu.Lock()
	fakeBrowser := p.browser.(*drivertest.Browser)
	p.mu.Unlock()

	fakeBrowser.Disconnect()

	require.Eventually(t, func() bool {
		r1, ok1 := p.GetSession(id1)
		r2, ok2 := p.GetSession(id2)
		return ok1 && ok2 && r1.Healthy() && r2.Healthy()
	}, 2*time.Second, 5*time.Millisecond, "both sessions should recover under their original ids after a browser-wide disconnect")

	require.GreaterOrEqual(t, eng.Launches, 2)
}

func TestShutdown_ClosesAllSessionsAndBrowser(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, Config{MaxContexts: 3})

	s1, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)
	s2, err := p.Acquire(ctx, AcquireOptions{})
	require.NoError(t, err)

	require.NoError(t, p.Shutdown(ctx))

	require.True(t, s1.Page().IsClosed())
	require.True(t, s2.Page().IsClosed())
	require.Equal(t, 0, p.ActiveSessions())

	_, err = p.Acquire(ctx, AcquireOptions{})
	require.Error(t, err)
}
