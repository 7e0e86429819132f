package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
)

func newSession(t *testing.T) (*Session, *drivertest.Context, *drivertest.Page) {
	t.Helper()
	ctx := &drivertest.Context{}
	p, err := ctx.NewPage(context.Background())
	require.NoError(t, err)
	page := p.(*drivertest.Page)
	return New("", ctx, page, "default"), ctx, page
}

func TestNew_DefaultsHealthyAndMintsID(t *testing.T) {
	sess, _, _ := newSession(t)
	require.True(t, sess.Healthy())
	require.NotEmpty(t, sess.ID)
}

func TestMarkUnhealthy_OnPageCrash(t *testing.T) {
	sess, _, page := newSession(t)
	require.True(t, sess.Healthy())

	page.Crash()
	require.False(t, sess.Healthy())
}

func TestMarkUnhealthy_OnPageClose(t *testing.T) {
	sess, _, page := newSession(t)
	require.NoError(t, page.Close(context.Background()))
	require.False(t, sess.Healthy())
}

func TestSnapshotRestore_RoundTripsURLAndCookies(t *testing.T) {
	ctx := context.Background()
	sess, bctx, page := newSession(t)

	require.NoError(t, page.Goto(ctx, "https://example.com/dashboard", 0))
	require.NoError(t, bctx.AddCookies(ctx, []driver.Cookie{{Name: "sid", Value: "abc123", Domain: "example.com"}}))

	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/dashboard", snap.URL)
	require.Len(t, snap.Cookies, 1)
	require.Equal(t, "sid", snap.Cookies[0].Name)

	// Mutate state, then restore and confirm it's rolled back.
	require.NoError(t, page.Goto(ctx, "https://example.com/other", 0))
	require.NoError(t, bctx.AddCookies(ctx, []driver.Cookie{{Name: "extra", Value: "x"}}))

	require.NoError(t, sess.Restore(ctx, snap, time.Second))
	require.Equal(t, "https://example.com/dashboard", sess.CurrentURL())

	cookies, err := bctx.Cookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
}

func TestRestore_ReopensPageWhenClosed(t *testing.T) {
	ctx := context.Background()
	sess, _, page := newSession(t)
	require.NoError(t, page.Goto(ctx, "https://example.com/a", 0))

	snap, err := sess.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, page.Close(ctx))
	require.False(t, sess.Healthy())

	require.NoError(t, sess.Restore(ctx, snap, time.Second))
	require.False(t, sess.Page().IsClosed())
	require.Equal(t, "https://example.com/a", sess.CurrentURL())
}

func TestNewPage_ReplacesActivePage(t *testing.T) {
	ctx := context.Background()
	sess, _, originalPage := newSession(t)

	require.NoError(t, sess.NewPage(ctx))
	require.NotSame(t, driver.Page(originalPage), sess.Page())
}

func TestClose_ClosesPageAndContext(t *testing.T) {
	ctx := context.Background()
	sess, _, page := newSession(t)

	require.NoError(t, sess.Close(ctx))
	require.True(t, page.IsClosed())
}

func TestMarshalUnmarshalSnapshot_RoundTrips(t *testing.T) {
	snap := Snapshot{
		SessionID:    "sess-1",
		URL:          "https://example.com",
		Cookies:      []driver.Cookie{{Name: "a", Value: "b"}},
		LocalStorage: map[string]string{"k": "v"},
		Timestamp:    time.Now(),
	}

	data, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	got, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	require.Equal(t, snap.SessionID, got.SessionID)
	require.Equal(t, snap.URL, got.URL)
	require.Equal(t, snap.LocalStorage, got.LocalStorage)
}
