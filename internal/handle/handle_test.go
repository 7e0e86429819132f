package handle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

func newPage(t *testing.T) *drivertest.Page {
	t.Helper()
	c := &drivertest.Context{}
	p, err := c.NewPage(context.Background())
	require.NoError(t, err)
	return p.(*drivertest.Page)
}

func TestRegisterThenResolve_NoRemapWhenStrategyUnchanged(t *testing.T) {
	ctx := context.Background()
	page := newPage(t)
	node := drivertest.NewNode("#btn")
	page.SetTree(node)

	reg := New()
	id, err := Register(ctx, reg, page, selector.FromCSS("#btn"), time.Second)
	require.NoError(t, err)

	outcome, err := Resolve(ctx, reg, page, id, time.Second)
	require.NoError(t, err)
	require.False(t, outcome.Remapped)
}

func TestResolve_RemapsWhenWinningStrategyChanges(t *testing.T) {
	ctx := context.Background()
	page := newPage(t)
	node := drivertest.NewNode("#btn")
	node.TestID = "action-btn"
	page.SetTree(node)

	reg := New()
	chain := selector.FromChain([]selector.Strategy{selector.CSS("#btn"), selector.TestID("action-btn")})
	id, err := Register(ctx, reg, page, chain, time.Second)
	require.NoError(t, err)

	rec, _ := Get(reg, id)
	require.Equal(t, selector.KindCSS, rec.LastWinningStrategy.Kind)

	// Simulate the id attribute being removed: the CSS selector no longer
	// matches, but the test-id still does.
	node.CSS = ""
	outcome, err := Resolve(ctx, reg, page, id, time.Second)
	require.NoError(t, err)
	require.True(t, outcome.Remapped)
	require.Equal(t, selector.KindTestID, outcome.Resolution.Strategy.Kind)

	rec, _ = Get(reg, id)
	require.Equal(t, 1, rec.RemapCount)

	// Resolving again with the same winner should not remap a second time,
	// and the testid strategy is now tried first.
	outcome, err = Resolve(ctx, reg, page, id, time.Second)
	require.NoError(t, err)
	require.False(t, outcome.Remapped)
	require.Equal(t, 0, outcome.Resolution.StrategyIndex)

	rec, _ = Get(reg, id)
	require.Equal(t, 1, rec.RemapCount)
}

func TestResolve_UnknownHandleIsStaleElement(t *testing.T) {
	ctx := context.Background()
	page := newPage(t)
	reg := New()

	_, err := Resolve(ctx, reg, page, "nonexistent", time.Second)
	require.Error(t, err)
	require.True(t, errtax.Is(err, errtax.StaleElement))
}

func TestRelease_RemovesHandle(t *testing.T) {
	ctx := context.Background()
	page := newPage(t)
	node := drivertest.NewNode("#btn")
	page.SetTree(node)

	reg := New()
	id, err := Register(ctx, reg, page, selector.FromCSS("#btn"), time.Second)
	require.NoError(t, err)

	Release(reg, id)
	_, ok := Get(reg, id)
	require.False(t, ok)
}

func TestNewID_Length(t *testing.T) {
	id := NewID()
	require.Len(t, id, 10)
}
