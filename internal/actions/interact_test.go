package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
)

func TestSelect_ReturnsRequestedValues(t *testing.T) {
	c, page := newContext(t)
	page.SetTree(drivertest.NewNode("#country"))

	result := c.Select(context.Background(), cssTarget("#country"), []string{"US"}, noRetries())

	require.True(t, result.OK)
	require.Equal(t, []string{"US"}, result.Data)
}

func TestSetChecked_Check(t *testing.T) {
	c, page := newContext(t)
	page.SetTree(drivertest.NewNode("#terms"))

	result := c.SetChecked(context.Background(), cssTarget("#terms"), true, noRetries())

	require.True(t, result.OK)
	require.True(t, result.Data)
}

func TestSetChecked_Uncheck(t *testing.T) {
	c, page := newContext(t)
	page.SetTree(drivertest.NewNode("#terms"))

	result := c.SetChecked(context.Background(), cssTarget("#terms"), false, noRetries())

	require.True(t, result.OK)
	require.False(t, result.Data)
}

func TestHover_ResolvesElement(t *testing.T) {
	c, page := newContext(t)
	page.SetTree(drivertest.NewNode("#menu"))

	result := c.Hover(context.Background(), cssTarget("#menu"), noRetries())

	require.True(t, result.OK)
}

func TestDragAndDrop_RequiresCSSSelectorsForBothEnds(t *testing.T) {
	c, page := newContext(t)
	src := drivertest.NewNode("#card-1")
	dst := drivertest.NewNode("#column-done")
	page.SetTree(src, dst)
	page.EvalFunc = func(ctx context.Context, script string, arg any) (any, error) { return true, nil }

	result := c.DragAndDrop(context.Background(), cssTarget("#card-1"), cssTarget("#column-done"), noRetries())

	require.True(t, result.OK)
}

func TestDragAndDrop_ScriptReportsTargetGone(t *testing.T) {
	c, page := newContext(t)
	src := drivertest.NewNode("#card-1")
	dst := drivertest.NewNode("#column-done")
	page.SetTree(src, dst)
	page.EvalFunc = func(ctx context.Context, script string, arg any) (any, error) { return false, nil }

	result := c.DragAndDrop(context.Background(), cssTarget("#card-1"), cssTarget("#column-done"), fastFailOpts())

	require.False(t, result.OK)
	require.Equal(t, "TargetNotFound", result.StructuredErr.Code)
}

func TestFillMap_FillsEveryField(t *testing.T) {
	c, page := newContext(t)
	first := drivertest.NewNode("[name=first]")
	last := drivertest.NewNode("[name=last]")
	first.Text = "Ada"
	last.Text = "Lovelace"
	page.SetTree(first, last)

	fields := map[string]string{"first": "Ada", "last": "Lovelace"}
	nameSelector := func(name string) Target { return cssTarget("[name=" + name + "]") }

	result := c.FillMap(context.Background(), fields, nameSelector, noRetries())

	require.True(t, result.OK)
	require.ElementsMatch(t, []string{"first", "last"}, result.Data.Filled)
	require.Empty(t, result.Data.Failed)
}

func TestFillMap_MismatchFailsWholeBatch(t *testing.T) {
	c, page := newContext(t)
	first := drivertest.NewNode("[name=first]")
	first.Text = "" // never echoes back what was typed
	page.SetTree(first)

	fields := map[string]string{"first": "Ada"}
	nameSelector := func(name string) Target { return cssTarget("[name=" + name + "]") }

	result := c.FillMap(context.Background(), fields, nameSelector, noRetries())

	require.False(t, result.OK)
	require.Equal(t, "AssertionFailed", result.StructuredErr.Code)
}
