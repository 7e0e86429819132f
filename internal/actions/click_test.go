package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
)

func TestClick_ResolvesAndClicksElement(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#submit")
	page.SetTree(node)

	result := c.Click(context.Background(), cssTarget("#submit"), driver.ClickOptions{}, noRetries())

	require.True(t, result.OK)
	require.False(t, result.Data.Skipped)
	require.Equal(t, 1, node.Clicks())
}

func TestClick_TargetNotFoundFails(t *testing.T) {
	c, _ := newContext(t)

	result := c.Click(context.Background(), cssTarget("#missing"), driver.ClickOptions{}, fastFailOpts())

	require.False(t, result.OK)
	require.NotNil(t, result.StructuredErr)
	require.Equal(t, "TargetNotFound", result.StructuredErr.Code)
}

func TestTargetKey_PrefersHandleIDOverSelector(t *testing.T) {
	require.Equal(t, "handle:h1", targetKey(Target{HandleID: "h1", Selector: cssTarget("#a").Selector}))
	require.Equal(t, "css(#a)", targetKey(cssTarget("#a")))
}
