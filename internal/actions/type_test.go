package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

func TestType_FillModeVerifiesReadBack(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#email")
	page.SetTree(node)

	// The fake's Fill doesn't sync into GetAttribute("value"); readBackValue
	// falls back to TextContent, so point Text at the expected value to
	// model a controlled input that echoes what was typed.
	node.Text = "person@example.com"

	result := c.Type(context.Background(), cssTarget("#email"), "person@example.com", TypeOptions{}, noRetries())

	require.True(t, result.OK)
	require.Equal(t, "person@example.com", result.Data.Value)
	require.Equal(t, "person@example.com", node.TypedText())
}

func TestType_FillModeVerificationMismatchFails(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#email")
	node.Text = "" // never echoes back what was typed
	page.SetTree(node)

	result := c.Type(context.Background(), cssTarget("#email"), "person@example.com", TypeOptions{}, noRetries())

	require.False(t, result.OK)
	require.Equal(t, "AssertionFailed", result.StructuredErr.Code)
}

func TestType_SequentialModeDispatchesKeystrokes(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#search")
	page.SetTree(node)

	result := c.Type(context.Background(), cssTarget("#search"), "golang", TypeOptions{Mode: ModeSequential}, noRetries())

	require.True(t, result.OK)
	require.Equal(t, "golang", node.TypedText())
}

func TestType_NativeSetterRequiresCSSSelector(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("")
	node.Role, node.Name = "textbox", "Quantity"
	page.SetTree(node)

	tgt := Target{Selector: selector.FromStrategy(selector.ARIA("textbox", "Quantity"))}
	result := c.Type(context.Background(), tgt, "value", TypeOptions{Mode: ModeNativeSetter}, noRetries())

	require.False(t, result.OK)
	require.Equal(t, "TargetNotFound", result.StructuredErr.Code)
}

func TestCSSSelectorOf_OnlyAcceptsCSSStrategy(t *testing.T) {
	css, ok := cssSelectorOf(cssTarget("#a"))
	require.True(t, ok)
	require.Equal(t, "#a", css)

	_, ok = cssSelectorOf(Target{})
	require.False(t, ok)
}
