package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
)

func TestSetField_ResolvesViaNameAttribute(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode(`input[name="email"], textarea[name="email"], select[name="email"]`)
	node.Text = "ada@example.com"
	page.SetTree(node)

	result := c.SetField(context.Background(), "email", "ada@example.com", noRetries())

	require.True(t, result.OK)
	require.Equal(t, "ada@example.com", result.Data.Value)
}

func TestSetField_FallsBackToLabelCandidate(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("")
	node.Label = "Email address"
	node.Text = "ada@example.com"
	page.SetTree(node)

	result := c.SetField(context.Background(), "Email address", "ada@example.com", noRetries())

	require.True(t, result.OK)
}

func TestSubmitForm_PrefersSubmitButton(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode(`button[type="submit"]`)
	page.SetTree(node)

	result := c.SubmitForm(context.Background(), "", noRetries())

	require.True(t, result.OK)
	require.Equal(t, 1, node.Clicks())
}

func TestApplyFilter_FillsThenClicksDefaultApply(t *testing.T) {
	c, page := newContext(t)
	status := drivertest.NewNode(`[name=status]`)
	status.Text = "shipped"
	apply := drivertest.NewNode(`button[type="submit"]`)
	page.SetTree(status, apply)

	fields := map[string]string{"status": "shipped"}
	nameSelector := func(name string) Target { return cssTarget("[name=" + name + "]") }

	result := c.ApplyFilter(context.Background(), fields, nameSelector, nil, false, noRetries())

	require.True(t, result.OK)
	require.Equal(t, []string{"status"}, result.Data.Filled)
	require.Equal(t, 1, apply.Clicks())
}

func TestApplyFilter_SkipApplySkipsClick(t *testing.T) {
	c, page := newContext(t)
	status := drivertest.NewNode(`[name=status]`)
	status.Text = "shipped"
	page.SetTree(status)

	fields := map[string]string{"status": "shipped"}
	nameSelector := func(name string) Target { return cssTarget("[name=" + name + "]") }

	result := c.ApplyFilter(context.Background(), fields, nameSelector, nil, true, noRetries())

	require.True(t, result.OK)
}

func TestSelectAutocomplete_TypesThenClicksMatchingOption(t *testing.T) {
	c, page := newContext(t)
	input := drivertest.NewNode("#city-search")
	option := drivertest.NewNode("")
	option.Role, option.Name = "option", "San Francisco"
	page.SetTree(input, option)

	result := c.SelectAutocomplete(context.Background(), cssTarget("#city-search"), "San Fra", "San Francisco", noRetries())

	require.True(t, result.OK)
	require.Equal(t, "San Fra", input.TypedText())
	require.Equal(t, 1, option.Clicks())
}

func TestSetDateField_PressesEnterThenEscape(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#start-date")
	node.Text = "2026-08-01"
	page.SetTree(node)
	page.EvalFunc = func(ctx context.Context, script string, arg any) (any, error) { return true, nil }

	result := c.SetDateField(context.Background(), cssTarget("#start-date"), "2026-08-01", noRetries())

	require.True(t, result.OK)
	require.Equal(t, "2026-08-01", result.Data.Value)
}

func TestSetDateField_EmptyReadBackFailsAssertion(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#start-date")
	page.SetTree(node)
	page.EvalFunc = func(ctx context.Context, script string, arg any) (any, error) { return true, nil }

	result := c.SetDateField(context.Background(), cssTarget("#start-date"), "2026-08-01", noRetries())

	require.False(t, result.OK)
	require.Equal(t, "AssertionFailed", result.StructuredErr.Code)
}
