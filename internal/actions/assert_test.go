package actions

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
)

func TestAssertURLContains(t *testing.T) {
	c, page := newContext(t)
	page.Goto(context.Background(), "https://example.com/orders/42", 0)

	ok, err := c.AssertURLContains("/orders/")(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.AssertURLContains("/users/")(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssertElementVisible(t *testing.T) {
	c, page := newContext(t)
	page.SetTree(drivertest.NewNode("#modal"))

	ok, err := c.AssertElementVisible(cssTarget("#modal").Selector)(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAssertElementVisible_MissingElementIsFalse(t *testing.T) {
	c, _ := newContext(t)

	ok, err := c.AssertElementVisible(cssTarget("#missing").Selector)(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssertElementGone(t *testing.T) {
	c, _ := newContext(t)

	ok, err := c.AssertElementGone(cssTarget("#spinner").Selector)(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAssertElementText_SubstringAndRegexp(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#status")
	node.Text = "Order #42 shipped"
	page.SetTree(node)

	ok, err := c.AssertElementText(cssTarget("#status").Selector, "shipped")(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.AssertElementText(cssTarget("#status").Selector, regexp.MustCompile(`^Order #\d+`))(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.AssertElementText(cssTarget("#status").Selector, "cancelled")(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllOf_ShortCircuitsOnFirstFailure(t *testing.T) {
	var secondCalled bool
	always := func(ok bool) Predicate {
		return func(ctx context.Context) (bool, error) { return ok, nil }
	}
	tracking := func(ctx context.Context) (bool, error) {
		secondCalled = true
		return true, nil
	}

	ok, err := AllOf(always(false), tracking)(context.Background())

	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, secondCalled)
}

func TestAllOf_AllPassSucceeds(t *testing.T) {
	always := func(ok bool) Predicate {
		return func(ctx context.Context) (bool, error) { return ok, nil }
	}

	ok, err := AllOf(always(true), always(true))(context.Background())

	require.NoError(t, err)
	require.True(t, ok)
}
