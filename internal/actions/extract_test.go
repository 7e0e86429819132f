package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

func TestGetText_ReturnsTextContent(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#headline")
	node.Text = "Welcome back"
	page.SetTree(node)

	result := c.GetText(context.Background(), cssTarget("#headline"), noRetries())

	require.True(t, result.OK)
	require.Equal(t, "Welcome back", result.Data)
}

func TestGetAttribute_ReportsPresence(t *testing.T) {
	c, page := newContext(t)
	node := drivertest.NewNode("#link")
	node.Attrs["href"] = "/docs"
	page.SetTree(node)

	result := c.GetAttribute(context.Background(), cssTarget("#link"), "href", noRetries())

	require.True(t, result.OK)
	require.True(t, result.Data.OK)
	require.Equal(t, "/docs", result.Data.Value)
}

func TestGetAttribute_MissingAttributeReportsNotOK(t *testing.T) {
	c, page := newContext(t)
	page.SetTree(drivertest.NewNode("#link"))

	result := c.GetAttribute(context.Background(), cssTarget("#link"), "data-missing", noRetries())

	require.True(t, result.OK)
	require.False(t, result.Data.OK)
}

func TestGetAll_MaterialisesRequestedFields(t *testing.T) {
	c, page := newContext(t)
	row1 := drivertest.NewNode(".item")
	row1.Text = "Widget"
	row1.Attrs["data-sku"] = "W-1"
	row2 := drivertest.NewNode(".item")
	row2.Text = "Gadget"
	row2.Attrs["data-sku"] = "G-2"
	page.SetTree(row1, row2)

	sel := selector.FromCSS(".item")
	result := c.GetAll(context.Background(), sel, []FieldKey{FieldTextContent, "data-sku"}, noRetries())

	require.True(t, result.OK)
	require.Len(t, result.Data, 2)
	require.Equal(t, "Widget", result.Data[0][string(FieldTextContent)])
	require.Equal(t, "W-1", result.Data[0]["data-sku"])
	require.Equal(t, "Gadget", result.Data[1][string(FieldTextContent)])
}

func TestGetPageContent_StripsWhitespace(t *testing.T) {
	c, page := newContext(t)
	page.EvalFunc = func(ctx context.Context, script string, arg any) (any, error) {
		return "  Hello    world  \n\n  ", nil
	}

	result := c.GetPageContent(context.Background(), noRetries())

	require.True(t, result.OK)
	require.Equal(t, "Hello world", result.Data)
}
