package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

func TestExtractStructured_CoercesPerSchemaType(t *testing.T) {
	c, page := newContext(t)
	row1 := drivertest.NewNode(".product")
	row1.Text = "Widget"
	row1.Attrs["data-price"] = "19.99"
	row1.Attrs["data-in-stock"] = "true"
	row2 := drivertest.NewNode(".product")
	row2.Text = "Gadget"
	row2.Attrs["data-price"] = "not-a-number"
	row2.Attrs["data-in-stock"] = "true"
	page.SetTree(row1, row2)

	schema := Schema{
		"name":     {Source: FieldTextContent, Type: FieldTypeString},
		"price":    {Source: "data-price", Type: FieldTypeNumber},
		"inStock":  {Source: "data-in-stock", Type: FieldTypeBoolean},
	}

	result := c.ExtractStructured(context.Background(), selector.FromCSS(".product"), schema, 10, noRetries())

	require.True(t, result.OK)
	// row2's price fails to coerce, so only row1 survives per-row validation.
	require.Len(t, result.Data.Rows, 1)
	require.Equal(t, "Widget", result.Data.Rows[0].Data["name"])
	require.InDelta(t, 19.99, result.Data.Rows[0].Data["price"].(float64), 0.001)
	require.Equal(t, true, result.Data.Rows[0].Data["inStock"])
	require.Equal(t, 0, result.Data.Rows[0].Provenance.Index)
}

func TestExtractStructured_RespectsLimit(t *testing.T) {
	c, page := newContext(t)
	row1 := drivertest.NewNode(".row")
	row1.Text = "a"
	row2 := drivertest.NewNode(".row")
	row2.Text = "b"
	page.SetTree(row1, row2)

	schema := Schema{"text": {Source: FieldTextContent, Type: FieldTypeString}}
	result := c.ExtractStructured(context.Background(), selector.FromCSS(".row"), schema, 1, noRetries())

	require.True(t, result.OK)
	require.Len(t, result.Data.Rows, 1)
}
