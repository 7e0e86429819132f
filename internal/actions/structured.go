package actions

import (
	"context"
	"strconv"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// FieldType names the scalar coercions a structured-extraction field may
// request.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeInteger FieldType = "integer"
	FieldTypeBoolean FieldType = "boolean"
)

// FieldSpec maps one output key to a source within each matched element:
// FieldTextContent/FieldInnerHTML are special-cased, anything else is read
// as an HTML attribute name.
type FieldSpec struct {
	Source FieldKey
	Type   FieldType
}

// Schema maps output keys to their FieldSpec.
type Schema map[string]FieldSpec

// Provenance records where an extracted row came from, for callers that
// need to correlate extracted data back to the page.
type Provenance struct {
	Index     int
	TagName   string
	ID        string
	ClassName string
	Strategy  string
}

// StructuredRow pairs one schema-shaped record with its provenance.
type StructuredRow struct {
	Data       map[string]any
	Provenance Provenance
}

// StructuredResult is what ExtractStructured returns: every row that
// validated against schema, in document order, capped at limit.
type StructuredResult struct {
	Rows []StructuredRow
}

// ExtractStructured resolves every match of sel, maps each through schema,
// and keeps the first limit rows that validate (every field coerces
// cleanly). Rows that fail validation are skipped, not fatal.
func (c *Context) ExtractStructured(ctx context.Context, sel selector.Selector, schema Schema, limit int, opts engine.Options) engine.ActionResult[StructuredResult] {
	return engine.ExecuteAction(ctx, c.Session, "extractStructured", opts, func(ctx context.Context) (StructuredResult, error) {
		stabilize(ctx, c.Session.Page)

		strategies := sel.Strategies()
		if len(strategies) == 0 {
			return StructuredResult{}, nil
		}

		elements, err := queryAllStrategy(ctx, c.Session.Page, strategies[0])
		if err != nil {
			return StructuredResult{}, err
		}

		result := StructuredResult{}
		for i, el := range elements {
			if limit > 0 && len(result.Rows) >= limit {
				break
			}

			row, ok := extractRow(ctx, el, schema)
			if !ok {
				continue
			}

			result.Rows = append(result.Rows, StructuredRow{
				Data: row,
				Provenance: Provenance{
					Index:     i,
					TagName:   tagNameOf(ctx, el),
					ID:        attrOrEmpty(ctx, el, "id"),
					ClassName: attrOrEmpty(ctx, el, "class"),
					Strategy:  strategies[0].String(),
				},
			})
		}
		recordAssertion(ctx)

		return result, nil
	})
}

// extractRow reads every schema field off el and coerces it to the
// requested type. The row is rejected (ok=false) if any single field fails
// to coerce, per structured extraction's per-row validation contract.
func extractRow(ctx context.Context, el driver.Element, schema Schema) (map[string]any, bool) {
	row := make(map[string]any, len(schema))
	for key, spec := range schema {
		raw := readField(ctx, el, spec.Source)
		value, ok := coerce(raw, spec.Type)
		if !ok {
			return nil, false
		}
		row[key] = value
	}
	return row, true
}

func coerce(raw string, kind FieldType) (any, bool) {
	switch kind {
	case FieldTypeNumber:
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	case FieldTypeInteger:
		v, err := strconv.ParseInt(raw, 10, 64)
		return v, err == nil
	case FieldTypeBoolean:
		v, err := strconv.ParseBool(raw)
		return v, err == nil
	default:
		return raw, true
	}
}

// tagNameOf best-efforts a tag name for provenance. driver.Element exposes
// no direct tag-name accessor, so this reads a synthetic "tagName"
// attribute lookup that drivers may choose to support; drivers that don't
// simply report an empty string, which callers should treat as "unknown."
func tagNameOf(ctx context.Context, el driver.Element) string {
	return attrOrEmpty(ctx, el, "tagName")
}

func attrOrEmpty(ctx context.Context, el driver.Element, name string) string {
	value, ok, err := el.GetAttribute(ctx, name)
	if err != nil || !ok {
		return ""
	}
	return value
}
