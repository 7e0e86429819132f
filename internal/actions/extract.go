package actions

import (
	"context"
	"regexp"
	"strings"

	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

// queryAllStrategy dispatches a single selector.Strategy to the matching
// driver.Page query method, mirroring (without duplicating the resolution
// semantics of) internal/selector's single-match probe — GetAll wants every
// match, not the first one that satisfies a wait state.
func queryAllStrategy(ctx context.Context, page driver.Page, s selector.Strategy) ([]driver.Element, error) {
	switch s.Kind {
	case selector.KindCSS:
		return page.QuerySelectorAll(ctx, s.CSS)
	case selector.KindARIA:
		return page.QueryByRole(ctx, s.Role, s.Name)
	case selector.KindText:
		return page.QueryByText(ctx, s.Text, s.Exact)
	case selector.KindLabel:
		return page.QueryByLabel(ctx, s.Label)
	case selector.KindTestID:
		return page.QueryByTestID(ctx, s.TestID)
	case selector.KindXPath:
		return page.QueryByXPath(ctx, s.XPath)
	default:
		return nil, nil
	}
}

// GetText reads tgt's text content.
func (c *Context) GetText(ctx context.Context, tgt Target, opts engine.Options) engine.ActionResult[string] {
	return engine.ExecuteAction(ctx, c.Session, "getText", opts, func(ctx context.Context) (string, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return "", err
		}
		recordSelectorResolved(ctx, res)

		return el.TextContent(ctx)
	})
}

// GetAttribute reads a named attribute off tgt. ok reports whether the
// attribute was present at all.
type AttributeResult struct {
	Value string
	OK    bool
}

func (c *Context) GetAttribute(ctx context.Context, tgt Target, name string, opts engine.Options) engine.ActionResult[AttributeResult] {
	return engine.ExecuteAction(ctx, c.Session, "getAttribute", opts, func(ctx context.Context) (AttributeResult, error) {
		stabilize(ctx, c.Session.Page)

		el, res, err := c.resolve(ctx, tgt, selector.Visible, 0)
		if err != nil {
			return AttributeResult{}, err
		}
		recordSelectorResolved(ctx, res)

		value, ok, err := el.GetAttribute(ctx, name)
		if err != nil {
			return AttributeResult{}, err
		}
		return AttributeResult{Value: value, OK: ok}, nil
	})
}

// FieldKeys names the per-element fields GetAll can materialise.
type FieldKey string

const (
	FieldTextContent FieldKey = "textContent"
	FieldInnerHTML   FieldKey = "innerHTML"
)

// GetAll resolves every match of sel and materialises fields for each —
// FieldTextContent/FieldInnerHTML are special-cased; any other value is
// read as an attribute name.
func (c *Context) GetAll(ctx context.Context, sel selector.Selector, fields []FieldKey, opts engine.Options) engine.ActionResult[[]map[string]string] {
	return engine.ExecuteAction(ctx, c.Session, "getAll", opts, func(ctx context.Context) ([]map[string]string, error) {
		stabilize(ctx, c.Session.Page)

		strategies := sel.Strategies()
		if len(strategies) == 0 {
			return nil, nil
		}

		elements, err := queryAllStrategy(ctx, c.Session.Page, strategies[0])
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]string, 0, len(elements))
		for _, el := range elements {
			row := make(map[string]string, len(fields))
			for _, field := range fields {
				row[string(field)] = readField(ctx, el, field)
			}
			rows = append(rows, row)
		}
		recordAssertion(ctx)
		return rows, nil
	})
}

func readField(ctx context.Context, el interface {
	TextContent(ctx context.Context) (string, error)
	InnerHTML(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, bool, error)
}, field FieldKey) string {
	switch field {
	case FieldTextContent:
		v, _ := el.TextContent(ctx)
		return v
	case FieldInnerHTML:
		v, _ := el.InnerHTML(ctx)
		return v
	default:
		v, _, _ := el.GetAttribute(ctx, string(field))
		return v
	}
}

const pageContentScript = `() => {
  const clone = document.body ? document.body.cloneNode(true) : null;
  if (!clone) return "";
  clone.querySelectorAll("script, style, noscript, svg").forEach((n) => n.remove());
  return clone.textContent || "";
}`

var whitespaceRun = regexp.MustCompile(`\s+`)

// GetPageContent extracts visible page text, stripping script/style/
// noscript/svg and collapsing runs of whitespace to a single space.
func (c *Context) GetPageContent(ctx context.Context, opts engine.Options) engine.ActionResult[string] {
	return engine.ExecuteAction(ctx, c.Session, "getPageContent", opts, func(ctx context.Context) (string, error) {
		stabilize(ctx, c.Session.Page)

		out, err := c.Session.Page.Evaluate(ctx, pageContentScript, nil)
		if err != nil {
			return "", err
		}
		text, _ := out.(string)
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " ")), nil
	})
}
