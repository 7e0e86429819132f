package toolserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ametel01/claw-browser-automation/internal/actions"
	"github.com/ametel01/claw-browser-automation/internal/driver"
	"github.com/ametel01/claw-browser-automation/internal/selector"
)

func (s *Server) actionTools() []server.ServerTool {
	return []server.ServerTool{
		s.browserNavigateTool(),
		s.browserClickTool(),
		s.browserTypeTool(),
		s.browserSelectTool(),
		s.browserFillFormTool(),
		s.browserExtractTextTool(),
		s.browserExtractAllTool(),
		s.browserExtractStructuredTool(),
		s.browserWaitTool(),
		s.browserGetContentTool(),
	}
}

// nameSelectorFor builds fillMap/applyFilter's per-field Target resolver:
// a name-attribute match, scoped under scope when one was given.
func nameSelectorFor(scope string) func(name string) actions.Target {
	prefix := ""
	if scope != "" {
		prefix = scope + " "
	}
	return func(name string) actions.Target {
		return actions.Target{Selector: selector.FromStrategy(selector.CSS(fmt.Sprintf(`%s[name=%q]`, prefix, name)))}
	}
}

func (s *Server) browserNavigateTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}

	tool := mcp.NewToolWithRawSchema("browser_navigate", "Navigate a session's page to a URL.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}, "url": {"type": "string"}},
		"required": ["sessionId", "url"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := actx.Navigate(ctx, a.URL, s.engineOptions())
		s.logAction(a.SessionID, "navigate", "", map[string]any{"url": a.URL}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserClickTool() server.ServerTool {
	type args struct {
		SessionID  string    `json:"sessionId"`
		Target     targetArg `json:"target"`
		Button     string    `json:"button,omitempty"`
		ClickCount int       `json:"clickCount,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_click", "Click an element, identified by selector or handle id.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"target": `+targetSchemaFragment+`,
			"button": {"type": "string", "enum": ["left", "right", "middle"]},
			"clickCount": {"type": "integer"}
		},
		"required": ["sessionId", "target"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		tgt, err := a.Target.toTarget()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		clickOpts := driver.ClickOptions{Button: a.Button, ClickCount: a.ClickCount}
		res := actx.Click(ctx, tgt, clickOpts, s.engineOptions())
		s.logAction(a.SessionID, "click", targetKey(tgt), nil, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserTypeTool() server.ServerTool {
	type args struct {
		SessionID string    `json:"sessionId"`
		Target    targetArg `json:"target"`
		Value     string    `json:"value"`
		Mode      string    `json:"mode,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_type", "Type a value into an element, using the fill/sequential/paste/nativeSetter strategy.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"target": `+targetSchemaFragment+`,
			"value": {"type": "string"},
			"mode": {"type": "string", "enum": ["fill", "sequential", "paste", "nativeSetter"]}
		},
		"required": ["sessionId", "target", "value"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		tgt, err := a.Target.toTarget()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := actx.Type(ctx, tgt, a.Value, actions.TypeOptions{Mode: actions.TypeMode(a.Mode)}, s.engineOptions())
		s.logAction(a.SessionID, "type", targetKey(tgt), map[string]any{"value": a.Value}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserSelectTool() server.ServerTool {
	type args struct {
		SessionID string    `json:"sessionId"`
		Target    targetArg `json:"target"`
		Values    []string  `json:"values"`
	}

	tool := mcp.NewToolWithRawSchema("browser_select", "Choose one or more values on a <select> or ARIA listbox.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"target": `+targetSchemaFragment+`,
			"values": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["sessionId", "target", "values"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		tgt, err := a.Target.toTarget()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := actx.Select(ctx, tgt, a.Values, s.engineOptions())
		s.logAction(a.SessionID, "select", targetKey(tgt), map[string]any{"values": a.Values}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserFillFormTool() server.ServerTool {
	type args struct {
		SessionID string            `json:"sessionId"`
		Fields    map[string]string `json:"fields"`
		Scope     string            `json:"scope,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_fill_form", "Fill every named field in one batch, identified by their name attribute.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"fields": {"type": "object", "additionalProperties": {"type": "string"}, "description": "name -> value"},
			"scope": {"type": "string", "description": "CSS selector scoping field lookup to a containing form/section"}
		},
		"required": ["sessionId", "fields"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := actx.FillMap(ctx, a.Fields, nameSelectorFor(a.Scope), s.engineOptions())
		s.logAction(a.SessionID, "fillMap", a.Scope, map[string]any{"fields": a.Fields}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserExtractTextTool() server.ServerTool {
	type args struct {
		SessionID string    `json:"sessionId"`
		Target    targetArg `json:"target"`
	}

	tool := mcp.NewToolWithRawSchema("browser_extract_text", "Read an element's text content.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}, "target": `+targetSchemaFragment+`},
		"required": ["sessionId", "target"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		tgt, err := a.Target.toTarget()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := actx.GetText(ctx, tgt, s.engineOptions())
		s.logAction(a.SessionID, "getText", targetKey(tgt), nil, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserExtractAllTool() server.ServerTool {
	type args struct {
		SessionID string      `json:"sessionId"`
		Selector  selectorArg `json:"selector"`
		Fields    []string    `json:"fields"`
	}

	tool := mcp.NewToolWithRawSchema("browser_extract_all", "Extract a field set from every element matching a selector.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"selector": `+selectorSchemaFragment+`,
			"fields": {"type": "array", "items": {"type": "string"}, "description": "textContent, innerHTML, or an attribute name"}
		},
		"required": ["sessionId", "selector", "fields"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		fields := make([]actions.FieldKey, len(a.Fields))
		for i, f := range a.Fields {
			fields[i] = actions.FieldKey(f)
		}

		res := actx.GetAll(ctx, a.Selector.toSelector(), fields, s.engineOptions())
		s.logAction(a.SessionID, "getAll", "", map[string]any{"fields": a.Fields}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserExtractStructuredTool() server.ServerTool {
	type fieldSpecArg struct {
		Source string `json:"source"`
		Type   string `json:"type,omitempty"`
	}
	type args struct {
		SessionID string                  `json:"sessionId"`
		Selector  selectorArg             `json:"selector"`
		Schema    map[string]fieldSpecArg `json:"schema"`
		Limit     int                     `json:"limit,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_extract_structured", "Extract schema-validated rows from every element matching a selector.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"selector": `+selectorSchemaFragment+`,
			"schema": {
				"type": "object",
				"description": "output key -> {source, type}",
				"additionalProperties": {
					"type": "object",
					"properties": {
						"source": {"type": "string", "description": "textContent, innerHTML, or an attribute name"},
						"type": {"type": "string", "enum": ["string", "number", "integer", "boolean"]}
					}
				}
			},
			"limit": {"type": "integer"}
		},
		"required": ["sessionId", "selector", "schema"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		schema := make(actions.Schema, len(a.Schema))
		for key, spec := range a.Schema {
			fieldType := actions.FieldTypeString
			if spec.Type != "" {
				fieldType = actions.FieldType(spec.Type)
			}
			schema[key] = actions.FieldSpec{Source: actions.FieldKey(spec.Source), Type: fieldType}
		}

		res := actx.ExtractStructured(ctx, a.Selector.toSelector(), schema, a.Limit, s.engineOptions())
		s.logAction(a.SessionID, "extractStructured", "", map[string]any{"limit": a.Limit}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserWaitTool() server.ServerTool {
	type args struct {
		SessionID string       `json:"sessionId"`
		Selector  *selectorArg `json:"selector,omitempty"`
		Condition string       `json:"condition,omitempty"`
		State     string       `json:"state,omitempty"`
		TimeoutMs int          `json:"timeoutMs,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_wait", "Wait for a selector's state, or for a network-idle/url-contains condition. Exactly one of selector/condition is required.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"selector": `+selectorSchemaFragment+`,
			"condition": {"type": "string", "description": "\"networkIdle\" or \"url:<substring>\""},
			"state": {"type": "string", "enum": ["visible", "hidden", "attached", "detached"], "description": "required with selector"},
			"timeoutMs": {"type": "integer"}
		},
		"required": ["sessionId"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		if (a.Selector == nil) == (a.Condition == "") {
			return mcp.NewToolResultError("exactly one of selector or condition is required"), nil
		}

		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		budget := time.Duration(a.TimeoutMs) * time.Millisecond
		if budget <= 0 {
			budget = 15 * time.Second
		}

		if a.Selector != nil {
			state := selector.WaitState(a.State)
			if state == "" {
				state = selector.Visible
			}
			res := actx.WaitForSelector(ctx, a.Selector.toSelector(), state, budget, s.engineOptions())
			s.logAction(a.SessionID, "waitForSelector", "", map[string]any{"state": a.State}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
			return resultJSON(res)
		}

		if urlSubstr, ok := parseURLCondition(a.Condition); ok {
			res := actx.WaitForURL(ctx, urlSubstr, budget, s.engineOptions())
			s.logAction(a.SessionID, "waitForURL", "", map[string]any{"condition": a.Condition}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
			return resultJSON(res)
		}

		res := actx.WaitForNetworkIdle(ctx, budget, s.engineOptions())
		s.logAction(a.SessionID, "waitForNetworkIdle", "", nil, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

// parseURLCondition recognizes the "url:<substring>" condition shape.
func parseURLCondition(condition string) (string, bool) {
	const prefix = "url:"
	if len(condition) > len(prefix) && condition[:len(prefix)] == prefix {
		return condition[len(prefix):], true
	}
	return "", false
}

func (s *Server) browserGetContentTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
	}

	tool := mcp.NewToolWithRawSchema("browser_get_content", "Extract the page's visible text content.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}},
		"required": ["sessionId"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		actx, _, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := actx.GetPageContent(ctx, s.engineOptions())
		s.logAction(a.SessionID, "getPageContent", "", nil, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
