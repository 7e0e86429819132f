package toolserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ametel01/claw-browser-automation/internal/selector"
)

func (s *Server) semanticTools() []server.ServerTool {
	return []server.ServerTool{
		s.browserSetFieldTool(),
		s.browserSubmitFormTool(),
		s.browserApplyFilterTool(),
	}
}

func (s *Server) browserSetFieldTool() server.ServerTool {
	type args struct {
		SessionID  string `json:"sessionId"`
		Identifier string `json:"identifier"`
		Value      string `json:"value"`
	}

	tool := mcp.NewToolWithRawSchema("browser_set_field", "Fill a form field identified by its name, label, placeholder, or aria-label rather than a raw selector.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"identifier": {"type": "string", "description": "human-facing field name, label text, or placeholder"},
			"value": {"type": "string"}
		},
		"required": ["sessionId", "identifier", "value"]
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

		res := actx.SetField(ctx, a.Identifier, a.Value, s.engineOptions())
		s.logAction(a.SessionID, "setField", a.Identifier, map[string]any{"value": a.Value}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserSubmitFormTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		Scope     string `json:"scope,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_submit_form", "Click the first matching submit control, optionally scoped to a containing form/section selector.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"scope": {"type": "string", "description": "CSS selector scoping the submit-control search"}
		},
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

		res := actx.SubmitForm(ctx, a.Scope, s.engineOptions())
		s.logAction(a.SessionID, "submitForm", a.Scope, nil, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserApplyFilterTool() server.ServerTool {
	type args struct {
		SessionID     string            `json:"sessionId"`
		Fields        map[string]string `json:"fields"`
		ApplySelector *selectorArg      `json:"applySelector,omitempty"`
		SkipApply     bool              `json:"skipApply,omitempty"`
		Scope         string            `json:"scope,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_apply_filter", "Fill named filter fields and click an apply control, for search/filter panels.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"fields": {"type": "object", "additionalProperties": {"type": "string"}, "description": "name -> value"},
			"applySelector": `+selectorSchemaFragment+`,
			"skipApply": {"type": "boolean", "description": "set when the filter applies live with no separate submit step"},
			"scope": {"type": "string"}
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

		var applySel *selector.Selector
		if a.ApplySelector != nil {
			sel := a.ApplySelector.toSelector()
			applySel = &sel
		}

		res := actx.ApplyFilter(ctx, a.Fields, nameSelectorFor(a.Scope), applySel, a.SkipApply, s.engineOptions())
		s.logAction(a.SessionID, "applyFilter", a.Scope, map[string]any{"fields": a.Fields, "skipApply": a.SkipApply}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
