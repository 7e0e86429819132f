package toolserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (s *Server) pageTools() []server.ServerTool {
	return []server.ServerTool{
		s.browserScreenshotTool(),
		s.browserEvaluateTool(),
		s.browserScrollTool(),
		s.browserSessionTraceTool(),
	}
}

func (s *Server) browserScreenshotTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		Label     string `json:"label,omitempty"`
		FullPage  bool   `json:"fullPage,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_screenshot", "Capture a screenshot and write it under the artifact directory.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"label": {"type": "string"},
			"fullPage": {"type": "boolean"}
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

		res := actx.Screenshot(ctx, a.Label, a.FullPage, epochNow(), s.engineOptions())
		s.logAction(a.SessionID, "screenshot", "", map[string]any{"label": a.Label, "fullPage": a.FullPage}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserEvaluateTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		Script    string `json:"script"`
	}

	tool := mcp.NewToolWithRawSchema("browser_evaluate", "Evaluate a JavaScript expression in the page and return its result.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}, "script": {"type": "string"}},
		"required": ["sessionId", "script"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		_, sess, err := s.actionsContext(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out, err := sess.Page().Evaluate(ctx, a.Script, nil)
		ok := err == nil
		errStr := ""
		if err != nil {
			errStr = err.Error()
		}
		s.logAction(a.SessionID, "evaluate", "", map[string]any{"script": a.Script}, ok, 0, 0, "", errStr, out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return plainJSON(map[string]any{"result": out})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserScrollTool() server.ServerTool {
	type args struct {
		SessionID string  `json:"sessionId"`
		DX        float64 `json:"dx,omitempty"`
		DY        float64 `json:"dy,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_scroll", "Scroll the page by (dx, dy) pixels.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"dx": {"type": "number"},
			"dy": {"type": "number"}
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

		res := actx.Scroll(ctx, a.DX, a.DY, s.engineOptions())
		s.logAction(a.SessionID, "scroll", "", map[string]any{"dx": a.DX, "dy": a.DY}, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserSessionTraceTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		Limit     int    `json:"limit,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_session_trace", "Return recorded trace entries for a session, most recent first.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}, "limit": {"type": "integer"}},
		"required": ["sessionId"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		if _, ok := s.Pool.GetSession(a.SessionID); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown session %q", a.SessionID)), nil
		}

		entries := s.Trace.SessionTrace(a.SessionID)
		if a.Limit > 0 && len(entries) > a.Limit {
			entries = entries[len(entries)-a.Limit:]
		}
		return plainJSON(map[string]any{"entries": entries, "stats": s.Trace.Stats()})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
