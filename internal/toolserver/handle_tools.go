package toolserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ametel01/claw-browser-automation/internal/handle"
)

func (s *Server) handleTools() []server.ServerTool {
	return []server.ServerTool{
		s.browserRegisterElementTool(),
		s.browserResolveElementTool(),
		s.browserReleaseElementTool(),
	}
}

// These three tools operate the handle registry directly rather than
// through engine.ExecuteAction: registering/resolving/releasing a handle is
// a registry-bookkeeping operation, not a retried page action, so it has no
// trace entry of its own — the actions that later resolve the handle record
// their own trace entries, remap count included.

func (s *Server) browserRegisterElementTool() server.ServerTool {
	type args struct {
		SessionID string      `json:"sessionId"`
		Selector  selectorArg `json:"selector"`
		TimeoutMs int         `json:"timeoutMs,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_register_element", "Resolve a selector once and register it as a stable handle that can be re-resolved across DOM mutations.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"selector": `+selectorSchemaFragment+`,
			"timeoutMs": {"type": "integer"}
		},
		"required": ["sessionId", "selector"]
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

		budget := time.Duration(a.TimeoutMs) * time.Millisecond
		if budget <= 0 {
			budget = 15 * time.Second
		}

		handleID, err := handle.Register(ctx, sess.Handles, sess.Page(), a.Selector.toSelector(), budget)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return plainJSON(map[string]any{"handleId": handleID})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserResolveElementTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		HandleID  string `json:"handleId"`
		TimeoutMs int    `json:"timeoutMs,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_resolve_element", "Re-resolve a previously registered handle, reporting whether the winning strategy remapped.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"handleId": {"type": "string"},
			"timeoutMs": {"type": "integer"}
		},
		"required": ["sessionId", "handleId"]
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

		budget := time.Duration(a.TimeoutMs) * time.Millisecond
		if budget <= 0 {
			budget = 15 * time.Second
		}

		outcome, err := handle.Resolve(ctx, sess.Handles, sess.Page(), a.HandleID, budget)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return plainJSON(map[string]any{
			"handleId": a.HandleID,
			"remapped": outcome.Remapped,
			"strategy": outcome.Resolution.Strategy.String(),
		})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserReleaseElementTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		HandleID  string `json:"handleId"`
	}

	tool := mcp.NewToolWithRawSchema("browser_release_element", "Release a registered handle, freeing its registry entry.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}, "handleId": {"type": "string"}},
		"required": ["sessionId", "handleId"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}
		sess, ok := s.Pool.GetSession(a.SessionID)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown session %q", a.SessionID)), nil
		}

		handle.Release(sess.Handles, a.HandleID)
		return plainJSON(map[string]any{"handleId": a.HandleID, "released": true})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
