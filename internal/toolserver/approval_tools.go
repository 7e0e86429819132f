package toolserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (s *Server) approvalTools() []server.ServerTool {
	return []server.ServerTool{s.browserRequestApprovalTool()}
}

func (s *Server) browserRequestApprovalTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	tool := mcp.NewToolWithRawSchema("browser_request_approval", "Ask a human to approve a sensitive action before it proceeds, via the configured approval cascade.", rawSchema(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"},
			"message": {"type": "string", "description": "what is being approved, shown to the approver"}
		},
		"required": ["sessionId", "message"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}

		approved := s.Approval.Resolve(ctx, a.SessionID, a.Message)
		s.logAction(a.SessionID, "requestApproval", "", map[string]any{"message": a.Message}, true, 0, 0, "", "", map[string]any{"approved": approved})

		if !approved {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(`{"approved":false}`)},
				IsError: true,
			}, nil
		}
		return plainJSON(map[string]any{"approved": true})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
