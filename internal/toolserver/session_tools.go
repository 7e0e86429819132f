package toolserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ametel01/claw-browser-automation/internal/pool"
	"github.com/ametel01/claw-browser-automation/internal/session"
	"github.com/ametel01/claw-browser-automation/internal/store"
)

// sessionSummary is the wire shape every session tool reports a session as.
type sessionSummary struct {
	SessionID string `json:"sessionId"`
	Profile   string `json:"profile,omitempty"`
	URL       string `json:"url"`
	Healthy   bool   `json:"healthy"`
}

func summarize(sess *session.Session) sessionSummary {
	return sessionSummary{SessionID: sess.ID, Profile: sess.Profile, URL: sess.CurrentURL(), Healthy: sess.Healthy()}
}

// persistSession records a freshly acquired session in the session store,
// best-effort: a persistence failure never fails the open call, matching
// logAction's treatment of the action log as an audit trail, not a
// dependency of the pool operation's own outcome.
func (s *Server) persistSession(sess *session.Session) {
	if s.Sessions == nil {
		return
	}
	now := time.Now()
	_ = s.Sessions.Create(store.SessionRecord{
		ID:        sess.ID,
		Profile:   sess.Profile,
		Status:    store.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Server) sessionTools() []server.ServerTool {
	return []server.ServerTool{
		s.browserOpenTool(),
		s.browserCloseTool(),
		s.browserListTool(),
		s.browserRestoreTool(),
		s.browserStateTool(),
	}
}

func (s *Server) browserOpenTool() server.ServerTool {
	type args struct {
		URL     string `json:"url,omitempty"`
		Profile string `json:"profile,omitempty"`
	}

	tool := mcp.NewToolWithRawSchema("browser_open", "Open a new browser session, optionally navigating to a URL and binding it to a persistent profile.", rawSchema(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "URL to navigate to once the session is open"},
			"profile": {"type": "string", "description": "Named profile directory to load cookies/localStorage from and snapshot to on close"}
		}
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}

		sess, err := s.Pool.Acquire(ctx, pool.AcquireOptions{Profile: a.Profile, URL: a.URL})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.persistSession(sess)

		return plainJSON(summarize(sess))
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserCloseTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
	}

	tool := mcp.NewToolWithRawSchema("browser_close", "Close a browser session, snapshotting its profile (if any) before releasing it.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string"}},
		"required": ["sessionId"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}

		if err := s.Pool.Release(ctx, a.SessionID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.forgetSession(a.SessionID)
		if s.Sessions != nil {
			_ = s.Sessions.UpdateStatus(a.SessionID, store.StatusClosed)
		}

		return plainJSON(map[string]any{"sessionId": a.SessionID, "closed": true})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserListTool() server.ServerTool {
	tool := mcp.NewToolWithRawSchema("browser_list", "List every currently open browser session.", rawSchema(`{"type": "object", "properties": {}}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessions := s.Pool.ListSessions()
		summaries := make([]sessionSummary, 0, len(sessions))
		for _, sess := range sessions {
			summaries = append(summaries, summarize(sess))
		}
		return plainJSON(map[string]any{"sessions": summaries})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

// browserRestoreTool reopens a session that was persisted to the session
// store (by a prior run of this process, or a closed-but-recorded session
// in this one) under a fresh pool-assigned id: the pool's own
// preserve-id recovery (spec §4.8) only ever applies to a session it is
// still tracking in memory, so resuming one from cold persisted state is
// necessarily a new in-memory session restored from the old one's last
// snapshot, not a literal revival of the old id.
func (s *Server) browserRestoreTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
	}

	tool := mcp.NewToolWithRawSchema("browser_restore", "Reopen a previously closed session from its persisted snapshot.", rawSchema(`{
		"type": "object",
		"properties": {"sessionId": {"type": "string", "description": "The id of the closed session to restore from"}},
		"required": ["sessionId"]
	}`))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if errResult, ok := bindArgs(req, &a); !ok {
			return errResult, nil
		}

		if s.Sessions == nil {
			return mcp.NewToolResultError("no session store configured, nothing to restore from"), nil
		}
		rec, ok, err := s.Sessions.Get(a.SessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown session %q", a.SessionID)), nil
		}

		sess, err := s.Pool.Acquire(ctx, pool.AcquireOptions{Profile: rec.Profile})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if len(rec.Snapshot) > 0 {
			snap, err := session.UnmarshalSnapshot(rec.Snapshot)
			if err == nil {
				_ = sess.Restore(ctx, snap, 30*time.Second)
			}
		}

		s.persistSession(sess)
		if err := s.Sessions.UpdateStatus(a.SessionID, store.StatusClosed); err != nil && s.Logger != nil {
			s.Logger.Error(ctx, "mark restored-from session closed", "sessionId", a.SessionID, "err", err)
		}

		return plainJSON(map[string]any{"restoredFrom": a.SessionID, "session": summarize(sess)})
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) browserStateTool() server.ServerTool {
	type args struct {
		SessionID string `json:"sessionId"`
	}

	tool := mcp.NewToolWithRawSchema("browser_state", "Report a session's current URL, title, and document ready state.", rawSchema(`{
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

		res := actx.GetPageState(ctx, s.engineOptions())
		s.logAction(a.SessionID, "getPageState", "", nil, res.OK, res.Retries, res.DurationMs, res.ScreenshotPath, res.Err, res.Data)
		return resultJSON(res)
	}

	return server.ServerTool{Tool: tool, Handler: handler}
}
