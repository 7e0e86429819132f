// Package toolserver registers the 26 browser_* MCP tools spec.md §6 names
// against github.com/mark3labs/mcp-go's server API, wiring each tool's
// handler to internal/actions, internal/pool, internal/handle, and
// internal/store. Grounded on joestump-claude-ops's internal/mcpserver
// (mcp.NewToolWithRawSchema + req.BindArguments + mcp.NewToolResultText/
// mcp.NewToolResultError, server.ServerTool{Tool, Handler} registration),
// the only repo in the example pack that consumes mark3labs/mcp-go's
// server side rather than its client side.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ametel01/claw-browser-automation/internal/actions"
	"github.com/ametel01/claw-browser-automation/internal/approval"
	"github.com/ametel01/claw-browser-automation/internal/config"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/logging"
	"github.com/ametel01/claw-browser-automation/internal/pool"
	"github.com/ametel01/claw-browser-automation/internal/redact"
	psession "github.com/ametel01/claw-browser-automation/internal/session"
	"github.com/ametel01/claw-browser-automation/internal/resilience"
	"github.com/ametel01/claw-browser-automation/internal/store"
	"github.com/ametel01/claw-browser-automation/internal/trace"
)

// Server bundles every dependency the 26 tool handlers need: the session
// pool, persisted state, the shared action trace, the approval cascade,
// and a per-session popup dismisser cache (engine.Session doesn't persist
// across calls the way pool.Session does, so the dismisser has to live
// here instead of being rebuilt, and its background sweep re-armed, on
// every single tool invocation).
type Server struct {
	Pool      *pool.Pool
	Sessions  store.SessionStore
	ActionLog store.ActionLogStore
	Artifacts *store.ArtifactWriter
	Trace     *trace.Store
	Approval  approval.Resolver
	Logger    *logging.Logger
	EngineCfg config.EngineConfig

	mu         sync.Mutex
	dismissers map[string]*resilience.PopupDismisser
}

// New constructs a Server. Sessions/ActionLog/Artifacts/Trace may be nil
// individually (persistence and artifacts are best-effort), but Pool must
// be set.
func New(p *pool.Pool, sessions store.SessionStore, actionLog store.ActionLogStore, artifacts *store.ArtifactWriter, tr *trace.Store, appr approval.Resolver, logger *logging.Logger, engineCfg config.EngineConfig) *Server {
	if tr == nil {
		tr = trace.New()
	}
	return &Server{
		Pool:       p,
		Sessions:   sessions,
		ActionLog:  actionLog,
		Artifacts:  artifacts,
		Trace:      tr,
		Approval:   appr,
		Logger:     logger,
		EngineCfg:  engineCfg,
		dismissers: make(map[string]*resilience.PopupDismisser),
	}
}

// Tools returns every browser_* tool registration, ready for
// mcpServer.AddTools. Grouped to mirror spec.md §6's own grouping: session,
// action, page, handle, semantic, approval.
func (s *Server) Tools() []server.ServerTool {
	var tools []server.ServerTool
	tools = append(tools, s.sessionTools()...)
	tools = append(tools, s.actionTools()...)
	tools = append(tools, s.pageTools()...)
	tools = append(tools, s.handleTools()...)
	tools = append(tools, s.semanticTools()...)
	tools = append(tools, s.approvalTools()...)
	return tools
}

// engineOptions builds the default engine.Options every tool handler runs
// its action under, driven by the configured default retry count; tools
// that need a tighter/looser tier override Retries or Timeout explicitly.
func (s *Server) engineOptions() engine.Options {
	retries := s.EngineCfg.DefaultRetries
	if retries == 0 {
		retries = 3
	}
	return engine.Options{Retries: &retries, ScreenshotOnFailure: s.EngineCfg.ScreenshotOnFailure}
}

// actionsContext resolves sessionID to a live pool session and wraps it in
// an actions.Context, lazily creating (and caching) that session's popup
// dismisser so its background sweep stays armed across calls instead of
// being restarted fresh by every ExecuteAction invocation.
func (s *Server) actionsContext(sessionID string) (*actions.Context, *psession.Session, error) {
	sess, ok := s.Pool.GetSession(sessionID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown session %q", sessionID)
	}

	s.mu.Lock()
	dismisser, ok := s.dismissers[sessionID]
	if !ok {
		dismisser = resilience.NewPopupDismisser(sess.Page())
		s.dismissers[sessionID] = dismisser
	}
	s.mu.Unlock()

	engSess := &engine.Session{
		ID:         sessionID,
		Page:       sess.Page(),
		Dismisser:  dismisser,
		Trace:      s.Trace,
		Screenshot: s.screenshotOnFailure,
	}
	return &actions.Context{Session: engSess, Handles: sess.Handles, WriteArtifact: s.writeArtifact}, sess, nil
}

// forgetSession drops sessionID's cached popup dismisser and trace ring
// once the session has been released, so closed sessions don't linger in
// this server's per-session caches forever.
func (s *Server) forgetSession(sessionID string) {
	s.mu.Lock()
	delete(s.dismissers, sessionID)
	s.mu.Unlock()
	s.Trace.ClearSession(sessionID)
}

func (s *Server) screenshotOnFailure(ctx context.Context, sessionID, action string) (string, error) {
	sess, ok := s.Pool.GetSession(sessionID)
	if !ok {
		return "", fmt.Errorf("unknown session %q", sessionID)
	}
	data, err := sess.Page().Screenshot(ctx, false)
	if err != nil {
		return "", err
	}
	return s.writeArtifact(sessionID, time.Now().UnixMilli(), action, "failure", "png", data)
}

func (s *Server) writeArtifact(sessionID string, epochMs int64, action, label, ext string, data []byte) (string, error) {
	if s.Artifacts == nil {
		return "", nil
	}
	path, err := s.Artifacts.Write(sessionID, epochMs, action, label, ext, data)
	if err != nil {
		return "", err
	}
	_ = s.Artifacts.EnforceRetention()
	return path, nil
}

// logAction appends a redacted action-log row, best-effort: persistence
// failures never surface to the agent, matching the append-only log's role
// as an audit trail rather than a dependency of the action's own outcome.
func (s *Server) logAction(sessionID, action, selectorStr string, input map[string]any, ok bool, retries int, durationMs int64, screenshotPath, errStr string, payload any) {
	if s.ActionLog == nil {
		return
	}
	sanitizedInput, _ := json.Marshal(redact.Map(input, redact.TypedText))
	resultPayload, _ := json.Marshal(payload)
	_, _ = s.ActionLog.Append(store.ActionLogEntry{
		SessionID:      sessionID,
		Action:         action,
		Selector:       selectorStr,
		Input:          sanitizedInput,
		Result:         resultPayload,
		ScreenshotPath: screenshotPath,
		DurationMs:     durationMs,
		Retries:        retries,
		OK:             ok,
		CreatedAt:      time.Now(),
	})
}

// bindArgs decodes req's JSON arguments into dst, following claude-ops's
// mcpserver.handle* convention of failing the tool call (not the RPC) on a
// malformed argument object.
func bindArgs(req mcp.CallToolRequest, dst any) (*mcp.CallToolResult, bool) {
	if err := req.BindArguments(dst); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), false
	}
	return nil, true
}

// resultJSON renders res as this runtime's tool-response "details" payload:
// the full ActionResult envelope (ok/data/retries/durationMs/
// screenshotPath/error), letting mcp-go's own Content/IsError wrapping
// stand in for spec.md's outer `{content, details}` shape. A failed
// ActionResult still marshals its structured error into the text body, but
// is flagged IsError so a throwing tool call (per spec.md §6) actually
// surfaces as a tool-call failure to the agent host.
func resultJSON[T any](res engine.ActionResult[T]) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	if !res.OK {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(data))},
			IsError: true,
		}, nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func plainJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func rawSchema(schema string) json.RawMessage { return json.RawMessage(schema) }

func epochNow() int64 { return time.Now().UnixMilli() }
