package engine

import "context"

// TraceMeta accumulates the optional metadata an action body reports back
// to the engine for inclusion in its TraceEntry: which selector resolved,
// how many synthetic events were dispatched, how many waits were performed,
// and how many assertions were checked. A fresh TraceMeta is installed into
// the context for every attempt, so a failed attempt's partial metadata
// never leaks into the next attempt's trace entry.
type TraceMeta struct {
	SelectorResolved  string
	EventsDispatched  int
	WaitsPerformed    int
	AssertionsChecked int
}

type traceMetaKey struct{}

// WithTraceMeta installs a fresh TraceMeta into ctx, returning the derived
// context and a pointer the body can mutate directly.
func WithTraceMeta(ctx context.Context) (context.Context, *TraceMeta) {
	meta := &TraceMeta{}
	return context.WithValue(ctx, traceMetaKey{}, meta), meta
}

// TraceMetaFrom retrieves the TraceMeta installed by WithTraceMeta, or nil
// if none was installed (e.g. when a body is exercised outside ExecuteAction
// in a unit test).
func TraceMetaFrom(ctx context.Context) *TraceMeta {
	meta, _ := ctx.Value(traceMetaKey{}).(*TraceMeta)
	return meta
}

type retryStateKey struct{}

// RetryState is a per-action-invocation bag that persists across attempts
// (unlike TraceMeta, which resets every attempt). Action primitives such as
// click's duplicate-click guard use it to remember `{selectorKey,
// lastClickTime}` across retries of the same action call.
type RetryState struct {
	values map[string]any
}

func (r *RetryState) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *RetryState) Set(key string, value any) {
	r.values[key] = value
}

// WithRetryState installs a fresh RetryState that will be reused across every
// attempt of one ExecuteAction call.
func WithRetryState(ctx context.Context) (context.Context, *RetryState) {
	state := &RetryState{values: make(map[string]any)}
	return context.WithValue(ctx, retryStateKey{}, state), state
}

// RetryStateFrom retrieves the RetryState installed by WithRetryState.
func RetryStateFrom(ctx context.Context) *RetryState {
	state, _ := ctx.Value(retryStateKey{}).(*RetryState)
	return state
}
