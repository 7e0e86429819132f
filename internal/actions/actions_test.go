package actions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
	"github.com/ametel01/claw-browser-automation/internal/engine"
	"github.com/ametel01/claw-browser-automation/internal/handle"
	"github.com/ametel01/claw-browser-automation/internal/selector"
	"github.com/ametel01/claw-browser-automation/internal/trace"
)

// newContext builds an actions.Context over a fresh fake session, mirroring
// internal/engine's own newSession(t) test helper.
func newContext(t *testing.T) (*Context, *drivertest.Page) {
	t.Helper()
	c := &drivertest.Context{}
	p, err := c.NewPage(context.Background())
	require.NoError(t, err)
	page := p.(*drivertest.Page)

	sess := &engine.Session{ID: "sess-1", Page: page, Trace: trace.New()}
	return &Context{Session: sess, Handles: handle.New()}, page
}

func cssTarget(css string) Target {
	return Target{Selector: selector.FromCSS(css)}
}

func noRetries() engine.Options {
	return engine.Options{Retries: engine.RetriesNone()}
}

// fastFailOpts bounds ExecuteAction's per-attempt context deadline tightly,
// so a selector that can never resolve (e.g. a missing element) fails in
// milliseconds instead of riding out internal/selector's full default
// resolve budget.
func fastFailOpts() engine.Options {
	return engine.Options{Retries: engine.RetriesNone(), Timeout: 50 * time.Millisecond}
}
