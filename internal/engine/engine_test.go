package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ametel01/claw-browser-automation/internal/driver/drivertest"
	"github.com/ametel01/claw-browser-automation/internal/errtax"
	"github.com/ametel01/claw-browser-automation/internal/selector"
	"github.com/ametel01/claw-browser-automation/internal/trace"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	c := &drivertest.Context{}
	p, err := c.NewPage(context.Background())
	require.NoError(t, err)
	return &Session{ID: "sess-1", Page: p.(*drivertest.Page), Trace: trace.New()}
}

func TestExecuteAction_SuccessFirstAttempt(t *testing.T) {
	sess := newSession(t)
	result := ExecuteAction(context.Background(), sess, "noop", Options{Retries: RetriesNone()}, func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	require.True(t, result.OK)
	require.Equal(t, "ok", result.Data)
	require.Equal(t, 0, result.Retries)
	require.GreaterOrEqual(t, result.DurationMs, int64(0))
}

func TestExecuteAction_RetriesThenSucceeds(t *testing.T) {
	sess := newSession(t)
	attempts := 0
	result := ExecuteAction(context.Background(), sess, "flaky", Options{}, func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errtax.New(errtax.TargetNotFound, "not yet")
		}
		return attempts, nil
	})

	require.True(t, result.OK)
	require.Equal(t, 3, result.Data)
	require.Equal(t, 2, result.Retries)
}

func TestExecuteAction_AllAttemptsFail(t *testing.T) {
	sess := newSession(t)
	result := ExecuteAction(context.Background(), sess, "always-fails", Options{Retries: intPtr(2)}, func(ctx context.Context) (string, error) {
		return "", errtax.New(errtax.StaleElement, "gone")
	})

	require.False(t, result.OK)
	require.Equal(t, 2, result.Retries)
	require.NotNil(t, result.StructuredErr)
	require.Equal(t, "StaleElement", result.StructuredErr.Code)
}

func TestExecuteAction_NavigationGuardAborts(t *testing.T) {
	sess := newSession(t)
	page := sess.Page.(*drivertest.Page)

	result := ExecuteAction(context.Background(), sess, "navigates-then-fails", Options{}, func(ctx context.Context) (string, error) {
		_ = page.Goto(ctx, "https://example.com/new", 0)
		return "", errtax.New(errtax.StaleElement, "boom")
	})

	require.False(t, result.OK)
	require.Equal(t, 0, result.Retries)
	require.NotNil(t, result.StructuredErr)
	require.Equal(t, "NavigationInterrupted", result.StructuredErr.Code)
}

func TestExecuteAction_PreconditionFalseIsRetried(t *testing.T) {
	sess := newSession(t)
	calls := 0
	result := ExecuteAction(context.Background(), sess, "precond", Options{
		Precondition: func(ctx context.Context) (bool, error) {
			calls++
			return calls > 1, nil
		},
	}, func(ctx context.Context) (string, error) {
		return "ran", nil
	})

	require.True(t, result.OK)
	require.Equal(t, "ran", result.Data)
	require.Equal(t, 1, result.Retries)
}

func TestExecuteAction_SelectorRotationOnTargetNotFound(t *testing.T) {
	sess := newSession(t)
	strategies := []selector.Strategy{selector.CSS("#a"), selector.CSS("#b"), selector.CSS("#c")}

	result := ExecuteAction(context.Background(), sess, "rotate", Options{Retries: intPtr(1), SelectorStrategies: &strategies}, func(ctx context.Context) (string, error) {
		return "", errtax.New(errtax.TargetNotFound, "nope")
	})

	require.False(t, result.OK)
	require.Equal(t, selector.CSS("#b"), strategies[0], "head strategy should rotate to the tail after a TargetNotFound attempt")
}
