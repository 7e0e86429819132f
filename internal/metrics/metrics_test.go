package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordAction_IncrementsCounterAndObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordAction("click", true, 0.05, 0)
	m.RecordAction("click", false, 0.2, 2)

	require.Equal(t, float64(1), testutil.ToFloat64(m.ActionCounter.WithLabelValues("click", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ActionCounter.WithLabelValues("click", "error")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.ActionRetries.WithLabelValues("click")))
}

func TestRecordSelectorResolution_LabelsByStrategyAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordSelectorResolution("testid", true, 0.01)
	m.RecordSelectorResolution("role_name", false, 0.5)

	require.Equal(t, float64(1), testutil.ToFloat64(m.SelectorResolutionCounter.WithLabelValues("testid", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.SelectorResolutionCounter.WithLabelValues("role_name", "not_found")))
}

func TestSetPoolSize_ReflectsLatestValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetPoolSize(3)
	require.Equal(t, float64(3), testutil.ToFloat64(m.PoolSize))

	m.SetPoolSize(1)
	require.Equal(t, float64(1), testutil.ToFloat64(m.PoolSize))
}

func TestRecordSessionRecovery_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordSessionRecovery(true)
	m.RecordSessionRecovery(false)
	m.RecordSessionRecovery(false)

	require.Equal(t, float64(1), testutil.ToFloat64(m.SessionRecoveries.WithLabelValues("ok")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.SessionRecoveries.WithLabelValues("error")))
}

func TestRecordApprovalDecision_CountsByDecisionAndSource(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordApprovalDecision(true, "provider")
	m.RecordApprovalDecision(false, "env")

	require.Equal(t, float64(1), testutil.ToFloat64(m.ApprovalDecisions.WithLabelValues("approved", "provider")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ApprovalDecisions.WithLabelValues("denied", "env")))
}
