// Package metrics exposes Prometheus counters and histograms for action
// outcomes, retries, pool occupancy, and selector-resolution latency. It is
// a sink fed by the same internal/trace.Record call as the action trace and
// the OpenTelemetry span emitter, never a second source of truth. Modelled
// on the teacher's observability.Metrics: one struct of promauto-registered
// vectors plus narrow recording methods.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector this runtime registers.
type Metrics struct {
	// ActionCounter counts actions by name and outcome (ok|error).
	ActionCounter *prometheus.CounterVec

	// ActionDuration measures action execution time in seconds.
	ActionDuration *prometheus.HistogramVec

	// ActionRetries counts retry attempts consumed by an action, by name.
	ActionRetries *prometheus.CounterVec

	// SelectorResolutionDuration measures selector-resolution latency in
	// seconds, labelled by the strategy that ultimately resolved it.
	SelectorResolutionDuration *prometheus.HistogramVec

	// SelectorResolutionCounter counts selector resolutions by strategy and
	// outcome (ok|not_found).
	SelectorResolutionCounter *prometheus.CounterVec

	// PoolSize is a gauge of live browser contexts held by the pool.
	PoolSize prometheus.Gauge

	// PoolAcquireDuration measures how long Acquire took, including any
	// lazy browser launch, in seconds.
	PoolAcquireDuration prometheus.Histogram

	// SessionRecoveries counts pool-driven preserve-id recoveries by
	// outcome (ok|error).
	SessionRecoveries *prometheus.CounterVec

	// ApprovalDecisions counts request_approval resolutions by decision
	// (approved|denied) and source (provider|auto_approve|env|default).
	ApprovalDecisions *prometheus.CounterVec
}

// New creates and registers every collector against reg. Passing nil
// registers against the default Prometheus registry, mirroring promauto's
// own zero-value behaviour.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browseragent_actions_total",
				Help: "Total number of actions executed, by action name and outcome",
			},
			[]string{"action", "outcome"},
		),

		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "browseragent_action_duration_seconds",
				Help:    "Duration of action execution in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"action"},
		),

		ActionRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browseragent_action_retries_total",
				Help: "Total number of retry attempts consumed by actions",
			},
			[]string{"action"},
		),

		SelectorResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "browseragent_selector_resolution_duration_seconds",
				Help:    "Duration of selector resolution in seconds, by resolving strategy",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
			},
			[]string{"strategy"},
		),

		SelectorResolutionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browseragent_selector_resolutions_total",
				Help: "Total number of selector resolutions, by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),

		PoolSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "browseragent_pool_contexts",
				Help: "Current number of live browser contexts held by the pool",
			},
		),

		PoolAcquireDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "browseragent_pool_acquire_duration_seconds",
				Help:    "Duration of pool Acquire calls in seconds, including any lazy browser launch",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),

		SessionRecoveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browseragent_session_recoveries_total",
				Help: "Total number of preserve-id session recoveries, by outcome",
			},
			[]string{"outcome"},
		),

		ApprovalDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "browseragent_approval_decisions_total",
				Help: "Total number of request_approval resolutions, by decision and source",
			},
			[]string{"decision", "source"},
		),
	}
}

// RecordAction records the outcome, duration, and retry count of a single
// action execution.
func (m *Metrics) RecordAction(action string, ok bool, durationSeconds float64, retries int) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.ActionCounter.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(durationSeconds)
	if retries > 0 {
		m.ActionRetries.WithLabelValues(action).Add(float64(retries))
	}
}

// RecordSelectorResolution records the strategy that resolved (or failed to
// resolve) a selector and how long resolution took.
func (m *Metrics) RecordSelectorResolution(strategy string, ok bool, durationSeconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "not_found"
	}
	m.SelectorResolutionCounter.WithLabelValues(strategy, outcome).Inc()
	m.SelectorResolutionDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// SetPoolSize sets the current live-context gauge.
func (m *Metrics) SetPoolSize(n int) {
	m.PoolSize.Set(float64(n))
}

// RecordPoolAcquire records how long a pool Acquire call took.
func (m *Metrics) RecordPoolAcquire(durationSeconds float64) {
	m.PoolAcquireDuration.Observe(durationSeconds)
}

// RecordSessionRecovery records the outcome of a preserve-id recovery.
func (m *Metrics) RecordSessionRecovery(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.SessionRecoveries.WithLabelValues(outcome).Inc()
}

// RecordApprovalDecision records a request_approval resolution and which
// cascade tier produced it.
func (m *Metrics) RecordApprovalDecision(approved bool, source string) {
	decision := "approved"
	if !approved {
		decision = "denied"
	}
	m.ApprovalDecisions.WithLabelValues(decision, source).Inc()
}
