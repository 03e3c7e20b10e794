// Package metrics records workflow and turn metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes used as the "outcome" label.
const (
	OutcomeCompleted    = "completed"
	OutcomeFailed       = "failed"
	OutcomeDisconnected = "disconnected"
)

// PrometheusRecorder implements workflow.StepObserver and tracks turns.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	stepDuration   *prometheus.HistogramVec
	stepFailures   *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	fallbacksTotal *prometheus.CounterVec
	turnsTotal     *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	transfersTotal *prometheus.CounterVec
	turnsInFlight  prometheus.Gauge
}

// NewPrometheusRecorder registers every collector on registry. A nil
// registry gets a fresh one, which keeps tests independent.
func NewPrometheusRecorder(registry *prometheus.Registry) *PrometheusRecorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &PrometheusRecorder{
		registry: registry,
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "policydesk_workflow_step_duration_seconds",
				Help:    "Duration of workflow steps by agent and phase",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent", "phase"},
		),
		stepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_workflow_step_failures_total",
				Help: "Workflow steps that returned an error",
			},
			[]string{"agent", "phase"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_validation_retries_total",
				Help: "Answers rejected by validation and regenerated",
			},
			[]string{"agent"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_validation_fallbacks_total",
				Help: "Turns that ended with the fallback answer",
			},
			[]string{"agent"},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_turns_total",
				Help: "Chat turns by agent, transport and outcome",
			},
			[]string{"agent", "transport", "outcome"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "policydesk_turn_duration_seconds",
				Help:    "End to end duration of chat turns",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"agent", "transport"},
		),
		transfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policydesk_agent_transfers_total",
				Help: "Hand-offs from the general agent to a specialist",
			},
			[]string{"target"},
		),
		turnsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "policydesk_turns_in_flight",
				Help: "Turns currently being executed",
			},
		),
	}
}

func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStep(agent, phase string, seconds float64, failed bool) {
	p.stepDuration.WithLabelValues(agent, phase).Observe(seconds)
	if failed {
		p.stepFailures.WithLabelValues(agent, phase).Inc()
	}
}

func (p *PrometheusRecorder) IncRetry(agent string) {
	p.retriesTotal.WithLabelValues(agent).Inc()
}

func (p *PrometheusRecorder) IncFallback(agent string) {
	p.fallbacksTotal.WithLabelValues(agent).Inc()
}

// TurnStarted marks a turn in flight and returns the func that ends it.
func (p *PrometheusRecorder) TurnStarted() func() {
	p.turnsInFlight.Inc()
	return p.turnsInFlight.Dec
}

func (p *PrometheusRecorder) ObserveTurn(agent, transport, outcome string, duration time.Duration) {
	p.turnsTotal.WithLabelValues(agent, transport, outcome).Inc()
	p.turnDuration.WithLabelValues(agent, transport).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncTransfer(target string) {
	p.transfersTotal.WithLabelValues(target).Inc()
}
