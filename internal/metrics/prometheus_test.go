package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_Steps(t *testing.T) {
	rec := NewPrometheusRecorder(nil)

	rec.ObserveStep("hr", "retrieve", 0.2, false)
	rec.ObserveStep("hr", "generate", 1.5, true)
	rec.IncRetry("hr")
	rec.IncRetry("hr")
	rec.IncFallback("it")

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.stepFailures.WithLabelValues("hr", "generate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.stepFailures.WithLabelValues("hr", "retrieve")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.retriesTotal.WithLabelValues("hr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.fallbacksTotal.WithLabelValues("it")))
	assert.Equal(t, 2, testutil.CollectAndCount(rec.stepDuration))
}

func TestPrometheusRecorder_Turns(t *testing.T) {
	rec := NewPrometheusRecorder(nil)

	done := rec.TurnStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.turnsInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.turnsInFlight))

	rec.ObserveTurn("personal", "sse", OutcomeCompleted, 2*time.Second)
	rec.ObserveTurn("personal", "sse", OutcomeCompleted, time.Second)
	rec.IncTransfer("hr")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.turnsTotal.WithLabelValues("personal", "sse", OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.transfersTotal.WithLabelValues("hr")))
}

func TestPrometheusRecorder_SeparateRegistries(t *testing.T) {
	a := NewPrometheusRecorder(nil)
	b := NewPrometheusRecorder(nil)

	a.IncRetry("hr")

	require.NotSame(t, a.Registry(), b.Registry())
	assert.Equal(t, 0.0, testutil.ToFloat64(b.retriesTotal.WithLabelValues("hr")))
}
