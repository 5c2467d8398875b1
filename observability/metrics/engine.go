package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics counts engine operations served through the rpc layer.
type EngineMetrics struct {
	operations    *prometheus.CounterVec
	triggersFired *prometheus.CounterVec
	feesCollected *prometheus.CounterVec
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

// Engine returns the lazily registered engine metrics.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tanda_engine_operations_total",
				Help: "Count of engine operations by engine, operation and outcome.",
			}, []string{"engine", "operation", "outcome"}),
			triggersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tanda_automation_triggers_total",
				Help: "Count of fired automation triggers by type and outcome.",
			}, []string{"trigger", "outcome"}),
			feesCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tanda_fees_collected_total",
				Help: "Count of fee collections routed to the treasury by category.",
			}, []string{"category"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.triggersFired,
			engineRegistry.feesCollected,
		)
	})
	return engineRegistry
}

// ObserveOperation records one served engine call.
func (m *EngineMetrics) ObserveOperation(engine, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(engine, operation, outcome).Inc()
}

// ObserveTrigger records one automation trigger dispatch.
func (m *EngineMetrics) ObserveTrigger(trigger string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.triggersFired.WithLabelValues(trigger, outcome).Inc()
}

// ObserveFee records one fee collection by category.
func (m *EngineMetrics) ObserveFee(category string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.feesCollected.WithLabelValues(category).Inc()
}
