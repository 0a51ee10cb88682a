package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resource names used as label values.
const (
	ResourceServer = "server"
	ResourcePanel  = "panel"
)

// Transition names used as label values.
const (
	TransitionStart    = "start"
	TransitionReveal   = "reveal"
	TransitionStop     = "stop"
	TransitionDisposed = "disposed"
)

var (
	// Lifecycle metrics
	resourceActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "webulator_resource_active",
		Help: "Whether the controller currently holds the resource (1) or not (0)",
	}, []string{"resource"})

	lifecycleTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webulator_lifecycle_transitions_total",
		Help: "Total lifecycle transitions per resource",
	}, []string{"resource", "transition"})

	startFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webulator_start_failures_total",
		Help: "Total failed attempts to start a resource",
	}, []string{"resource"})

	// Command surface
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webulator_commands_total",
		Help: "Total command invocations",
	}, []string{"command", "result"})

	// Panel host
	panelEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webulator_panel_events_total",
		Help: "Total events reported by panel pages",
	}, []string{"type"})

	panelEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webulator_panel_events_dropped_total",
		Help: "Panel events rejected by the per-panel rate limiter",
	})

	panelsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "webulator_panels_open",
		Help: "Number of panels currently hosted",
	})
)

// SetResourceActive records whether resource is held.
func SetResourceActive(resource string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	resourceActive.WithLabelValues(resource).Set(v)
}

// RecordTransition counts one lifecycle transition.
func RecordTransition(resource, transition string) {
	lifecycleTransitionsTotal.WithLabelValues(resource, transition).Inc()
}

// IncrementStartFailure counts a failed start of resource.
func IncrementStartFailure(resource string) {
	startFailuresTotal.WithLabelValues(resource).Inc()
}

// RecordCommand counts a command invocation with result "ok" or "error".
func RecordCommand(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	commandsTotal.WithLabelValues(command, result).Inc()
}

// IncrementPanelEvent counts an accepted panel event.
func IncrementPanelEvent(eventType string) {
	panelEventsTotal.WithLabelValues(eventType).Inc()
}

// IncrementPanelEventDropped counts a rate-limited panel event.
func IncrementPanelEventDropped() {
	panelEventsDroppedTotal.Inc()
}

// SetPanelsOpen sets the hosted panel gauge.
func SetPanelsOpen(count int) {
	panelsOpen.Set(float64(count))
}
