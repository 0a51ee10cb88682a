package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetResourceActive(t *testing.T) {
	SetResourceActive(ResourceServer, true)
	assert.Equal(t, 1.0, testutil.ToFloat64(resourceActive.WithLabelValues(ResourceServer)))

	SetResourceActive(ResourceServer, false)
	assert.Equal(t, 0.0, testutil.ToFloat64(resourceActive.WithLabelValues(ResourceServer)))
}

func TestRecordTransition(t *testing.T) {
	initial := testutil.ToFloat64(lifecycleTransitionsTotal.WithLabelValues(ResourcePanel, TransitionReveal))

	RecordTransition(ResourcePanel, TransitionReveal)
	RecordTransition(ResourcePanel, TransitionReveal)

	assert.Equal(t, initial+2, testutil.ToFloat64(lifecycleTransitionsTotal.WithLabelValues(ResourcePanel, TransitionReveal)))
}

func TestIncrementStartFailure(t *testing.T) {
	initial := testutil.ToFloat64(startFailuresTotal.WithLabelValues(ResourceServer))
	IncrementStartFailure(ResourceServer)
	assert.Equal(t, initial+1, testutil.ToFloat64(startFailuresTotal.WithLabelValues(ResourceServer)))
}

func TestRecordCommand(t *testing.T) {
	okBefore := testutil.ToFloat64(commandsTotal.WithLabelValues("webulator.start", "ok"))
	errBefore := testutil.ToFloat64(commandsTotal.WithLabelValues("webulator.start", "error"))

	RecordCommand("webulator.start", nil)
	RecordCommand("webulator.start", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(commandsTotal.WithLabelValues("webulator.start", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(commandsTotal.WithLabelValues("webulator.start", "error")))
}

func TestPanelMetrics(t *testing.T) {
	loadBefore := testutil.ToFloat64(panelEventsTotal.WithLabelValues("load"))
	droppedBefore := testutil.ToFloat64(panelEventsDroppedTotal)

	IncrementPanelEvent("load")
	IncrementPanelEventDropped()
	SetPanelsOpen(2)

	assert.Equal(t, loadBefore+1, testutil.ToFloat64(panelEventsTotal.WithLabelValues("load")))
	assert.Equal(t, droppedBefore+1, testutil.ToFloat64(panelEventsDroppedTotal))

	var m dto.Metric
	require.NoError(t, panelsOpen.Write(&m))
	assert.Equal(t, 2.0, m.GetGauge().GetValue())
}

func TestMetricsRegistered(t *testing.T) {
	SetResourceActive(ResourcePanel, false)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["webulator_resource_active"])
	assert.True(t, names["webulator_panels_open"])
}
