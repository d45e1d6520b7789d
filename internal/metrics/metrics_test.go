package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	IncInspection("SQL Injection", "Blocked")
	IncInspection("SQL Injection", "Blocked")
	IncDropped("websocket")
	SetObservers(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(inspectionsTotal.WithLabelValues("SQL Injection", "Blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(eventsDroppedTotal.WithLabelValues("websocket")))
	assert.Equal(t, 3.0, testutil.ToFloat64(observersConnected))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
