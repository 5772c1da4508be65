package parkmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestIncrementCounterAccumulates(t *testing.T) {
	r := NewRecorder()
	r.IncrementCounter("park.admitted", 1, map[string]string{"vip": "0"})
	r.IncrementCounter("park.admitted", 1, map[string]string{"vip": "1"})
	r.IncrementCounter("park.admitted", 3, nil)

	rm, err := r.Snapshot(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 5, SumInt64(rm, "park.admitted"))
}

func TestRecordValueOverwritesGauge(t *testing.T) {
	r := NewRecorder()
	r.RecordValue("park.tower.occupancy", 3, nil)
	r.RecordValue("park.tower.occupancy", 7, nil)

	rm, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rm.ScopeMetrics)

	var last float64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == "park.tower.occupancy" && len(g.DataPoints) > 0 {
				last = g.DataPoints[0].Value
			}
		}
	}
	assert.InDelta(t, 7.0, last, 1e-9)
}

func TestSumInt64MissingMetricReturnsZero(t *testing.T) {
	r := NewRecorder()
	rm, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, SumInt64(rm, "does.not.exist"))
}
