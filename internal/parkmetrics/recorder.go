// Package parkmetrics records simulation counters and gauges through the
// OpenTelemetry metrics API. It mirrors the adapter shape used by
// eventstore/oteladapters.MetricsCollector: a thin map-backed cache of
// lazily created instruments over a single Meter, with a manual reader so a
// run can print its own collected snapshot at shutdown without standing up
// an external metrics backend.
package parkmetrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Recorder adapts simple counter/gauge calls onto OpenTelemetry instruments.
type Recorder struct {
	mu       sync.Mutex
	meter    metric.Meter
	counters map[string]metric.Int64Counter
	gauges   map[string]metric.Float64Gauge

	reader *sdkmetric.ManualReader
}

// NewRecorder builds a Recorder backed by its own in-process MeterProvider
// and a ManualReader, so Snapshot can be called at any time without needing
// a push exporter.
func NewRecorder() *Recorder {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return &Recorder{
		meter:    provider.Meter("park"),
		counters: make(map[string]metric.Int64Counter),
		gauges:   make(map[string]metric.Float64Gauge),
		reader:   reader,
	}
}

// IncrementCounter adds delta to the named monotonic counter, creating it on
// first use.
func (r *Recorder) IncrementCounter(name string, delta int64, labels map[string]string) {
	r.mu.Lock()
	c, ok := r.counters[name]
	if !ok {
		var err error
		c, err = r.meter.Int64Counter(name)
		if err != nil {
			r.mu.Unlock()
			return
		}
		r.counters[name] = c
	}
	r.mu.Unlock()

	c.Add(context.Background(), delta, metric.WithAttributes(toAttrs(labels)...))
}

// RecordValue sets the named gauge to value, creating it on first use.
func (r *Recorder) RecordValue(name string, value float64, labels map[string]string) {
	r.mu.Lock()
	g, ok := r.gauges[name]
	if !ok {
		var err error
		g, err = r.meter.Float64Gauge(name)
		if err != nil {
			r.mu.Unlock()
			return
		}
		r.gauges[name] = g
	}
	r.mu.Unlock()

	g.Record(context.Background(), value, metric.WithAttributes(toAttrs(labels)...))
}

func toAttrs(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// Snapshot collects the current instrument values from the manual reader.
// Intended for the end-of-run console summary, not for hot-path use.
func (r *Recorder) Snapshot(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	err := r.reader.Collect(ctx, &rm)
	return rm, err
}

// SumInt64 pulls the latest value of a named Int64 sum instrument out of a
// snapshot, returning 0 if absent.
func SumInt64(rm metricdata.ResourceMetrics, name string) int64 {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				return total
			}
		}
	}
	return 0
}
