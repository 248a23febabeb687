// Package telemetrytest provides in-memory metric readers for tests.
package telemetrytest

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"resume-analyzer/backend/internal/telemetry"
)

// NewMetrics returns Metrics backed by a manual reader and a function that reads a counter's value
// for the given outcome ("" for counters without attributes). For tests only.
func NewMetrics(t testing.TB) (*telemetry.Metrics, func(name, outcome string) int64) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewMetrics(provider.Meter(telemetry.MeterName))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	read := func(name, outcome string) int64 {
		t.Helper()
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			t.Fatalf("Collect: %v", err)
		}
		for _, sm := range rm.ScopeMetrics {
			for _, md := range sm.Metrics {
				if md.Name != name {
					continue
				}
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("metric %s is %T, want Sum[int64]", name, md.Data)
				}
				var total int64
				for _, dp := range sum.DataPoints {
					if outcome != "" {
						if v, ok := dp.Attributes.Value(attribute.Key("outcome")); !ok || v.AsString() != outcome {
							continue
						}
					}
					total += dp.Value
				}
				return total
			}
		}
		return 0
	}
	return m, read
}
