package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bijux/atlas/pkg/telemetry"
)

func TestIncCounterRegistersAndAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMeter(reg)
	ctx := context.Background()

	if err := telemetry.IncCounter(m, ctx, "atlas_cache_hits_total", 1, telemetry.Labels{"dataset": "110-homo-sapiens"}); err != nil {
		t.Fatalf("IncCounter: %v", err)
	}
	if err := telemetry.IncCounter(m, ctx, "atlas_cache_hits_total", 2, telemetry.Labels{"dataset": "110-homo-sapiens"}); err != nil {
		t.Fatalf("IncCounter: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "atlas_cache_hits_total" {
			found = true
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 3 {
				t.Fatalf("expected counter value 3, got %v", got)
			}
		}
	}
	if !found {
		t.Fatal("expected atlas_cache_hits_total to be registered")
	}
}

func TestSetGaugeAndObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMeter(reg)
	ctx := context.Background()

	if err := telemetry.SetGauge(m, ctx, "atlas_bulkhead_occupancy", 4, telemetry.Labels{"class": "heavy"}); err != nil {
		t.Fatalf("SetGauge: %v", err)
	}
	if err := telemetry.ObserveHistogram(m, ctx, "atlas_query_latency_seconds", 0.05, telemetry.DefaultHistogramBuckets(), nil); err != nil {
		t.Fatalf("ObserveHistogram: %v", err)
	}
}
