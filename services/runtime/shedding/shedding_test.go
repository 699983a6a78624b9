package shedding

import (
	"testing"
	"time"

	"github.com/bijux/atlas/pkg/query"
)

func TestCheapClassNeverShed(t *testing.T) {
	s := New(Config{Enabled: true, SampleWindow: 4, LatencyP95Threshold: time.Millisecond})
	for i := 0; i < 10; i++ {
		s.Observe(time.Second)
	}
	d := s.Decide(query.QueryClassCheap)
	if d.Action != "admit" {
		t.Fatalf("expected cheap to always admit, got %+v", d)
	}
}

func TestHeavyShedWhenP95Exceeded(t *testing.T) {
	s := New(Config{Enabled: true, SampleWindow: 4, LatencyP95Threshold: 10 * time.Millisecond})
	for i := 0; i < 8; i++ {
		s.Observe(time.Second)
	}
	d := s.Decide(query.QueryClassHeavy)
	if d.Action != "shed" {
		t.Fatalf("expected heavy to be shed under high p95, got %+v", d)
	}
}

func TestDisabledShedderAlwaysAdmits(t *testing.T) {
	s := New(Config{Enabled: false, SampleWindow: 4, LatencyP95Threshold: time.Millisecond})
	s.Observe(time.Second)
	s.Observe(time.Second)
	if d := s.Decide(query.QueryClassMedium); d.Action != "admit" {
		t.Fatalf("expected disabled shedder to admit, got %+v", d)
	}
}
