package bulkhead

import (
	"context"
	"testing"
	"time"

	"github.com/bijux/atlas/pkg/query"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	b := New(Sizes{Cheap: 1, Medium: 1, Heavy: 1})
	permit, err := b.Acquire(context.Background(), query.QueryClassCheap, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Occupancy().Cheap != 1 {
		t.Fatalf("expected occupancy 1, got %+v", b.Occupancy())
	}
	permit.Release()
	if b.Occupancy().Cheap != 0 {
		t.Fatalf("expected occupancy 0 after release, got %+v", b.Occupancy())
	}
}

func TestAcquireTimesOutWhenExhausted(t *testing.T) {
	b := New(Sizes{Cheap: 1})
	_, err := b.Acquire(context.Background(), query.QueryClassCheap, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = b.Acquire(context.Background(), query.QueryClassCheap, 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected bulkhead exhaustion error")
	}
}

func TestHeavyAndMediumClassesAreIndependent(t *testing.T) {
	b := New(Sizes{Cheap: 1, Medium: 1, Heavy: 1})
	_, err := b.Acquire(context.Background(), query.QueryClassHeavy, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = b.Acquire(context.Background(), query.QueryClassMedium, time.Second)
	if err != nil {
		t.Fatalf("expected medium to be unaffected by heavy occupancy: %v", err)
	}
}
