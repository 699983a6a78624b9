// Package bulkhead admits requests into one of three per-class counting
// semaphores (cheap/medium/heavy), grounded on the teacher's pkg/queue
// attempt-count guardrails and implemented with the hand-rolled buffered
// channel idiom used across the example pack's worker pools — acquire is a
// send, release is a receive.
package bulkhead

import (
	"context"
	"time"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/query"
)

// Sizes mirrors policy.ConcurrencyBulkheads — kept as its own type so this
// package does not need to import pkg/policy.
type Sizes struct {
	Cheap  int
	Medium int
	Heavy  int
}

type semaphore chan struct{}

func newSemaphore(size int) semaphore {
	if size < 1 {
		size = 1
	}
	return make(semaphore, size)
}

func (s semaphore) acquire(ctx context.Context, deadline time.Duration) error {
	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

func (s semaphore) release() { <-s }

// Bulkheads holds the three class semaphores for a serving pod.
type Bulkheads struct {
	cheap, medium, heavy semaphore
}

func New(sizes Sizes) *Bulkheads {
	return &Bulkheads{
		cheap:  newSemaphore(sizes.Cheap),
		medium: newSemaphore(sizes.Medium),
		heavy:  newSemaphore(sizes.Heavy),
	}
}

// Permit represents an acquired slot; call Release when the request completes.
type Permit struct {
	sem semaphore
}

func (p Permit) Release() {
	if p.sem != nil {
		p.sem.release()
	}
}

// Acquire blocks until a permit for class is available, ctx is canceled, or
// requestTimeout elapses, whichever comes first. A timeout or cancellation is
// reported as PolicyRejectedByBulkhead, matching QueryRejectedByPolicy's
// retry-after semantics at the HTTP boundary.
func (b *Bulkheads) Acquire(ctx context.Context, class query.QueryClass, requestTimeout time.Duration) (Permit, error) {
	sem := b.semaphoreFor(class)
	if err := sem.acquire(ctx, requestTimeout); err != nil {
		return Permit{}, atlaserr.Newf(atlaserr.PolicyRejectedByBulkhead, "bulkhead %s exhausted: %v", class, err)
	}
	return Permit{sem: sem}, nil
}

func (b *Bulkheads) semaphoreFor(class query.QueryClass) semaphore {
	switch class {
	case query.QueryClassCheap:
		return b.cheap
	case query.QueryClassHeavy:
		return b.heavy
	default:
		return b.medium
	}
}

// Occupancy reports current in-flight counts per class, for telemetry gauges.
type Occupancy struct {
	Cheap, Medium, Heavy int
}

func (b *Bulkheads) Occupancy() Occupancy {
	return Occupancy{Cheap: len(b.cheap), Medium: len(b.medium), Heavy: len(b.heavy)}
}
