// Package shedding implements cheap-only survival mode: once observed
// latency degrades, non-cheap request classes are shed immediately rather
// than queued behind an already-saturated pod. Grounded on the
// orchestrator's load_balancer.go Decide/Router shape (queue-depth gated
// route_local/defer/reject), adapted to a p95-latency gate over cheap vs.
// non-cheap classes instead of queue-depth thresholds.
package shedding

import (
	"sort"
	"sync"
	"time"

	"github.com/bijux/atlas/pkg/query"
)

type Config struct {
	Enabled           bool
	SampleWindow      int
	LatencyP95Threshold time.Duration
}

// Decision mirrors the Router.Decide shape from the example pack: an action
// string plus a human-readable reason, suited for direct inclusion in a
// telemetry event.
type Decision struct {
	Action string // "admit" | "shed"
	Reason string
}

// Shedder tracks a ring buffer of recent request latencies and decides
// whether non-cheap classes should be shed.
type Shedder struct {
	mu      sync.Mutex
	cfg     Config
	samples []time.Duration
	next    int
	filled  bool
}

func New(cfg Config) *Shedder {
	if cfg.SampleWindow < 1 {
		cfg.SampleWindow = 100
	}
	return &Shedder{cfg: cfg, samples: make([]time.Duration, cfg.SampleWindow)}
}

// Observe records a completed request's latency for the rolling p95 window.
func (s *Shedder) Observe(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[s.next] = d
	s.next = (s.next + 1) % len(s.samples)
	if s.next == 0 {
		s.filled = true
	}
}

// P95 returns the current observed p95 latency, or 0 if insufficient samples
// have been collected yet.
func (s *Shedder) P95() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p95Locked()
}

func (s *Shedder) p95Locked() time.Duration {
	n := len(s.samples)
	if !s.filled {
		n = s.next
	}
	if n == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), s.samples[:n]...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (n * 95) / 100
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Decide reports whether a request of the given class should be admitted.
// Cheap requests are never shed — cheap-only survival mode exists precisely
// to keep them flowing when the pod is degraded.
func (s *Shedder) Decide(class query.QueryClass) Decision {
	if !s.cfg.Enabled || class == query.QueryClassCheap {
		return Decision{Action: "admit", Reason: "ok"}
	}
	p95 := s.P95()
	if p95 > s.cfg.LatencyP95Threshold {
		return Decision{Action: "shed", Reason: "p95_latency_exceeded"}
	}
	return Decision{Action: "admit", Reason: "ok"}
}
