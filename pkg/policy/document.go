// Package policy loads and validates the typed, schema-versioned
// configuration that seeds every runtime budget in Atlas: query cost
// limits, cache sizing, rate limits, bulkhead sizing, and telemetry
// toggles. The document is validated both structurally (against a pinned
// JSON Schema, via pkg/contracts) and semantically (SchemaVersion pinned,
// allow_override/network_in_unit_tests forced false in production).
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SchemaVersion is the pinned schema version this build understands.
// Schema bumps increment monotonically by one; Load rejects any other
// value.
const SchemaVersion = "3"

// QueryBudget bounds what a single query request may cost.
type QueryBudget struct {
	MaxLimit                    int    `json:"max_limit"`
	MaxTranscriptLimit          int    `json:"max_transcript_limit"`
	MaxRegionSpan                uint64 `json:"max_region_span"`
	MaxRegionEstimatedRows       uint64 `json:"max_region_estimated_rows"`
	MaxPrefixCostUnits           uint64 `json:"max_prefix_cost_units"`
	HeavyProjectionLimit         int    `json:"heavy_projection_limit"`
	MaxSerializationBytes        uint64 `json:"max_serialization_bytes"`
	MaxPrefixLength              int    `json:"max_prefix_length"`
	MaxSequenceBases             uint64 `json:"max_sequence_bases"`
	SequenceAPIKeyRequiredBases  uint64 `json:"sequence_api_key_required_bases"`
}

// CacheBudget bounds the dataset cache's disk and handle usage.
type CacheBudget struct {
	MaxDiskBytes         uint64 `json:"max_disk_bytes"`
	MaxDatasetCount      int    `json:"max_dataset_count"`
	PinnedDatasetsMax    int    `json:"pinned_datasets_max"`
	ShardCountPolicyMax  int    `json:"shard_count_policy_max"`
	MaxOpenShardsPerPod  int    `json:"max_open_shards_per_pod"`
}

// RateLimit configures the token-bucket limiter registries.
type RateLimit struct {
	PerIPRPS          float64 `json:"per_ip_rps"`
	PerAPIKeyRPS      float64 `json:"per_api_key_rps"`
	SequencePerIPRPS  float64 `json:"sequence_per_ip_rps"`
	// DisableRedisFallback, when true, makes a Redis rate-limit backend
	// failure fatal (RateLimited/Upstream) instead of silently falling
	// back to in-memory buckets. Additive field — see SPEC_FULL.md's Open
	// Question decision on the Redis fallback behavior.
	DisableRedisFallback bool `json:"disable_redis_fallback,omitempty"`
}

// ConcurrencyBulkheads sizes the three request-class semaphores.
type ConcurrencyBulkheads struct {
	Cheap  int `json:"cheap"`
	Medium int `json:"medium"`
	Heavy  int `json:"heavy"`
}

// Telemetry toggles ambient observability features.
type Telemetry struct {
	MetricsEnabled       bool `json:"metrics_enabled"`
	TracingEnabled       bool `json:"tracing_enabled"`
	SlowQueryLogEnabled  bool `json:"slow_query_log_enabled"`
	RequestIDRequired    bool `json:"request_id_required"`
}

// Document is the full, typed policy configuration.
type Document struct {
	SchemaVersion         string               `json:"schema_version"`
	QueryBudget           QueryBudget          `json:"query_budget"`
	CacheBudget           CacheBudget          `json:"cache_budget"`
	RateLimit             RateLimit            `json:"rate_limit"`
	ConcurrencyBulkheads  ConcurrencyBulkheads `json:"concurrency_bulkheads"`
	Telemetry             Telemetry            `json:"telemetry"`
	AllowOverride         bool                 `json:"allow_override"`
	NetworkInUnitTests    bool                 `json:"network_in_unit_tests"`
}

// ValidationError marks a semantic policy problem (distinct from a JSON
// Schema structural violation, which is reported as a *contracts.Report).
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

// ParseDocument decodes raw JSON bytes into a Document, rejecting unknown
// fields so that a typo or a not-yet-understood option fails loudly instead
// of silently being ignored.
func ParseDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("policy: decode: %w", err)
	}
	return doc, nil
}

// ValidateProduction enforces the production-mode semantic invariants:
// SchemaVersion must match the pinned build version, and allow_override /
// network_in_unit_tests must both be false.
func (d Document) ValidateProduction() error {
	if d.SchemaVersion != SchemaVersion {
		return &ValidationError{Reason: fmt.Sprintf("policy schema_version %q does not match pinned version %q", d.SchemaVersion, SchemaVersion)}
	}
	if d.AllowOverride {
		return &ValidationError{Reason: "policy.allow_override must be false in production"}
	}
	if d.NetworkInUnitTests {
		return &ValidationError{Reason: "policy.network_in_unit_tests must be false in production"}
	}
	return nil
}
