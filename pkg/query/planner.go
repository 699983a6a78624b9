package query

import "fmt"

// QueryClass buckets a request into the three bulkhead lanes serving
// admits requests under.
type QueryClass string

const (
	QueryClassCheap  QueryClass = "cheap"
	QueryClassMedium QueryClass = "medium"
	QueryClassHeavy  QueryClass = "heavy"
)

// Classify mirrors classify_query: a gene_id lookup is always cheap; a
// region or name_prefix predicate is heavy (full rtree/scan territory);
// everything else is medium.
func Classify(req GeneQueryRequest) QueryClass {
	switch {
	case req.Filter.GeneId != nil:
		return QueryClassCheap
	case req.Filter.Region != nil || req.Filter.NamePrefix != nil:
		return QueryClassHeavy
	default:
		return QueryClassMedium
	}
}

// EstimateWorkUnits mirrors estimate_work_units: a per-class base cost
// plus the requested limit plus a region-span term (1 unit per 10,000
// bases).
func EstimateWorkUnits(req GeneQueryRequest) uint64 {
	var base uint64
	switch Classify(req) {
	case QueryClassCheap:
		base = 20
	case QueryClassMedium:
		base = 200
	case QueryClassHeavy:
		base = 1200
	}
	var regionCost uint64
	if r := req.Filter.Region; r != nil {
		regionCost = (saturatingSub(r.End, r.Start) + 1) / 10_000
	}
	return base + uint64(req.Limit) + regionCost
}

// ValidationError is returned by Validate for a request that fails a
// budget check.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

// Validate mirrors validate_request exactly: limit bounds, prefix length
// bounds, region span bounds, the full-scan guard, and the work-unit
// budget, checked in that fixed order.
func Validate(req GeneQueryRequest, limits Limits) error {
	if req.Limit <= 0 || req.Limit > limits.MaxLimit {
		return &ValidationError{Reason: fmt.Sprintf("limit must be between 1 and %d", limits.MaxLimit)}
	}

	if prefix := req.Filter.NamePrefix; prefix != nil {
		if len(*prefix) < limits.MinPrefixLen {
			return &ValidationError{Reason: fmt.Sprintf("name_prefix length must be >= %d", limits.MinPrefixLen)}
		}
		if len(*prefix) > limits.MaxPrefixLen {
			return &ValidationError{Reason: fmt.Sprintf("name_prefix length exceeds %d", limits.MaxPrefixLen)}
		}
	}

	if region := req.Filter.Region; region != nil {
		if region.Start == 0 || region.End < region.Start {
			return &ValidationError{Reason: "invalid region span"}
		}
		span := region.End - region.Start + 1
		if span > limits.MaxRegionSpan {
			return &ValidationError{Reason: fmt.Sprintf("region span exceeds %d", limits.MaxRegionSpan)}
		}
	}

	if !req.HasAnyFilter() && !req.AllowFullScan {
		return &ValidationError{Reason: "full table scan is forbidden without explicit allow_full_scan=true"}
	}

	work := EstimateWorkUnits(req)
	if work > limits.MaxWorkUnits {
		return &ValidationError{Reason: fmt.Sprintf("estimated query cost %d exceeds max_work_units %d", work, limits.MaxWorkUnits)}
	}
	return nil
}
