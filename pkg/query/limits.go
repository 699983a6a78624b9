package query

import "github.com/bijux/atlas/pkg/policy"

// Limits bounds what a single request may cost. Defaults mirror the
// original query crate's QueryLimits::default exactly.
type Limits struct {
	MaxLimit      int
	MaxRegionSpan uint64
	MinPrefixLen  int
	MaxPrefixLen  int
	MaxWorkUnits  uint64
}

// DefaultLimits are the hardcoded fallback limits used when no policy
// document is available (e.g. early boot, or a test fixture).
func DefaultLimits() Limits {
	return Limits{
		MaxLimit:      500,
		MaxRegionSpan: 5_000_000,
		MinPrefixLen:  1,
		MaxPrefixLen:  64,
		MaxWorkUnits:  2_000,
	}
}

// LimitsFromPolicy derives Limits from a loaded policy document's
// query_budget section.
func LimitsFromPolicy(doc policy.Document) Limits {
	return Limits{
		MaxLimit:      doc.QueryBudget.MaxLimit,
		MaxRegionSpan: doc.QueryBudget.MaxRegionSpan,
		MinPrefixLen:  1,
		MaxPrefixLen:  doc.QueryBudget.MaxPrefixLength,
		// max_work_units is pinned at 2000 regardless of policy, matching
		// the original query crate's QueryLimits::from_policy.
		MaxWorkUnits: 2_000,
	}
}
