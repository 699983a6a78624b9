package query

import "math"

// EstimatePrefixMatchCost models how expensive a name_prefix predicate is:
// short prefixes can match huge sets, so cost grows linearly as the
// prefix shortens below 15 bytes (all prefixes of 15 or more cost the same). Mirrors estimate_prefix_match_cost exactly, including
// the u64::MAX sentinel for a zero-length prefix (expressed as math.MaxUint64
// in Go since there is no unsigned overflow trap to rely on).
func EstimatePrefixMatchCost(req GeneQueryRequest) uint64 {
	prefix := req.Filter.NamePrefix
	if prefix == nil {
		return 0
	}
	length := uint64(len(*prefix))
	if length == 0 {
		return math.MaxUint64
	}
	inverseSelectivity := saturatingSub(256, min64(length*16, 240))
	return saturatingMul(inverseSelectivity, uint64(req.Limit))
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxUint64/b {
		return math.MaxUint64
	}
	return a * b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
