package query

import (
	"fmt"
	"sort"

	"github.com/bijux/atlas/pkg/canonical"
)

// NormalizeRequest clears cursor and projection so that two requests
// differing only in pagination state or requested fields hash identically.
func NormalizeRequest(req GeneQueryRequest) GeneQueryRequest {
	normalized := req
	normalized.Cursor = nil
	normalized.Fields = Fields{}
	return normalized
}

// NormalizedQueryHash is the stable JSON hash of the normalized request;
// it is embedded in every cursor so a decoded cursor can be rejected if it
// was sealed for a different query.
func NormalizedQueryHash(req GeneQueryRequest) (string, error) {
	normalized := NormalizeRequest(req)
	return canonical.StableJSONHashHex(normalized)
}

// NormalizedAstFormat serializes ast with its predicates sorted into a
// fixed order, so that two structurally-equal ASTs built with predicates
// discovered in different orders still format identically. Grounded on
// normalized_ast_format's predicate_sort_key, which ranks by predicate
// kind first (the parser's fixed extraction order) and then by value.
func NormalizedAstFormat(ast GeneQueryAst) ([]byte, error) {
	ordered := ast
	ordered.Predicates = append([]Predicate(nil), ast.Predicates...)
	sort.SliceStable(ordered.Predicates, func(i, j int) bool {
		return predicateSortKey(ordered.Predicates[i]) < predicateSortKey(ordered.Predicates[j])
	})
	return canonical.StableJSONBytes(ordered)
}

func predicateSortKey(p Predicate) string {
	switch p.Kind {
	case PredicateGeneId:
		return "0:" + p.GeneId
	case PredicateNameEquals:
		return "1:" + p.NameEquals
	case PredicateNamePrefix:
		return "2:" + p.NamePrefix
	case PredicateBiotype:
		return "3:" + p.Biotype
	case PredicateRegion:
		return fmt.Sprintf("4:%s:%d:%d", p.RegionSeqId, p.RegionStart, p.RegionEnd)
	default:
		return "9:" + string(p.Kind)
	}
}
