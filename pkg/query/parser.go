package query

// Predicate is one AST node. Exactly one of the typed fields is
// meaningful, selected by Kind — mirroring the original Rust enum's
// variants in the fixed order gene_id, name, name_prefix, biotype, region.
type Predicate struct {
	Kind       PredicateKind `json:"kind"`
	GeneId     string        `json:"gene_id,omitempty"`
	NameEquals string        `json:"name_equals,omitempty"`
	NamePrefix string        `json:"name_prefix,omitempty"`
	Biotype    string        `json:"biotype,omitempty"`
	RegionSeqId string       `json:"region_seqid,omitempty"`
	RegionStart uint64       `json:"region_start,omitempty"`
	RegionEnd   uint64       `json:"region_end,omitempty"`
}

type PredicateKind string

const (
	PredicateGeneId     PredicateKind = "gene_id"
	PredicateNameEquals PredicateKind = "name_equals"
	PredicateNamePrefix PredicateKind = "name_prefix"
	PredicateBiotype    PredicateKind = "biotype"
	PredicateRegion     PredicateKind = "region"
)

// SortKey names which ORDER BY the plan uses.
type SortKey string

const (
	SortKeyGeneId SortKey = "gene_id"
	SortKeyRegion SortKey = "region"
)

// GeneQueryAst is the parsed, validated form of a request, independent of
// projection or cursor state.
type GeneQueryAst struct {
	Predicates    []Predicate `json:"predicates"`
	Limit         int         `json:"limit"`
	DatasetKey    *string     `json:"dataset_key,omitempty"`
	AllowFullScan bool        `json:"allow_full_scan"`
	HasCursor     bool        `json:"has_cursor"`
	SortKey       SortKey     `json:"sort_key"`
}

// ParseError is returned by Parse for malformed requests (before cost/
// budget validation, which is a separate, later stage).
type ParseError struct{ Reason string }

func (e *ParseError) Error() string { return e.Reason }

// Parse extracts predicates from req in the fixed order gene_id, name,
// name_prefix, biotype, region, and builds the AST. It performs only the
// structural checks that must happen before a plan can exist: limit must
// be positive, and a region predicate's span must be non-inverted.
func Parse(req GeneQueryRequest) (GeneQueryAst, error) {
	if req.Limit <= 0 {
		return GeneQueryAst{}, &ParseError{Reason: "limit must be > 0"}
	}

	var predicates []Predicate
	if req.Filter.GeneId != nil {
		predicates = append(predicates, Predicate{Kind: PredicateGeneId, GeneId: string(*req.Filter.GeneId)})
	}
	if req.Filter.Name != nil {
		predicates = append(predicates, Predicate{Kind: PredicateNameEquals, NameEquals: *req.Filter.Name})
	}
	if req.Filter.NamePrefix != nil {
		predicates = append(predicates, Predicate{Kind: PredicateNamePrefix, NamePrefix: *req.Filter.NamePrefix})
	}
	if req.Filter.Biotype != nil {
		predicates = append(predicates, Predicate{Kind: PredicateBiotype, Biotype: *req.Filter.Biotype})
	}
	if r := req.Filter.Region; r != nil {
		if r.Start == 0 || r.End < r.Start {
			return GeneQueryAst{}, &ParseError{Reason: "region start must be <= end and >= 1"}
		}
		predicates = append(predicates, Predicate{
			Kind: PredicateRegion, RegionSeqId: string(r.SeqId), RegionStart: r.Start, RegionEnd: r.End,
		})
	}

	sortKey := SortKeyGeneId
	if req.Filter.Region != nil {
		sortKey = SortKeyRegion
	}

	return GeneQueryAst{
		Predicates:    predicates,
		Limit:         req.Limit,
		DatasetKey:    req.DatasetKey,
		AllowFullScan: req.AllowFullScan,
		HasCursor:     req.Cursor != nil,
		SortKey:       sortKey,
	}, nil
}
