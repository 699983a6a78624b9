package model

// The enums below cross the API boundary and are intentionally
// non-exhaustive: callers must always include a default/fallback arm so
// that a future Atlas release can add a new variant without being a
// breaking change for existing readers. Go has no native non-exhaustive
// enum, so each is a defined string type with a package-level validity set
// a caller can consult via IsKnown; switch statements should still carry a
// default case.

// StrictnessMode governs how ingest anomalies are surfaced.
type StrictnessMode string

const (
	StrictnessStrict     StrictnessMode = "strict"
	StrictnessLenient    StrictnessMode = "lenient"
	StrictnessReportOnly StrictnessMode = "report_only"
)

// IsKnown reports whether m is one of the variants defined at the time of
// this build. Unknown values should be treated as an error by strict
// callers and ignored (default arm) by forward-compatible ones.
func (m StrictnessMode) IsKnown() bool {
	switch m {
	case StrictnessStrict, StrictnessLenient, StrictnessReportOnly:
		return true
	default:
		return false
	}
}

// DiffStatus classifies one diff row.
type DiffStatus string

const (
	DiffAdded   DiffStatus = "added"
	DiffRemoved DiffStatus = "removed"
	DiffChanged DiffStatus = "changed"
)

func (s DiffStatus) IsKnown() bool {
	switch s {
	case DiffAdded, DiffRemoved, DiffChanged:
		return true
	default:
		return false
	}
}

// DiffScope names what kind of record the diff covers.
type DiffScope string

const (
	DiffScopeGenes DiffScope = "genes"
)

func (s DiffScope) IsKnown() bool {
	switch s {
	case DiffScopeGenes:
		return true
	default:
		return false
	}
}

// QueryErrorCode classifies a query-engine failure at the model layer,
// independent of the HTTP status it is eventually mapped to.
type QueryErrorCode string

const (
	QueryErrorValidation QueryErrorCode = "validation"
	QueryErrorCursor     QueryErrorCode = "cursor"
	QueryErrorSQL        QueryErrorCode = "sql"
	QueryErrorPolicy     QueryErrorCode = "policy"
)

func (c QueryErrorCode) IsKnown() bool {
	switch c {
	case QueryErrorValidation, QueryErrorCursor, QueryErrorSQL, QueryErrorPolicy:
		return true
	default:
		return false
	}
}

// GeneIdentifierPolicy selects how a gene's GeneId is resolved from a GFF3
// record during ingest.
type GeneIdentifierPolicyKind string

const (
	// GeneIdentifierGff3Id uses the GFF3 feature's own ID attribute.
	GeneIdentifierGff3Id GeneIdentifierPolicyKind = "gff3_id"
	// GeneIdentifierPreferEnsemblStableId prefers an Ensembl-style stable
	// ID found under one of a configured list of attribute keys, falling
	// back to the GFF3 ID when FallbackToGff3Id is set.
	GeneIdentifierPreferEnsemblStableId GeneIdentifierPolicyKind = "prefer_ensembl_stable_id"
)

// GeneIdentifierPolicy is the full configuration for gene identifier
// resolution; AttributeKeys and FallbackToGff3Id are only meaningful when
// Kind is GeneIdentifierPreferEnsemblStableId.
type GeneIdentifierPolicy struct {
	Kind             GeneIdentifierPolicyKind `json:"kind"`
	AttributeKeys    []string                 `json:"attribute_keys,omitempty"`
	FallbackToGff3Id bool                     `json:"fallback_to_gff3_id,omitempty"`
}

// DefaultGeneIdentifierPolicy resolves GeneId straight from the GFF3 ID
// attribute, with no Ensembl-specific handling.
func DefaultGeneIdentifierPolicy() GeneIdentifierPolicy {
	return GeneIdentifierPolicy{Kind: GeneIdentifierGff3Id}
}

// DuplicateGeneIdPolicy governs how ingest handles two gene features that
// resolve to the same GeneId.
type DuplicateGeneIdPolicy string

const (
	DuplicateGeneIdReject     DuplicateGeneIdPolicy = "reject"
	DuplicateGeneIdKeepFirst  DuplicateGeneIdPolicy = "keep_first"
	DuplicateGeneIdKeepLast   DuplicateGeneIdPolicy = "keep_last"
)
