// Package query implements the gene-query pipeline: request DTO, parser to
// AST, cost model and validator, normalization hash, signed cursor
// sign/verify, row decode, and field-presence projection. The algorithms
// here mirror the original Rust query crate's filters/cost/planner/
// normalize/cursor modules exactly — only the syntax changed.
package query

import "github.com/bijux/atlas/pkg/model"

// Fields selects which optional projection groups a caller wants back.
type Fields struct {
	Coords  bool `json:"coords,omitempty"`
	Biotype bool `json:"biotype,omitempty"`
	Counts  bool `json:"counts,omitempty"`
	Length  bool `json:"length,omitempty"`
}

// Region is the wire-level region filter: a half-open-free inclusive span
// on a named sequence.
type Region struct {
	SeqId model.SeqId `json:"seqid"`
	Start uint64      `json:"start"`
	End   uint64      `json:"end"`
}

// Filter holds the mutually-combinable predicates a request may carry.
type Filter struct {
	GeneId     *model.GeneId `json:"gene_id,omitempty"`
	Name       *string       `json:"name,omitempty"`
	NamePrefix *string       `json:"name_prefix,omitempty"`
	Biotype    *string       `json:"biotype,omitempty"`
	Region     *Region       `json:"region,omitempty"`
}

// GeneQueryRequest is the request DTO accepted at the serving boundary.
type GeneQueryRequest struct {
	Fields         Fields  `json:"fields"`
	Filter         Filter  `json:"filter"`
	Limit          int     `json:"limit"`
	Cursor         *string `json:"cursor,omitempty"`
	DatasetKey     *string `json:"dataset_key,omitempty"`
	AllowFullScan  bool    `json:"allow_full_scan"`
}

// HasAnyFilter reports whether at least one predicate is set.
func (r GeneQueryRequest) HasAnyFilter() bool {
	f := r.Filter
	return f.GeneId != nil || f.Name != nil || f.NamePrefix != nil || f.Biotype != nil || f.Region != nil
}
