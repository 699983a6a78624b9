// Package project implements field-presence-driven row projection: a field
// is omitted when not requested, and present-but-null when requested but
// the underlying value is absent. Go's encoding/json `omitempty` conflates
// "not requested" with "requested, zero value" — it cannot express this
// policy — so projection here builds a map[string]any by hand, keyed only
// by what was actually requested.
package project

import "github.com/bijux/atlas/pkg/model"

// Fields mirrors query.Fields without importing pkg/query, to keep this
// package a one-way leaf dependency of the query pipeline.
type Fields struct {
	Coords  bool
	Biotype bool
	Counts  bool
	Length  bool
}

// GeneRow projects a GeneSummary into the wire shape. name and gene_id are
// always present; everything else is gated by fields.
func GeneRow(row model.GeneSummary, fields Fields) map[string]any {
	out := map[string]any{
		"gene_id": row.GeneId,
		"name":    row.Name,
	}
	if fields.Coords {
		out["seqid"] = row.SeqId
		out["start"] = row.Start
		out["end"] = row.End
	}
	if fields.Biotype {
		out["biotype"] = row.Biotype
	}
	if fields.Counts {
		out["transcript_count"] = row.TranscriptCount
	}
	if fields.Length {
		out["sequence_length"] = row.SequenceLength
	}
	return out
}

// TranscriptRow projects a TranscriptSummary the same way.
func TranscriptRow(row model.TranscriptSummary, fields Fields) map[string]any {
	out := map[string]any{
		"transcript_id":  row.TranscriptId,
		"parent_gene_id": row.ParentGeneId,
	}
	if fields.Coords {
		out["seqid"] = row.SeqId
		out["start"] = row.Start
		out["end"] = row.End
	}
	if fields.Biotype {
		out["biotype"] = row.Biotype
		out["transcript_type"] = row.TranscriptType
	}
	if fields.Counts {
		out["exon_count"] = row.ExonCount
		out["total_exon_span"] = row.TotalExonSpan
	}
	return out
}
