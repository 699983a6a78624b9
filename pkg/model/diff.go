package model

// GeneSignatureInput is the payload whose canonical-JSON SHA-256 forms a
// gene's signature — the unit of comparison for the diff engine. Field
// order here does not matter for hashing (canonical.StableJSONBytes sorts
// keys), but the set of fields is normative: any change to this shape
// changes every signature.
type GeneSignatureInput struct {
	GeneId          GeneId `json:"gene_id"`
	Name            string `json:"name"`
	Biotype         string `json:"biotype"`
	SeqId           SeqId  `json:"seqid"`
	Start           uint64 `json:"start"`
	End             uint64 `json:"end"`
	TranscriptCount uint64 `json:"transcript_count"`
}

// ReleaseGeneIndexEntry is one row of a ReleaseGeneIndex.
type ReleaseGeneIndexEntry struct {
	GeneId          GeneId `json:"gene_id"`
	SeqId           SeqId  `json:"seqid"`
	Start           uint64 `json:"start"`
	End             uint64 `json:"end"`
	SignatureSHA256 string `json:"signature_sha256"`
}

// NewReleaseGeneIndexEntry constructs a ReleaseGeneIndexEntry.
func NewReleaseGeneIndexEntry(geneID GeneId, seqid SeqId, start, end uint64, signature string) ReleaseGeneIndexEntry {
	return ReleaseGeneIndexEntry{GeneId: geneID, SeqId: seqid, Start: start, End: end, SignatureSHA256: signature}
}

// ReleaseGeneIndex is the sorted-by-gene-id cross-release index used by the
// diff engine; it is also the artifact diff.go consumes as input.
type ReleaseGeneIndex struct {
	SchemaVersion string                  `json:"schema_version"`
	Dataset       DatasetId               `json:"dataset"`
	Entries       []ReleaseGeneIndexEntry `json:"entries"`
}

// NewReleaseGeneIndex constructs a ReleaseGeneIndex from already-sorted
// entries (callers are responsible for sorting by GeneId before calling).
func NewReleaseGeneIndex(schemaVersion string, dataset DatasetId, entries []ReleaseGeneIndexEntry) ReleaseGeneIndex {
	return ReleaseGeneIndex{SchemaVersion: schemaVersion, Dataset: dataset, Entries: entries}
}

// DiffRecord is one row of a DiffPage.
type DiffRecord struct {
	GeneId GeneId     `json:"gene_id"`
	Status DiffStatus `json:"status"`
	SeqId  *SeqId     `json:"seqid,omitempty"`
	Start  *uint64    `json:"start,omitempty"`
	End    *uint64    `json:"end,omitempty"`
}

// NewDiffRecord constructs a DiffRecord.
func NewDiffRecord(geneID GeneId, status DiffStatus, seqid *SeqId, start, end *uint64) DiffRecord {
	return DiffRecord{GeneId: geneID, Status: status, SeqId: seqid, Start: start, End: end}
}

// DiffPage is the output of the release-diff engine.
type DiffPage struct {
	From     Release      `json:"from"`
	To       Release      `json:"to"`
	Species  Species      `json:"species"`
	Assembly Assembly     `json:"assembly"`
	Scope    DiffScope    `json:"scope"`
	Rows     []DiffRecord `json:"rows"`
	Cursor   *string      `json:"cursor,omitempty"`
}

// NewDiffPage constructs a DiffPage.
func NewDiffPage(from, to Release, species Species, assembly Assembly, scope DiffScope, rows []DiffRecord, cursor *string) DiffPage {
	return DiffPage{From: from, To: to, Species: species, Assembly: assembly, Scope: scope, Rows: rows, Cursor: cursor}
}

// Validate requires rows to be non-empty for a valid page.
func (p DiffPage) Validate() error {
	if len(p.Rows) == 0 {
		return invalid("diff page must contain at least one row")
	}
	return nil
}
