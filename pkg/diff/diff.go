// Package diff implements the release-diff engine: a pure, two-pointer
// merge over two sorted ReleaseGeneIndex files that reports which genes
// were added, removed, or changed between releases. Grounded on
// bijux-atlas-ingest's diff_index.rs — the merge algorithm here is the
// same walk, just expressed over Go slices instead of Rust iterators.
package diff

import "github.com/bijux/atlas/pkg/model"

// Merge walks from (already sorted-by-gene-id) release gene indexes and
// produces DiffRecords in merged-input order: entries only in from are
// Removed, entries only in to are Added, entries in both with differing
// signatures are Changed, and entries with equal signatures are skipped.
func Merge(from, to model.ReleaseGeneIndex) []model.DiffRecord {
	var rows []model.DiffRecord
	i, j := 0, 0
	fromEntries, toEntries := from.Entries, to.Entries

	for i < len(fromEntries) && j < len(toEntries) {
		a, b := fromEntries[i], toEntries[j]
		switch {
		case a.GeneId.Less(b.GeneId):
			rows = append(rows, removedRecord(a))
			i++
		case b.GeneId.Less(a.GeneId):
			rows = append(rows, addedRecord(b))
			j++
		default:
			if a.SignatureSHA256 != b.SignatureSHA256 {
				rows = append(rows, changedRecord(b))
			}
			i++
			j++
		}
	}
	for ; i < len(fromEntries); i++ {
		rows = append(rows, removedRecord(fromEntries[i]))
	}
	for ; j < len(toEntries); j++ {
		rows = append(rows, addedRecord(toEntries[j]))
	}
	return rows
}

func removedRecord(e model.ReleaseGeneIndexEntry) model.DiffRecord {
	return model.NewDiffRecord(e.GeneId, model.DiffRemoved, nil, nil, nil)
}

func addedRecord(e model.ReleaseGeneIndexEntry) model.DiffRecord {
	seqid := e.SeqId
	start := e.Start
	end := e.End
	return model.NewDiffRecord(e.GeneId, model.DiffAdded, &seqid, &start, &end)
}

func changedRecord(e model.ReleaseGeneIndexEntry) model.DiffRecord {
	seqid := e.SeqId
	start := e.Start
	end := e.End
	return model.NewDiffRecord(e.GeneId, model.DiffChanged, &seqid, &start, &end)
}
