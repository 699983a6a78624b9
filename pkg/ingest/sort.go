package ingest

import (
	"github.com/bijux/atlas/pkg/canonical"
	"github.com/bijux/atlas/pkg/model"
)

// sortRows stable-sorts genes/transcripts/exons by the tuples §4.4 step 4
// names: genes by (seqid, start, gene_id), transcripts by (seqid, start,
// transcript_id), exons by (seqid, start, exon_id). canonical.StableSortByKey
// is used throughout so this is the same sort primitive backing manifest
// hashing and the diff engine's merge.
func sortRows(genes []model.GeneSummary, transcripts []model.TranscriptSummary, exons []model.ExonSummary) ([]model.GeneSummary, []model.TranscriptSummary, []model.ExonSummary) {
	sortedGenes := canonical.StableSortByKey(genes, func(g model.GeneSummary) string {
		return orderKey3(string(g.SeqId), g.Start, string(g.GeneId))
	})
	sortedTranscripts := canonical.StableSortByKey(transcripts, func(t model.TranscriptSummary) string {
		return orderKey3(string(t.SeqId), t.Start, string(t.TranscriptId))
	})
	sortedExons := canonical.StableSortByKey(exons, func(e model.ExonSummary) string {
		return orderKey3(string(e.SeqId), e.Start, e.ExonId)
	})
	return sortedGenes, sortedTranscripts, sortedExons
}

// orderKey3 renders a (seqid, start, id) tuple into a single string whose
// ascending lexicographic order matches the tuple's ascending order, by
// zero-padding start to a fixed width. 20 digits covers any uint64.
func orderKey3(seqid string, start uint64, id string) string {
	buf := make([]byte, 20)
	for i := 19; i >= 0; i-- {
		buf[i] = byte('0' + start%10)
		start /= 10
	}
	return seqid + "\x00" + string(buf) + "\x00" + id
}
