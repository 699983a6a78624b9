package ingest

import (
	"testing"

	"github.com/bijux/atlas/pkg/model"
)

func TestSortRowsOrdersBySeqidThenStartThenId(t *testing.T) {
	genes := []model.GeneSummary{
		{GeneId: "ENSG002", SeqId: "chr1", Start: 500},
		{GeneId: "ENSG001", SeqId: "chr1", Start: 100},
		{GeneId: "ENSG003", SeqId: "chr2", Start: 1},
	}
	sorted, _, _ := sortRows(genes, nil, nil)
	if len(sorted) != 3 {
		t.Fatalf("expected 3 genes, got %d", len(sorted))
	}
	if sorted[0].GeneId != "ENSG001" || sorted[1].GeneId != "ENSG002" || sorted[2].GeneId != "ENSG003" {
		t.Fatalf("unexpected order: %v, %v, %v", sorted[0].GeneId, sorted[1].GeneId, sorted[2].GeneId)
	}
}

func TestOrderKey3ZeroPadsForCorrectLexicographicOrder(t *testing.T) {
	small := orderKey3("chr1", 9, "a")
	large := orderKey3("chr1", 100, "a")
	if !(small < large) {
		t.Fatalf("expected zero-padded start to sort 9 before 100, got %q vs %q", small, large)
	}
}
