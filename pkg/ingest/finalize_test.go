package ingest

import (
	"testing"

	"github.com/bijux/atlas/pkg/model"
)

func testGeneSummaries() []model.GeneSummary {
	return []model.GeneSummary{
		{GeneId: "ENSG001", Name: "TESTG", SeqId: "chr1", Start: 1, End: 1000, Biotype: "protein_coding", TranscriptCount: 1, SequenceLength: 900},
	}
}

func TestFinalizeIsDeterministicAcrossIdenticalInputs(t *testing.T) {
	opts := testOpts(t)
	genes := testGeneSummaries()

	r1, err := finalize(opts, []byte("gff3"), []byte("fasta"), []byte("fai"), []byte("sqlite"), genes, 1)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	r2, err := finalize(opts, []byte("gff3"), []byte("fasta"), []byte("fai"), []byte("sqlite"), genes, 1)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if r1.Manifest.Checksums.ArtifactSHA256 != r2.Manifest.Checksums.ArtifactSHA256 {
		t.Fatal("expected identical inputs to produce identical artifact hashes")
	}
	if r1.Manifest.CreatedAt != deterministicZeroTimestamp {
		t.Fatalf("expected deterministic-zero created_at, got %q", r1.Manifest.CreatedAt)
	}
}

func TestFinalizeDiffersWhenInputsDiffer(t *testing.T) {
	opts := testOpts(t)
	genes := testGeneSummaries()

	r1, err := finalize(opts, []byte("gff3-a"), []byte("fasta"), []byte("fai"), []byte("sqlite"), genes, 1)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	r2, err := finalize(opts, []byte("gff3-b"), []byte("fasta"), []byte("fai"), []byte("sqlite"), genes, 1)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if r1.Manifest.Checksums.ArtifactSHA256 == r2.Manifest.Checksums.ArtifactSHA256 {
		t.Fatal("expected differing gff3 bytes to produce differing artifact hashes")
	}
}
