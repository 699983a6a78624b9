package ingest

import "testing"

func TestValidateRejectsMissingRequiredPaths(t *testing.T) {
	opts := testOpts(t)
	if err := opts.Validate(); err == nil {
		t.Fatal("expected error for missing gff3/fasta/fai paths")
	}
}

func TestValidateRejectsDisablingGeneSignatures(t *testing.T) {
	opts := testOpts(t)
	opts.Gff3Path = "x.gff3"
	opts.FastaPath = "x.fasta"
	opts.FaiPath = "x.fai"
	opts.ComputeGeneSignatures = false
	if err := opts.Validate(); err == nil {
		t.Fatal("expected error: release gene index requires gene signatures")
	}
}

func TestValidateAcceptsAutoGenerateFaiWithoutFaiPath(t *testing.T) {
	opts := testOpts(t)
	opts.Gff3Path = "x.gff3"
	opts.FastaPath = "x.fasta"
	opts.AutoGenerateFai = true
	if err := opts.Validate(); err != nil {
		t.Fatalf("expected valid options, got %v", err)
	}
}
