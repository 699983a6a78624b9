package ingest

import (
	"testing"

	"github.com/bijux/atlas/pkg/model"
)

func testGff3() string {
	return "" +
		"chr1\tsrc\tgene\t1\t1000\t.\t+\t.\tID=ENSG001;Name=TESTG\n" +
		"chr1\tsrc\tmRNA\t1\t900\t.\t+\t.\tID=ENST001;Parent=ENSG001\n" +
		"chr1\tsrc\texon\t1\t100\t.\t+\t.\tID=ENST001.exon1;Parent=ENST001\n" +
		"chr1\tsrc\texon\t200\t300\t.\t+\t.\tID=ENST001.exon2;Parent=ENST001\n" +
		"chr1\tsrc\tCDS\t1\t100\t.\t+\t0\tParent=ENST001\n"
}

func testOpts(t *testing.T) Options {
	t.Helper()
	dataset, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	return DefaultOptions(dataset)
}

func TestExtractResolvesGeneTranscriptExonHierarchy(t *testing.T) {
	records, err := parseGff3AsString(t, testGff3())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	contigs := ContigIndex{"chr1": 10000}
	opts := testOpts(t)

	result, err := extract(records, contigs, opts, &EventLog{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.Genes) != 1 {
		t.Fatalf("expected 1 gene, got %d", len(result.Genes))
	}
	g := result.Genes[0]
	if g.GeneId != "ENSG001" || g.Name != "TESTG" || g.TranscriptCount != 1 {
		t.Fatalf("unexpected gene: %+v", g)
	}
	if len(result.Transcripts) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(result.Transcripts))
	}
	tr := result.Transcripts[0]
	if tr.ExonCount != 2 || !tr.CDSPresent || tr.TotalExonSpan != 201 {
		t.Fatalf("unexpected transcript rollup: %+v", tr)
	}
	if len(result.Exons) != 2 {
		t.Fatalf("expected 2 exons, got %d", len(result.Exons))
	}
	if len(result.Rejections) != 0 {
		t.Fatalf("expected no rejections, got %+v", result.Rejections)
	}
}

func TestExtractRejectsCoordinatesExceedingContig(t *testing.T) {
	records, err := parseGff3AsString(t, "chr1\tsrc\tgene\t1\t20000\t.\t+\t.\tID=ENSG001\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	contigs := ContigIndex{"chr1": 10000}
	opts := testOpts(t)
	opts.Strictness = model.StrictnessLenient

	result, err := extract(records, contigs, opts, &EventLog{})
	if err != nil {
		t.Fatalf("unexpected fatal error in lenient mode: %v", err)
	}
	if len(result.Genes) != 0 {
		t.Fatalf("expected the out-of-bounds gene to be rejected, got %+v", result.Genes)
	}
	if len(result.Rejections) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(result.Rejections))
	}
}

func TestExtractStrictModeAbortsOnFirstRejection(t *testing.T) {
	records, err := parseGff3AsString(t, "chr1\tsrc\tgene\t1\t20000\t.\t+\t.\tID=ENSG001\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	contigs := ContigIndex{"chr1": 10000}
	opts := testOpts(t)
	opts.Strictness = model.StrictnessStrict

	if _, err := extract(records, contigs, opts, &EventLog{}); err == nil {
		t.Fatal("expected strict mode to abort on the out-of-bounds gene")
	}
}

func TestExtractDuplicateGeneIdRejectedByDefault(t *testing.T) {
	gff := "" +
		"chr1\tsrc\tgene\t1\t100\t.\t+\t.\tID=ENSG001\n" +
		"chr1\tsrc\tgene\t200\t300\t.\t+\t.\tID=ENSG001\n"
	records, err := parseGff3AsString(t, gff)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	contigs := ContigIndex{"chr1": 10000}
	opts := testOpts(t)
	opts.Strictness = model.StrictnessLenient

	result, err := extract(records, contigs, opts, &EventLog{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(result.Genes) != 1 {
		t.Fatalf("expected the duplicate to be rejected, leaving 1 gene, got %d", len(result.Genes))
	}
	if len(result.Rejections) != 1 {
		t.Fatalf("expected 1 rejection for the duplicate, got %d", len(result.Rejections))
	}
}

func TestExtractAllowOverlapAcrossContigsPermitsSameGeneIdOnDifferentSeqids(t *testing.T) {
	gff := "" +
		"chr1\tsrc\tgene\t1\t100\t.\t+\t.\tID=ENSG001\n" +
		"chr2\tsrc\tgene\t1\t100\t.\t+\t.\tID=ENSG001\n"
	records, err := parseGff3AsString(t, gff)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	contigs := ContigIndex{"chr1": 10000, "chr2": 10000}
	opts := testOpts(t)
	opts.AllowOverlapAcrossContigs = true

	result, err := extract(records, contigs, opts, &EventLog{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.Rejections) != 0 {
		t.Fatalf("expected no rejections when overlap across contigs is allowed, got %+v", result.Rejections)
	}
}

func parseGff3AsString(t *testing.T, content string) ([]Gff3Record, error) {
	t.Helper()
	path := writeTempFile(t, "test.gff3", content)
	return parseGff3(path)
}
