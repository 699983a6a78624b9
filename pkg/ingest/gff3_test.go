package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseGff3SkipsCommentsAndBlankLines(t *testing.T) {
	path := writeTempFile(t, "test.gff3", "##gff-version 3\n\n# a comment\nchr1\tsrc\tgene\t1\t100\t.\t+\t.\tID=gene1\n")
	records, err := parseGff3(path)
	if err != nil {
		t.Fatalf("parseGff3: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].SeqId != "chr1" || records[0].Type != "gene" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
	if v, ok := records[0].Attr([]string{"ID"}); !ok || v != "gene1" {
		t.Fatalf("expected ID=gene1, got %q ok=%v", v, ok)
	}
}

func TestParseGff3StopsAtFastaDirective(t *testing.T) {
	path := writeTempFile(t, "test.gff3", "chr1\tsrc\tgene\t1\t100\t.\t+\t.\tID=gene1\n##FASTA\n>chr1\nACGT\n")
	records, err := parseGff3(path)
	if err != nil {
		t.Fatalf("parseGff3: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record (fasta body ignored), got %d", len(records))
	}
}

func TestParseGff3RejectsWrongColumnCount(t *testing.T) {
	path := writeTempFile(t, "test.gff3", "chr1\tsrc\tgene\t1\t100\n")
	if _, err := parseGff3(path); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestParseGff3AttributesPercentDecodes(t *testing.T) {
	attrs, order := parseGff3Attributes("ID=gene%3A1;Name=My%20Gene")
	if attrs["ID"] != "gene:1" {
		t.Fatalf("expected percent-decoded ID, got %q", attrs["ID"])
	}
	if attrs["Name"] != "My Gene" {
		t.Fatalf("expected percent-decoded Name, got %q", attrs["Name"])
	}
	if len(order) != 2 || order[0] != "ID" || order[1] != "Name" {
		t.Fatalf("unexpected attribute order: %v", order)
	}
}

func TestGff3RecordAttrFallsBackThroughKeys(t *testing.T) {
	rec := Gff3Record{Attributes: map[string]string{"gene_name": "BRCA2"}}
	v, ok := rec.Attr([]string{"Name", "gene_name"})
	if !ok || v != "BRCA2" {
		t.Fatalf("expected fallback to gene_name, got %q ok=%v", v, ok)
	}
}
