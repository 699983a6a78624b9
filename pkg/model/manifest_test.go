package model

import "testing"

func TestManifestValidateRejectsEmptyHashes(t *testing.T) {
	ds, err := NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	manifest := NewArtifactManifest("1", "1", ds, NewArtifactChecksums("a", "b", "c", "d"), NewManifestStats(1, 2, 3))
	if err := manifest.Validate(); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}

	empty := NewArtifactManifest("1", "1", ds, ArtifactChecksums{}, NewManifestStats(1, 2, 3))
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for empty checksums")
	}
}

func TestDiffPageValidateRequiresRows(t *testing.T) {
	from, _ := ParseRelease("110")
	to, _ := ParseRelease("111")
	species, _ := ParseSpecies("homo_sapiens")
	assembly, _ := ParseAssembly("GRCh38")

	empty := NewDiffPage(from, to, species, assembly, DiffScopeGenes, nil, nil)
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for empty rows")
	}

	geneID, _ := ParseGeneId("ENSG000001")
	seqid, _ := ParseSeqId("chr1")
	start, end := uint64(1), uint64(2)
	nonEmpty := NewDiffPage(from, to, species, assembly, DiffScopeGenes,
		[]DiffRecord{NewDiffRecord(geneID, DiffChanged, &seqid, &start, &end)}, nil)
	if err := nonEmpty.Validate(); err != nil {
		t.Fatalf("expected valid diff page, got %v", err)
	}
}

func TestCatalogValidateSorted(t *testing.T) {
	dsA, _ := NewDatasetId("109", "homo_sapiens", "GRCh38")
	dsB, _ := NewDatasetId("110", "homo_sapiens", "GRCh38")
	sorted := Catalog{Datasets: []CatalogEntry{{Dataset: dsA, ManifestSHA256: "x"}, {Dataset: dsB, ManifestSHA256: "y"}}}
	if err := sorted.ValidateSorted(); err != nil {
		t.Fatalf("expected sorted catalog to validate, got %v", err)
	}
	unsorted := Catalog{Datasets: []CatalogEntry{{Dataset: dsB, ManifestSHA256: "y"}, {Dataset: dsA, ManifestSHA256: "x"}}}
	if err := unsorted.ValidateSorted(); err == nil {
		t.Fatal("expected error for unsorted catalog")
	}
}
