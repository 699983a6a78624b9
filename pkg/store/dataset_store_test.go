package store

import (
	"context"
	"testing"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/canonical"
	"github.com/bijux/atlas/pkg/model"
)

func testDataset(t *testing.T) model.DatasetId {
	t.Helper()
	d, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("NewDatasetId: %v", err)
	}
	return d
}

func TestPublishDatasetWritesManifestSqliteAndCatalog(t *testing.T) {
	backend, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s := NewStore(backend)
	ctx := context.Background()
	dataset := testDataset(t)

	manifestBytes := []byte(`{"manifest":true}`)
	sqliteBytes := []byte("sqlite-bytes")
	manifestHash := canonical.StableHashHex(manifestBytes)
	sqliteHash := canonical.StableHashHex(sqliteBytes)

	if err := s.PublishDataset(ctx, dataset, manifestBytes, sqliteBytes, manifestHash, sqliteHash); err != nil {
		t.Fatalf("PublishDataset: %v", err)
	}

	gotManifest, err := s.GetManifest(ctx, dataset)
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if string(gotManifest) != string(manifestBytes) {
		t.Fatalf("manifest round trip mismatch: %q vs %q", gotManifest, manifestBytes)
	}
	gotSqlite, err := s.GetSqlite(ctx, dataset)
	if err != nil {
		t.Fatalf("GetSqlite: %v", err)
	}
	if string(gotSqlite) != string(sqliteBytes) {
		t.Fatalf("sqlite round trip mismatch: %q vs %q", gotSqlite, sqliteBytes)
	}

	catalog, err := s.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if len(catalog.Datasets) != 1 || catalog.Datasets[0].Dataset != dataset || catalog.Datasets[0].ManifestSHA256 != manifestHash {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
}

func TestPublishDatasetRejectsHashMismatch(t *testing.T) {
	backend, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s := NewStore(backend)
	ctx := context.Background()
	dataset := testDataset(t)

	manifestBytes := []byte(`{"manifest":true}`)
	sqliteBytes := []byte("sqlite-bytes")

	err = s.PublishDataset(ctx, dataset, manifestBytes, sqliteBytes, "not-the-real-hash", canonical.StableHashHex(sqliteBytes))
	if err == nil {
		t.Fatal("expected hash mismatch to be rejected")
	}
	ae, ok := atlaserr.As(err)
	if !ok || ae.Code != atlaserr.UpstreamHashMismatch {
		t.Fatalf("expected UpstreamHashMismatch, got %v", err)
	}
}

func TestPublishDatasetRejectsRepublish(t *testing.T) {
	backend, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s := NewStore(backend)
	ctx := context.Background()
	dataset := testDataset(t)

	manifestBytes := []byte(`{"manifest":true}`)
	sqliteBytes := []byte("sqlite-bytes")
	manifestHash := canonical.StableHashHex(manifestBytes)
	sqliteHash := canonical.StableHashHex(sqliteBytes)

	if err := s.PublishDataset(ctx, dataset, manifestBytes, sqliteBytes, manifestHash, sqliteHash); err != nil {
		t.Fatalf("first PublishDataset: %v", err)
	}
	err = s.PublishDataset(ctx, dataset, manifestBytes, sqliteBytes, manifestHash, sqliteHash)
	if err == nil {
		t.Fatal("expected republish to be rejected")
	}
	ae, ok := atlaserr.As(err)
	if !ok || ae.Code != atlaserr.Conflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestListDatasetsOnEmptyStoreReturnsEmptyCatalog(t *testing.T) {
	backend, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s := NewStore(backend)
	catalog, err := s.ListDatasets(context.Background())
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if len(catalog.Datasets) != 0 {
		t.Fatalf("expected empty catalog, got %+v", catalog)
	}
}

func TestMergeCatalogsUnionsAndSortsDeterministically(t *testing.T) {
	dA, _ := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	dB, _ := model.NewDatasetId("99", "mus_musculus", "GRCm38")
	dC, _ := model.NewDatasetId("110", "danio_rerio", "GRCz11")

	first := model.Catalog{Datasets: []model.CatalogEntry{
		{Dataset: dA, ManifestSHA256: "hash-a-old"},
		{Dataset: dB, ManifestSHA256: "hash-b"},
	}}
	second := model.Catalog{Datasets: []model.CatalogEntry{
		{Dataset: dC, ManifestSHA256: "hash-c"},
		{Dataset: dA, ManifestSHA256: "hash-a-new"},
	}}

	merged := MergeCatalogs(first, second)
	if err := merged.ValidateSorted(); err != nil {
		t.Fatalf("merged catalog not sorted: %v", err)
	}
	if len(merged.Datasets) != 3 {
		t.Fatalf("expected 3 datasets, got %d", len(merged.Datasets))
	}
	for _, e := range merged.Datasets {
		if e.Dataset == dA && e.ManifestSHA256 != "hash-a-new" {
			t.Fatalf("expected later catalog to win for %s, got %s", dA.CanonicalString(), e.ManifestSHA256)
		}
	}

	again := MergeCatalogs(first, second)
	if again.Datasets[0].Dataset.CanonicalString() != merged.Datasets[0].Dataset.CanonicalString() {
		t.Fatal("expected merge to be deterministic across repeated calls")
	}
}

func TestGetManifestOnMissingDatasetReturnsNotFound(t *testing.T) {
	backend, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s := NewStore(backend)
	_, err = s.GetManifest(context.Background(), testDataset(t))
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
	ae, ok := atlaserr.As(err)
	if !ok || ae.Code != atlaserr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
