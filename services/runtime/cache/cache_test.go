package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/store"
)

func seedUpstream(t *testing.T, upstream *store.LocalStore, dataset model.DatasetId) {
	t.Helper()
	paths := model.DatasetArtifactPaths(dataset)

	sqliteBytes := []byte("fake-sqlite-bytes")
	sqliteSum := sha256.Sum256(sqliteBytes)
	sqliteHex := hex.EncodeToString(sqliteSum[:])

	manifest := model.NewArtifactManifest("1", "1", dataset,
		model.NewArtifactChecksums(sqliteHex, "mi", "tc", "art"),
		model.NewManifestStats(1, 1, 1))
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	manifestSum := sha256.Sum256(manifestBytes)
	manifestHex := hex.EncodeToString(manifestSum[:])

	lock := model.ManifestLock{ManifestSHA256: manifestHex, SqliteSHA256: sqliteHex}
	lockBytes, err := json.Marshal(lock)
	if err != nil {
		t.Fatalf("marshal lock: %v", err)
	}

	ctx := context.Background()
	if err := upstream.Put(ctx, paths.Manifest, manifestBytes); err != nil {
		t.Fatalf("put manifest: %v", err)
	}
	if err := upstream.Put(ctx, paths.ManifestLock, lockBytes); err != nil {
		t.Fatalf("put lock: %v", err)
	}
	if err := upstream.Put(ctx, paths.Sqlite, sqliteBytes); err != nil {
		t.Fatalf("put sqlite: %v", err)
	}
}

func TestWarmupRejectsHashMismatchBeforeOpeningShard(t *testing.T) {
	dir := t.TempDir()
	upstream, err := store.NewLocalStore(filepath.Join(dir, "upstream"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	dataset, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("NewDatasetId: %v", err)
	}
	seedUpstream(t, upstream, dataset)

	// Corrupt the sqlite bytes after seeding so the checksum no longer matches.
	paths := model.DatasetArtifactPaths(dataset)
	if err := upstream.Put(context.Background(), paths.Sqlite, []byte("tampered")); err != nil {
		t.Fatalf("put tampered sqlite: %v", err)
	}

	dc := New(upstream, filepath.Join(dir, "local"), Budget{MaxOpenShardsPerPod: 2})
	_, err = dc.Get(context.Background(), dataset)
	if err == nil {
		t.Fatal("expected hash mismatch error")
	}
}

func TestEvictOnEmptyCacheIsNoOp(t *testing.T) {
	dir := t.TempDir()
	upstream, err := store.NewLocalStore(filepath.Join(dir, "upstream"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	dataset, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("NewDatasetId: %v", err)
	}
	seedUpstream(t, upstream, dataset)

	dc := New(upstream, filepath.Join(dir, "local"), Budget{MaxOpenShardsPerPod: 2})
	dc.Evict(dataset) // no-op on an empty cache, must not panic

	if _, ok := dc.entries[dataset.CanonicalString()]; ok {
		t.Fatal("expected no entry present")
	}
}
