// Package store defines the low-level ArtifactStore backend interface that
// every object (manifest, sqlite file, release-gene-index, shard, catalog)
// is written to and read from, the three backends that implement it (local
// filesystem, a read-only HTTP mirror, and an S3-compatible object store),
// and the dataset-level Store built on top of it (dataset_store.go) that
// implements §4.5's publish/list/merge contract.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when an object key has no bytes behind it.
	ErrNotFound = errors.New("store: object not found")
	// ErrConflict marks a key that already holds different bytes than the
	// ones being written. None of the backends in this package return it:
	// their Put overwrites, and Store.PublishDataset reports a republish as
	// atlaserr.Conflict.
	ErrConflict = errors.New("store: object conflict")
)

// ArtifactStore is the pluggable backend every object is written to and
// read from. Keys are the bit-stable dataset-relative paths produced by
// model.DatasetArtifactPaths, plus the store-root catalog.json.
type ArtifactStore interface {
	Put(ctx context.Context, objectKey string, data []byte) error
	Get(ctx context.Context, objectKey string) ([]byte, error)
	Head(ctx context.Context, objectKey string) (size int64, err error)
	Delete(ctx context.Context, objectKey string) error
}
