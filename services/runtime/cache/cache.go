// Package cache implements the dataset cache manager: fetch a bundle from
// an ArtifactStore, verify its checksums, coalesce concurrent warmups of
// the same dataset, open shard handles under a pod-wide budget, and evict
// by LRU when the disk/count budget is exceeded. Grounded on the teacher's
// cache_policy.go TTL/Admit shape (generalized from a cache-or-not decision
// into a full entry lifecycle) and on postgres_store.go's RAII-via-defer
// discipline for releasing shard permits on eviction.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/store"
)

// Budget mirrors policy.CacheBudget, kept as its own type so this package
// does not need to import pkg/policy.
type Budget struct {
	MaxDiskBytes        int64
	MaxDatasetCount      int
	PinnedDatasetsMax    int
	ShardCountPolicyMax  int
	MaxOpenShardsPerPod  int
}

// preparedStatementNames are the six hot statements warmed on shard open,
// per §4.8: gene_id point lookup, biotype scan, region+rtree join,
// transcript lookup by id, transcripts by parent gene, gene coordinate
// lookup.
var preparedStatementNames = []string{
	"gene_by_id",
	"genes_by_biotype",
	"genes_by_region",
	"transcript_by_id",
	"transcripts_by_parent_gene",
	"gene_coordinates",
}

var preparedStatementSQL = map[string]string{
	"gene_by_id":                  `SELECT gene_id, name, seqid, start, end, biotype, transcript_count, sequence_length FROM gene_summary WHERE gene_id = ?`,
	"genes_by_biotype":            `SELECT gene_id, name, seqid, start, end, biotype, transcript_count, sequence_length FROM gene_summary WHERE biotype = ? ORDER BY gene_id LIMIT ?`,
	"genes_by_region":             `SELECT g.gene_id, g.name, g.seqid, g.start, g.end, g.biotype, g.transcript_count, g.sequence_length FROM gene_summary g JOIN gene_summary_rtree r ON r.gene_rowid = g.rowid WHERE g.seqid = ? AND r.end >= ? AND r.start <= ? ORDER BY g.start LIMIT ?`,
	"transcript_by_id":            `SELECT transcript_id, parent_gene_id, transcript_type, biotype, seqid, start, end, exon_count, total_exon_span, cds_present FROM transcript_summary WHERE transcript_id = ?`,
	"transcripts_by_parent_gene":  `SELECT transcript_id, parent_gene_id, transcript_type, biotype, seqid, start, end, exon_count, total_exon_span, cds_present FROM transcript_summary WHERE parent_gene_id = ? ORDER BY transcript_id`,
	"gene_coordinates":            `SELECT seqid, start, end FROM gene_summary WHERE gene_id = ?`,
}

// ShardHandle owns one opened, read-only sqlite connection plus its
// warmed prepared statements and the shard permit slot it acquired to
// open. Close releases both; callers must never retain a ShardHandle past
// the owning Entry's eviction.
type ShardHandle struct {
	db         *sql.DB
	statements map[string]*sql.Stmt
	release    func()
}

func (h *ShardHandle) Stmt(name string) (*sql.Stmt, error) {
	stmt, ok := h.statements[name]
	if !ok {
		return nil, fmt.Errorf("cache: unknown prepared statement %q", name)
	}
	return stmt, nil
}

func (h *ShardHandle) DB() *sql.DB { return h.db }

func (h *ShardHandle) Close() error {
	var firstErr error
	for _, stmt := range h.statements {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := h.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if h.release != nil {
		h.release()
	}
	return firstErr
}

// Entry is one admitted dataset's cache state.
type Entry struct {
	Dataset        model.DatasetId
	Manifest       model.ArtifactManifest
	Shard          *ShardHandle
	DiskBytes      int64
	LastAccess     time.Time
	Pinned         bool

	listElement *list.Element
}

// DatasetCache is the pod-wide dataset cache manager.
type DatasetCache struct {
	upstream store.ArtifactStore
	diskRoot string
	budget   Budget

	shardPermits chan struct{}

	mu      sync.Mutex
	entries map[string]*Entry
	lru     *list.List
	disk    int64

	warmupMu    sync.Mutex
	warmupLocks map[string]*sync.Mutex
}

func New(upstream store.ArtifactStore, diskRoot string, budget Budget) *DatasetCache {
	if budget.MaxOpenShardsPerPod < 1 {
		budget.MaxOpenShardsPerPod = 1
	}
	return &DatasetCache{
		upstream:    upstream,
		diskRoot:    diskRoot,
		budget:      budget,
		shardPermits: make(chan struct{}, budget.MaxOpenShardsPerPod),
		entries:     make(map[string]*Entry),
		lru:         list.New(),
		warmupLocks: make(map[string]*sync.Mutex),
	}
}

// Get returns the admitted entry for dataset, warming it from upstream on
// first touch. Concurrent Gets for the same dataset coalesce onto a single
// warmup.
func (c *DatasetCache) Get(ctx context.Context, dataset model.DatasetId) (*Entry, error) {
	key := dataset.CanonicalString()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.LastAccess = time.Now().UTC()
		c.lru.MoveToFront(e.listElement)
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	lock := c.warmupLockFor(key)
	lock.Lock()
	defer lock.Unlock()

	// Re-check: another goroutine may have completed the warmup while we
	// were waiting on the coalescing lock.
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.LastAccess = time.Now().UTC()
		c.lru.MoveToFront(e.listElement)
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	entry, err := c.warmup(ctx, dataset)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry.listElement = c.lru.PushFront(entry)
	c.entries[key] = entry
	c.disk += entry.DiskBytes
	c.evictLocked()
	c.mu.Unlock()

	return entry, nil
}

func (c *DatasetCache) warmupLockFor(key string) *sync.Mutex {
	c.warmupMu.Lock()
	defer c.warmupMu.Unlock()
	l, ok := c.warmupLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.warmupLocks[key] = l
	}
	return l
}

func (c *DatasetCache) warmup(ctx context.Context, dataset model.DatasetId) (*Entry, error) {
	paths := model.DatasetArtifactPaths(dataset)

	manifestBytes, err := c.upstream.Get(ctx, paths.Manifest)
	if err != nil {
		return nil, atlaserr.Newf(atlaserr.UpstreamUnavailable, "fetch manifest for %s: %v", dataset.CanonicalString(), err)
	}
	var manifest model.ArtifactManifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, atlaserr.Newf(atlaserr.UpstreamHashMismatch, "decode manifest for %s: %v", dataset.CanonicalString(), err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, atlaserr.Newf(atlaserr.UpstreamHashMismatch, "invalid manifest for %s: %v", dataset.CanonicalString(), err)
	}

	lockBytes, err := c.upstream.Get(ctx, paths.ManifestLock)
	if err != nil {
		return nil, atlaserr.Newf(atlaserr.UpstreamUnavailable, "fetch manifest.lock for %s: %v", dataset.CanonicalString(), err)
	}
	var lock model.ManifestLock
	if err := json.Unmarshal(lockBytes, &lock); err != nil {
		return nil, atlaserr.Newf(atlaserr.UpstreamHashMismatch, "decode manifest.lock for %s: %v", dataset.CanonicalString(), err)
	}
	if lock.ManifestSHA256 != sha256Hex(manifestBytes) {
		return nil, atlaserr.Newf(atlaserr.UpstreamHashMismatch, "manifest.lock mismatch for %s", dataset.CanonicalString())
	}

	sqliteBytes, err := c.upstream.Get(ctx, paths.Sqlite)
	if err != nil {
		return nil, atlaserr.Newf(atlaserr.UpstreamUnavailable, "fetch sqlite for %s: %v", dataset.CanonicalString(), err)
	}
	if sha256Hex(sqliteBytes) != manifest.Checksums.SqliteSHA256 {
		return nil, atlaserr.Newf(atlaserr.UpstreamHashMismatch, "sqlite_sha256 mismatch for %s", dataset.CanonicalString())
	}
	if lock.SqliteSHA256 != manifest.Checksums.SqliteSHA256 {
		return nil, atlaserr.Newf(atlaserr.UpstreamHashMismatch, "manifest.lock sqlite_sha256 mismatch for %s", dataset.CanonicalString())
	}

	localPath, err := c.writeLocalCopy(dataset, sqliteBytes)
	if err != nil {
		return nil, err
	}

	select {
	case c.shardPermits <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	permitHeld := true
	release := func() {
		if permitHeld {
			<-c.shardPermits
			permitHeld = false
		}
	}

	handle, err := openShard(localPath, release)
	if err != nil {
		release()
		return nil, atlaserr.Newf(atlaserr.Internal, "open shard for %s: %v", dataset.CanonicalString(), err)
	}

	return &Entry{
		Dataset:    dataset,
		Manifest:   manifest,
		Shard:      handle,
		DiskBytes:  int64(len(sqliteBytes)),
		LastAccess: time.Now().UTC(),
	}, nil
}

func (c *DatasetCache) writeLocalCopy(dataset model.DatasetId, data []byte) (string, error) {
	dir := filepath.Join(c.diskRoot, dataset.CanonicalString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cache: mkdir %s: %w", dir, err)
	}
	full := filepath.Join(dir, "gene_summary.sqlite")
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("cache: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", fmt.Errorf("cache: publish %s: %w", full, err)
	}
	return full, nil
}

func openShard(path string, release func()) (*ShardHandle, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_query_only=1&_journal_mode=OFF", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA query_only = ON",
		"PRAGMA journal_mode = OFF",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -20000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: apply %q: %w", pragma, err)
		}
	}

	statements := make(map[string]*sql.Stmt, len(preparedStatementNames))
	for _, name := range preparedStatementNames {
		stmt, err := db.Prepare(preparedStatementSQL[name])
		if err != nil {
			for _, s := range statements {
				s.Close()
			}
			db.Close()
			return nil, fmt.Errorf("cache: prepare %s: %w", name, err)
		}
		statements[name] = stmt
	}

	return &ShardHandle{db: db, statements: statements, release: release}, nil
}

// evictLocked drops least-recently-used, non-pinned entries until the
// cache satisfies its disk-bytes and dataset-count budgets. Caller must
// hold c.mu.
func (c *DatasetCache) evictLocked() {
	for c.overBudgetLocked() {
		el := c.lru.Back()
		if el == nil {
			return
		}
		entry := el.Value.(*Entry)
		if entry.Pinned {
			// Walk forward from the back looking for a non-pinned victim;
			// if everything is pinned there is nothing left to evict.
			found := false
			for e := el.Prev(); e != nil; e = e.Prev() {
				if !e.Value.(*Entry).Pinned {
					el = e
					entry = el.Value.(*Entry)
					found = true
					break
				}
			}
			if !found {
				return
			}
		}
		c.lru.Remove(el)
		delete(c.entries, entry.Dataset.CanonicalString())
		c.disk -= entry.DiskBytes
		if entry.Shard != nil {
			entry.Shard.Close()
		}
	}
}

func (c *DatasetCache) overBudgetLocked() bool {
	if c.budget.MaxDiskBytes > 0 && c.disk > c.budget.MaxDiskBytes {
		return true
	}
	if c.budget.MaxDatasetCount > 0 && len(c.entries) > c.budget.MaxDatasetCount {
		return true
	}
	return false
}

// Evict removes dataset from the cache immediately, closing its shard
// handle, used when a hash mismatch is discovered after admission and the
// bundle must be refetched.
func (c *DatasetCache) Evict(dataset model.DatasetId) {
	key := dataset.CanonicalString()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.lru.Remove(e.listElement)
	delete(c.entries, key)
	c.disk -= e.DiskBytes
	if e.Shard != nil {
		e.Shard.Close()
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
