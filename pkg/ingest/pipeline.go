package ingest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/canonical"
	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/store"
)

// jsonMarshalCanonical encodes v via canonical.StableJSONBytes, wrapping a
// marshal failure as an ingest I/O error.
func jsonMarshalCanonical(v any) ([]byte, error) {
	b, err := canonical.StableJSONBytes(v)
	if err != nil {
		return nil, ingestErrf(codeIO, "encode: %v", err)
	}
	return b, nil
}

// shardBucket deterministically maps a seqid string to one of n buckets
// using the shared stable-hash primitive (no randomness, no map iteration
// order dependence).
func shardBucket(seqid string, n int) int {
	if n <= 0 {
		return 0
	}
	h := canonical.StableHashHex([]byte(seqid))
	var acc uint64
	for i := 0; i < 8 && i < len(h); i++ {
		acc = acc*16 + uint64(hexDigit(h[i]))
	}
	return int(acc % uint64(n))
}

func hexDigit(c byte) uint64 {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0')
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10
	default:
		return 0
	}
}

// Result is everything one successful ingest run produced, for a caller
// (cmd/atlas-ingest) that wants to report counts or write a QC summary.
type Result struct {
	Manifest    model.ArtifactManifest
	Stats       model.ManifestStats
	Rejections  []model.IngestRejection
	Events      []Event
}

// Run executes the full six-stage pipeline (§4.4) and publishes the
// resulting bundle to dst under the dataset's bit-stable layout. dst must
// not already hold a manifest for opts.Dataset — datasets are immutable,
// so a pre-existing artifact at the target path is a fatal Conflict.
func Run(ctx context.Context, dst store.ArtifactStore, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	log := &EventLog{}

	paths := model.DatasetArtifactPaths(opts.Dataset)
	if _, err := dst.Head(ctx, paths.Manifest); err == nil {
		return Result{}, atlaserr.Newf(atlaserr.Conflict, "dataset %s already published", opts.Dataset.CanonicalString())
	}

	// --- Prepare ---
	log.emit(StagePrepare, "resolving inputs", map[string]any{"dataset": opts.Dataset.CanonicalString()})
	var contigs ContigIndex
	var err error
	if opts.FaiPath != "" {
		contigs, err = readFai(opts.FaiPath)
	} else if opts.AutoGenerateFai {
		contigs, err = scanFastaLengths(opts.FastaPath)
		log.emit(StagePrepare, "auto-generated fai (dev-only)", nil)
	} else {
		err = ingestErrf(codeFaiRequired, "FAI index is required")
	}
	if err != nil {
		return Result{}, err
	}

	// --- Decode ---
	log.emit(StageDecode, "parsing gff3", map[string]any{"path": opts.Gff3Path})
	records, err := parseGff3(opts.Gff3Path)
	if err != nil {
		return Result{}, err
	}
	if opts.FastaScanMaxBases > 0 {
		if _, err := scanFastaComposition(opts.FastaPath, opts.FastaScanMaxBases); err != nil {
			return Result{}, err
		}
		log.emit(StageDecode, "scanned fasta composition", map[string]any{"max_bases": opts.FastaScanMaxBases})
	}

	// --- Extract ---
	log.emit(StageExtract, "extracting features", map[string]any{"records": len(records)})
	extracted, err := extract(records, contigs, opts, log)
	if err != nil {
		return Result{}, err
	}

	// --- Sort ---
	genes, transcripts, exons := sortRows(extracted.Genes, extracted.Transcripts, extracted.Exons)
	log.emit(StageSort, "sorted rows", map[string]any{
		"genes": len(genes), "transcripts": len(transcripts), "exons": len(exons),
	})

	// --- Persist ---
	tmpDir, err := os.MkdirTemp("", "atlas-ingest-*")
	if err != nil {
		return Result{}, ingestErrf(codeIO, "create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	sqlitePath := filepath.Join(tmpDir, "gene_summary.sqlite")
	if err := persistSqlite(sqlitePath, genes, transcripts, exons); err != nil {
		return Result{}, err
	}
	sqliteBytes, err := readFileBytes(sqlitePath)
	if err != nil {
		return Result{}, err
	}
	log.emit(StagePersist, "persisted tabular store", map[string]any{"bytes": len(sqliteBytes)})

	var shardCatalog *model.ShardCatalog
	var shardFiles []shardFile
	if opts.Sharding.EmitShards {
		catalog, files, err := buildShards(tmpDir, opts.Sharding, genes, transcripts, exons)
		if err != nil {
			return Result{}, err
		}
		shardCatalog = &catalog
		shardFiles = files
		log.emit(StagePersist, "materialized shards", map[string]any{"shards": catalog.N})
	}

	// --- Finalize ---
	gff3Bytes, err := readFileBytes(opts.Gff3Path)
	if err != nil {
		return Result{}, err
	}
	fastaBytes, err := readFileBytes(opts.FastaPath)
	if err != nil {
		return Result{}, err
	}
	var faiBytes []byte
	if opts.FaiPath != "" {
		faiBytes, err = readFileBytes(opts.FaiPath)
		if err != nil {
			return Result{}, err
		}
	}

	result, err := finalize(opts, gff3Bytes, fastaBytes, faiBytes, sqliteBytes, genes, len(contigs))
	if err != nil {
		return Result{}, err
	}
	log.emit(StageFinalize, "finalized manifest", map[string]any{"artifact_sha256": result.Manifest.Checksums.ArtifactSHA256})

	if err := publish(ctx, dst, opts.Dataset, result, shardCatalog, shardFiles); err != nil {
		return Result{}, err
	}

	return Result{
		Manifest:   result.Manifest,
		Stats:      result.Manifest.Stats,
		Rejections: extracted.Rejections,
		Events:     log.Events(),
	}, nil
}

// publish publishes manifest and sqlite through the dataset-level Store
// (atomic hash-verified publish, per-dataset lock, catalog.json update per
// §4.5), then writes manifest.lock, the release gene index, and (if
// sharded) the shard catalog plus every shard file directly through the
// backend — those objects fall outside §4.5's publish_dataset contract but
// still use dst.Put's own per-object atomicity (temp+rename).
func publish(ctx context.Context, dst store.ArtifactStore, dataset model.DatasetId, result FinalizeResult, shardCatalog *model.ShardCatalog, shardFiles []shardFile) error {
	paths := model.DatasetArtifactPaths(dataset)

	ds := store.NewStore(dst)
	if err := ds.PublishDataset(ctx, dataset, result.ManifestBytes, result.SqliteBytes, result.Lock.ManifestSHA256, result.Lock.SqliteSHA256); err != nil {
		return err
	}

	lockBytes, err := jsonMarshalCanonical(result.Lock)
	if err != nil {
		return err
	}
	if err := dst.Put(ctx, paths.ManifestLock, lockBytes); err != nil {
		return ingestErrf(codeIO, "publish manifest.lock: %v", err)
	}

	indexBytes, err := jsonMarshalCanonical(result.Index)
	if err != nil {
		return err
	}
	if err := dst.Put(ctx, paths.ReleaseGeneIndex, indexBytes); err != nil {
		return ingestErrf(codeIO, "publish release gene index: %v", err)
	}

	if shardCatalog != nil {
		// Every shard file must exist before the catalog that names it is
		// published, or a cache fetching shardCatalog.Shards[i].Path would
		// 404 against a catalog that looks valid.
		for _, f := range shardFiles {
			key := dataset.CanonicalString() + "/" + f.RelPath
			if err := dst.Put(ctx, key, f.Bytes); err != nil {
				return ingestErrf(codeIO, "publish shard %s: %v", f.RelPath, err)
			}
		}
		catalogBytes, err := jsonMarshalCanonical(*shardCatalog)
		if err != nil {
			return err
		}
		if err := dst.Put(ctx, paths.CatalogShards, catalogBytes); err != nil {
			return ingestErrf(codeIO, "publish shard catalog: %v", err)
		}
	}
	return nil
}

// shardFile is one materialized per-partition sqlite bundle, ready to
// publish at dataset-root-relative RelPath (matching a ShardEntry.Path).
type shardFile struct {
	RelPath string
	Bytes   []byte
}

// buildShards partitions genes/transcripts/exons by seqid into plan's
// shard buckets, persists one sqlite file per non-empty bucket under
// tmpDir, and returns both the resulting catalog and the shard bytes
// ready to publish. A bucket with no genes produces no shard entry and no
// file, so the catalog never names a path buildShards did not also
// materialize.
func buildShards(tmpDir string, plan model.ShardingPlan, genes []model.GeneSummary, transcripts []model.TranscriptSummary, exons []model.ExonSummary) (model.ShardCatalog, []shardFile, error) {
	seqidBucket := make(map[model.SeqId]int)
	bucketSeqIds := make(map[int][]model.SeqId)
	seen := make(map[model.SeqId]bool)
	for _, g := range genes {
		if seen[g.SeqId] {
			continue
		}
		seen[g.SeqId] = true
		bucket := shardBucket(string(g.SeqId), plan.ShardPartitions)
		seqidBucket[g.SeqId] = bucket
		bucketSeqIds[bucket] = append(bucketSeqIds[bucket], g.SeqId)
	}

	bucketGenes := make(map[int][]model.GeneSummary)
	for _, g := range genes {
		b := seqidBucket[g.SeqId]
		bucketGenes[b] = append(bucketGenes[b], g)
	}
	bucketTranscripts := make(map[int][]model.TranscriptSummary)
	for _, t := range transcripts {
		b, ok := seqidBucket[t.SeqId]
		if !ok {
			continue
		}
		bucketTranscripts[b] = append(bucketTranscripts[b], t)
	}
	bucketExons := make(map[int][]model.ExonSummary)
	for _, e := range exons {
		b, ok := seqidBucket[e.SeqId]
		if !ok {
			continue
		}
		bucketExons[b] = append(bucketExons[b], e)
	}

	shards := make([]model.ShardEntry, 0, len(bucketSeqIds))
	files := make([]shardFile, 0, len(bucketSeqIds))
	for i := 0; i < plan.ShardPartitions; i++ {
		seqids, ok := bucketSeqIds[i]
		if !ok {
			continue
		}
		relPath := filepathShardName(i)
		shardPath := filepath.Join(tmpDir, "shard_"+itoa(i)+".sqlite")
		if err := persistSqlite(shardPath, bucketGenes[i], bucketTranscripts[i], bucketExons[i]); err != nil {
			return model.ShardCatalog{}, nil, err
		}
		shardBytes, err := readFileBytes(shardPath)
		if err != nil {
			return model.ShardCatalog{}, nil, err
		}
		shards = append(shards, model.ShardEntry{Path: relPath, SeqIds: seqids})
		files = append(files, shardFile{RelPath: relPath, Bytes: shardBytes})
	}
	return model.ShardCatalog{N: len(shards), Shards: shards}, files, nil
}

func filepathShardName(i int) string {
	return "derived/shard_" + itoa(i) + ".sqlite"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{byte('0' + i%10)}, buf...)
		i /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}
