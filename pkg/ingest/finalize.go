package ingest

import (
	"sort"

	"github.com/bijux/atlas/pkg/canonical"
	"github.com/bijux/atlas/pkg/model"
)

// deterministicZeroTimestamp is the fixed created_at value every manifest
// gets; there is no option to use another one (§4.4's finalize step
// forbids wall-clock time in any canonicalization/hash path). Ingest
// never calls time.Now(); a caller wanting a real wall-clock
// created_at must post-process the manifest outside this package.
const deterministicZeroTimestamp = "1970-01-01T00:00:00Z"

// FinalizeResult is everything Finalize computed and is ready to publish.
type FinalizeResult struct {
	Manifest model.ArtifactManifest
	Lock     model.ManifestLock
	Index    model.ReleaseGeneIndex
	ManifestBytes []byte
	SqliteBytes   []byte
}

// finalize computes input/db/artifact/toolchain hashes, builds the sorted
// ReleaseGeneIndex (with per-gene signatures when requested), and produces
// the manifest + manifest.lock bytes ready for an ArtifactStore.Put, per
// §4.4 step 6. It does not write anything to disk or to a store; that is
// pipeline.go's job once the caller has decided the target is free
// (Conflict check belongs to the store, not to finalize).
func finalize(opts Options, gff3Bytes, fastaBytes, faiBytes, sqliteBytes []byte, genes []model.GeneSummary, contigCount int) (FinalizeResult, error) {
	gff3Hash := canonical.StableHashHex(gff3Bytes)
	fastaHash := canonical.StableHashHex(fastaBytes)
	faiHash := canonical.StableHashHex(faiBytes)
	dbHash := canonical.StableHashHex(sqliteBytes)

	inputHashes := model.ManifestInputHashes{
		Gff3SHA256:   gff3Hash,
		FastaSHA256:  fastaHash,
		FaiSHA256:    faiHash,
		PolicySHA256: opts.PolicySHA256,
	}

	toolchainHash, err := canonical.StableJSONHashHex(map[string]string{
		"toolchain": "atlas-ingest",
		"build":     toolchainBuildConstant,
	})
	if err != nil {
		return FinalizeResult{}, ingestErrf(codeIO, "compute toolchain hash: %v", err)
	}

	stats := model.NewManifestStats(uint64(len(genes)), sumTranscriptCounts(genes), uint64(contigCount))

	manifest := model.NewArtifactManifest(opts.ManifestVersion, opts.ContractVersion, opts.Dataset, model.ArtifactChecksums{}, stats)
	manifest.CreatedAt = deterministicZeroTimestamp
	manifest.InputHashes = inputHashes
	manifest.IngestToolchain = "atlas-ingest"
	manifest.IngestBuildHash = toolchainHash

	manifestOfInputsHash, err := canonical.StableJSONHashHex(inputHashes)
	if err != nil {
		return FinalizeResult{}, ingestErrf(codeIO, "compute manifest-of-inputs hash: %v", err)
	}

	// Artifact hash: hash of the canonical manifest sans self-referential
	// fields (the artifact hash itself, and anything computed after it).
	manifest.Checksums = model.NewArtifactChecksums(dbHash, manifestOfInputsHash, toolchainHash, "")
	artifactHash, err := canonical.StableJSONHashHex(manifest)
	if err != nil {
		return FinalizeResult{}, ingestErrf(codeIO, "compute artifact hash: %v", err)
	}
	manifest.Checksums.ArtifactSHA256 = artifactHash

	if err := manifest.Validate(); err != nil {
		return FinalizeResult{}, err
	}

	index, err := buildReleaseGeneIndex(opts, genes)
	if err != nil {
		return FinalizeResult{}, err
	}

	manifestBytes, err := canonical.StableJSONBytes(manifest)
	if err != nil {
		return FinalizeResult{}, ingestErrf(codeIO, "encode manifest: %v", err)
	}

	lock := model.ManifestLock{
		ManifestSHA256: canonical.StableHashHex(manifestBytes),
		SqliteSHA256:   dbHash,
	}

	return FinalizeResult{
		Manifest:      manifest,
		Lock:          lock,
		Index:         index,
		ManifestBytes: manifestBytes,
		SqliteBytes:   sqliteBytes,
	}, nil
}

// toolchainBuildConstant pins the ingest build identity so artifact hashes
// are reproducible across otherwise-identical builds; bump it only when
// the on-disk schema or hashing protocol itself changes.
const toolchainBuildConstant = "atlas-ingest-build-1"

func sumTranscriptCounts(genes []model.GeneSummary) uint64 {
	var total uint64
	for _, g := range genes {
		total += g.TranscriptCount
	}
	return total
}

// buildReleaseGeneIndex sorts genes by GeneId and, when
// ComputeGeneSignatures is set, computes each entry's signature_sha256
// from the canonical JSON of its GeneSignatureInput (§4.1).
func buildReleaseGeneIndex(opts Options, genes []model.GeneSummary) (model.ReleaseGeneIndex, error) {
	sorted := make([]model.GeneSummary, len(genes))
	copy(sorted, genes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GeneId < sorted[j].GeneId })

	entries := make([]model.ReleaseGeneIndexEntry, 0, len(sorted))
	for _, g := range sorted {
		var signature string
		if opts.ComputeGeneSignatures {
			sig, err := canonical.StableJSONHashHex(model.GeneSignatureInput{
				GeneId:          g.GeneId,
				Name:            g.Name,
				Biotype:         g.Biotype,
				SeqId:           g.SeqId,
				Start:           g.Start,
				End:             g.End,
				TranscriptCount: g.TranscriptCount,
			})
			if err != nil {
				return model.ReleaseGeneIndex{}, ingestErrf(codeIO, "compute gene signature for %s: %v", g.GeneId, err)
			}
			signature = sig
		}
		entries = append(entries, model.NewReleaseGeneIndexEntry(g.GeneId, g.SeqId, g.Start, g.End, signature))
	}
	return model.NewReleaseGeneIndex("1", opts.Dataset, entries), nil
}
