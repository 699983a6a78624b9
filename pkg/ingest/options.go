// Package ingest builds an immutable dataset bundle from a GFF3 feature
// file, a FASTA sequence file, and its FAI index: parse, extract and
// validate gene/transcript/exon rows, sort them deterministically, persist
// the tabular store, and finalize the manifest + manifest.lock under the
// store's atomic-publish contract. Every stage emits structured Events into
// an append-only log (events.go) rather than logging directly, so a caller
// (cmd/atlas-ingest) decides how those events are rendered.
package ingest

import (
	"github.com/bijux/atlas/pkg/model"
)

// Options configures one ingest run. Paths name inputs on the local
// filesystem; the pipeline itself never reaches across a network.
type Options struct {
	Gff3Path string
	FastaPath string
	FaiPath  string

	Dataset model.DatasetId

	Strictness model.StrictnessMode

	GeneIdentifier    model.GeneIdentifierPolicy
	TranscriptId      model.TranscriptIdPolicy
	DuplicateGeneId   model.DuplicateGeneIdPolicy
	DuplicateTranscriptId model.DuplicateTranscriptIdPolicy
	GeneName          model.GeneNamePolicy
	Biotype           model.BiotypePolicy
	TranscriptType    model.TranscriptTypePolicy
	SeqidNormalization model.SeqidNormalizationPolicy
	UnknownFeature    model.UnknownFeaturePolicy
	FeatureIdUniqueness model.FeatureIdUniquenessPolicy
	OptionalField     model.OptionalFieldPolicy
	Sharding          model.ShardingPlan

	// AllowOverlapAcrossContigs lets a GeneId that reappears on a different
	// seqid pass without tripping DuplicateGeneId. The later sighting is
	// skipped, not kept: only the first gene with that GeneId is extracted.
	// A repeat on the same seqid still goes through DuplicateGeneId.
	AllowOverlapAcrossContigs bool

	// AutoGenerateFai is a dev-only escape hatch: when the FAI index is
	// absent, generate one from the FASTA instead of failing Prepare.
	// Production callers must leave this false (§4.4 step 1).
	AutoGenerateFai bool

	// FastaScanMaxBases bounds an optional GC/N-fraction scan of the FASTA
	// during Decode; 0 disables the scan entirely.
	FastaScanMaxBases uint64

	// ThreadCap is accepted but not read: Extract runs on the calling
	// goroutine and has no worker pool.
	ThreadCap int

	// FailOnWarn promotes any Lenient/ReportOnly anomaly to a fatal error
	// once Extract has processed every record, without changing per-record
	// handling during Extract.
	FailOnWarn bool

	// ComputeGeneSignatures gates whether Finalize computes each gene's
	// signature_sha256 for the ReleaseGeneIndex. On by default, and Validate
	// rejects false: the diff engine has no defined behavior for a gene
	// without a signature. See the Open Question decision recorded in
	// DESIGN.md.
	ComputeGeneSignatures bool

	ManifestVersion string
	ContractVersion string
	PolicySHA256    string
}

// DefaultOptions returns an Options with every policy set to its default
// and AllowOverlapAcrossContigs/AutoGenerateFai left false (the safe,
// production-shaped defaults).
func DefaultOptions(dataset model.DatasetId) Options {
	return Options{
		Dataset:               dataset,
		Strictness:            model.StrictnessStrict,
		GeneIdentifier:        model.DefaultGeneIdentifierPolicy(),
		TranscriptId:          model.DefaultTranscriptIdPolicy(),
		DuplicateGeneId:       model.DuplicateGeneIdReject,
		DuplicateTranscriptId: model.DuplicateTranscriptIdReject,
		GeneName:              model.DefaultGeneNamePolicy(),
		Biotype:               model.DefaultBiotypePolicy(),
		TranscriptType:        model.DefaultTranscriptTypePolicy(),
		SeqidNormalization:    model.DefaultSeqidNormalizationPolicy(),
		UnknownFeature:        model.UnknownFeatureIgnore,
		FeatureIdUniqueness:   model.DefaultFeatureIdUniquenessPolicy(),
		OptionalField:         model.DefaultOptionalFieldPolicy(),
		Sharding:              model.DefaultShardingPlan(),
		ComputeGeneSignatures: true,
		ManifestVersion:       "1",
		ContractVersion:       "1",
	}
}

// Validate rejects an Options value that cannot possibly produce a bundle:
// empty paths, an unset dataset, or an inconsistent sharding plan.
func (o Options) Validate() error {
	if o.Gff3Path == "" {
		return ingestErrf(codeIO, "gff3_path is required")
	}
	if o.FastaPath == "" {
		return ingestErrf(codeIO, "fasta_path is required")
	}
	if o.FaiPath == "" && !o.AutoGenerateFai {
		return ingestErrf(codeFaiRequired, "FAI index is required (set auto_generate_fai for dev-only auto-generation)")
	}
	if o.Dataset.Release == "" {
		return ingestErrf(codeIO, "dataset is required")
	}
	if err := o.Sharding.Validate(); err != nil {
		return err
	}
	if !o.Strictness.IsKnown() {
		return ingestErrf(codeStrictMode, "unrecognized strictness mode %q", o.Strictness)
	}
	// The release gene index has no defined behavior for a missing
	// signature, so disabling signature computation is rejected outright
	// rather than silently producing an index the diff engine can't use.
	if !o.ComputeGeneSignatures {
		return ingestErrf(codeStrictMode, "release gene index requires gene signatures")
	}
	return nil
}
