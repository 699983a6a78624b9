package model

// This file holds the per-policy options §4.3/§4.4 name but that don't
// belong with the request/response enums in enums.go: the ingest-time
// identifier, name, biotype, and sharding policies, plus the small value
// types (Strand, ShardId, QcSeverity, ModelVersion) they're built from.

// Strand is a feature's strand as recorded in a GFF3 record.
type Strand string

const (
	StrandForward Strand = "+"
	StrandReverse Strand = "-"
	StrandUnknown Strand = "."
)

func (s Strand) IsKnown() bool {
	switch s {
	case StrandForward, StrandReverse, StrandUnknown:
		return true
	default:
		return false
	}
}

// ParseStrand validates a raw GFF3 strand column value.
func ParseStrand(s string) (Strand, error) {
	v := Strand(s)
	if !v.IsKnown() {
		return "", invalidf("unrecognized strand %q", s)
	}
	return v, nil
}

// ModelVersion pins the ingest/query row-schema revision a manifest was
// produced against; bumps are monotonic by one, matching the policy
// schema-version rule in §4.3.
type ModelVersion uint32

const CurrentModelVersion ModelVersion = 1

// QcSeverity classifies one quality-control finding surfaced by ingest's
// extract stage, independent of whether it caused a rejection.
type QcSeverity string

const (
	QcSeverityInfo    QcSeverity = "info"
	QcSeverityWarning QcSeverity = "warning"
	QcSeverityFatal   QcSeverity = "fatal"
)

func (s QcSeverity) IsKnown() bool {
	switch s {
	case QcSeverityInfo, QcSeverityWarning, QcSeverityFatal:
		return true
	default:
		return false
	}
}

// ShardId names one per-partition shard of a sharded dataset, keyed by the
// seqid bucket it owns.
type ShardId string

// ParseShardId validates s as a ShardId.
func ParseShardId(s string) (ShardId, error) {
	if s == "" {
		return "", invalid("shard_id must not be empty")
	}
	if len(s) > IDMaxLen {
		return "", invalidf("shard_id exceeds max length %d", IDMaxLen)
	}
	if !idPattern.MatchString(s) {
		return "", invalid("shard_id contains invalid characters")
	}
	return ShardId(s), nil
}

// ShardingPlan describes how a dataset's rows are partitioned into shards
// during ingest's Persist stage (§4.4 step 5): EmitShards is the feature
// gate, ShardPartitions selects the bucket count when enabled, and
// SeqIdsPerShard (once computed) records which seqids each shard owns for
// catalog_shards.json.
type ShardingPlan struct {
	EmitShards      bool              `json:"emit_shards"`
	ShardPartitions int               `json:"shard_partitions"`
	SeqIdsPerShard  map[ShardId][]SeqId `json:"seqids_per_shard,omitempty"`
}

// DefaultShardingPlan disables sharding; a single shard holds every seqid.
func DefaultShardingPlan() ShardingPlan {
	return ShardingPlan{EmitShards: false, ShardPartitions: 0}
}

// Validate rejects an enabled plan with a non-positive partition count.
func (p ShardingPlan) Validate() error {
	if p.EmitShards && p.ShardPartitions <= 0 {
		return invalid("sharding plan: shard_partitions must be > 0 when emit_shards is set")
	}
	return nil
}

// GeneNamePolicy selects the GFF3 attribute priority list ingest walks to
// resolve a gene's display name, falling back to GeneId when none match.
type GeneNamePolicy struct {
	AttributeKeys     []string `json:"attribute_keys"`
	FallbackToGeneId  bool     `json:"fallback_to_gene_id"`
}

// DefaultGeneNamePolicy tries "Name" then "gene_name", falling back to the
// resolved GeneId.
func DefaultGeneNamePolicy() GeneNamePolicy {
	return GeneNamePolicy{AttributeKeys: []string{"Name", "gene_name"}, FallbackToGeneId: true}
}

// BiotypePolicy selects the GFF3 attribute priority list used to resolve a
// feature's biotype, and how an unresolved value is handled.
type BiotypePolicy struct {
	AttributeKeys  []string `json:"attribute_keys"`
	DefaultBiotype string   `json:"default_biotype"`
	RejectUnknown  bool     `json:"reject_unknown"`
}

// DefaultBiotypePolicy tries "biotype" then "gene_biotype", defaulting to
// "protein_coding" when neither is present.
func DefaultBiotypePolicy() BiotypePolicy {
	return BiotypePolicy{
		AttributeKeys:  []string{"biotype", "gene_biotype"},
		DefaultBiotype: "protein_coding",
		RejectUnknown:  false,
	}
}

// SeqidNormalizationPolicy controls how ingest reconciles GFF3/FASTA seqid
// spelling differences (e.g. "chr1" vs "1") before validating a feature's
// coordinates against the FAI-derived contig length.
type SeqidNormalizationPolicy struct {
	StripChrPrefix bool `json:"strip_chr_prefix"`
	CaseSensitive  bool `json:"case_sensitive"`
}

// DefaultSeqidNormalizationPolicy is strict: no prefix stripping, and
// seqids are compared case-sensitively.
func DefaultSeqidNormalizationPolicy() SeqidNormalizationPolicy {
	return SeqidNormalizationPolicy{StripChrPrefix: false, CaseSensitive: true}
}

// Normalize applies the policy to a raw seqid string, ahead of ParseSeqId.
func (p SeqidNormalizationPolicy) Normalize(raw string) string {
	s := raw
	if p.StripChrPrefix && len(s) > 3 && (s[:3] == "chr" || s[:3] == "Chr") {
		s = s[3:]
	}
	if !p.CaseSensitive {
		s = toLowerASCII(s)
	}
	return s
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// UnknownFeaturePolicy names how a GFF3 feature type other than
// gene/transcript/exon/CDS is to be handled. Ingest's Extract stage does
// not read it: such features are always skipped, whatever its value.
type UnknownFeaturePolicy string

const (
	UnknownFeatureIgnore UnknownFeaturePolicy = "ignore"
	UnknownFeatureReject UnknownFeaturePolicy = "reject"
	UnknownFeatureReport UnknownFeaturePolicy = "report"
)

func (p UnknownFeaturePolicy) IsKnown() bool {
	switch p {
	case UnknownFeatureIgnore, UnknownFeatureReject, UnknownFeatureReport:
		return true
	default:
		return false
	}
}

// TranscriptIdPolicy mirrors GeneIdentifierPolicy for transcript features:
// either the GFF3 ID attribute directly, or a preferred stable-ID attribute
// list with an optional GFF3-ID fallback.
type TranscriptIdPolicy struct {
	Kind             GeneIdentifierPolicyKind `json:"kind"`
	AttributeKeys    []string                 `json:"attribute_keys,omitempty"`
	FallbackToGff3Id bool                     `json:"fallback_to_gff3_id,omitempty"`
}

// DefaultTranscriptIdPolicy resolves TranscriptId straight from the GFF3 ID
// attribute.
func DefaultTranscriptIdPolicy() TranscriptIdPolicy {
	return TranscriptIdPolicy{Kind: GeneIdentifierGff3Id}
}

// DuplicateTranscriptIdPolicy mirrors DuplicateGeneIdPolicy for transcripts.
type DuplicateTranscriptIdPolicy string

const (
	DuplicateTranscriptIdReject    DuplicateTranscriptIdPolicy = "reject"
	DuplicateTranscriptIdKeepFirst DuplicateTranscriptIdPolicy = "keep_first"
	DuplicateTranscriptIdKeepLast  DuplicateTranscriptIdPolicy = "keep_last"
)

func (p DuplicateTranscriptIdPolicy) IsKnown() bool {
	switch p {
	case DuplicateTranscriptIdReject, DuplicateTranscriptIdKeepFirst, DuplicateTranscriptIdKeepLast:
		return true
	default:
		return false
	}
}

// TranscriptTypePolicy selects the GFF3 attribute priority list used to
// resolve a transcript's transcript_type column, defaulting when absent.
type TranscriptTypePolicy struct {
	AttributeKeys      []string `json:"attribute_keys"`
	DefaultTranscriptType string `json:"default_transcript_type"`
}

// DefaultTranscriptTypePolicy tries "transcript_type" then "biotype",
// defaulting to "unknown".
func DefaultTranscriptTypePolicy() TranscriptTypePolicy {
	return TranscriptTypePolicy{
		AttributeKeys:         []string{"transcript_type", "biotype"},
		DefaultTranscriptType: "unknown",
	}
}

// FeatureIdUniquenessPolicy governs whether ingest requires GeneId and
// TranscriptId namespaces to be disjoint (a gene and a transcript sharing
// one raw GFF3 ID is otherwise permitted, since they're typed separately).
type FeatureIdUniquenessPolicy struct {
	RequireDisjointGeneTranscriptIds bool `json:"require_disjoint_gene_transcript_ids"`
}

// DefaultFeatureIdUniquenessPolicy does not require disjoint namespaces.
func DefaultFeatureIdUniquenessPolicy() FeatureIdUniquenessPolicy {
	return FeatureIdUniquenessPolicy{RequireDisjointGeneTranscriptIds: false}
}

// OptionalFieldPolicy names whether a missing optional GFF3 attribute
// (used by GeneNamePolicy/BiotypePolicy/TranscriptTypePolicy attribute
// lookups) is recorded as an anomaly even when a fallback resolves it.
// Ingest does not read it: fallback usage is never recorded.
type OptionalFieldPolicy struct {
	RecordFallbackUsage bool `json:"record_fallback_usage"`
}

// DefaultOptionalFieldPolicy does not record fallback usage.
func DefaultOptionalFieldPolicy() OptionalFieldPolicy {
	return OptionalFieldPolicy{RecordFallbackUsage: false}
}
