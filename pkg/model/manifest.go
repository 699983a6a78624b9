package model

// ArtifactChecksums holds the per-artifact SHA-256 checksums published in
// a manifest. All four must be non-empty for a manifest to validate.
type ArtifactChecksums struct {
	SqliteSHA256            string `json:"sqlite_sha256"`
	ManifestOfInputsSHA256   string `json:"manifest_of_inputs_sha256"`
	ToolchainSHA256          string `json:"toolchain_sha256"`
	ArtifactSHA256           string `json:"artifact_sha256"`
}

// NewArtifactChecksums constructs an ArtifactChecksums value verbatim; use
// ArtifactManifest.Validate to check non-emptiness.
func NewArtifactChecksums(sqlite, manifestOfInputs, toolchain, artifact string) ArtifactChecksums {
	return ArtifactChecksums{
		SqliteSHA256:           sqlite,
		ManifestOfInputsSHA256: manifestOfInputs,
		ToolchainSHA256:        toolchain,
		ArtifactSHA256:         artifact,
	}
}

func (c ArtifactChecksums) validate() error {
	if c.SqliteSHA256 == "" {
		return invalid("manifest checksums.sqlite_sha256 must not be empty")
	}
	if c.ManifestOfInputsSHA256 == "" {
		return invalid("manifest checksums.manifest_of_inputs_sha256 must not be empty")
	}
	if c.ToolchainSHA256 == "" {
		return invalid("manifest checksums.toolchain_sha256 must not be empty")
	}
	if c.ArtifactSHA256 == "" {
		return invalid("manifest checksums.artifact_sha256 must not be empty")
	}
	return nil
}

// ManifestInputHashes holds the SHA-256 of each ingest input.
type ManifestInputHashes struct {
	Gff3SHA256   string `json:"gff3_sha256"`
	FastaSHA256  string `json:"fasta_sha256"`
	FaiSHA256    string `json:"fai_sha256"`
	PolicySHA256 string `json:"policy_sha256"`
}

// ManifestStats holds bundle-level counters.
type ManifestStats struct {
	GeneCount       uint64 `json:"gene_count"`
	TranscriptCount uint64 `json:"transcript_count"`
	ContigCount     uint64 `json:"contig_count"`
}

// NewManifestStats constructs a ManifestStats value.
func NewManifestStats(genes, transcripts, contigs uint64) ManifestStats {
	return ManifestStats{GeneCount: genes, TranscriptCount: transcripts, ContigCount: contigs}
}

// ArtifactManifest is the schema-versioned manifest published alongside a
// dataset bundle's tabular store.
type ArtifactManifest struct {
	ManifestVersion       string               `json:"manifest_version"`
	ContractVersion       string               `json:"contract_version"`
	Dataset               DatasetId            `json:"dataset"`
	Checksums             ArtifactChecksums    `json:"checksums"`
	InputHashes           ManifestInputHashes  `json:"input_hashes"`
	Stats                 ManifestStats        `json:"stats"`
	DerivedColumnOrigins  map[string]string    `json:"derived_column_origins,omitempty"`
	CreatedAt             string               `json:"created_at"`
	SchemaEvolutionNote   string               `json:"schema_evolution_note,omitempty"`
	IngestToolchain       string               `json:"ingest_toolchain,omitempty"`
	IngestBuildHash       string               `json:"ingest_build_hash,omitempty"`
	QCReportPath          string               `json:"qc_report_path,omitempty"`
}

// NewArtifactManifest constructs a manifest with the required fields; the
// optional fields are set via the exported struct literal by the ingest
// pipeline before Validate is called.
func NewArtifactManifest(manifestVersion, contractVersion string, dataset DatasetId, checksums ArtifactChecksums, stats ManifestStats) ArtifactManifest {
	return ArtifactManifest{
		ManifestVersion: manifestVersion,
		ContractVersion: contractVersion,
		Dataset:         dataset,
		Checksums:       checksums,
		Stats:           stats,
	}
}

// Validate rejects empty hashes and inconsistent inner hashes.
func (m ArtifactManifest) Validate() error {
	if m.ManifestVersion == "" {
		return invalid("manifest_version must not be empty")
	}
	if m.ContractVersion == "" {
		return invalid("contract_version must not be empty")
	}
	if err := m.Checksums.validate(); err != nil {
		return err
	}
	return nil
}

// ArtifactPaths are the on-disk paths for one dataset bundle, relative to
// the store root.
type ArtifactPaths struct {
	Manifest         string
	Sqlite           string
	ManifestLock     string
	ReleaseGeneIndex string
	CatalogShards    string
}

// DatasetArtifactPaths returns the bit-stable layout for a DatasetId,
// rooted at "<release>/<species>/<assembly>/".
func DatasetArtifactPaths(d DatasetId) ArtifactPaths {
	base := d.CanonicalString()
	return ArtifactPaths{
		Manifest:         base + "/manifest.json",
		Sqlite:           base + "/gene_summary.sqlite",
		ManifestLock:     base + "/manifest.lock",
		ReleaseGeneIndex: base + "/derived/release_gene_index.json",
		CatalogShards:    base + "/derived/catalog_shards.json",
	}
}

// ManifestLock is consulted on load to detect tampering.
type ManifestLock struct {
	ManifestSHA256 string `json:"manifest_sha256"`
	SqliteSHA256   string `json:"sqlite_sha256"`
}

// ShardEntry declares one shard file and the seqids it owns.
type ShardEntry struct {
	Path   string   `json:"path"`
	SeqIds []SeqId  `json:"seqids"`
}

// ShardCatalog declares the full set of shards for a dataset.
type ShardCatalog struct {
	N      int          `json:"n"`
	Shards []ShardEntry `json:"shards"`
}

// IngestRejection records one GFF3/FASTA record that failed validation
// during ingest.
type IngestRejection struct {
	RecordRef string `json:"record_ref"`
	Reason    string `json:"reason"`
}

// IngestAnomalyReport accumulates rejections observed in Lenient/ReportOnly
// strictness modes.
type IngestAnomalyReport struct {
	Rejections []IngestRejection `json:"rejections"`
}

// CatalogEntry is one row of the store-root catalog.
type CatalogEntry struct {
	Dataset        DatasetId `json:"dataset"`
	ManifestSHA256 string    `json:"manifest_sha256"`
}

// Catalog is the global listing at the store root.
type Catalog struct {
	Datasets []CatalogEntry `json:"datasets"`
}

// ValidateSorted checks that Datasets is sorted ascending by the dataset's
// canonical string, per §3's catalog invariant.
func (c Catalog) ValidateSorted() error {
	for i := 1; i < len(c.Datasets); i++ {
		if c.Datasets[i-1].Dataset.CanonicalString() > c.Datasets[i].Dataset.CanonicalString() {
			return invalid("catalog datasets are not sorted")
		}
	}
	return nil
}
