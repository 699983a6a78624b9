// Command atlas-ingest runs the ingest pipeline against a GFF3+FASTA+FAI
// input set and publishes the resulting bundle to a store backend. It owns
// CLI argument wrangling and progress/console rendering only — every stage
// of the pipeline itself lives in pkg/ingest, matching the spec's non-goal
// that CLI wrangling is an external collaborator to the core.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/ingest"
	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/store"
)

// overridesFile is the optional YAML policy-override document accepted via
// --policy-overrides, letting an operator tweak ingest policies without
// recompiling. Only the fields a CLI run plausibly wants to override are
// exposed; the full policy set still lives in pkg/model's typed structs.
type overridesFile struct {
	Strictness                string   `yaml:"strictness"`
	AllowOverlapAcrossContigs bool     `yaml:"allow_overlap_across_contigs"`
	FailOnWarn                bool     `yaml:"fail_on_warn"`
	// ComputeGeneSignatures is accepted for wire/schema compatibility only:
	// the release gene index requires signatures, so a pointer lets an
	// operator's YAML omit the field (leaving the always-on default) while
	// an explicit false still reaches Options.Validate and fails loudly
	// instead of silently producing an index the diff engine can't use.
	ComputeGeneSignatures     *bool    `yaml:"compute_gene_signatures"`
	EmitShards                bool     `yaml:"emit_shards"`
	ShardPartitions           int      `yaml:"shard_partitions"`
	GeneNameAttributeKeys     []string `yaml:"gene_name_attribute_keys"`
	BiotypeAttributeKeys      []string `yaml:"biotype_attribute_keys"`
}

func main() {
	var (
		gff3Path    = flag.String("gff3", "", "path to the input GFF3 file")
		fastaPath   = flag.String("fasta", "", "path to the input FASTA file")
		faiPath     = flag.String("fai", "", "path to the input .fai index (optional with --auto-fai)")
		storeRoot   = flag.String("store-root", "", "local store root to publish into")
		release     = flag.String("release", "", "dataset release")
		species     = flag.String("species", "", "dataset species")
		assembly    = flag.String("assembly", "", "dataset assembly")
		autoFai     = flag.Bool("auto-fai", false, "dev-only: derive contig lengths from the FASTA instead of requiring --fai")
		overridesPath = flag.String("policy-overrides", "", "optional YAML file overriding ingest policy defaults")
		noColor     = flag.Bool("no-color", false, "disable colored console output")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	dataset, err := model.NewDatasetId(*release, *species, *assembly)
	if err != nil {
		fail("invalid dataset: %v", err)
	}

	opts := ingest.DefaultOptions(dataset)
	opts.Gff3Path = *gff3Path
	opts.FastaPath = *fastaPath
	opts.FaiPath = *faiPath
	opts.AutoGenerateFai = *autoFai

	if *overridesPath != "" {
		if err := applyOverrides(*overridesPath, &opts); err != nil {
			fail("policy overrides: %v", err)
		}
	}

	if *storeRoot == "" {
		fail("--store-root is required")
	}
	dst, err := store.NewLocalStore(*storeRoot)
	if err != nil {
		fail("open store: %v", err)
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("ingesting "+dataset.CanonicalString()),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
	)

	ctx := context.Background()
	result, err := ingest.Run(ctx, dst, opts)
	_ = bar.Finish()
	if err != nil {
		if ae, ok := atlaserr.As(err); ok {
			fail("%s: %s", ae.Code, ae.Message)
		}
		fail("%v", err)
	}

	color.Green("published %s", dataset.CanonicalString())
	fmt.Printf("genes=%d transcripts=%d contigs=%d rejections=%d\n",
		result.Stats.GeneCount, result.Stats.TranscriptCount, result.Stats.ContigCount, len(result.Rejections))
	for _, r := range result.Rejections {
		color.Yellow("  rejected %s: %s", r.RecordRef, r.Reason)
	}
}

func applyOverrides(path string, opts *ingest.Options) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var ov overridesFile
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return err
	}
	if ov.Strictness != "" {
		opts.Strictness = model.StrictnessMode(ov.Strictness)
	}
	opts.AllowOverlapAcrossContigs = ov.AllowOverlapAcrossContigs
	opts.FailOnWarn = ov.FailOnWarn
	if ov.ComputeGeneSignatures != nil {
		opts.ComputeGeneSignatures = *ov.ComputeGeneSignatures
	}
	opts.Sharding.EmitShards = ov.EmitShards
	if ov.ShardPartitions > 0 {
		opts.Sharding.ShardPartitions = ov.ShardPartitions
	}
	if len(ov.GeneNameAttributeKeys) > 0 {
		opts.GeneName.AttributeKeys = ov.GeneNameAttributeKeys
	}
	if len(ov.BiotypeAttributeKeys) > 0 {
		opts.Biotype.AttributeKeys = ov.BiotypeAttributeKeys
	}
	return nil
}

func fail(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}
