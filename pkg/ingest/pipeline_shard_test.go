package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/store"
)

func TestRunMaterializesShardFilesNamedByCatalog(t *testing.T) {
	gff3 := "" +
		"chr1\tsrc\tgene\t1\t1000\t.\t+\t.\tID=ENSG001;Name=TESTG\n" +
		"chr2\tsrc\tgene\t1\t1000\t.\t+\t.\tID=ENSG002;Name=TESTG2\n"
	gff3Path := writeTempFile(t, "test.gff3", gff3)
	fastaPath := writeTempFile(t, "test.fasta", ">chr1\n"+stringsRepeat("A", 1000)+"\n>chr2\n"+stringsRepeat("A", 1000)+"\n")
	faiPath := writeTempFile(t, "test.fai", "chr1\t1000\t6\t1000\t1001\nchr2\t1000\t1017\t1000\t1001\n")

	dataset, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	opts := DefaultOptions(dataset)
	opts.Gff3Path = gff3Path
	opts.FastaPath = fastaPath
	opts.FaiPath = faiPath
	opts.Sharding = model.ShardingPlan{EmitShards: true, ShardPartitions: 4}

	dst, err := store.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	ctx := context.Background()
	if _, err := Run(ctx, dst, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	paths := model.DatasetArtifactPaths(dataset)
	catalogBytes, err := dst.Get(ctx, paths.CatalogShards)
	if err != nil {
		t.Fatalf("expected a shard catalog to be published: %v", err)
	}

	var catalog model.ShardCatalog
	if err := json.Unmarshal(catalogBytes, &catalog); err != nil {
		t.Fatalf("decode shard catalog: %v", err)
	}
	if catalog.N == 0 || len(catalog.Shards) != catalog.N {
		t.Fatalf("unexpected shard catalog: %+v", catalog)
	}
	for _, shard := range catalog.Shards {
		key := dataset.CanonicalString() + "/" + shard.Path
		if _, err := dst.Head(ctx, key); err != nil {
			t.Fatalf("expected shard file %s to exist: %v", shard.Path, err)
		}
	}
}
