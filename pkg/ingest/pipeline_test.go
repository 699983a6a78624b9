package ingest

import (
	"context"
	"testing"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/store"
)

func TestRunPublishesBundleAndRejectsReingest(t *testing.T) {
	gff3Path := writeTempFile(t, "test.gff3", testGff3())
	fastaPath := writeTempFile(t, "test.fasta", ">chr1\n"+stringsRepeat("A", 1000)+"\n")
	faiPath := writeTempFile(t, "test.fai", "chr1\t1000\t6\t1000\t1001\n")

	dataset, err := model.NewDatasetId("110", "homo_sapiens", "GRCh38")
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	opts := DefaultOptions(dataset)
	opts.Gff3Path = gff3Path
	opts.FastaPath = fastaPath
	opts.FaiPath = faiPath

	dst, err := store.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	ctx := context.Background()
	result, err := Run(ctx, dst, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Stats.GeneCount != 1 || result.Stats.TranscriptCount != 1 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if result.Manifest.Checksums.ArtifactSHA256 == "" {
		t.Fatal("expected a non-empty artifact hash")
	}

	paths := model.DatasetArtifactPaths(dataset)
	if _, err := dst.Head(ctx, paths.Manifest); err != nil {
		t.Fatalf("expected manifest to be published: %v", err)
	}
	if _, err := dst.Head(ctx, paths.Sqlite); err != nil {
		t.Fatalf("expected sqlite bundle to be published: %v", err)
	}

	if _, err := Run(ctx, dst, opts); err == nil {
		t.Fatal("expected re-ingesting an already-published dataset to fail")
	} else if ae, ok := atlaserr.As(err); !ok || ae.Code != atlaserr.Conflict {
		t.Fatalf("expected a Conflict error, got %v", err)
	}
}

func stringsRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
