// Command atlas-diff compares two release_gene_index.json files and
// reports added/removed/changed genes between them. It is a thin shell
// around pkg/diff.Merge — every bit of diff semantics lives there.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/bijux/atlas/pkg/diff"
	"github.com/bijux/atlas/pkg/model"
)

func main() {
	var (
		fromPath = flag.String("from", "", "path to the older release_gene_index.json")
		toPath   = flag.String("to", "", "path to the newer release_gene_index.json")
		format   = flag.String("format", "text", "output format: text|json")
		noColor  = flag.Bool("no-color", false, "disable colored console output")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	if *fromPath == "" || *toPath == "" {
		fail("--from and --to are both required")
	}

	from, err := loadIndex(*fromPath)
	if err != nil {
		fail("load --from: %v", err)
	}
	to, err := loadIndex(*toPath)
	if err != nil {
		fail("load --to: %v", err)
	}

	rows := diff.Merge(from, to)

	switch *format {
	case "json":
		if err := printJSON(rows); err != nil {
			fail("encode output: %v", err)
		}
	default:
		printText(rows)
	}
}

func loadIndex(path string) (model.ReleaseGeneIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.ReleaseGeneIndex{}, err
	}
	var idx model.ReleaseGeneIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return model.ReleaseGeneIndex{}, err
	}
	return idx, nil
}

func printJSON(rows []model.DiffRecord) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func printText(rows []model.DiffRecord) {
	var added, removed, changed int
	for _, r := range rows {
		switch r.Status {
		case model.DiffAdded:
			added++
			color.Green("+ %s", r.GeneId)
		case model.DiffRemoved:
			removed++
			color.Red("- %s", r.GeneId)
		case model.DiffChanged:
			changed++
			color.Yellow("~ %s", r.GeneId)
		}
	}
	fmt.Printf("added=%d removed=%d changed=%d\n", added, removed, changed)
}

func fail(format string, args ...any) {
	color.Red(format, args...)
	os.Exit(1)
}
