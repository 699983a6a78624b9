package ingest

import (
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bijux/atlas/pkg/model"
)

// persistSchema creates the tables the serving runtime's prepared
// statements (services/runtime/cache) expect: gene_summary,
// transcript_summary, exon_summary, and an rtree index over gene
// coordinates for region queries, per §4.4 step 5.
const persistSchema = `
CREATE TABLE gene_summary (
	rowid INTEGER PRIMARY KEY,
	gene_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	seqid TEXT NOT NULL,
	start INTEGER NOT NULL,
	end INTEGER NOT NULL,
	biotype TEXT NOT NULL,
	transcript_count INTEGER NOT NULL,
	sequence_length INTEGER NOT NULL
);

CREATE VIRTUAL TABLE gene_summary_rtree USING rtree(
	gene_rowid,
	start, end
);

CREATE TABLE transcript_summary (
	transcript_id TEXT PRIMARY KEY,
	parent_gene_id TEXT NOT NULL,
	transcript_type TEXT NOT NULL,
	biotype TEXT NOT NULL,
	seqid TEXT NOT NULL,
	start INTEGER NOT NULL,
	end INTEGER NOT NULL,
	exon_count INTEGER NOT NULL,
	total_exon_span INTEGER NOT NULL,
	cds_present INTEGER NOT NULL
);

CREATE TABLE exon_summary (
	exon_id TEXT NOT NULL,
	transcript_id TEXT NOT NULL,
	seqid TEXT NOT NULL,
	start INTEGER NOT NULL,
	end INTEGER NOT NULL,
	idx INTEGER NOT NULL
);

CREATE INDEX idx_gene_summary_biotype ON gene_summary(biotype);
CREATE INDEX idx_transcript_summary_parent_gene ON transcript_summary(parent_gene_id);
CREATE INDEX idx_exon_summary_transcript ON exon_summary(transcript_id);
`

// persistSqlite materializes genes/transcripts/exons into a fresh sqlite
// file at path. The file must not already exist — datasets are immutable,
// so persist never overwrites.
func persistSqlite(path string, genes []model.GeneSummary, transcripts []model.TranscriptSummary, exons []model.ExonSummary) error {
	if _, err := os.Stat(path); err == nil {
		return ingestErrf(codeIO, "persist target %s already exists", path)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=rwc&_journal_mode=OFF")
	if err != nil {
		return ingestErrf(codeIO, "open sqlite %s: %v", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(persistSchema); err != nil {
		return ingestErrf(codeIO, "create schema in %s: %v", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return ingestErrf(codeIO, "begin tx: %v", err)
	}

	geneStmt, err := tx.Prepare(`INSERT INTO gene_summary(rowid, gene_id, name, seqid, start, end, biotype, transcript_count, sequence_length) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return ingestErrf(codeIO, "prepare gene insert: %v", err)
	}
	rtreeStmt, err := tx.Prepare(`INSERT INTO gene_summary_rtree(gene_rowid, start, end) VALUES (?,?,?)`)
	if err != nil {
		tx.Rollback()
		return ingestErrf(codeIO, "prepare rtree insert: %v", err)
	}
	for i, g := range genes {
		rowID := int64(i + 1)
		if _, err := geneStmt.Exec(rowID, string(g.GeneId), g.Name, string(g.SeqId), g.Start, g.End, g.Biotype, g.TranscriptCount, g.SequenceLength); err != nil {
			tx.Rollback()
			return ingestErrf(codeIO, "insert gene %s: %v", g.GeneId, err)
		}
		if _, err := rtreeStmt.Exec(rowID, g.Start, g.End); err != nil {
			tx.Rollback()
			return ingestErrf(codeIO, "insert rtree row for gene %s: %v", g.GeneId, err)
		}
	}

	transcriptStmt, err := tx.Prepare(`INSERT INTO transcript_summary(transcript_id, parent_gene_id, transcript_type, biotype, seqid, start, end, exon_count, total_exon_span, cds_present) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return ingestErrf(codeIO, "prepare transcript insert: %v", err)
	}
	for _, t := range transcripts {
		cds := 0
		if t.CDSPresent {
			cds = 1
		}
		if _, err := transcriptStmt.Exec(string(t.TranscriptId), string(t.ParentGeneId), t.TranscriptType, t.Biotype, string(t.SeqId), t.Start, t.End, t.ExonCount, t.TotalExonSpan, cds); err != nil {
			tx.Rollback()
			return ingestErrf(codeIO, "insert transcript %s: %v", t.TranscriptId, err)
		}
	}

	exonStmt, err := tx.Prepare(`INSERT INTO exon_summary(exon_id, transcript_id, seqid, start, end, idx) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return ingestErrf(codeIO, "prepare exon insert: %v", err)
	}
	for _, e := range exons {
		if _, err := exonStmt.Exec(e.ExonId, string(e.TranscriptId), string(e.SeqId), e.Start, e.End, e.Index); err != nil {
			tx.Rollback()
			return ingestErrf(codeIO, "insert exon %s: %v", e.ExonId, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ingestErrf(codeIO, "commit tx: %v", err)
	}
	return nil
}

func readFileBytes(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, ingestErrf(codeIO, "read %s: %v", path, err)
	}
	return b, nil
}
