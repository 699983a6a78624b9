package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bijux/atlas/pkg/model"
)

// RawGeneRow is the neutral row shape decoded straight from the tabular
// store, before projection is applied.
type RawGeneRow struct {
	GeneId          model.GeneId
	Name            string
	SeqId           model.SeqId
	Start           uint64
	End             uint64
	Biotype         string
	TranscriptCount uint64
	SequenceLength  uint64
}

// Plan is a validated, classified request ready for execution.
type Plan struct {
	Ast        GeneQueryAst
	Class      QueryClass
	WorkUnits  uint64
	QueryHash  string
}

// BuildPlan runs parse, classify, cost estimation, and hashing for req
// under limits, returning a Plan or the first validation error.
func BuildPlan(req GeneQueryRequest, limits Limits) (Plan, error) {
	if err := Validate(req, limits); err != nil {
		return Plan{}, err
	}
	ast, err := Parse(req)
	if err != nil {
		return Plan{}, err
	}
	hash, err := NormalizedQueryHash(req)
	if err != nil {
		return Plan{}, fmt.Errorf("query: hash request: %w", err)
	}
	return Plan{
		Ast:       ast,
		Class:     Classify(req),
		WorkUnits: EstimateWorkUnits(req),
		QueryHash: hash,
	}, nil
}

// Execute runs the plan's predicates as a parameterized SELECT against the
// tabular store's gene_summary table (joined with gene_summary_rtree for a
// region predicate), ordered per the plan's sort key, bounded by limit.
// Grounded on the teacher's postgres_store.go: database/sql throughout,
// never string-formatted SQL, context-bound via QueryContext.
func Execute(ctx context.Context, db *sql.DB, plan Plan, cursor *CursorPayload) ([]RawGeneRow, error) {
	var where []string
	var args []any

	for _, pred := range plan.Ast.Predicates {
		switch pred.Kind {
		case PredicateGeneId:
			where = append(where, "gene_summary.gene_id = ?")
			args = append(args, pred.GeneId)
		case PredicateNameEquals:
			where = append(where, "gene_summary.name = ?")
			args = append(args, pred.NameEquals)
		case PredicateNamePrefix:
			where = append(where, "gene_summary.name LIKE ? ESCAPE '\\'")
			args = append(args, escapeLikePrefix(pred.NamePrefix)+"%")
		case PredicateBiotype:
			where = append(where, "gene_summary.biotype = ?")
			args = append(args, pred.Biotype)
		case PredicateRegion:
			where = append(where,
				"gene_summary.seqid = ? AND gene_summary.rowid IN (SELECT gene_rowid FROM gene_summary_rtree WHERE start <= ? AND end >= ?)")
			args = append(args, pred.RegionSeqId, pred.RegionEnd, pred.RegionStart)
		}
	}

	orderBy := "gene_summary.gene_id"
	if plan.Ast.SortKey == SortKeyRegion {
		orderBy = "gene_summary.seqid, gene_summary.start, gene_summary.gene_id"
	}

	if cursor != nil {
		switch plan.Ast.SortKey {
		case SortKeyGeneId:
			where = append(where, "gene_summary.gene_id > ?")
			args = append(args, cursor.LastGeneId)
		case SortKeyRegion:
			where = append(where, "(gene_summary.seqid, gene_summary.start, gene_summary.gene_id) > (?, ?, ?)")
			var seqid string
			if cursor.LastSeqId != nil {
				seqid = *cursor.LastSeqId
			}
			var start uint64
			if cursor.LastStart != nil {
				start = *cursor.LastStart
			}
			args = append(args, seqid, start, cursor.LastGeneId)
		}
	}

	query := "SELECT gene_id, name, seqid, start, end, biotype, transcript_count, sequence_length FROM gene_summary"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderBy + " LIMIT ?"
	args = append(args, plan.Ast.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: execute: %w", err)
	}
	defer rows.Close()

	var out []RawGeneRow
	for rows.Next() {
		var r RawGeneRow
		if err := rows.Scan(&r.GeneId, &r.Name, &r.SeqId, &r.Start, &r.End, &r.Biotype, &r.TranscriptCount, &r.SequenceLength); err != nil {
			return nil, fmt.Errorf("query: decode row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: row iteration: %w", err)
	}
	return out, nil
}

func escapeLikePrefix(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix)
}
