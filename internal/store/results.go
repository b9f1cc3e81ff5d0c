package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/geneval/internal/evaluate"
)

// GeneRow is one stored comparison entry. TestGene is "" when the truth gene
// had no overlapping test gene.
type GeneRow struct {
	RunID     string
	SeqName   string
	TruthGene string
	TestGene  string
	evaluate.Counts
}

// RunSummary is the gene-level outcome of one sequence in a run.
type RunSummary struct {
	RunID       string
	SeqName     string
	TruthGenes  int
	GeneOverlap int
}

// WriteRun stores the results of a comparison under runID, replacing any
// earlier rows with the same run ID. Rows are batch-inserted with the
// Appender API.
func (s *Store) WriteRun(ctx context.Context, runID string, results []*evaluate.RegionResult) error {
	if err := s.DeleteRun(ctx, runID); err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	genes, err := newAppender(conn, "overlap_results")
	if err != nil {
		return err
	}
	defer genes.Close()

	var ordinal int64
	for _, rr := range results {
		if rr == nil || rr.Results == nil {
			continue
		}
		for _, og := range rr.Results.Genes {
			testGene := ""
			if og.Test != nil {
				testGene = og.Test.Label()
			}
			c := og.Counts
			if err := genes.AppendRow(
				runID, rr.SeqName, og.Truth.Label(), testGene,
				int64(c.Perfect), int64(c.Truncated), int64(c.Partial),
				int64(c.MissedInternal), int64(c.MissedExternal), int64(c.Mispredicted),
				ordinal,
			); err != nil {
				return fmt.Errorf("append overlap result: %w", err)
			}
			ordinal++
		}
	}
	if err := genes.Flush(); err != nil {
		return fmt.Errorf("flush overlap results: %w", err)
	}

	runs, err := newAppender(conn, "overlap_runs")
	if err != nil {
		return err
	}
	defer runs.Close()

	for _, rr := range results {
		if rr == nil || rr.Results == nil {
			continue
		}
		if err := runs.AppendRow(
			runID, rr.SeqName,
			int64(rr.Results.TruthGeneCount), int64(rr.Results.GeneOverlap),
		); err != nil {
			return fmt.Errorf("append run summary: %w", err)
		}
	}
	return runs.Flush()
}

func newAppender(conn *sql.Conn, table string) (*goduckdb.Appender, error) {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create appender for %s: %w", table, err)
	}
	return appender, nil
}

// LookupRun returns every stored entry of a run in the order it was written.
func (s *Store) LookupRun(ctx context.Context, runID string) ([]GeneRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, seq_name, truth_gene, test_gene,
		exon_perfect, exon_truncated, exon_partial,
		exon_missed_internal, exon_missed_external, exon_mispredicted
		FROM overlap_results
		WHERE run_id=?
		ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	return scanGeneRows(rows)
}

// LookupGene returns the stored entries of one truth gene in a run.
func (s *Store) LookupGene(ctx context.Context, runID, truthGene string) ([]GeneRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, seq_name, truth_gene, test_gene,
		exon_perfect, exon_truncated, exon_partial,
		exon_missed_internal, exon_missed_external, exon_mispredicted
		FROM overlap_results
		WHERE run_id=? AND truth_gene=?
		ORDER BY ordinal`, runID, truthGene)
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	defer rows.Close()

	return scanGeneRows(rows)
}

func scanGeneRows(rows *sql.Rows) ([]GeneRow, error) {
	var out []GeneRow
	for rows.Next() {
		var r GeneRow
		if err := rows.Scan(
			&r.RunID, &r.SeqName, &r.TruthGene, &r.TestGene,
			&r.Perfect, &r.Truncated, &r.Partial,
			&r.MissedInternal, &r.MissedExternal, &r.Mispredicted,
		); err != nil {
			return nil, fmt.Errorf("scan overlap result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlap results: %w", err)
	}
	return out, nil
}

// RunSummaries returns the per-sequence summaries of a run, or of every run
// when runID is empty.
func (s *Store) RunSummaries(ctx context.Context, runID string) ([]RunSummary, error) {
	query := `SELECT run_id, seq_name, truth_genes, gene_overlap FROM overlap_runs`
	var args []any
	if runID != "" {
		query += ` WHERE run_id=?`
		args = append(args, runID)
	}
	query += ` ORDER BY run_id, seq_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.SeqName, &r.TruthGenes, &r.GeneOverlap); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}
	return out, nil
}

// Runs returns the stored run IDs in sorted order.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM overlap_runs ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRun removes every row of a run.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	for _, table := range []string{"overlap_results", "overlap_runs", "run_inputs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete run from %s: %w", table, err)
		}
	}
	return nil
}

// Clear removes all stored runs.
func (s *Store) Clear() error {
	for _, table := range []string{"overlap_results", "overlap_runs", "run_inputs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return nil
}
