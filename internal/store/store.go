// Package store persists comparison runs in DuckDB and caches parsed
// annotation regions on disk.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding comparison results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, "" for in-memory.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS overlap_results (
			run_id VARCHAR,
			seq_name VARCHAR,
			truth_gene VARCHAR,
			test_gene VARCHAR,
			exon_perfect BIGINT,
			exon_truncated BIGINT,
			exon_partial BIGINT,
			exon_missed_internal BIGINT,
			exon_missed_external BIGINT,
			exon_mispredicted BIGINT,
			ordinal BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS overlap_runs (
			run_id VARCHAR,
			seq_name VARCHAR,
			truth_genes BIGINT,
			gene_overlap BIGINT,
			PRIMARY KEY (run_id, seq_name)
		)`,
		`CREATE TABLE IF NOT EXISTS run_inputs (
			run_id VARCHAR,
			role VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
