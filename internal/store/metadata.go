package store

import (
	"context"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RunInput is an input file of a run and the role it played ("truth",
// "test" or "fasta").
type RunInput struct {
	Role string
	FileFingerprint
}

// RecordInputs stores the input files a run was computed from.
func (s *Store) RecordInputs(ctx context.Context, runID string, inputs ...RunInput) error {
	for _, in := range inputs {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO run_inputs (run_id, role, path, size, mod_time) VALUES (?, ?, ?, ?, ?)`,
			runID, in.Role, in.Path, in.Size, in.ModTime.UTC(),
		); err != nil {
			return fmt.Errorf("record %s input: %w", in.Role, err)
		}
	}
	return nil
}

// Inputs returns the recorded input files of a run, ordered by role.
func (s *Store) Inputs(ctx context.Context, runID string) ([]RunInput, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, path, size, mod_time FROM run_inputs WHERE run_id=? ORDER BY role`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()

	var out []RunInput
	for rows.Next() {
		var in RunInput
		if err := rows.Scan(&in.Role, &in.Path, &in.Size, &in.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
