package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/ir"
	"github.com/roach88/exprtrace/internal/trace"
)

// TraceRun is one recorded traversal of a stored tree.
type TraceRun struct {
	ID        string
	TreeID    string
	Output    string
	Digest    string // ir.TraceDigest(TreeID, Output)
	Nodes     int
	Lines     int
	Unhandled []expr.Kind
	Seq       int64
}

// WriteTraceRun records the output and stats of tracing the tree with the
// given fingerprint. Returns ErrNotFound if the tree is not stored.
func (s *Store) WriteTraceRun(ctx context.Context, treeID, output string, stats trace.Stats) (TraceRun, error) {
	unhandled, err := marshalKinds(stats.Unhandled)
	if err != nil {
		return TraceRun{}, fmt.Errorf("write trace run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TraceRun{}, fmt.Errorf("write trace run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM trees WHERE id = ?`, treeID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TraceRun{}, fmt.Errorf("write trace run: tree %s: %w", treeID, ErrNotFound)
		}
		return TraceRun{}, fmt.Errorf("write trace run: %w", err)
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return TraceRun{}, fmt.Errorf("write trace run: %w", err)
	}
	run := TraceRun{
		ID:        s.ids.Generate(),
		TreeID:    treeID,
		Output:    output,
		Digest:    ir.TraceDigest(treeID, output),
		Nodes:     stats.Nodes,
		Lines:     stats.Lines,
		Unhandled: stats.Unhandled,
		Seq:       seq,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trace_runs (id, tree_id, output, digest, nodes, lines, unhandled, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.TreeID, run.Output, run.Digest, run.Nodes, run.Lines, unhandled, run.Seq)
	if err != nil {
		return TraceRun{}, fmt.Errorf("write trace run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return TraceRun{}, fmt.Errorf("write trace run: commit: %w", err)
	}
	return run, nil
}

const selectRun = `SELECT id, tree_id, output, digest, nodes, lines, unhandled, seq FROM trace_runs`

// GetTraceRun retrieves a run by ID.
// Returns ErrNotFound if no such run is stored.
func (s *Store) GetTraceRun(ctx context.Context, id string) (TraceRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if err != nil {
		return TraceRun{}, fmt.Errorf("get trace run %s: %w", id, err)
	}
	return run, nil
}

// ListTraceRuns returns the runs of one tree, oldest first.
//
// Returns an empty slice (not nil) if the tree has no runs.
func (s *Store) ListTraceRuns(ctx context.Context, treeID string) ([]TraceRun, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+`
		WHERE tree_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, treeID)
	if err != nil {
		return nil, fmt.Errorf("query trace runs: %w", err)
	}
	defer rows.Close()

	runs := []TraceRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace runs: %w", err)
	}
	return runs, nil
}

func scanRun(row scanner) (TraceRun, error) {
	var run TraceRun
	var unhandled string
	err := row.Scan(&run.ID, &run.TreeID, &run.Output, &run.Digest, &run.Nodes, &run.Lines, &unhandled, &run.Seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TraceRun{}, ErrNotFound
		}
		return TraceRun{}, fmt.Errorf("scan trace run: %w", err)
	}
	if run.Unhandled, err = unmarshalKinds(unhandled); err != nil {
		return TraceRun{}, fmt.Errorf("scan trace run %s: %w", run.ID, err)
	}
	return run, nil
}
