package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/ir"
)

// TreeRecord is a stored expression tree.
type TreeRecord struct {
	ID     string // ir.Fingerprint of the tree
	Name   string
	Source string
	IR     ir.IRObject
	Seq    int64
}

// Node decodes the stored IR back into an expression tree.
func (r TreeRecord) Node() (expr.Node, error) {
	return ir.Decode(r.IR)
}

// SaveTree stores n under name and returns the stored record.
//
// Saving is idempotent on the tree fingerprint: if an identical tree is
// already stored, under any name, its record is returned with
// inserted=false. A different tree under a name already in use fails with
// ErrNameTaken.
func (s *Store) SaveTree(ctx context.Context, name, source string, n expr.Node) (rec TreeRecord, inserted bool, err error) {
	if name == "" {
		return TreeRecord{}, false, errors.New("save tree: name is required")
	}
	obj, err := ir.Encode(n)
	if err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}
	id, err := ir.FingerprintObject(obj)
	if err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}
	irJSON, err := marshalIR(obj)
	if err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := scanTree(tx.QueryRowContext(ctx, selectTree+` WHERE id = ?`, id))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}

	var other string
	err = tx.QueryRowContext(ctx, `SELECT id FROM trees WHERE name = ?`, name).Scan(&other)
	switch {
	case err == nil:
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, ErrNameTaken)
	case !errors.Is(err, sql.ErrNoRows):
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trees (id, name, source, ir, created_at_seq)
		VALUES (?, ?, ?, ?, ?)
	`, id, name, source, irJSON, seq)
	if err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return TreeRecord{}, false, fmt.Errorf("save tree: commit: %w", err)
	}

	return TreeRecord{ID: id, Name: name, Source: source, IR: obj, Seq: seq}, true, nil
}

const selectTree = `SELECT id, name, source, ir, created_at_seq FROM trees`

// GetTree retrieves a tree by fingerprint.
// Returns ErrNotFound if no such tree is stored.
func (s *Store) GetTree(ctx context.Context, id string) (TreeRecord, error) {
	rec, err := scanTree(s.db.QueryRowContext(ctx, selectTree+` WHERE id = ?`, id))
	if err != nil {
		return TreeRecord{}, fmt.Errorf("get tree %s: %w", id, err)
	}
	return rec, nil
}

// GetTreeByName retrieves a tree by name.
// Returns ErrNotFound if no tree has that name.
func (s *Store) GetTreeByName(ctx context.Context, name string) (TreeRecord, error) {
	rec, err := scanTree(s.db.QueryRowContext(ctx, selectTree+` WHERE name = ?`, name))
	if err != nil {
		return TreeRecord{}, fmt.Errorf("get tree %q: %w", name, err)
	}
	return rec, nil
}

// ListTrees returns every stored tree in the order it was saved.
//
// Returns an empty slice (not nil) if the catalog is empty.
func (s *Store) ListTrees(ctx context.Context) ([]TreeRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectTree+`
		ORDER BY created_at_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query trees: %w", err)
	}
	defer rows.Close()

	trees := []TreeRecord{}
	for rows.Next() {
		rec, err := scanTree(rows)
		if err != nil {
			return nil, err
		}
		trees = append(trees, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trees: %w", err)
	}
	return trees, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTree(row scanner) (TreeRecord, error) {
	var rec TreeRecord
	var irJSON string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Source, &irJSON, &rec.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TreeRecord{}, ErrNotFound
		}
		return TreeRecord{}, fmt.Errorf("scan tree: %w", err)
	}
	obj, err := unmarshalIR(irJSON)
	if err != nil {
		return TreeRecord{}, fmt.Errorf("scan tree %s: %w", rec.ID, err)
	}
	rec.IR = obj
	return rec, nil
}
