package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/testutil"
	"github.com/roach88/exprtrace/internal/trace"
)

// createTestStore creates a new store in a temp dir with deterministic run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// saveTestTree saves n under name and fails the test on error.
func saveTestTree(t *testing.T, s *Store, name string, n expr.Node) TreeRecord {
	t.Helper()
	rec, _, err := s.SaveTree(context.Background(), name, expr.Format(n), n)
	if err != nil {
		t.Fatalf("SaveTree(%q) failed: %v", name, err)
	}
	return rec
}

// traceTree traces n with default options.
func traceTree(t *testing.T, n expr.Node) (string, trace.Stats) {
	t.Helper()
	out, stats, err := trace.String(n)
	if err != nil {
		t.Fatalf("trace.String() failed: %v", err)
	}
	return out, stats
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
