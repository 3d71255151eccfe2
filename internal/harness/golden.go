package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// ErrGoldenMismatch is returned by CompareGolden when the trace differs
// from its golden file.
var ErrGoldenMismatch = errors.New("trace differs from golden file")

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Trace))
}

// GoldenPath returns the golden file for a scenario under dir.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, name+".golden")
}

// CompareGolden checks result's trace against its golden file under dir,
// outside of go test. A missing golden file is reported as fs.ErrNotExist.
func CompareGolden(dir string, result *Result) error {
	want, err := os.ReadFile(GoldenPath(dir, result.Name))
	if err != nil {
		return fmt.Errorf("read golden file: %w", err)
	}
	if string(want) != result.Trace {
		return fmt.Errorf("%s: %w", result.Name, ErrGoldenMismatch)
	}
	return nil
}

// UpdateGolden writes result's trace as its golden file under dir.
func UpdateGolden(dir string, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create golden dir: %w", err)
	}
	if err := os.WriteFile(GoldenPath(dir, result.Name), []byte(result.Trace), 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}
