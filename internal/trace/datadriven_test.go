package trace

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

// TestTrace_DataDriven runs testdata/trace. Command:
//
//	trace [indent=N] [without=Kind,...] [strict]
//
// The input is lambda source text. The output is the trace (N spaces per
// level, default 2), diagnostics prefixed with "diag: ", and the stats.
func TestTrace_DataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/trace", func(t *testing.T, d *datadriven.TestData) string {
		if d.Cmd != "trace" {
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}

		var diag bytes.Buffer
		opts := []Option{quiet, WithDiagnostics(&diag), WithIndent("  ")}
		for _, arg := range d.CmdArgs {
			switch arg.Key {
			case "indent":
				n, err := strconv.Atoi(arg.Vals[0])
				if err != nil {
					d.Fatalf(t, "indent: %v", err)
				}
				opts = append(opts, WithIndent(strings.Repeat(" ", n)))
			case "without":
				for _, v := range arg.Vals {
					k, ok := expr.ParseKind(v)
					if !ok {
						d.Fatalf(t, "unknown kind %q", v)
					}
					opts = append(opts, WithoutHandler(k))
				}
			case "strict":
				opts = append(opts, WithStrict(true))
			default:
				d.Fatalf(t, "unknown argument %s", arg.Key)
			}
		}

		root, err := parser.Parse(d.Input)
		if err != nil {
			d.Fatalf(t, "parse: %v", err)
		}

		var out bytes.Buffer
		stats, err := New(&out, opts...).Trace(root, "")

		var b strings.Builder
		b.WriteString(out.String())
		for _, line := range strings.Split(strings.TrimSuffix(diag.String(), "\n"), "\n") {
			if line != "" {
				fmt.Fprintf(&b, "diag: %s\n", line)
			}
		}
		fmt.Fprintf(&b, "stats: nodes=%d lines=%d unhandled=%v\n", stats.Nodes, stats.Lines, stats.Unhandled)
		if err != nil {
			fmt.Fprintf(&b, "error: %v\n", err)
		}
		return b.String()
	})
}
