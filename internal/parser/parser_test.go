package parser

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprtrace/internal/eval"
	"github.com/roach88/exprtrace/internal/expr"
)

func TestParse_DataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/parse", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "parse":
			n, err := Parse(d.Input)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return fmt.Sprintf("%s\ntype: %s\n", expr.Format(n), n.Type())
		default:
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}
	})
}

const factorial = "(n) => n == 0 ? 1 : Enumerable.Range(1, n).Aggregate((a, b) => a * b)"

func TestParse_FactorialShape(t *testing.T) {
	l, err := ParseLambda(factorial)
	require.NoError(t, err)

	require.Len(t, l.Params, 1)
	n := l.Params[0]
	assert.Equal(t, "n", n.Name)
	assert.Equal(t, expr.IntType, n.Typ)

	cond, ok := l.Body.(*expr.Conditional)
	require.True(t, ok)

	test := cond.Test.(*expr.Binary)
	assert.Equal(t, expr.KindEqual, test.Op)
	assert.Same(t, n, test.Left, "body references the lambda's own parameter")

	agg, ok := cond.IfFalse.(*expr.Call)
	require.True(t, ok)
	assert.True(t, agg.IsStatic(), "extension syntax becomes a static call")
	assert.Equal(t, "Enumerable.Aggregate", agg.Method.FullName())
	require.Len(t, agg.Args, 2)
	assert.Equal(t, expr.KindCall, agg.Args[0].Kind())
	assert.Equal(t, expr.KindLambda, agg.Args[1].Kind())
}

func TestParse_NestedScopesShadow(t *testing.T) {
	l, err := ParseLambda("x => (x string) => x.Length()")
	require.NoError(t, err)

	inner := l.Body.(*expr.Lambda)
	call := inner.Body.(*expr.Call)
	assert.Same(t, inner.Params[0], call.Object)
	assert.NotSame(t, l.Params[0], call.Object)
}

func TestParse_RoundTrip(t *testing.T) {
	sources := []string{
		factorial,
		"(a, b) => a + b * 2 - 1",
		"() => 1 + 2 + 3 + 4",
		"(s string) => s.ToUpper().Length() > 3 && !s.Contains(\"x\")",
		"(xs seq[int]) => xs.Where(x => x % 2 == 0).Select(x => x * x).Sum()",
		"(a bool, b bool) => a ? 1 : b ? 2 : 3",
		"x => -x * 2 - -x",
		"a => b => a + b",
		"(f func(int, int) int) => Enumerable.Range(1, 3).Aggregate(f)",
		"(a, b) => Math.Max(a, Math.Abs(b)) >= Math.Min(a, b) || a != b",
		"() => \"tab\\there\" + \"\\\"q\\\"\"",
		"(x) => !(x <= 3) == (x > 3)",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			n, err := Parse(src)
			require.NoError(t, err)
			formatted := expr.Format(n)

			again, err := Parse(formatted)
			require.NoError(t, err, "formatted source: %s", formatted)
			assert.Equal(t, formatted, expr.Format(again))
			assert.Equal(t, expr.Count(n), expr.Count(again))
		})
	}
}

func TestParse_MinIntRoundTrip(t *testing.T) {
	n, err := Parse("() => -9223372036854775807 - 1")
	require.NoError(t, err)
	folded, err := eval.Fold(n)
	require.NoError(t, err)
	formatted := expr.Format(folded)
	assert.Equal(t, "() => -9223372036854775808", formatted)

	again, err := Parse(formatted)
	require.NoError(t, err)
	assert.Equal(t, formatted, expr.Format(again))
	assert.Equal(t, expr.Int(math.MinInt64), again.(*expr.Lambda).Body.(*expr.Constant).Value)

	_, err = Parse("() => 9223372036854775808")
	assert.ErrorContains(t, err, "out of range")
	_, err = Parse("() => -9223372036854775808.Abs()")
	assert.ErrorContains(t, err, "out of range")
}

func TestParse_ErrorsArePositioned(t *testing.T) {
	_, err := Parse(`(a) => a + "x"`)
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 9, perr.Pos)
	assert.True(t, errors.Is(err, expr.ErrTypeMismatch))
}

func TestParse_MaxDepth(t *testing.T) {
	_, err := Parse("((((1))))", WithMaxDepth(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested deeper than 3")

	n, err := Parse("((((1))))", WithMaxDepth(10))
	require.NoError(t, err)
	assert.Equal(t, "1", expr.Format(n))
}

func TestParse_WithCatalog(t *testing.T) {
	double := &expr.Method{
		DeclaringType: "Calc", Name: "Double", Static: true,
		Check: func(_ expr.Type, args []expr.Type) (expr.Type, error) {
			if len(args) != 1 || args[0] != expr.IntType {
				return nil, errors.New("want one int argument")
			}
			return expr.IntType, nil
		},
	}
	cat := expr.NewCatalog(double)

	n, err := Parse("x => Calc.Double(x)", WithCatalog(cat))
	require.NoError(t, err)
	assert.Equal(t, "(x) => Calc.Double(x)", expr.Format(n))

	_, err = Parse("x => Math.Abs(x)", WithCatalog(cat))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined: Math")
}

func TestParseLambda_RejectsNonLambda(t *testing.T) {
	_, err := ParseLambda("1 + 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a lambda, got Add expression")
}

func TestLex(t *testing.T) {
	toks, err := lex(`(a)=>a>=1&&"x\n"!=b`)
	require.NoError(t, err)

	var got []string
	for _, tok := range toks {
		got = append(got, tok.String())
	}
	assert.Equal(t, []string{"(", "a", ")", "=>", "a", ">=", "1", "&&", `"x\n"`, "!=", "b", "end of input"}, got)
	assert.Equal(t, 3, toks[3].pos)
}
