package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

const factorial = "(n) => n == 0 ? 1 : Enumerable.Range(1, n).Aggregate((a, b) => a * b)"

func compile(t *testing.T, src string) *Func {
	t.Helper()
	l, err := parser.ParseLambda(src)
	require.NoError(t, err)
	f, err := Compile(l)
	require.NoError(t, err)
	return f
}

func TestInvoke_Factorial(t *testing.T) {
	f := compile(t, factorial)
	for _, tc := range []struct{ n, want int64 }{{0, 1}, {1, 1}, {5, 120}, {10, 3628800}} {
		v, err := f.Invoke(expr.Int(tc.n))
		require.NoError(t, err)
		assert.Equal(t, expr.Int(tc.want), v, "n=%d", tc.n)
	}
}

func TestInvoke_Table(t *testing.T) {
	tests := []struct {
		src  string
		args []expr.Value
		want expr.Value
	}{
		{"(a, b) => a + b", []expr.Value{expr.Int(2), expr.Int(3)}, expr.Int(5)},
		{"(a, b) => a - b * 2", []expr.Value{expr.Int(10), expr.Int(3)}, expr.Int(4)},
		{"(a, b) => a / b + a % b", []expr.Value{expr.Int(7), expr.Int(2)}, expr.Int(4)},
		{"x => -x", []expr.Value{expr.Int(4)}, expr.Int(-4)},
		{"(s string) => s + \"!\"", []expr.Value{expr.Str("hi")}, expr.Str("hi!")},
		{"(s string) => s.ToUpper().Length()", []expr.Value{expr.Str("héllo")}, expr.Int(5)},
		{"(s string) => s.Contains(\"ell\") && !(s < \"a\")", []expr.Value{expr.Str("hello")}, expr.Bool(true)},
		{"(a, b) => a >= b || a == 0", []expr.Value{expr.Int(1), expr.Int(2)}, expr.Bool(false)},
		{"(a bool, b bool) => a ? 1 : b ? 2 : 3", []expr.Value{expr.Bool(false), expr.Bool(true)}, expr.Int(2)},
		{"(a, b) => Math.Max(a, Math.Abs(b)) - Math.Min(a, b)", []expr.Value{expr.Int(2), expr.Int(-7)}, expr.Int(14)},
		{
			"(xs seq[int]) => xs.Where(x => x % 2 == 0).Select(x => x * x).Sum()",
			[]expr.Value{expr.Seq{Elem: expr.IntType, Items: []expr.Value{expr.Int(1), expr.Int(2), expr.Int(3), expr.Int(4)}}},
			expr.Int(20),
		},
		{"(n) => Enumerable.Range(1, n).Count()", []expr.Value{expr.Int(0)}, expr.Int(0)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := compile(t, tt.src).Invoke(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestInvoke_Closures(t *testing.T) {
	f := compile(t, "a => b => a + b")
	inner, err := f.Invoke(expr.Int(10))
	require.NoError(t, err)

	add10, ok := inner.(expr.Invoker)
	require.True(t, ok)
	assert.Equal(t, "func(int) int", add10.Type().String())

	v, err := add10.Invoke(expr.Int(5))
	require.NoError(t, err)
	assert.Equal(t, expr.Int(15), v)
}

func TestInvoke_ShortCircuit(t *testing.T) {
	v, err := compile(t, "x => x == 0 || 10 / x > 1").Invoke(expr.Int(0))
	require.NoError(t, err)
	assert.Equal(t, expr.Bool(true), v)

	v, err = compile(t, "x => x != 0 && 10 / x > 1").Invoke(expr.Int(0))
	require.NoError(t, err)
	assert.Equal(t, expr.Bool(false), v)

	v, err = compile(t, "x => x == 0 ? 0 : 10 / x").Invoke(expr.Int(0))
	require.NoError(t, err)
	assert.Equal(t, expr.Int(0), v)
}

func TestInvoke_Errors(t *testing.T) {
	_, err := compile(t, "(a, b) => a / b").Invoke(expr.Int(1), expr.Int(0))
	assert.ErrorIs(t, err, ErrDivideByZero)

	_, err = compile(t, "(a, b) => a % b").Invoke(expr.Int(1), expr.Int(0))
	assert.ErrorIs(t, err, ErrDivideByZero)

	_, err = compile(t, "(a, b) => a").Invoke(expr.Int(1))
	assert.ErrorContains(t, err, "want 2 argument(s), got 1")

	_, err = compile(t, "a => a").Invoke(expr.Str("x"))
	assert.ErrorIs(t, err, expr.ErrTypeMismatch)

	_, err = compile(t, "(n) => Enumerable.Range(1, n).Aggregate((a, b) => a * b)").Invoke(expr.Int(0))
	assert.ErrorIs(t, err, expr.ErrEmptySequence)
}

func TestCompile_RejectsFreeParameters(t *testing.T) {
	x := expr.Must(expr.NewParameter("x", expr.IntType))
	l := expr.Must(expr.NewLambda("", expr.Must(expr.Add(x, x))))

	_, err := Compile(l)
	assert.ErrorIs(t, err, ErrUnbound)

	v, err := Evaluate(l.Body, Env{x: expr.Int(21)})
	require.NoError(t, err)
	assert.Equal(t, expr.Int(42), v)
}

func TestEvaluate_Extension(t *testing.T) {
	seven := expr.Must(expr.NewConstant(expr.Int(7)))
	reducible := expr.Must(expr.NewExtension("Seven", expr.IntType, func() (expr.Node, error) { return seven, nil }))
	v, err := Evaluate(expr.Must(expr.Add(reducible, seven)), nil)
	require.NoError(t, err)
	assert.Equal(t, expr.Int(14), v)

	opaque := expr.Must(expr.NewExtension("Opaque", expr.IntType, nil))
	_, err = Evaluate(opaque, nil)
	assert.True(t, errors.Is(err, ErrIrreducible))
	assert.Contains(t, err.Error(), "Opaque")
}

func TestFold(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"() => 1 + 2 + 3 + 4", "() => 10"},
		{"x => x + 2 * 3", "(x) => (x + 6)"},
		{"() => Enumerable.Range(1, 5).Aggregate((a, b) => a * b)", "() => 120"},
		{"x => x > 0 ? 1 / 0 : 1", "(x) => ((x > 0) ? (1 / 0) : 1)"},
		{"x => Enumerable.Range(1, 3).Select(y => y + x).Sum()", "(x) => Enumerable.Sum(Enumerable.Select(Enumerable.Range(1, 3), (y) => (y + x)))"},
		{"() => \"ab\".ToUpper() + \"c\"", "() => \"ABc\""},
		{factorial, "(n) => ((n == 0) ? 1 : Enumerable.Aggregate(Enumerable.Range(1, n), (a, b) => (a * b)))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := parser.Parse(tt.src)
			require.NoError(t, err)
			folded, err := Fold(n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Format(folded))
		})
	}
}

func TestFold_ConstantBody(t *testing.T) {
	n, err := parser.Parse("() => 1 + 2 + 3 + 4")
	require.NoError(t, err)
	folded, err := Fold(n)
	require.NoError(t, err)

	l := folded.(*expr.Lambda)
	c, ok := l.Body.(*expr.Constant)
	require.True(t, ok)
	assert.Equal(t, expr.Int(10), c.Value)
	assert.Equal(t, 8, expr.Count(n), "input is left unchanged")
}

func TestFold_KeepsExtensions(t *testing.T) {
	ext := expr.Must(expr.NewExtension("Opaque", expr.IntType, nil))
	one := expr.Must(expr.NewConstant(expr.Int(1)))
	folded, err := Fold(expr.Must(expr.Add(ext, expr.Must(expr.Add(one, one)))))
	require.NoError(t, err)
	assert.Equal(t, "(<Opaque> + 2)", expr.Format(folded))
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		typ  string
		in   string
		want expr.Value
	}{
		{"int", " 42", expr.Int(42)},
		{"int", "-3", expr.Int(-3)},
		{"bool", "true", expr.Bool(true)},
		{"string", " padded ", expr.Str(" padded ")},
		{"seq[int]", "[1, 2, 3]", expr.Seq{Elem: expr.IntType, Items: []expr.Value{expr.Int(1), expr.Int(2), expr.Int(3)}}},
		{"seq[int]", "[]", expr.Seq{Elem: expr.IntType, Items: []expr.Value{}}},
		{"seq[bool]", "true,false", expr.Seq{Elem: expr.BoolType, Items: []expr.Value{expr.Bool(true), expr.Bool(false)}}},
	}
	for _, tt := range tests {
		v, err := ParseArg(expr.MustParseType(tt.typ), tt.in)
		require.NoError(t, err, "%s %q", tt.typ, tt.in)
		assert.Equal(t, tt.want, v)
	}

	_, err := ParseArg(expr.IntType, "x")
	assert.Error(t, err)
	_, err = ParseArg(expr.MustParseType("func(int) int"), "x => x")
	assert.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	l, err := parser.ParseLambda("(n, s string) => s.Length() + n")
	require.NoError(t, err)

	args, err := ParseArgs(l, []string{"2", "abc"})
	require.NoError(t, err)
	v, err := compile(t, "(n, s string) => s.Length() + n").Invoke(args...)
	require.NoError(t, err)
	assert.Equal(t, expr.Int(5), v)

	_, err = ParseArgs(l, []string{"2"})
	assert.ErrorContains(t, err, "want 2 argument(s), got 1")
}
