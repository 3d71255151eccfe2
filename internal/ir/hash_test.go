package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprtrace/internal/expr"
	"github.com/roach88/exprtrace/internal/parser"
)

func TestHashWithDomain_NullSeparator(t *testing.T) {
	sum := sha256.Sum256([]byte("d\x00data"))
	assert.Equal(t, hex.EncodeToString(sum[:]), hashWithDomain("d", []byte("data")))
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestFingerprint_Deterministic(t *testing.T) {
	n1, err := parser.Parse("(a, b) => a + b")
	require.NoError(t, err)
	n2, err := parser.Parse("(a,b)=>a+b")
	require.NoError(t, err)

	fp1, err := Fingerprint(n1)
	require.NoError(t, err)
	assert.Len(t, fp1, 64)
	assert.Equal(t, fp1, MustFingerprint(n2), "whitespace does not matter")

	n3, err := parser.Parse("(a, b) => b + a")
	require.NoError(t, err)
	assert.NotEqual(t, fp1, MustFingerprint(n3))
}

func TestFingerprint_MatchesObject(t *testing.T) {
	n, err := parser.Parse("x => x * 2")
	require.NoError(t, err)
	obj, err := Encode(n)
	require.NoError(t, err)

	fromObj, err := FingerprintObject(obj)
	require.NoError(t, err)
	assert.Equal(t, MustFingerprint(n), fromObj)
}

func TestFingerprint_Extension(t *testing.T) {
	ext := expr.Must(expr.NewExtension("Opaque", expr.IntType, nil))
	_, err := Fingerprint(ext)
	assert.ErrorIs(t, err, ErrNotEncodable)
	assert.Panics(t, func() { MustFingerprint(ext) })
}

func TestFingerprint_StringConstantsNotNormalized(t *testing.T) {
	composed, err := parser.Parse("() => \"\u00e9\".Length()")
	require.NoError(t, err)
	decomposed, err := parser.Parse("() => \"e\u0301\".Length()")
	require.NoError(t, err)

	assert.NotEqual(t, MustFingerprint(composed), MustFingerprint(decomposed))
}

func TestTraceDigest(t *testing.T) {
	a := TraceDigest("fp", "out")
	assert.Len(t, a, 64)
	assert.Equal(t, a, TraceDigest("fp", "out"))
	assert.NotEqual(t, a, TraceDigest("fp", "out2"))
	assert.NotEqual(t, TraceDigest("f", "pout"), TraceDigest("fp", "out"))
}
