package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input IRValue
		want  string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"true", IRBool(true), "true"},
		{"false", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array", IRArray{IRInt(1), IRString("two"), IRBool(false)}, `[1,"two",false]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_NestedKeysSorted(t *testing.T) {
	obj := IRObject{
		"right": IRObject{"value": IRInt(1), "kind": IRString("Constant")},
		"left":  IRObject{"name": IRString("a"), "kind": IRString("Parameter")},
		"kind":  IRString("Add"),
	}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"Add","left":{"kind":"Parameter","name":"a"},"right":{"kind":"Constant","value":1}}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical(IRString(`a < b && c > "d"`))
	require.NoError(t, err)
	assert.Equal(t, `"a < b && c > \"d\""`, string(got))
}

func TestMarshalCanonical_ControlCharactersEscaped(t *testing.T) {
	got, err := MarshalCanonical(IRString("tab\there\nnul\x00"))
	require.NoError(t, err)
	assert.Equal(t, `"tab\there\nnul\u0000"`, string(got))
}

func TestMarshalCanonical_NFCKeys(t *testing.T) {
	composed, err := MarshalCanonical(IRObject{"caf\u00e9": IRInt(1)})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(IRObject{"cafe\u0301": IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_StringValuesExact(t *testing.T) {
	composed, err := MarshalCanonical(IRString("caf\u00e9"))
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(IRString("cafe\u0301"))
	require.NoError(t, err)
	assert.NotEqual(t, composed, decomposed)
	assert.Equal(t, "\"cafe\u0301\"", string(decomposed))
}

func TestMarshalCanonical_LineSeparatorsRaw(t *testing.T) {
	ls, ps := string(rune(0x2028)), string(rune(0x2029))

	got, err := MarshalCanonical(IRString("a" + ls + "b" + ps))
	require.NoError(t, err)
	assert.Equal(t, `"a`+ls+"b"+ps+`"`, string(got))

	// A literal backslash followed by the text u2028 stays escaped.
	literal := `\` + "u2028"
	got, err = MarshalCanonical(IRString(literal))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
	assert.NotContains(t, string(got), ls)
}

func TestMarshalCanonical_RejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")

	_, err = MarshalCanonical(IRArray{IRInt(1), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
}

func TestMarshalCanonical_Idempotent(t *testing.T) {
	values := []IRValue{
		IRString("hello"),
		IRArray{IRInt(1), IRString("two")},
		IRObject{"nested": IRObject{"args": IRArray{IRInt(1), IRInt(2)}}, "kind": IRString("Call")},
	}
	for _, v := range values {
		first, err := MarshalCanonical(v)
		require.NoError(t, err)
		back, err := UnmarshalIRValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(back)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.False(t, strings.ContainsAny(string(first), " \n"))
	}
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add("hello", int64(1), true)
	f.Add("<script>", int64(-9), false)
	f.Add("café", int64(0), true)

	f.Fuzz(func(t *testing.T, s string, n int64, b bool) {
		obj := IRObject{s: IRArray{IRString(s), IRInt(n), IRBool(b)}}
		first, err := MarshalCanonical(obj)
		if err != nil {
			return
		}
		back, err := UnmarshalIRValue(first)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", first, err)
		}
		second, err := MarshalCanonical(back)
		if err != nil {
			t.Fatalf("remarshal: %v", err)
		}
		if string(first) != string(second) {
			t.Fatalf("not idempotent: %s != %s", first, second)
		}
	})
}
