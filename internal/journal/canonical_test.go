package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": true, "y": nil}}, `{"a":2,"b":1,"c":{"y":null,"z":true}}`},
		{"struct tags", payload{Op: "add", N: 3}, `{"n":3,"op":"add"}`},
		{"no html escaping", "<a & b>", `"<a & b>"`},
		{"control chars", "a\nb\x01", `"a\nb\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"large int", int64(1) << 60, `1152921504606846976`},
		{"array", []any{1, "x", false}, `[1,"x",false]`},
		{"nil", nil, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16
	got, err := MarshalCanonical(map[string]int{"\U0001F600": 1, "\uff61": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uff61\":2}", string(got))
}

func TestMarshalCanonical_Unsupported(t *testing.T) {
	_, err := MarshalCanonical(make(chan int))
	assert.Error(t, err)
}

func TestEventID_Stable(t *testing.T) {
	a, err := EventID("run-1", 1, "applied", []byte(`{"op":"add"}`))
	require.NoError(t, err)
	b, err := EventID("run-1", 1, "applied", []byte(`{"op":"add"}`))
	require.NoError(t, err)
	c, err := EventID("run-2", 1, "applied", []byte(`{"op":"add"}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestHashWithDomain_Separator(t *testing.T) {
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestUUIDv7Generator(t *testing.T) {
	var gen RunIDGenerator = UUIDv7Generator{}
	a := gen.NewRunID()
	b := gen.NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
