package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "null", in: `null`},
		{name: "bool", in: `true`},
		{name: "number", in: `42.5`},
		{name: "string", in: `"hello"`},
		{name: "array", in: `[1,"two",false,null]`},
		{name: "object", in: `{"a":1,"b":{"c":[true,null]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue([]byte(tt.in))
			require.NoError(t, err)

			out, err := json.Marshal(v)
			require.NoError(t, err)

			// Compare decoded forms so object key order is irrelevant.
			var want, got any
			require.NoError(t, json.Unmarshal([]byte(tt.in), &want))
			require.NoError(t, json.Unmarshal(out, &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestValueNavigation(t *testing.T) {
	v, err := ParseValue([]byte(`{"command":"git status","count":3,"nested":{"ok":true}}`))
	require.NoError(t, err)

	assert.Equal(t, KindObject, v.Kind())
	assert.Equal(t, "git status", v.Field("command").Str())
	assert.Equal(t, 3.0, v.Field("count").Float())
	assert.True(t, v.Field("nested").Field("ok").Truth())
	assert.True(t, v.Field("missing").IsNull())
	assert.True(t, v.Has("command"))
	assert.False(t, v.Has("missing"))
}

func TestValueScalarAccessorsOnWrongKind(t *testing.T) {
	s := String("text")
	assert.Equal(t, "", Number(1).Str())
	assert.Equal(t, 0.0, s.Float())
	assert.False(t, s.Truth())
	assert.Nil(t, s.Items())
	assert.True(t, s.Field("x").IsNull())
}

func TestValueInvalidJSON(t *testing.T) {
	_, err := ParseValue([]byte(`{not json`))
	assert.Error(t, err)
}
