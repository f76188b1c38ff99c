package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Params
	}{
		{
			name: "array is positional",
			in:   `["baz", 1, 2.5, true, null]`,
			want: Positional("baz", int64(1), 2.5, true, nil),
		},
		{
			name: "object keeps key order",
			in:   `{":username": "felixkiss", ":city": "Vienna", ":id": 7}`,
			want: Params{}.Set(":username", "felixkiss").Set(":city", "Vienna").Set(":id", int64(7)),
		},
		{
			name: "nested values",
			in:   `{"tags": ["a", "b"]}`,
			want: Params{}.Set("tags", []any{"a", "b"}),
		},
		{
			name: "null",
			in:   `null`,
			want: nil,
		},
		{
			name: "empty array",
			in:   `[]`,
			want: Params{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Params
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParams_UnmarshalJSON_IntegersBindAsInt(t *testing.T) {
	var p Params
	require.NoError(t, json.Unmarshal([]byte(`[10, 20]`), &p))

	for _, param := range p {
		assert.Equal(t, ParamInt, TypeOf(param.Value))
	}
}

func TestParams_UnmarshalJSON_Invalid(t *testing.T) {
	for _, in := range []string{`"sql"`, `42`, `{"a": }`, `[1, 2`} {
		var p Params
		assert.Error(t, json.Unmarshal([]byte(in), &p), in)
	}
}

func TestParams_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Positional("baz", 1))
	require.NoError(t, err)
	assert.JSONEq(t, `["baz", 1]`, string(b))

	b, err = json.Marshal(Params{}.Set(":b", 1).Set(":a", "x"))
	require.NoError(t, err)
	assert.Equal(t, `{":b":1,":a":"x"}`, string(b))
}
