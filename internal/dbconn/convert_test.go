package dbconn

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibesql/vibedb/internal/query"
)

type level int16

type color string

type point struct{ X, Y int }

func (p point) String() string { return "(1,2)" }

func TestConvert(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	name := "felix"

	tests := []struct {
		name  string
		value any
		typ   query.ParamType
		want  any
	}{
		{"null", "ignored", query.ParamNull, nil},
		{"bool", true, query.ParamBool, true},
		{"int", 123, query.ParamInt, int64(123)},
		{"named int", level(-3), query.ParamInt, int64(-3)},
		{"uint", uint32(7), query.ParamInt, int64(7)},
		{"string", "baz", query.ParamStr, "baz"},
		{"named string", color("red"), query.ParamStr, "red"},
		{"float", 3.14, query.ParamStr, "3.14"},
		{"float32", float32(0.5), query.ParamStr, "0.5"},
		{"whole float", 2.0, query.ParamStr, "2"},
		{"bytes", []byte("raw"), query.ParamStr, []byte("raw")},
		{"time", now, query.ParamStr, now},
		{"valuer", sql.NullString{String: "x", Valid: true}, query.ParamStr, sql.NullString{String: "x", Valid: true}},
		{"stringer", point{1, 2}, query.ParamStr, "(1,2)"},
		{"pointer", &name, query.ParamStr, "felix"},
		{"slice", []int{1, 2}, query.ParamStr, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_Mismatch(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   query.ParamType
	}{
		{"string as bool", "true", query.ParamBool},
		{"string as int", "12", query.ParamInt},
		{"float as int", 1.5, query.ParamInt},
		{"uint64 overflow", uint64(math.MaxUint64), query.ParamInt},
		{"unknown type", 1, query.ParamType(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convert(tt.value, tt.typ)
			assert.ErrorIs(t, err, ErrBindType)
		})
	}
}
