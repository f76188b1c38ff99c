package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibesql/vibedb/internal/dberr"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var dbErr *dberr.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, code, dbErr.Code)
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		errCode string
	}{
		{"empty string", "", dberr.CodeMissingRequiredField},
		{"whitespace only", "   \t\n  ", dberr.CodeMissingRequiredField},
		{"select", "SELECT 1", ""},
		{"lowercase insert", "insert into t values (1)", ""},
		{"cte", "WITH x AS (SELECT 1) SELECT * FROM x", ""},
		{"leading whitespace", "\n  DELETE FROM t WHERE id = ?", ""},
		{"pragma", "PRAGMA table_info(users)", ""},
		{"garbage", "HELLO world", dberr.CodeInvalidSQL},
		{"too large", "SELECT '" + strings.Repeat("a", MaxQuerySize) + "'", dberr.CodeQueryTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.sql)
			if tt.errCode == "" {
				assert.NoError(t, err)
				return
			}
			requireCode(t, err, tt.errCode)
		})
	}
}

func TestValidateQuery_ExactlyMaxSize(t *testing.T) {
	sql := "SELECT " + strings.Repeat("1", MaxQuerySize-len("SELECT "))
	require.Len(t, sql, MaxQuerySize)
	assert.NoError(t, ValidateQuery(sql))
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		ident   string
		errCode string
	}{
		{"plain", "users", ""},
		{"underscore", "_user_roles2", ""},
		{"schema qualified", "public.users", ""},
		{"empty", "", dberr.CodeMissingRequiredField},
		{"leading digit", "1users", dberr.CodeInvalidSQL},
		{"injection", "users; DROP TABLE users", dberr.CodeInvalidSQL},
		{"quoted", `"users"`, dberr.CodeInvalidSQL},
		{"three parts", "db.public.users", dberr.CodeInvalidSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier("table", tt.ident)
			if tt.errCode == "" {
				assert.NoError(t, err)
				return
			}
			requireCode(t, err, tt.errCode)
		})
	}
}

func TestValidateWrite(t *testing.T) {
	values := Params{}.Set("username", "felixkiss").Set("city", "Vienna, Austria")
	assert.NoError(t, ValidateWrite("users", values))

	requireCode(t, ValidateWrite("users", nil), dberr.CodeMissingRequiredField)
	requireCode(t, ValidateWrite("users; --", values), dberr.CodeInvalidSQL)
	requireCode(t, ValidateWrite("users", Params{}.Set("city = 1, admin", true)), dberr.CodeInvalidSQL)
}

func TestCheckResultSize(t *testing.T) {
	tests := []struct {
		rows    int
		wantErr bool
	}{
		{0, false},
		{500, false},
		{MaxResultRows, false},
		{MaxResultRows + 1, true},
		{2 * MaxResultRows, true},
	}

	for _, tt := range tests {
		err := CheckResultSize(tt.rows)
		if !tt.wantErr {
			assert.NoError(t, err, "rows=%d", tt.rows)
			continue
		}
		requireCode(t, err, dberr.CodeResultTooLarge)
	}
}
