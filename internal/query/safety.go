package query

import (
	"regexp"
	"strings"

	"github.com/vibesql/vibedb/internal/dberr"
)

var (
	whereClausePattern = regexp.MustCompile(`\bWHERE\b`)
	singleLineComment  = regexp.MustCompile(`--[^\n]*`)
	multiLineComment   = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	stringLiteral      = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// CheckSafety rejects UPDATE and DELETE statements without a WHERE clause.
// "WHERE 1=1" opts in to touching every row.
func CheckSafety(sql string) error {
	upperSQL := strings.ToUpper(strings.TrimSpace(sql))

	for _, verb := range []string{"UPDATE", "DELETE"} {
		if strings.HasPrefix(upperSQL, verb) && !hasWhereClause(sql) {
			return unsafeQuery(verb)
		}
	}
	return nil
}

// CheckWhere applies CheckSafety to the where clause handed to Update.
func CheckWhere(where string) error {
	if !hasWhereClause(where) {
		return unsafeQuery("UPDATE")
	}
	return nil
}

func unsafeQuery(verb string) *dberr.Error {
	return dberr.New(
		dberr.CodeUnsafeQuery,
		"Unsafe query: "+verb+" without WHERE clause",
		verb+" statements must include a WHERE clause. Use 'WHERE 1=1' to affect all rows explicitly",
	)
}

// hasWhereClause looks for a WHERE keyword outside comments and string
// literals. Nested /* */ comments are not supported.
func hasWhereClause(sql string) bool {
	sql = removeComments(sql)
	sql = removeStringLiterals(sql)
	return whereClausePattern.MatchString(strings.ToUpper(sql))
}

func removeComments(sql string) string {
	sql = singleLineComment.ReplaceAllString(sql, "")
	return multiLineComment.ReplaceAllString(sql, "")
}

// removeStringLiterals blanks '...' literals, including doubled-quote escapes.
func removeStringLiterals(sql string) string {
	return stringLiteral.ReplaceAllString(sql, "''")
}
