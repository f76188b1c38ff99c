package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vibesql/vibedb/internal/dberr"
)

const (
	// MaxQuerySize is the maximum accepted SQL length in bytes (10KB).
	MaxQuerySize = 10 * 1024

	// MaxResultRows caps the values a single Lists request may return.
	MaxResultRows = 1000
)

var (
	// identifierPattern accepts bare and schema-qualified names. Table and
	// column names are spliced into built SQL, so nothing else is allowed.
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

	statementKeywords = []string{
		"SELECT", "INSERT", "UPDATE", "DELETE", "WITH", "VALUES",
		"CREATE", "DROP", "ALTER", "TRUNCATE", "EXPLAIN", "PRAGMA",
	}
)

// ValidateQuery checks a caller-supplied statement before it reaches the
// driver. Syntax errors are left to the database.
func ValidateQuery(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return dberr.New(
			dberr.CodeMissingRequiredField,
			"Missing required field",
			"The 'sql' field is required and cannot be empty",
		)
	}

	if len(sql) > MaxQuerySize {
		return dberr.New(
			dberr.CodeQueryTooLarge,
			"Query too large",
			fmt.Sprintf("Query size (%d bytes) exceeds maximum allowed size (%d bytes)", len(sql), MaxQuerySize),
		)
	}

	upperSQL := strings.ToUpper(trimmed)
	for _, keyword := range statementKeywords {
		if strings.HasPrefix(upperSQL, keyword) {
			return nil
		}
	}

	return dberr.New(
		dberr.CodeInvalidSQL,
		"Invalid SQL syntax",
		"Query must start with one of: "+strings.Join(statementKeywords, ", "),
	)
}

// ValidateIdentifier checks a table or column name.
func ValidateIdentifier(field, name string) error {
	if name == "" {
		return dberr.New(
			dberr.CodeMissingRequiredField,
			"Missing required field: "+field,
			fmt.Sprintf("The request must include a '%s' field", field),
		)
	}
	if !identifierPattern.MatchString(name) {
		return dberr.New(
			dberr.CodeInvalidSQL,
			"Invalid identifier",
			fmt.Sprintf("%s %q must match %s", field, name, identifierPattern.String()),
		)
	}
	return nil
}

// ValidateWrite checks the table and column names of an INSERT or UPDATE.
func ValidateWrite(table string, values Params) error {
	if err := ValidateIdentifier("table", table); err != nil {
		return err
	}
	if len(values) == 0 {
		return dberr.New(
			dberr.CodeMissingRequiredField,
			"Missing required field: values",
			ErrNoValues.Error(),
		)
	}
	for _, v := range values {
		if err := ValidateIdentifier("column", v.Key); err != nil {
			return err
		}
	}
	return nil
}
