// Package dberr classifies database and request errors into stable error
// codes for the HTTP API and the CLI. The query executor itself never
// translates errors; only the outer surfaces call Translate.
package dberr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// Error codes
const (
	CodeInvalidSQL           = "INVALID_SQL"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeUnsafeQuery          = "UNSAFE_QUERY"
	CodeQueryTimeout         = "QUERY_TIMEOUT"
	CodeQueryTooLarge        = "QUERY_TOO_LARGE"
	CodeResultTooLarge       = "RESULT_TOO_LARGE"
	CodeDocumentTooLarge     = "DOCUMENT_TOO_LARGE"
	CodeConstraintViolation  = "CONSTRAINT_VIOLATION"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeDatabaseUnavailable  = "DATABASE_UNAVAILABLE"
)

// Error is a classified error.
type Error struct {
	Code    string
	Message string
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message, detail string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Detail:  detail,
	}
}

// SQLSTATE to error code mapping
var sqlStateToCode = map[string]string{
	// Syntax errors
	"42601": CodeInvalidSQL, // syntax_error
	"42703": CodeInvalidSQL, // undefined_column
	"42P01": CodeInvalidSQL, // undefined_table
	"42P02": CodeInvalidSQL, // undefined_parameter
	"42883": CodeInvalidSQL, // undefined_function
	"42804": CodeInvalidSQL, // datatype_mismatch
	"22P02": CodeInvalidSQL, // invalid_text_representation

	// Integrity constraints
	"23502": CodeConstraintViolation, // not_null_violation
	"23503": CodeConstraintViolation, // foreign_key_violation
	"23505": CodeConstraintViolation, // unique_violation
	"23514": CodeConstraintViolation, // check_violation

	// Query cancellation
	"57014": CodeQueryTimeout, // query_canceled

	// Resource limits
	"53000": CodeDatabaseUnavailable, // insufficient_resources
	"53100": CodeDatabaseUnavailable, // disk_full
	"53200": CodeDatabaseUnavailable, // out_of_memory
	"53300": CodeDatabaseUnavailable, // too_many_connections
	"53400": CodeDatabaseUnavailable, // configuration_limit_exceeded

	// Connection errors
	"08000": CodeDatabaseUnavailable, // connection_exception
	"08003": CodeDatabaseUnavailable, // connection_does_not_exist
	"08006": CodeDatabaseUnavailable, // connection_failure
	"08001": CodeDatabaseUnavailable, // sqlclient_unable_to_establish_sqlconnection
	"08004": CodeDatabaseUnavailable, // sqlserver_rejected_establishment_of_sqlconnection

	// Size limits
	"54000": CodeDocumentTooLarge, // program_limit_exceeded
	"54001": CodeDocumentTooLarge, // statement_too_complex
}

// SQLite primary result codes to error code mapping
var sqliteResultToCode = map[int]string{
	1:  CodeInvalidSQL,          // SQLITE_ERROR
	5:  CodeDatabaseUnavailable, // SQLITE_BUSY
	6:  CodeDatabaseUnavailable, // SQLITE_LOCKED
	7:  CodeDatabaseUnavailable, // SQLITE_NOMEM
	9:  CodeQueryTimeout,        // SQLITE_INTERRUPT
	13: CodeDatabaseUnavailable, // SQLITE_FULL
	14: CodeDatabaseUnavailable, // SQLITE_CANTOPEN
	18: CodeDocumentTooLarge,    // SQLITE_TOOBIG
	19: CodeConstraintViolation, // SQLITE_CONSTRAINT
	20: CodeInvalidSQL,          // SQLITE_MISMATCH
	25: CodeInvalidSQL,          // SQLITE_RANGE
}

// Translate classifies err. Errors that are already classified are returned
// as-is; unknown errors become INTERNAL_ERROR.
func Translate(err error) *Error {
	if err == nil {
		return nil
	}

	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(
			CodeQueryTimeout,
			"Query execution timeout",
			"Query exceeded the maximum execution time",
		)
	}

	if errors.Is(err, context.Canceled) {
		return New(
			CodeQueryTimeout,
			"Query execution canceled",
			"Query was canceled before completion",
		)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translatePQError(pqErr)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return translateSQLiteError(liteErr)
	}

	return New(
		CodeInternalError,
		"An internal error occurred",
		err.Error(),
	)
}

func translatePQError(pqErr *pq.Error) *Error {
	code, found := sqlStateToCode[string(pqErr.Code)]
	if !found {
		code = CodeInternalError
	}

	message := buildMessage(code, pqErr.Message)
	detail := buildPQDetail(pqErr)

	return New(code, message, detail)
}

func translateSQLiteError(liteErr *sqlite.Error) *Error {
	// extended result codes carry the primary code in the low byte
	code, found := sqliteResultToCode[liteErr.Code()&0xff]
	if !found {
		code = CodeInternalError
	}

	return New(code, buildMessage(code, liteErr.Error()), "SQLite error: "+liteErr.Error())
}

func buildMessage(code, driverMessage string) string {
	switch code {
	case CodeInvalidSQL:
		return "Invalid SQL syntax"
	case CodeQueryTimeout:
		return "Query execution timeout"
	case CodeDatabaseUnavailable:
		return "Database is unavailable"
	case CodeDocumentTooLarge:
		return "Document too large"
	case CodeConstraintViolation:
		return "Constraint violation"
	default:
		if driverMessage != "" {
			return driverMessage
		}
		return "An error occurred"
	}
}

func buildPQDetail(pqErr *pq.Error) string {
	detail := fmt.Sprintf("PostgreSQL error: %s", pqErr.Message)

	if pqErr.Detail != "" {
		detail += fmt.Sprintf(" | Detail: %s", pqErr.Detail)
	}

	if pqErr.Hint != "" {
		detail += fmt.Sprintf(" | Hint: %s", pqErr.Hint)
	}

	if pqErr.Position != "" {
		detail += fmt.Sprintf(" | Position: %s", pqErr.Position)
	}

	return detail
}

// HTTPStatus returns the HTTP status code for an error code.
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidSQL, CodeMissingRequiredField, CodeUnsafeQuery:
		return http.StatusBadRequest
	case CodeQueryTimeout:
		return http.StatusRequestTimeout
	case CodeQueryTooLarge, CodeResultTooLarge, CodeDocumentTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeConstraintViolation:
		return http.StatusConflict
	case CodeServiceUnavailable, CodeDatabaseUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
