package server

import (
	"errors"
	"fmt"

	"github.com/vibesql/vibedb/internal/dbconn"
	"github.com/vibesql/vibedb/internal/dberr"
	"github.com/vibesql/vibedb/internal/query"
)

// Classify maps any error returned while serving a request to a classified
// error. Local sentinels are recognised first, everything else goes through
// dberr.Translate.
func Classify(err error) *dberr.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, query.ErrNoValues):
		return dberr.New(dberr.CodeMissingRequiredField, "Missing required field: values", err.Error())
	case errors.Is(err, dbconn.ErrUnknownParameter),
		errors.Is(err, dbconn.ErrUnboundParameter),
		errors.Is(err, dbconn.ErrBindType),
		errors.Is(err, dbconn.ErrMixedPlaceholders):
		return dberr.New(dberr.CodeInvalidSQL, "Invalid query parameters", err.Error())
	case errors.Is(err, query.ErrNoConnection):
		return NewDatabaseUnavailableError(err.Error())
	}
	return dberr.Translate(err)
}

// NewMissingFieldError creates an error for a missing required field
func NewMissingFieldError(fieldName string) *dberr.Error {
	return dberr.New(
		dberr.CodeMissingRequiredField,
		fmt.Sprintf("Missing required field: %s", fieldName),
		fmt.Sprintf("The request must include a '%s' field", fieldName),
	)
}

// NewInvalidRequestError is used for requests that cannot be decoded.
func NewInvalidRequestError(detail string) *dberr.Error {
	return dberr.New(dberr.CodeInvalidSQL, "Invalid request", detail)
}

func NewRequestTooLargeError(maxBytes int64) *dberr.Error {
	return dberr.New(
		dberr.CodeDocumentTooLarge,
		"Request too large",
		fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytes),
	)
}

func NewDatabaseUnavailableError(reason string) *dberr.Error {
	return dberr.New(dberr.CodeDatabaseUnavailable, "Database unavailable", reason)
}
