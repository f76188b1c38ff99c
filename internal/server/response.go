package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vibesql/vibedb/internal/dberr"
	"github.com/vibesql/vibedb/internal/query"
)

// ExecuteRequest is the body of /v1/execute.
type ExecuteRequest struct {
	SQL      string       `json:"sql"`
	Params   query.Params `json:"params"`
	ReadOnly bool         `json:"readOnly"`
}

// QueryRequest is the body of /v1/lists and /v1/pluck.
type QueryRequest struct {
	SQL    string       `json:"sql"`
	Params query.Params `json:"params"`
}

// InsertRequest is the body of /v1/insert. Values keys are column names.
type InsertRequest struct {
	Table  string       `json:"table"`
	Values query.Params `json:"values"`
}

// UpdateRequest is the body of /v1/update.
type UpdateRequest struct {
	Table       string       `json:"table"`
	Values      query.Params `json:"values"`
	Where       string       `json:"where"`
	WhereParams query.Params `json:"whereParams"`
}

type ExecuteResponse struct {
	Success       bool    `json:"success"`
	RowsAffected  int64   `json:"rowsAffected"`
	ExecutionTime float64 `json:"executionTime"`
}

type ListsResponse struct {
	Success       bool    `json:"success"`
	Values        []any   `json:"values"`
	RowCount      int     `json:"rowCount"`
	ExecutionTime float64 `json:"executionTime"`
}

// PluckResponse carries a null value with found=false when no row matched,
// which keeps it apart from a row whose column is NULL.
type PluckResponse struct {
	Success       bool    `json:"success"`
	Value         any     `json:"value"`
	Found         bool    `json:"found"`
	ExecutionTime float64 `json:"executionTime"`
}

type WriteResponse struct {
	Success       bool    `json:"success"`
	ExecutionTime float64 `json:"executionTime"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorDetail represents error information in the response
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewErrorResponse creates an error response from a classified error
func NewErrorResponse(err *dberr.Error) *ErrorResponse {
	if err == nil {
		return &ErrorResponse{
			Error: &ErrorDetail{
				Code:    dberr.CodeInternalError,
				Message: "Unknown error occurred",
			},
		}
	}

	return &ErrorResponse{
		Error: &ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Detail:  err.Detail,
		},
	}
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	return encoder.Encode(v)
}

// WriteError writes an error response with appropriate HTTP status code
func WriteError(w http.ResponseWriter, err *dberr.Error) error {
	response := NewErrorResponse(err)
	statusCode := dberr.HTTPStatus(response.Error.Code)
	return WriteJSON(w, statusCode, response)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
