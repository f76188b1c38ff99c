package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vibesql/vibedb/internal/query"
)

// MaxRequestSize bounds a request body. SQL text is further limited to
// query.MaxQuerySize.
const MaxRequestSize = 1 << 20

type Handler struct {
	executor query.QueryExecutor
	timeout  time.Duration
	health   func(context.Context) error
	log      zerolog.Logger
}

func NewHandler(executor query.QueryExecutor, opts Options) *Handler {
	h := &Handler{
		executor: executor,
		timeout:  opts.QueryTimeout,
		health:   opts.Health,
		log:      zerolog.Nop(),
	}
	if opts.Logger != nil {
		h.log = opts.Logger.With().Str("component", "http").Logger()
	}
	return h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/execute", h.HandleExecute)
	mux.HandleFunc("/v1/lists", h.HandleLists)
	mux.HandleFunc("/v1/pluck", h.HandlePluck)
	mux.HandleFunc("/v1/insert", h.HandleInsert)
	mux.HandleFunc("/v1/update", h.HandleUpdate)
	mux.HandleFunc("/healthz", h.HandleHealth)
}

func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.check(w, r, query.ValidateQuery(req.SQL), query.CheckSafety(req.SQL)) {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	start := time.Now()
	var (
		n   int64
		err error
	)
	if req.ReadOnly {
		n, err = h.executor.ExecuteRead(ctx, req.SQL, req.Params)
	} else {
		n, err = h.executor.Execute(ctx, req.SQL, req.Params)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.succeed(w, r, &ExecuteResponse{
		Success:       true,
		RowsAffected:  n,
		ExecutionTime: elapsedMs(start),
	})
}

// HandleLists streams the first column through Select so an oversized
// result set is rejected without reading it to the end.
func (h *Handler) HandleLists(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.check(w, r, query.ValidateQuery(req.SQL), query.CheckSafety(req.SQL)) {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	start := time.Now()
	values, err := h.fetchColumn(ctx, req.SQL, req.Params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.succeed(w, r, &ListsResponse{
		Success:       true,
		Values:        values,
		RowCount:      len(values),
		ExecutionTime: elapsedMs(start),
	})
}

func (h *Handler) fetchColumn(ctx context.Context, sql string, params query.Params) (values []any, err error) {
	stmt, err := h.executor.Select(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := stmt.Close(); err == nil {
			err = cerr
		}
	}()

	values = []any{}
	for {
		v, err := stmt.FetchColumn(0)
		if err != nil {
			return nil, err
		}
		if v == query.NoRows {
			return values, nil
		}
		values = append(values, v)
		if err := query.CheckResultSize(len(values)); err != nil {
			return nil, err
		}
	}
}

func (h *Handler) HandlePluck(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.check(w, r, query.ValidateQuery(req.SQL), query.CheckSafety(req.SQL)) {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	start := time.Now()
	v, err := h.executor.Pluck(ctx, req.SQL, req.Params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := &PluckResponse{Success: true, Found: v != query.NoRows}
	if resp.Found {
		resp.Value = v
	}
	resp.ExecutionTime = elapsedMs(start)
	h.succeed(w, r, resp)
}

func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.check(w, r, query.ValidateWrite(req.Table, req.Values)) {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	start := time.Now()
	if err := h.executor.Insert(ctx, req.Table, req.Values); err != nil {
		h.fail(w, r, err)
		return
	}
	h.succeed(w, r, &WriteResponse{Success: true, ExecutionTime: elapsedMs(start)})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.check(w, r, query.ValidateWrite(req.Table, req.Values), query.CheckWhere(req.Where)) {
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	start := time.Now()
	if err := h.executor.Update(ctx, req.Table, req.Values, req.Where, req.WhereParams); err != nil {
		h.fail(w, r, err)
		return
	}
	h.succeed(w, r, &WriteResponse{Success: true, ExecutionTime: elapsedMs(start)})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, NewInvalidRequestError("Only GET method is supported for "+r.URL.Path))
		return
	}

	if h.health != nil {
		ctx, cancel := h.context(r)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			WriteJSON(w, http.StatusServiceUnavailable, &HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	WriteJSON(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		WriteError(w, NewInvalidRequestError("Only POST method is supported for "+r.URL.Path))
		h.log.Error().Str("method", r.Method).Str("path", r.URL.Path).Msg("method not allowed")
		return false
	}

	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestSize))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, NewRequestTooLargeError(tooLarge.Limit))
		} else {
			WriteError(w, NewInvalidRequestError("Invalid JSON request body: "+err.Error()))
		}
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("invalid request body")
		return false
	}
	return true
}

// check writes the first non-nil validation error.
func (h *Handler) check(w http.ResponseWriter, r *http.Request, errs ...error) bool {
	for _, err := range errs {
		if err != nil {
			h.fail(w, r, err)
			return false
		}
	}
	return true
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	classified := Classify(err)
	if werr := WriteError(w, classified); werr != nil {
		h.log.Error().Err(werr).Msg("failed to write response")
	}
	h.log.Error().
		Str("path", r.URL.Path).
		Str("code", classified.Code).
		Err(err).
		Msg("request failed")
}

func (h *Handler) succeed(w http.ResponseWriter, r *http.Request, v any) {
	if err := WriteJSON(w, http.StatusOK, v); err != nil {
		h.log.Error().Err(err).Msg("failed to write response")
		return
	}
	h.log.Info().Str("path", r.URL.Path).Msg("request succeeded")
}
