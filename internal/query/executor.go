package query

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNoConnection is returned when an executor is built without a read connection.
	ErrNoConnection = errors.New("query: read connection is required")

	// ErrNoValues is returned when an INSERT or UPDATE has no columns.
	ErrNoValues = errors.New("query: at least one column value is required")
)

// Config holds the connections an Executor dispatches to. Write defaults to
// Read when nil.
type Config struct {
	Read  Conn
	Write Conn

	// Logger receives one debug event per statement. Nil disables logging.
	Logger *zerolog.Logger
}

// Executor runs statements against a read and a write connection. It keeps
// no state between calls and does not translate driver errors.
type Executor struct {
	read  Conn
	write Conn
	log   zerolog.Logger
}

func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Read == nil {
		return nil, ErrNoConnection
	}

	write := cfg.Write
	if write == nil {
		write = cfg.Read
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Executor{
		read:  cfg.Read,
		write: write,
		log:   log,
	}, nil
}

// Execute runs sql on the write connection and returns the affected rows.
func (e *Executor) Execute(ctx context.Context, sql string, params Params) (int64, error) {
	return e.execute(ctx, e.write, "write", sql, params)
}

// ExecuteRead is Execute against the read connection.
func (e *Executor) ExecuteRead(ctx context.Context, sql string, params Params) (int64, error) {
	return e.execute(ctx, e.read, "read", sql, params)
}

func (e *Executor) execute(ctx context.Context, conn Conn, route, sql string, params Params) (int64, error) {
	start := time.Now()

	if len(params) == 0 {
		n, err := conn.Exec(ctx, sql)
		e.trace(route, sql, 0, start, err)
		return n, err
	}

	stmt, err := e.prepare(ctx, conn, sql, params)
	if err != nil {
		e.trace(route, sql, len(params), start, err)
		return 0, err
	}

	n, err := stmt.Exec(ctx)
	err = closeStmt(stmt, err)
	e.trace(route, sql, len(params), start, err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Select runs query on the read connection and returns the open statement.
// The caller owns the statement and must close it.
func (e *Executor) Select(ctx context.Context, query string, params Params) (Stmt, error) {
	start := time.Now()

	stmt, err := e.prepare(ctx, e.read, query, params)
	if err != nil {
		e.trace("read", query, len(params), start, err)
		return nil, err
	}

	if err := stmt.Query(ctx); err != nil {
		_ = stmt.Close()
		e.trace("read", query, len(params), start, err)
		return nil, err
	}

	e.trace("read", query, len(params), start, nil)
	return stmt, nil
}

// Lists returns the first column of every row.
func (e *Executor) Lists(ctx context.Context, query string, params Params) ([]any, error) {
	stmt, err := e.Select(ctx, query, params)
	if err != nil {
		return nil, err
	}

	values, err := stmt.FetchAllColumn(0)
	if err := closeStmt(stmt, err); err != nil {
		return nil, err
	}
	return values, nil
}

// Pluck returns the first column of the first row, or NoRows.
func (e *Executor) Pluck(ctx context.Context, query string, params Params) (any, error) {
	stmt, err := e.Select(ctx, query, params)
	if err != nil {
		return nil, err
	}

	value, err := stmt.FetchColumn(0)
	if err := closeStmt(stmt, err); err != nil {
		return nil, err
	}
	return value, nil
}

// Insert writes one row built from values into table.
func (e *Executor) Insert(ctx context.Context, table string, values Params) error {
	sql, err := BuildInsert(table, values)
	if err != nil {
		return err
	}
	return e.writeOnce(ctx, sql, columnParams(values))
}

// Update sets values on the rows of table selected by where. whereParams are
// bound with their keys unchanged.
func (e *Executor) Update(ctx context.Context, table string, values Params, where string, whereParams Params) error {
	sql, err := BuildUpdate(table, values, where)
	if err != nil {
		return err
	}

	params := make(Params, 0, len(values)+len(whereParams))
	params = append(params, columnParams(values)...)
	params = append(params, whereParams...)

	return e.writeOnce(ctx, sql, params)
}

// writeOnce prepares sql on the write connection and executes it once.
func (e *Executor) writeOnce(ctx context.Context, sql string, params Params) error {
	start := time.Now()

	stmt, err := e.prepare(ctx, e.write, sql, params)
	if err != nil {
		e.trace("write", sql, len(params), start, err)
		return err
	}

	_, err = stmt.Exec(ctx)
	err = closeStmt(stmt, err)
	e.trace("write", sql, len(params), start, err)
	return err
}

// prepare compiles sql and binds params. The statement is closed again if
// any bind fails.
func (e *Executor) prepare(ctx context.Context, conn Conn, sql string, params Params) (Stmt, error) {
	stmt, err := conn.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}

	if err := bindParams(stmt, params); err != nil {
		_ = stmt.Close()
		return nil, err
	}
	return stmt, nil
}

// bindParams binds every parameter in order, shifting positional keys to
// 1-based placeholders and inferring the bind type from the value.
func bindParams(stmt Stmt, params Params) error {
	for _, p := range params {
		if err := stmt.BindValue(placeholderFor(p.Key), p.Value, TypeOf(p.Value)); err != nil {
			return err
		}
	}
	return nil
}

// closeStmt closes stmt, keeping err if set and reporting the close error
// otherwise.
func closeStmt(stmt Stmt, err error) error {
	closeErr := stmt.Close()
	if err != nil {
		return err
	}
	return closeErr
}

func (e *Executor) trace(route, sql string, params int, start time.Time, err error) {
	ev := e.log.Debug()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("conn", route).
		Str("sql", sql).
		Int("params", params).
		Dur("duration", time.Since(start)).
		Msg("query")
}
