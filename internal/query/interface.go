package query

import "context"

// Conn is a database connection handle the executor borrows for a call.
type Conn interface {
	// Prepare compiles sql into a statement. Malformed SQL fails here.
	Prepare(ctx context.Context, sql string) (Stmt, error)

	// Exec runs sql directly and returns the number of affected rows.
	Exec(ctx context.Context, sql string) (int64, error)
}

// Stmt is a prepared statement executed at most once.
type Stmt interface {
	BindValue(key Placeholder, value any, typ ParamType) error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context) (int64, error)

	// Query executes the statement and opens its result set.
	Query(ctx context.Context) error

	// FetchColumn returns column index of the next row, or NoRows.
	FetchColumn(index int) (any, error)

	// FetchAllColumn returns column index of every remaining row.
	FetchAllColumn(index int) ([]any, error)

	Close() error
}

// QueryExecutor defines the interface for executing SQL through read and
// write connections.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string, params Params) (int64, error)
	ExecuteRead(ctx context.Context, sql string, params Params) (int64, error)
	Select(ctx context.Context, query string, params Params) (Stmt, error)
	Lists(ctx context.Context, query string, params Params) ([]any, error)
	Pluck(ctx context.Context, query string, params Params) (any, error)
	Insert(ctx context.Context, table string, values Params) error
	Update(ctx context.Context, table string, values Params, where string, whereParams Params) error
}

// Ensure Executor implements QueryExecutor
var _ QueryExecutor = (*Executor)(nil)
