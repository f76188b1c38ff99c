// Package dbconn implements the query driver capability on top of
// database/sql. It translates "?" and ":name" markers into the numbered
// placeholders of the target dialect and applies the bind type of every
// value before handing it to the driver.
package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vibesql/vibedb/internal/query"
)

var (
	// ErrUnknownParameter is returned when binding a placeholder the SQL does not contain.
	ErrUnknownParameter = errors.New("dbconn: parameter not defined in statement")

	// ErrUnboundParameter is returned when a placeholder has no bound value at execute time.
	ErrUnboundParameter = errors.New("dbconn: no value bound for parameter")

	// ErrBindType is returned when a value cannot be converted to its bind type.
	ErrBindType = errors.New("dbconn: value does not match bind type")

	// ErrColumnIndex is returned when fetching a column the result set does not have.
	ErrColumnIndex = errors.New("dbconn: column index out of range")

	// ErrNotQueried is returned when fetching from a statement without an open result set.
	ErrNotQueried = errors.New("dbconn: statement has no open result set")

	// ErrMixedPlaceholders is returned when numbered markers ($n, ?NNN) share a
	// statement with "?" or ":name" markers.
	ErrMixedPlaceholders = errors.New("dbconn: numbered placeholders cannot be mixed with ? or :name markers")
)

var _ query.Conn = (*Conn)(nil)

// Conn is a database/sql pool used as a query connection handle.
type Conn struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Conn {
	return &Conn{db: db, dialect: dialect}
}

// DB returns the underlying pool.
func (c *Conn) DB() *sql.DB {
	return c.db
}

func (c *Conn) Dialect() Dialect {
	return c.dialect
}

// Prepare rewrites the placeholders of sqlText and prepares the result.
func (c *Conn) Prepare(ctx context.Context, sqlText string) (query.Stmt, error) {
	p, err := parse(sqlText, c.dialect)
	if err != nil {
		return nil, err
	}

	stmt, err := c.db.PrepareContext(ctx, p.sql)
	if err != nil {
		return nil, err
	}

	return &Stmt{
		stmt:  stmt,
		plan:  p,
		bound: make(map[query.Placeholder]any),
	}, nil
}

// Exec runs sqlText as-is and returns the affected row count.
func (c *Conn) Exec(ctx context.Context, sqlText string) (int64, error) {
	res, err := c.db.ExecContext(ctx, sqlText)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ query.Stmt = (*Stmt)(nil)

// Stmt is a prepared statement with its bound values.
type Stmt struct {
	stmt  *sql.Stmt
	plan  *plan
	bound map[query.Placeholder]any

	rows    *sql.Rows
	columns int
}

// BindValue converts value to typ and stores it under key. Named keys may
// omit the leading colon.
func (s *Stmt) BindValue(key query.Placeholder, value any, typ query.ParamType) error {
	key, err := s.resolve(key)
	if err != nil {
		return err
	}

	v, err := convert(value, typ)
	if err != nil {
		return fmt.Errorf("%w (parameter %s)", err, key)
	}

	s.bound[key] = v
	return nil
}

func (s *Stmt) resolve(key query.Placeholder) (query.Placeholder, error) {
	if key.IsNamed() {
		name := key.Name
		if !strings.HasPrefix(name, ":") {
			name = ":" + name
		}
		if _, ok := s.plan.names[name]; !ok {
			return key, fmt.Errorf("%w: %s", ErrUnknownParameter, key.Name)
		}
		return query.Placeholder{Name: name}, nil
	}

	if key.Position < 1 || (!s.plan.native() && key.Position > s.plan.positional) {
		return key, fmt.Errorf("%w: position %d", ErrUnknownParameter, key.Position)
	}
	return key, nil
}

// args lays the bound values out in numbered placeholder order.
func (s *Stmt) args() ([]any, error) {
	if s.plan.native() {
		n := 0
		for key := range s.bound {
			n = max(n, key.Position)
		}
		args := make([]any, n)
		for i := range args {
			v, ok := s.bound[query.Placeholder{Position: i + 1}]
			if !ok {
				return nil, fmt.Errorf("%w: position %d", ErrUnboundParameter, i+1)
			}
			args[i] = v
		}
		return args, nil
	}

	args := make([]any, len(s.plan.slots))
	for i, slot := range s.plan.slots {
		v, ok := s.bound[slot]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundParameter, slot)
		}
		args[i] = v
	}
	return args, nil
}

func (s *Stmt) Exec(ctx context.Context) (int64, error) {
	args, err := s.args()
	if err != nil {
		return 0, err
	}

	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Stmt) Query(ctx context.Context) error {
	args, err := s.args()
	if err != nil {
		return err
	}

	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}

	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return err
	}

	s.rows = rows
	s.columns = len(columns)
	return nil
}

// FetchColumn advances one row and returns its column index.
func (s *Stmt) FetchColumn(index int) (any, error) {
	if err := s.checkColumn(index); err != nil {
		return nil, err
	}

	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, err
		}
		return query.NoRows, nil
	}

	row, err := s.scan()
	if err != nil {
		return nil, err
	}
	return row[index], nil
}

// FetchAllColumn drains the result set, collecting column index of each row.
func (s *Stmt) FetchAllColumn(index int) ([]any, error) {
	if err := s.checkColumn(index); err != nil {
		return nil, err
	}

	values := []any{}
	for s.rows.Next() {
		row, err := s.scan()
		if err != nil {
			return nil, err
		}
		values = append(values, row[index])
	}
	if err := s.rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Stmt) checkColumn(index int) error {
	if s.rows == nil {
		return ErrNotQueried
	}
	if index < 0 || index >= s.columns {
		return fmt.Errorf("%w: %d of %d", ErrColumnIndex, index, s.columns)
	}
	return nil
}

func (s *Stmt) scan() ([]any, error) {
	values := make([]any, s.columns)
	ptrs := make([]any, s.columns)
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}

// Close releases the result set and the prepared statement.
func (s *Stmt) Close() error {
	var rowsErr error
	if s.rows != nil {
		rowsErr = s.rows.Close()
		s.rows = nil
	}
	return errors.Join(rowsErr, s.stmt.Close())
}
