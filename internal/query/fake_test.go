package query

import (
	"context"
	"errors"
)

type binding struct {
	Key   Placeholder
	Value any
	Type  ParamType
}

// fakeConn records what the executor sends to a connection.
type fakeConn struct {
	execSQL      []string
	execResult   int64
	execErr      error
	prepared     []*fakeStmt
	prepareErr   error
	rows         []any
	rowsAffected int64
	bindErr      error
	runErr       error
}

func (c *fakeConn) Prepare(_ context.Context, sql string) (Stmt, error) {
	if c.prepareErr != nil {
		return nil, c.prepareErr
	}
	stmt := &fakeStmt{
		sql:          sql,
		rows:         c.rows,
		rowsAffected: c.rowsAffected,
		bindErr:      c.bindErr,
		runErr:       c.runErr,
	}
	c.prepared = append(c.prepared, stmt)
	return stmt, nil
}

func (c *fakeConn) Exec(_ context.Context, sql string) (int64, error) {
	c.execSQL = append(c.execSQL, sql)
	return c.execResult, c.execErr
}

func (c *fakeConn) last() *fakeStmt {
	if len(c.prepared) == 0 {
		return nil
	}
	return c.prepared[len(c.prepared)-1]
}

// fakeStmt serves rows as single-column results.
type fakeStmt struct {
	sql          string
	bindings     []binding
	rows         []any
	cursor       int
	rowsAffected int64
	bindErr      error
	runErr       error
	execCalls    int
	queryCalls   int
	closeCalls   int
}

func (s *fakeStmt) BindValue(key Placeholder, value any, typ ParamType) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	s.bindings = append(s.bindings, binding{Key: key, Value: value, Type: typ})
	return nil
}

func (s *fakeStmt) Exec(context.Context) (int64, error) {
	s.execCalls++
	if s.runErr != nil {
		return 0, s.runErr
	}
	return s.rowsAffected, nil
}

func (s *fakeStmt) Query(context.Context) error {
	s.queryCalls++
	return s.runErr
}

func (s *fakeStmt) FetchColumn(index int) (any, error) {
	if index != 0 {
		return nil, errors.New("fake: single column only")
	}
	if s.cursor >= len(s.rows) {
		return NoRows, nil
	}
	v := s.rows[s.cursor]
	s.cursor++
	return v, nil
}

func (s *fakeStmt) FetchAllColumn(index int) ([]any, error) {
	if index != 0 {
		return nil, errors.New("fake: single column only")
	}
	out := append([]any{}, s.rows[s.cursor:]...)
	s.cursor = len(s.rows)
	return out, nil
}

func (s *fakeStmt) Close() error {
	s.closeCalls++
	return nil
}
