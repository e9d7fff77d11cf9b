// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package dbxpull

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
)

// fakeConnector is a database/sql/driver test double standing in for the
// Databricks connector. Each Connect hands out a fresh fakeConn built from
// the template fields; created conns are kept for close accounting.
type fakeConnector struct {
	connectErr error
	pingErr    error
	queryErr   error

	columns []string
	dbTypes []string
	rows    [][]driver.Value

	conns []*fakeConn
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	conn := &fakeConn{
		pingErr:  c.pingErr,
		queryErr: c.queryErr,
		columns:  c.columns,
		dbTypes:  c.dbTypes,
		rows:     c.rows,
	}
	c.conns = append(c.conns, conn)
	return conn, nil
}

func (c *fakeConnector) Driver() driver.Driver { return fakeDriver{} }

func (c *fakeConnector) totalCloses() int {
	n := 0
	for _, conn := range c.conns {
		n += conn.closeCount
	}
	return n
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open by DSN not supported")
}

type fakeConn struct {
	pingErr  error
	queryErr error

	columns []string
	dbTypes []string
	rows    [][]driver.Value

	closeCount int
	queryCount int
}

var (
	_ driver.Pinger         = (*fakeConn)(nil)
	_ driver.QueryerContext = (*fakeConn)(nil)
)

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *fakeConn) Close() error {
	c.closeCount++
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *fakeConn) Ping(context.Context) error { return c.pingErr }

func (c *fakeConn) QueryContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Rows, error) {
	c.queryCount++
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return &fakeRows{columns: c.columns, dbTypes: c.dbTypes, rows: c.rows}, nil
}

type fakeRows struct {
	columns []string
	dbTypes []string
	rows    [][]driver.Value
	pos     int
}

var _ driver.RowsColumnTypeDatabaseTypeName = (*fakeRows)(nil)

func (r *fakeRows) Columns() []string { return r.columns }

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func (r *fakeRows) ColumnTypeDatabaseTypeName(index int) string {
	if r.dbTypes == nil {
		return ""
	}
	return r.dbTypes[index]
}
