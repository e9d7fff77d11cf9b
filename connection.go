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
	"database/sql"
	"errors"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dbsql "github.com/databricks/databricks-sql-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Connection manages the lifecycle of a single session to a Databricks SQL
// warehouse and executes queries against it.
//
// A Connection holds at most one session (*sql.DB) and one dedicated
// per-session handle (*sql.Conn, the cursor counterpart) at a time. It must
// not be shared across goroutines.
type Connection struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
	alloc  memory.Allocator

	sessionID string

	db   *sql.DB
	conn *sql.Conn

	// columns are the ordered column names of the most recent successful
	// Execute, the cursor-description analog.
	columns []string
}

// New creates a Connection from cfg. No I/O happens until Open.
func New(cfg Config) *Connection {
	c := &Connection{
		cfg:       cfg,
		logger:    cfg.Logger,
		tracer:    cfg.Tracer,
		alloc:     cfg.Allocator,
		sessionID: uuid.NewString(),
	}
	if c.logger == nil {
		c.logger = nilLogger()
	}
	if c.tracer == nil {
		c.tracer = nilTracer()
	}
	if c.alloc == nil {
		c.alloc = memory.DefaultAllocator
	}
	return c
}

// SetLogger replaces the connection's logger. A nil logger disables logging.
func (c *Connection) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	} else {
		c.logger = nilLogger()
	}
}

// Open establishes a session with the warehouse. It fails with a
// StatusConnection error if the endpoint is unreachable or the credentials
// are rejected; the underlying failure is logged once and propagated
// unmodified inside the returned Error.
func (c *Connection) Open(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "dbxpull.Open",
		attribute.String("server.address", c.cfg.Hostname))
	defer func() { endSpan(span, err) }()

	if c.db != nil {
		return errorf(StatusConnection, "session is already open")
	}

	connector := c.cfg.Connector
	if connector == nil {
		if err = c.cfg.validate(); err != nil {
			c.logger.ErrorContext(ctx, "invalid connection parameters", "error", err)
			return err
		}
		opts, optErr := c.cfg.connectionOptions()
		if optErr != nil {
			err = optErr
			c.logger.ErrorContext(ctx, "invalid connection parameters", "error", err)
			return err
		}
		connector, err = dbsql.NewConnector(opts...)
		if err != nil {
			err = wrapError(err, StatusConnection, "failed to configure connector")
			c.logger.ErrorContext(ctx, "failed to connect to warehouse", "error", err)
			return err
		}
	}

	db := sql.OpenDB(connector)
	// Force a round trip now so credential and reachability failures
	// surface here rather than on the first query.
	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		err = wrapError(pingErr, StatusConnection, "failed to connect to %s", c.cfg.Hostname)
		c.logger.ErrorContext(ctx, "failed to connect to warehouse",
			"hostname", c.cfg.Hostname, "error", pingErr)
		return err
	}

	conn, connErr := db.Conn(ctx)
	if connErr != nil {
		_ = db.Close()
		err = wrapError(connErr, StatusConnection, "failed to acquire session")
		c.logger.ErrorContext(ctx, "failed to acquire session", "error", connErr)
		return err
	}

	c.db = db
	c.conn = conn
	c.logger.InfoContext(ctx, "connected to warehouse",
		"hostname", c.cfg.Hostname, "sessionID", c.sessionID)
	return nil
}

// Execute submits query on the open session and retrieves the full result
// set into memory. Column names from the result metadata are retained and
// available via Columns. It fails with a StatusQuery error if the query is
// malformed or the session is not open.
func (c *Connection) Execute(ctx context.Context, query string) (rows [][]any, err error) {
	ctx, span := c.startSpan(ctx, "dbxpull.Execute")
	defer func() { endSpan(span, err) }()

	rows, _, err = c.execute(ctx, query)
	return rows, err
}

// QueryTable performs Execute and reshapes the result into a Table whose
// column names come from the query metadata. Shape mismatches fail with a
// StatusConversion error. The row count is reported on success.
func (c *Connection) QueryTable(ctx context.Context, query string) (tbl *Table, err error) {
	ctx, span := c.startSpan(ctx, "dbxpull.QueryTable")
	defer func() { endSpan(span, err) }()

	rows, colTypes, err := c.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	tbl, err = newTable(c.alloc, schemaFromColumnTypes(colTypes), rows)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to convert results to table", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("db.response.returned_rows", tbl.NumRows()))
	c.logger.InfoContext(ctx, "retrieved rows",
		"numRows", tbl.NumRows(), "sessionID", c.sessionID)
	return tbl, nil
}

func (c *Connection) execute(ctx context.Context, query string) ([][]any, []*sql.ColumnType, error) {
	if c.conn == nil {
		return nil, nil, errorf(StatusQuery, "no open session: call Open before Execute")
	}

	sqlRows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		wrapped := wrapError(err, StatusQuery, "query execution failed")
		c.logger.ErrorContext(ctx, "query execution failed", "error", err)
		return nil, nil, wrapped
	}
	defer func() { _ = sqlRows.Close() }()

	colTypes, err := sqlRows.ColumnTypes()
	if err != nil {
		wrapped := wrapError(err, StatusQuery, "failed to get column metadata")
		c.logger.ErrorContext(ctx, "query execution failed", "error", err)
		return nil, nil, wrapped
	}

	var allRows [][]any
	for sqlRows.Next() {
		values := make([]any, len(colTypes))
		scanArgs := make([]any, len(colTypes))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := sqlRows.Scan(scanArgs...); err != nil {
			wrapped := wrapError(err, StatusQuery, "failed to scan row")
			c.logger.ErrorContext(ctx, "query execution failed", "error", err)
			return nil, nil, wrapped
		}
		allRows = append(allRows, values)
	}
	if err := sqlRows.Err(); err != nil {
		wrapped := wrapError(err, StatusQuery, "row iteration failed")
		c.logger.ErrorContext(ctx, "query execution failed", "error", err)
		return nil, nil, wrapped
	}

	columns := make([]string, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = ct.Name()
	}
	c.columns = columns

	return allRows, colTypes, nil
}

// Columns returns the ordered column names of the most recent successful
// Execute, or nil if no query has run yet.
func (c *Connection) Columns() []string { return c.columns }

// Close releases the per-session handle and the session, in that order. It
// is idempotent: absent or already-closed resources are skipped cleanly.
func (c *Connection) Close() error {
	var errs []error

	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
		c.conn = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
		c.db = nil
		c.logger.Info("connection closed", "sessionID", c.sessionID)
	}

	if err := errors.Join(errs...); err != nil {
		wrapped := wrapError(err, StatusConnection, "failed to close session")
		c.logger.Error("failed to close session", "error", err)
		return wrapped
	}
	return nil
}
