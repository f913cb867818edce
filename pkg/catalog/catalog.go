// Package catalog implements the introspection and data queries of pgscope on
// top of the connection pool.
//
// Every operation takes one lease from the pool, runs one statement, decodes
// the rows positionally and releases the lease before returning, whether or
// not the query failed. Results are all-or-nothing.
//
// Identifiers are handled two ways. ListColumns binds the table name as $1
// and still runs it through the guard first. PreviewTable interpolates the
// table name into SQL text, so it may only do so through Guard.Quote.
package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
	"github.com/ajitpratap0/pgscope/pkg/pool"
	"github.com/ajitpratap0/pgscope/pkg/query"
	"github.com/ajitpratap0/pgscope/pkg/rowmap"
	"github.com/ajitpratap0/pgscope/pkg/sqlguard"
)

// Catalog statements. Decoders read columns by position, so the select lists
// and the rowmap index constants must change together.
const (
	// column 0: datname
	ListDatabasesSQL = "SELECT datname FROM pg_database;"

	// column 0: table_name
	ListTablesSQL = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public';"

	// columns 0-3 as rowmap.Column*Index; column_default is selected but not decoded
	ListColumnsSQL = "SELECT column_name, data_type, character_maximum_length, is_nullable, column_default FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1;"

	PingSQL          = "SELECT 1"
	ServerVersionSQL = "SELECT version()"
)

// PublicSchema is the only schema the catalog inspects.
const PublicSchema = "public"

// Operation names used in logs, spans and metrics.
const (
	OpListDatabases = "list_databases"
	OpListTables    = "list_tables"
	OpListColumns   = "list_columns"
	OpQueryPeople   = "query_people"
	OpPreviewTable  = "preview_table"
	OpPing          = "ping"
	OpServerVersion = "server_version"
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGuard replaces the strict default identifier guard.
func WithGuard(g sqlguard.Guard) Option {
	return func(c *Catalog) {
		c.guard = g
	}
}

// WithExecutor replaces the default uninstrumented executor.
func WithExecutor(e *query.Executor) Option {
	return func(c *Catalog) {
		if e != nil {
			c.exec = e
		}
	}
}

// Catalog runs the introspection queries against one pool. It holds no
// per-call state and is safe for concurrent use.
type Catalog struct {
	pool   *pool.Pool
	guard  sqlguard.Guard
	exec   *query.Executor
	logger *zap.Logger
}

// New creates a Catalog over p.
func New(p *pool.Pool, opts ...Option) *Catalog {
	c := &Catalog{
		pool:   p,
		guard:  sqlguard.Default,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		c.exec = query.NewExecutor(query.WithLogger(c.logger))
	}
	c.logger = c.logger.With(zap.String("component", "catalog"))
	return c
}

// fetch runs spec on a leased connection and returns the raw rows.
func (c *Catalog) fetch(ctx context.Context, op string, spec query.Spec) ([]rowmap.Row, error) {
	var rows []rowmap.Row
	err := c.pool.With(ctx, func(ctx context.Context, conn pool.Conn) error {
		var err error
		rows, err = c.exec.Run(ctx, conn, op, spec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDatabases returns the name of every database on the server.
func (c *Catalog) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := c.fetch(ctx, OpListDatabases, query.NewSpec(ListDatabasesSQL))
	if err != nil {
		return nil, err
	}
	return rowmap.DecodeAll(rows, rowmap.FirstString)
}

// ListTables returns the tables of the public schema.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.fetch(ctx, OpListTables, query.NewSpec(ListTablesSQL))
	if err != nil {
		return nil, err
	}
	return rowmap.DecodeAll(rows, rowmap.FirstString)
}

// ListColumns describes the columns of a public table. The name is bound as
// a parameter, but it must still pass the guard; an invalid name fails before
// a connection is leased.
func (c *Catalog) ListColumns(ctx context.Context, table string) ([]rowmap.ColumnDescriptor, error) {
	name, err := c.guard.Validate(table)
	if err != nil {
		c.logger.Warn("rejected table name", zap.String("table", table), zap.Error(err))
		return nil, err
	}

	rows, err := c.fetch(ctx, OpListColumns, query.NewSpec(ListColumnsSQL, name))
	if err != nil {
		return nil, err
	}
	return rowmap.DecodeAll(rows, rowmap.DecodeColumnDescriptor)
}

// QueryPeople runs caller-supplied SQL with name, enabled, limit and offset
// bound as $1..$4, and decodes id, name, email, enabled from each row. The
// SQL is trusted: it must contain exactly those four placeholders and no
// interpolated identifiers.
func (c *Catalog) QueryPeople(ctx context.Context, sql, name string, enabled bool, limit, offset int64) ([]rowmap.Person, error) {
	rows, err := c.fetch(ctx, OpQueryPeople, query.NewSpec(sql, name, enabled, limit, offset))
	if err != nil {
		return nil, err
	}
	return rowmap.DecodeAll(rows, rowmap.DecodePerson)
}

// PreviewTable returns up to limit rows of a public table with their column
// names. This is the only operation that builds SQL from an identifier.
func (c *Catalog) PreviewTable(ctx context.Context, table string, limit int64) (*query.Result, error) {
	if limit < 0 {
		return nil, dberrors.New(dberrors.ErrorTypeQuery, "preview limit must not be negative").
			WithDetail("limit", limit)
	}
	ident, err := c.guard.Quote(PublicSchema, table)
	if err != nil {
		c.logger.Warn("rejected table name", zap.String("table", table), zap.Error(err))
		return nil, err
	}
	spec := query.NewSpec("SELECT * FROM "+ident+" LIMIT $1", limit)

	var res *query.Result
	err = c.pool.With(ctx, func(ctx context.Context, conn pool.Conn) error {
		var err error
		res, err = c.exec.Collect(ctx, conn, OpPreviewTable, spec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Ping checks that a pooled connection can run a trivial query.
func (c *Catalog) Ping(ctx context.Context) error {
	rows, err := c.fetch(ctx, OpPing, query.NewSpec(PingSQL))
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return dberrors.New(dberrors.ErrorTypeQuery, "unexpected ping result").
			WithDetail("rows", len(rows))
	}
	return nil
}

// ServerVersion returns the server's version() string.
func (c *Catalog) ServerVersion(ctx context.Context) (string, error) {
	rows, err := c.fetch(ctx, OpServerVersion, query.NewSpec(ServerVersionSQL))
	if err != nil {
		return "", err
	}
	versions, err := rowmap.DecodeAll(rows, rowmap.FirstString)
	if err != nil {
		return "", err
	}
	if len(versions) != 1 {
		return "", dberrors.New(dberrors.ErrorTypeQuery, "unexpected version() result").
			WithDetail("rows", len(versions))
	}
	return versions[0], nil
}
