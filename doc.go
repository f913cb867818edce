// Package pgscope provides pooled, read-oriented access to a PostgreSQL server:
// a fixed-size connection pool, an identifier guard, a parameterized query
// executor, a row mapper and a small set of catalog introspection queries.
//
// # Architecture
//
// Every database round-trip flows through the same path:
//
//	catalog.Catalog  ->  pool.Pool (lease)  ->  query.Executor  ->  rowmap
//
// The pool hands out at most Capacity connections at a time and queues the
// remaining callers in FIFO order. A lease is returned exactly once, either
// back to the idle set or discarded when the connection is broken. The
// executor binds arguments positionally, never interpolates values into SQL
// text, and maps every driver row into a rowmap.Row of typed values. Names
// that must appear in SQL text are first checked by sqlguard.
//
// # Quick Start
//
//	dialer, err := pool.PgxDialer(os.Getenv("DATABASE_URL"), 10*time.Second)
//	if err != nil {
//		return err
//	}
//	p, err := pool.New(pool.Config{Capacity: 4}, dialer)
//	if err != nil {
//		return err
//	}
//	defer p.Close(context.Background())
//
//	cat := catalog.New(p)
//	tables, err := cat.ListTables(ctx)
//	cols, err := cat.ListColumns(ctx, "people")
//
// # Key Packages
//
//	pkg/pool          - Fixed-capacity connection pool with leases
//	pkg/sqlguard      - Identifier validation and quoting
//	pkg/query         - Parameterized execution, placeholder checks, tracing
//	pkg/rowmap        - Typed row values and record decoders
//	pkg/catalog       - Database, table, column and people queries
//	pkg/dberrors      - Typed errors (connection, query, decode, ...)
//	pkg/config        - Defaults, YAML file and environment layering
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus collectors for pool and queries
//	pkg/observability - OpenTelemetry tracer provider setup
//
// The pgscope command in cmd/pgscope exposes the catalog from the shell.
package pgscope
