package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrFakeConnClosed is returned by a FakeConn used after Close or Kill.
var ErrFakeConnClosed = errors.New("fake connection closed")

// Result is the scripted outcome of one query on a FakeConn.
type Result struct {
	Columns []string
	Rows    [][]any
	// Err fails the Query call itself.
	Err error
	// IterErr is reported by Rows.Err after the rows are exhausted.
	IterErr error
}

// RecordedQuery is one Query call observed by a FakeConn.
type RecordedQuery struct {
	SQL  string
	Args []any
}

// FakeConn is an in-memory stand-in for *pgx.Conn. Queries are answered from
// results registered with On; any other statement gets Default, or an error
// if Default is nil.
type FakeConn struct {
	ID      int
	Default *Result

	mu      sync.Mutex
	results map[string]Result
	queries []RecordedQuery
	closed  atomic.Bool
	closes  atomic.Int32
}

// NewFakeConn returns an open FakeConn.
func NewFakeConn(id int) *FakeConn {
	return &FakeConn{ID: id, results: make(map[string]Result)}
}

// On registers the result for an exact SQL string.
func (c *FakeConn) On(sql string, r Result) *FakeConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[sql] = r
	return c
}

// Query implements the pgx query method against the scripted results.
func (c *FakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.closed.Load() {
		return nil, ErrFakeConnClosed
	}

	c.mu.Lock()
	c.queries = append(c.queries, RecordedQuery{SQL: sql, Args: append([]any(nil), args...)})
	r, ok := c.results[sql]
	if !ok && c.Default != nil {
		r, ok = *c.Default, true
	}
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("fake connection %d: unexpected query %q", c.ID, sql)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return NewFakeRows(r.Columns, r.Rows, r.IterErr), nil
}

// Ping fails once the connection is closed.
func (c *FakeConn) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrFakeConnClosed
	}
	return nil
}

// IsClosed reports whether Close or Kill was called.
func (c *FakeConn) IsClosed() bool {
	return c.closed.Load()
}

// Close marks the connection closed and counts the call.
func (c *FakeConn) Close(context.Context) error {
	c.closed.Store(true)
	c.closes.Add(1)
	return nil
}

// Kill simulates the backend dropping the session.
func (c *FakeConn) Kill() {
	c.closed.Store(true)
}

// CloseCount returns how many times Close was called.
func (c *FakeConn) CloseCount() int {
	return int(c.closes.Load())
}

// Queries returns the queries observed so far.
func (c *FakeConn) Queries() []RecordedQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RecordedQuery(nil), c.queries...)
}

// FakeRows implements pgx.Rows over an in-memory result set.
type FakeRows struct {
	fields  []pgconn.FieldDescription
	data    [][]any
	iterErr error
	pos     int
	closed  bool
}

var _ pgx.Rows = (*FakeRows)(nil)

// NewFakeRows builds a single-pass result set. iterErr, if set, is reported
// by Err once iteration ends.
func NewFakeRows(columns []string, data [][]any, iterErr error) *FakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, name := range columns {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return &FakeRows{fields: fields, data: data, iterErr: iterErr, pos: -1}
}

func (r *FakeRows) Close() {
	r.closed = true
}

func (r *FakeRows) Err() error {
	if r.closed || r.pos >= len(r.data) {
		return r.iterErr
	}
	return nil
}

func (r *FakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.data)))
}

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return r.fields
}

func (r *FakeRows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	if r.pos >= len(r.data) {
		r.closed = true
		return false
	}
	return true
}

func (r *FakeRows) Scan(dest ...any) error {
	values, err := r.Values()
	if err != nil {
		return err
	}
	if len(dest) != len(values) {
		return fmt.Errorf("fake rows: %d destinations for %d columns", len(dest), len(values))
	}
	for i, v := range values {
		p, ok := dest[i].(*any)
		if !ok {
			return fmt.Errorf("fake rows: destination %d must be *any", i)
		}
		*p = v
	}
	return nil
}

func (r *FakeRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.data) {
		return nil, errors.New("fake rows: no current row")
	}
	return append([]any(nil), r.data[r.pos]...), nil
}

func (r *FakeRows) RawValues() [][]byte {
	return nil
}

func (r *FakeRows) Conn() *pgx.Conn {
	return nil
}

// FakeDialer hands out FakeConns and records them. Set Err to make every
// dial fail, or Prepare to script each new connection.
type FakeDialer struct {
	Prepare func(c *FakeConn)

	mu    sync.Mutex
	err   error
	conns []*FakeConn
}

// SetErr makes subsequent dials fail with err (nil restores success).
func (d *FakeDialer) SetErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// DialFake creates the next FakeConn.
func (d *FakeDialer) DialFake(ctx context.Context) (*FakeConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := NewFakeConn(len(d.conns) + 1)
	if d.Prepare != nil {
		d.Prepare(c)
	}
	d.conns = append(d.conns, c)
	return c, nil
}

// Conns returns every connection dialed so far, in dial order.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeConn(nil), d.conns...)
}

// Dials returns the number of successful dials.
func (d *FakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}
