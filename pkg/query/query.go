// Package query executes parameterized statements on a leased connection and
// materializes the results as rowmap rows.
//
// Values are always sent as bound parameters; SQL text is never built from
// them. Before any round-trip the placeholders in the statement are checked
// against the argument count, so a mismatch fails locally with a query error.
//
// Run is eager and returns every row or none. Stream is single-pass and hands
// each row to a callback as it arrives. Neither retries.
package query

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
	"github.com/ajitpratap0/pgscope/pkg/rowmap"
)

// Queryer is the part of a connection the executor needs. *pgx.Conn and
// pool.Conn satisfy it.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Spec is a SQL template with positional placeholders ($1, $2, ...) and the
// values bound to them, in order.
type Spec struct {
	SQL  string
	Args []any
}

// NewSpec builds a Spec.
func NewSpec(sql string, args ...any) Spec {
	return Spec{SQL: sql, Args: args}
}

// Run executes spec and returns all rows. On any error no rows are returned.
func Run(ctx context.Context, q Queryer, spec Spec) ([]rowmap.Row, error) {
	out := []rowmap.Row{}
	err := Stream(ctx, q, spec, func(row rowmap.Row) error {
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Result is a materialized result set with its column names.
type Result struct {
	Columns []string
	Rows    []rowmap.Row
}

// Collect is Run that also reports the column names of the result.
func Collect(ctx context.Context, q Queryer, spec Spec) (*Result, error) {
	res := &Result{Rows: []rowmap.Row{}}
	err := stream(ctx, q, spec, func(cols []string) { res.Columns = cols }, func(row rowmap.Row) error {
		res.Rows = append(res.Rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Stream executes spec and calls fn for each row in order. Iteration stops at
// the first error from fn, which is returned unchanged. Rows already passed
// to fn are not retracted if a later row fails.
func Stream(ctx context.Context, q Queryer, spec Spec, fn func(rowmap.Row) error) error {
	return stream(ctx, q, spec, nil, fn)
}

func stream(ctx context.Context, q Queryer, spec Spec, fields func([]string), fn func(rowmap.Row) error) error {
	if err := checkPlaceholders(spec.SQL, len(spec.Args)); err != nil {
		return err
	}

	rows, err := q.Query(ctx, spec.SQL, spec.Args...)
	if err != nil {
		return wrapQueryError(err, "query failed")
	}
	defer rows.Close()

	if fields != nil {
		descs := rows.FieldDescriptions()
		names := make([]string, len(descs))
		for i, fd := range descs {
			names[i] = fd.Name
		}
		fields(names)
	}

	index := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return dberrors.Wrap(err, dberrors.ErrorTypeDecode, "failed to read row values").
				WithDetail("row", index)
		}
		row, err := rowmap.NewRow(values)
		if err != nil {
			var de *dberrors.Error
			if errors.As(err, &de) {
				de.WithDetail("row", index)
			}
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
		index++
	}
	if err := rows.Err(); err != nil {
		return wrapQueryError(err, "query failed while reading rows")
	}
	return nil
}

// wrapQueryError wraps a driver error as a query error. Server-side failures
// keep their SQLSTATE in the "sqlstate" detail.
func wrapQueryError(err error, msg string) error {
	e := dberrors.Wrap(err, dberrors.ErrorTypeQuery, msg)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e.WithDetail("sqlstate", pgErr.Code).
			WithDetail("severity", pgErr.Severity)
		if pgErr.TableName != "" {
			e.WithDetail("table", pgErr.TableName)
		}
		if pgErr.Position > 0 {
			e.WithDetail("position", pgErr.Position)
		}
	}
	return e
}

// SQLState returns the SQLSTATE code carried by err, or "" if err did not
// come from the server.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
