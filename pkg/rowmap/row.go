package rowmap

import (
	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// Row is one result row, addressed positionally by column index.
//
// Decoding is index-based, never name-based: the SQL that produced the row
// and the code that decodes it must list columns in the same order.
type Row []Value

// NewRow converts driver values into a Row.
func NewRow(values []any) (Row, error) {
	row := make(Row, len(values))
	for i, x := range values {
		v, err := FromDriver(x)
		if err != nil {
			return nil, dberrors.Wrap(err, dberrors.ErrorTypeDecode, "failed to convert column").
				WithDetail("column", i)
		}
		row[i] = v
	}
	return row, nil
}

// Values returns the row as plain Go values, NULL as nil.
func (r Row) Values() []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = v.Interface()
	}
	return out
}

func (r Row) at(i int) (Value, error) {
	if i < 0 || i >= len(r) {
		return Value{}, dberrors.Newf(dberrors.ErrorTypeDecode, "column %d out of range", i).
			WithDetail("column", i).
			WithDetail("columns", len(r))
	}
	return r[i], nil
}

func mismatch(i int, want Kind, got Kind) error {
	return dberrors.Newf(dberrors.ErrorTypeDecode, "column %d: want %s, got %s", i, want, got).
		WithDetail("column", i).
		WithDetail("want", want.String()).
		WithDetail("got", got.String())
}

// String reads a mandatory string column.
func (r Row) String(i int) (string, error) {
	v, err := r.at(i)
	if err != nil {
		return "", err
	}
	if v.kind != KindString {
		return "", mismatch(i, KindString, v.kind)
	}
	return v.s, nil
}

// Int64 reads a mandatory integer column.
func (r Row) Int64(i int) (int64, error) {
	v, err := r.at(i)
	if err != nil {
		return 0, err
	}
	if v.kind != KindInt64 {
		return 0, mismatch(i, KindInt64, v.kind)
	}
	return v.i, nil
}

// Bool reads a mandatory boolean column.
func (r Row) Bool(i int) (bool, error) {
	v, err := r.at(i)
	if err != nil {
		return false, err
	}
	if v.kind != KindBool {
		return false, mismatch(i, KindBool, v.kind)
	}
	return v.b, nil
}

// OptionalString reads a nullable string column. NULL yields nil; any other
// kind is a decode error.
func (r Row) OptionalString(i int) (*string, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindString:
		s := v.s
		return &s, nil
	default:
		return nil, mismatch(i, KindString, v.kind)
	}
}

// OptionalBool reads a nullable boolean column. NULL yields nil; any other
// kind is a decode error.
func (r Row) OptionalBool(i int) (*bool, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		b := v.b
		return &b, nil
	default:
		return nil, mismatch(i, KindBool, v.kind)
	}
}

// OptionalInt64 reads a nullable integer column. NULL yields nil; any other
// kind is a decode error.
func (r Row) OptionalInt64(i int) (*int64, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindInt64:
		n := v.i
		return &n, nil
	default:
		return nil, mismatch(i, KindInt64, v.kind)
	}
}

// LenientInt64 reads an integer column, returning nil for NULL, for a value
// of any other kind and for a missing column. It never fails.
func (r Row) LenientInt64(i int) *int64 {
	n, err := r.OptionalInt64(i)
	if err != nil {
		return nil
	}
	return n
}
