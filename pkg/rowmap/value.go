package rowmap

import (
	"database/sql/driver"
	"fmt"
	"math"
	"time"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// Kind identifies which scalar a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindTime
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInt64:   "int64",
	KindFloat64: "float64",
	KindString:  "string",
	KindBytes:   "bytes",
	KindTime:    "time",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is one raw column value. It is a tagged union over a closed set of
// scalar kinds; the zero Value is NULL.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	t    time.Time
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int64 wraps a 64-bit integer.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Float64 wraps a float.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes wraps a byte slice. The slice is copied.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, raw: cp}
}

// Time wraps a timestamp.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Interface returns the Go value held by v, or nil for NULL.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindTime:
		return v.t
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindNull {
		return "NULL"
	}
	return fmt.Sprint(v.Interface())
}

// FromDriver converts a value produced by the driver into a Value. Integer
// widths are widened to int64; anything outside the closed set of kinds, and
// unsigned values that overflow int64, fail with a decode error rather than
// being coerced. Types implementing driver.Valuer (pgtype.Numeric and
// friends) are converted through their driver value.
func FromDriver(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int64(int64(v)), nil
	case int8:
		return Int64(int64(v)), nil
	case int16:
		return Int64(int64(v)), nil
	case int32:
		return Int64(int64(v)), nil
	case int64:
		return Int64(v), nil
	case uint8:
		return Int64(int64(v)), nil
	case uint16:
		return Int64(int64(v)), nil
	case uint32:
		return Int64(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, dberrors.Newf(dberrors.ErrorTypeDecode, "unsigned value %d overflows int64", v)
		}
		return Int64(int64(v)), nil
	case float32:
		return Float64(float64(v)), nil
	case float64:
		return Float64(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(v), nil
	case time.Time:
		return Time(v), nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return Value{}, dberrors.Wrap(err, dberrors.ErrorTypeDecode, "failed to read driver value").
				WithDetail("type", fmt.Sprintf("%T", x))
		}
		if _, again := dv.(driver.Valuer); again {
			break
		}
		return FromDriver(dv)
	}
	return Value{}, dberrors.Newf(dberrors.ErrorTypeDecode, "unsupported column type %T", x)
}
