package rowmap

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

func TestFromDriverKinds(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		kind Kind
		want any
	}{
		{"nil", nil, KindNull, nil},
		{"bool", true, KindBool, true},
		{"int16 widens", int16(-3), KindInt64, int64(-3)},
		{"int32 widens", int32(255), KindInt64, int64(255)},
		{"int64", int64(1 << 40), KindInt64, int64(1 << 40)},
		{"uint32 oid", uint32(16384), KindInt64, int64(16384)},
		{"float32", float32(0.5), KindFloat64, float64(0.5)},
		{"string", "people", KindString, "people"},
		{"bytes", []byte{1, 2}, KindBytes, []byte{1, 2}},
		{"time", now, KindTime, now},
		{"valid numeric via valuer", pgtype.Numeric{Int: big.NewInt(42), Valid: true}, KindString, "42"},
		{"null text via valuer", pgtype.Text{}, KindNull, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromDriver(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.want, v.Interface())
		})
	}
}

func TestFromDriverRejectsUnsupported(t *testing.T) {
	_, err := FromDriver(struct{ X int }{1})
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeDecode))

	_, err = FromDriver(uint64(math.MaxUint64))
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeDecode))

	_, err = FromDriver(map[string]any{"a": 1})
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeDecode))
}

func TestBytesAreCopied(t *testing.T) {
	src := []byte("abc")
	v := Bytes(src)
	src[0] = 'z'
	assert.Equal(t, []byte("abc"), v.Interface())
}

func TestNewRowReportsColumn(t *testing.T) {
	_, err := NewRow([]any{"ok", struct{}{}})
	require.Error(t, err)

	var de *dberrors.Error
	require.ErrorAs(t, err, &de)
	col, ok := de.Detail("column")
	require.True(t, ok)
	assert.Equal(t, 1, col)
}

func TestRowAccessors(t *testing.T) {
	row := Row{String("a"), Int64(2), Bool(false), Null()}

	s, err := row.String(0)
	require.NoError(t, err)
	assert.Equal(t, "a", s)

	n, err := row.Int64(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	b, err := row.Bool(2)
	require.NoError(t, err)
	assert.False(t, b)

	_, err = row.String(3)
	assert.Error(t, err, "NULL in a mandatory column")

	_, err = row.Int64(0)
	assert.Error(t, err, "kind mismatch")

	_, err = row.String(9)
	assert.Error(t, err, "out of range")

	opt, err := row.OptionalString(3)
	require.NoError(t, err)
	assert.Nil(t, opt)

	_, err = row.OptionalInt64(0)
	assert.Error(t, err)

	assert.Nil(t, row.LenientInt64(0))
	assert.Nil(t, row.LenientInt64(3))
	assert.Nil(t, row.LenientInt64(42))
	require.NotNil(t, row.LenientInt64(1))
	assert.Equal(t, int64(2), *row.LenientInt64(1))

	assert.Equal(t, []any{"a", int64(2), false, nil}, row.Values())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "7", Int64(7).String())
	assert.Equal(t, "int64", KindInt64.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
