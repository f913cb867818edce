package rowmap

import (
	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// Column positions read by DecodeColumnDescriptor. The catalog query must
// select column_name, data_type, character_maximum_length, is_nullable first,
// in that order; trailing columns are ignored.
const (
	ColumnNameIndex       = 0
	ColumnDataTypeIndex   = 1
	ColumnMaxLengthIndex  = 2
	ColumnIsNullableIndex = 3
)

// Column positions read by DecodePerson: id, name, email, enabled.
const (
	PersonIDIndex      = 0
	PersonNameIndex    = 1
	PersonEmailIndex   = 2
	PersonEnabledIndex = 3
)

// DecodeAll decodes every row with fn. Decoding is all-or-nothing: the first
// failure is returned with the offending row index and no partial result.
func DecodeAll[T any](rows []Row, fn func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		rec, err := fn(row)
		if err != nil {
			return nil, dberrors.Wrap(err, dberrors.ErrorTypeDecode, "failed to decode row").
				WithDetail("row", i)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FirstString decodes column 0 as a mandatory string.
func FirstString(row Row) (string, error) {
	return row.String(0)
}

// DecodeColumnDescriptor reads a column description row.
//
// Name and data type are mandatory strings. The maximum length is read
// leniently: NULL, a non-integer value or a missing column all yield nil.
// Nullability is false only for the literal "NO"; every other value,
// including NULL and non-strings, is treated as nullable.
func DecodeColumnDescriptor(row Row) (ColumnDescriptor, error) {
	name, err := row.String(ColumnNameIndex)
	if err != nil {
		return ColumnDescriptor{}, err
	}
	dataType, err := row.String(ColumnDataTypeIndex)
	if err != nil {
		return ColumnDescriptor{}, err
	}

	isNullable, err := row.String(ColumnIsNullableIndex)
	nullable := err != nil || isNullable != "NO"

	return ColumnDescriptor{
		Name:      name,
		DataType:  dataType,
		MaxLength: row.LenientInt64(ColumnMaxLengthIndex),
		Nullable:  nullable,
	}, nil
}

// DecodePerson reads id, name, email and the optional enabled flag. NULL is a
// valid enabled value; any kind mismatch is an error.
func DecodePerson(row Row) (Person, error) {
	id, err := row.Int64(PersonIDIndex)
	if err != nil {
		return Person{}, err
	}
	name, err := row.String(PersonNameIndex)
	if err != nil {
		return Person{}, err
	}
	email, err := row.String(PersonEmailIndex)
	if err != nil {
		return Person{}, err
	}
	enabled, err := row.OptionalBool(PersonEnabledIndex)
	if err != nil {
		return Person{}, err
	}

	return Person{
		ID:      id,
		Name:    name,
		Email:   email,
		Enabled: enabled,
	}, nil
}
