// Package rowmap converts raw result rows into typed records.
//
// A Row is a positional slice of Values. Value is a tagged union over a small
// closed set of scalar kinds (NULL, bool, int64, float64, string, bytes,
// time); driver values outside that set are rejected by FromDriver instead of
// being coerced.
//
// Typed accessors come in three strengths:
//
//   - Mandatory (String, Int64, Bool): NULL or a kind mismatch is a decode error.
//   - Optional (OptionalString, OptionalBool, OptionalInt64): NULL yields nil,
//     a kind mismatch is still a decode error.
//   - Lenient (LenientInt64): NULL, mismatch and a missing column all yield nil.
//
// The lenient form exists for information_schema's character_maximum_length,
// which is absent for every non-character type. Use it nowhere else.
//
// Example:
//
//	people, err := rowmap.DecodeAll(rows, rowmap.DecodePerson)
//	if err != nil {
//		return nil, err // no partial result
//	}
package rowmap
