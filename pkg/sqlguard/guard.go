// Package sqlguard validates schema identifiers before they reach SQL text.
//
// Table and column names cannot be sent as bound parameters, so any
// identifier that is interpolated into a statement must first pass a Guard.
// Validation is fail-closed: an identifier is either returned unchanged or
// rejected with an invalid_identifier error; it is never truncated or
// escaped-and-accepted.
//
// Quote is the only sanctioned way to build SQL from an identifier. It
// validates every part and renders the result with pgx's identifier
// sanitizer.
package sqlguard

import (
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// Policy selects the character rules applied by a Guard.
type Policy int

const (
	// PolicyStrict accepts only [A-Za-z0-9_] up to MaxLength characters.
	PolicyStrict Policy = iota
	// PolicyReference rejects any identifier containing whitespace.
	PolicyReference
)

// DefaultMaxLength is PostgreSQL's NAMEDATALEN-1.
const DefaultMaxLength = 63

// ParsePolicy maps "strict" and "reference" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "strict", "":
		return PolicyStrict, nil
	case "reference":
		return PolicyReference, nil
	default:
		return PolicyStrict, dberrors.Newf(dberrors.ErrorTypeConfig, "unknown identifier policy %q", s)
	}
}

func (p Policy) String() string {
	if p == PolicyReference {
		return "reference"
	}
	return "strict"
}

// Guard validates identifiers. The zero value is a strict guard with the
// default maximum length.
type Guard struct {
	Policy    Policy
	MaxLength int
}

// Default is the strict guard used by Validate and Quote.
var Default = Guard{Policy: PolicyStrict, MaxLength: DefaultMaxLength}

// Validate checks identifier with the Default guard.
func Validate(identifier string) (string, error) {
	return Default.Validate(identifier)
}

// Quote validates and quotes parts with the Default guard.
func Quote(parts ...string) (string, error) {
	return Default.Quote(parts...)
}

// Validate returns identifier unchanged if it passes the guard's policy.
func (g Guard) Validate(identifier string) (string, error) {
	if identifier == "" {
		return "", reject(identifier, "identifier is empty")
	}

	switch g.Policy {
	case PolicyReference:
		for _, r := range identifier {
			if unicode.IsSpace(r) {
				return "", reject(identifier, "identifier contains whitespace")
			}
		}
	default:
		maxLen := g.MaxLength
		if maxLen <= 0 {
			maxLen = DefaultMaxLength
		}
		if len(identifier) > maxLen {
			return "", reject(identifier, "identifier is too long").WithDetail("max_length", maxLen)
		}
		for i := 0; i < len(identifier); i++ {
			if !isIdentByte(identifier[i]) {
				return "", reject(identifier, "identifier contains a disallowed character").
					WithDetail("position", i)
			}
		}
	}

	return identifier, nil
}

// Quote validates each part and returns them joined as a quoted, qualified
// identifier, e.g. Quote("public", "people") renders "public"."people".
func (g Guard) Quote(parts ...string) (string, error) {
	if len(parts) == 0 {
		return "", reject("", "no identifier parts")
	}
	ident := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		v, err := g.Validate(p)
		if err != nil {
			return "", err
		}
		ident = append(ident, v)
	}
	return ident.Sanitize(), nil
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func reject(identifier, reason string) *dberrors.Error {
	return dberrors.New(dberrors.ErrorTypeInvalidIdentifier, reason).
		WithDetail("identifier", identifier)
}
