package sqlguard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

func TestValidateStrict(t *testing.T) {
	accepted := []string{"users", "people", "Order_Items", "t1", "_hidden", strings.Repeat("a", 63)}
	for _, id := range accepted {
		got, err := Validate(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, got)
	}

	rejected := []string{
		"",
		"users; DROP TABLE x",
		"a b",
		"tab\tle",
		`peo"ple`,
		"people--",
		"schema.table",
		"naïve",
		strings.Repeat("a", 64),
	}
	for _, id := range rejected {
		got, err := Validate(id)
		require.Error(t, err, "%q", id)
		assert.True(t, errors.Is(err, dberrors.ErrInvalidIdentifier), "%q", id)
		assert.Empty(t, got, "%q", id)
	}
}

func TestValidateReference(t *testing.T) {
	g := Guard{Policy: PolicyReference}

	_, err := g.Validate("users")
	assert.NoError(t, err)

	// the reference policy only rejects whitespace
	_, err = g.Validate("odd-name")
	assert.NoError(t, err)

	for _, id := range []string{"", "a b", "users; DROP TABLE x", "line\nbreak"} {
		_, err := g.Validate(id)
		assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeInvalidIdentifier), "%q", id)
	}
}

func TestValidateCustomMaxLength(t *testing.T) {
	g := Guard{MaxLength: 4}
	_, err := g.Validate("abcd")
	assert.NoError(t, err)
	_, err = g.Validate("abcde")
	assert.Error(t, err)
}

func TestZeroGuardIsStrict(t *testing.T) {
	var g Guard
	_, err := g.Validate(strings.Repeat("x", 63))
	assert.NoError(t, err)
	_, err = g.Validate("a-b")
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	q, err := Quote("public", "people")
	require.NoError(t, err)
	assert.Equal(t, `"public"."people"`, q)

	_, err = Quote("public", "people; DROP TABLE x")
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeInvalidIdentifier))

	_, err = Quote()
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("reference")
	require.NoError(t, err)
	assert.Equal(t, PolicyReference, p)
	assert.Equal(t, "reference", p.String())

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("lax")
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeConfig))
}
