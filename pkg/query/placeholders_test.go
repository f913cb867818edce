package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		highest int
	}{
		{"none", "SELECT datname FROM pg_database;", 0},
		{"single", "SELECT * FROM t WHERE id = $1", 1},
		{"reused", "SELECT $1, $1::text, $2", 2},
		{"multi digit", "SELECT $10", 10},
		{"cast", "SELECT $2::int8, $1", 2},
		{"string literal", "SELECT '$3' , $1", 1},
		{"doubled quote", "SELECT 'it''s $9', $1", 1},
		{"escape string", `SELECT E'\'$7', $1`, 1},
		{"quoted identifier", `SELECT "col$4" FROM t WHERE a = $1`, 1},
		{"line comment", "SELECT $1 -- and $5\n", 1},
		{"block comment", "SELECT /* $3 /* nested $4 */ */ $1", 1},
		{"dollar quote", "SELECT $$ $8 $$, $1", 1},
		{"tagged dollar quote", "SELECT $fn$ $8 $fn$, $2, $1", 2},
		{"identifier with dollar", "SELECT a$1 FROM t", 0},
		{"unterminated literal", "SELECT $1, 'oops $2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := placeholders(tt.sql)
			assert.Equal(t, tt.highest, got)
		})
	}
}

func TestCheckPlaceholders(t *testing.T) {
	assert.NoError(t, checkPlaceholders("SELECT 1", 0))
	assert.NoError(t, checkPlaceholders("SELECT $1, $2", 2))

	err := checkPlaceholders("SELECT $1, $2", 1)
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeQuery))

	err = checkPlaceholders("SELECT $1", 2)
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeQuery))

	// $2 is skipped
	err = checkPlaceholders("SELECT $1, $3", 3)
	assert.True(t, dberrors.IsType(err, dberrors.ErrorTypeQuery))
}
