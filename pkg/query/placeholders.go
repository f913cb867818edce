package query

import (
	"strings"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// placeholders returns the highest $N referenced in sql and the set of
// indexes seen. Text inside string literals, quoted identifiers, comments and
// dollar-quoted bodies is skipped. Unterminated constructs end the scan; the
// server reports those.
func placeholders(sql string) (int, map[int]bool) {
	seen := make(map[int]bool)
	highest := 0

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'':
			escapes := i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e') && (i < 2 || !isIdentByte(sql[i-2]))
			i = skipQuoted(sql, i+1, '\'', escapes)
		case c == '"':
			i = skipQuoted(sql, i+1, '"', false)
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				return highest, seen
			}
			i += end + 1
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			i = skipBlockComment(sql, i+2)
		case c == '$':
			if i > 0 && isIdentByte(sql[i-1]) {
				// part of an identifier such as a$1
				i++
				continue
			}
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j > i+1 {
				n := 0
				for _, d := range sql[i+1 : j] {
					n = n*10 + int(d-'0')
					if n > maxPlaceholder {
						n = maxPlaceholder + 1
						break
					}
				}
				seen[n] = true
				if n > highest {
					highest = n
				}
				i = j
				continue
			}
			if tag, ok := dollarTag(sql, i); ok {
				end := strings.Index(sql[i+len(tag):], tag)
				if end < 0 {
					return highest, seen
				}
				i += len(tag) + end + len(tag)
				continue
			}
			i++
		default:
			i++
		}
	}
	return highest, seen
}

// maxPlaceholder is the bind parameter limit of the PostgreSQL protocol.
const maxPlaceholder = 65535

// checkPlaceholders fails unless sql references exactly $1..$nargs.
func checkPlaceholders(sql string, nargs int) error {
	highest, seen := placeholders(sql)
	if highest != nargs {
		return dberrors.Newf(dberrors.ErrorTypeQuery,
			"statement references %d placeholders but %d arguments were given", highest, nargs).
			WithDetail("placeholders", highest).
			WithDetail("arguments", nargs)
	}
	for n := 1; n <= highest; n++ {
		if !seen[n] {
			return dberrors.Newf(dberrors.ErrorTypeQuery, "placeholder $%d is never referenced", n).
				WithDetail("placeholders", highest)
		}
	}
	return nil
}

func skipQuoted(sql string, i int, quote byte, backslashEscapes bool) int {
	for i < len(sql) {
		switch sql[i] {
		case '\\':
			if backslashEscapes {
				i += 2
				continue
			}
		case quote:
			if i+1 < len(sql) && sql[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

func skipBlockComment(sql string, i int) int {
	depth := 1
	for i < len(sql) && depth > 0 {
		switch {
		case sql[i] == '/' && i+1 < len(sql) && sql[i+1] == '*':
			depth++
			i += 2
		case sql[i] == '*' && i+1 < len(sql) && sql[i+1] == '/':
			depth--
			i += 2
		default:
			i++
		}
	}
	return i
}

// dollarTag returns the opening delimiter ($$ or $tag$) starting at i.
func dollarTag(sql string, i int) (string, bool) {
	j := i + 1
	for j < len(sql) && sql[j] != '$' {
		c := sql[j]
		if !isIdentByte(c) || (j == i+1 && c >= '0' && c <= '9') {
			return "", false
		}
		j++
	}
	if j >= len(sql) {
		return "", false
	}
	return sql[i : j+1], true
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= 0x80
}
