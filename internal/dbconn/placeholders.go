package dbconn

import (
	"fmt"
	"strings"

	"github.com/vibesql/vibedb/internal/query"
)

// plan is a statement with its "?" and ":name" markers rewritten to the
// dialect's numbered placeholders. slots[n-1] is the caller placeholder whose
// value feeds the n-th numbered placeholder.
type plan struct {
	sql        string
	slots      []query.Placeholder
	positional int
	names      map[string]int
}

// native reports whether the SQL had no markers to rewrite. Positional binds
// then map straight to $n / ?n.
func (p *plan) native() bool {
	return len(p.slots) == 0
}

// parse rewrites sql for d.
//
// Quoted strings, quoted identifiers, comments, "::" casts and, on Postgres,
// dollar-quoted bodies are copied through untouched. "??" is a literal "?".
// On Postgres "?|" and "?&" are JSONB operators, and a statement that already
// uses $n markers keeps every "?" as an operator. Inside an array subscript
// "[lo:hi]" a colon is a slice bound. Numbered markers ($n, ?NNN) cannot be
// combined with markers that would be renumbered.
func parse(sql string, d Dialect) (*plan, error) {
	s := newScanner(sql, d, false)
	s.run()
	if d == Postgres && s.dollar {
		s = newScanner(sql, d, true)
		s.run()
	}

	if (s.dollar || s.numbered) && !s.p.native() {
		return nil, fmt.Errorf("%w: %q", ErrMixedPlaceholders, sql)
	}

	s.p.sql = s.b.String()
	return s.p, nil
}

type scanner struct {
	sql string
	d   Dialect
	p   *plan
	b   strings.Builder

	// operatorQ makes a bare "?" an operator instead of a marker.
	operatorQ bool

	// subscripts holds one entry per open "[", true for array subscripts and
	// false for ARRAY[...] constructors.
	subscripts []bool

	dollar   bool
	numbered bool
}

func newScanner(sql string, d Dialect, operatorQ bool) *scanner {
	s := &scanner{
		sql:       sql,
		d:         d,
		p:         &plan{names: map[string]int{}},
		operatorQ: operatorQ,
	}
	s.b.Grow(len(sql) + 8)
	return s
}

func (s *scanner) run() {
	sql := s.sql
	for i := 0; i < len(sql); {
		c := sql[i]
		var next byte
		if i+1 < len(sql) {
			next = sql[i+1]
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			i = s.copyTo(i, skipQuoted(sql, i, c))

		case c == '-' && next == '-':
			j := strings.IndexByte(sql[i:], '\n')
			if j < 0 {
				j = len(sql) - i
			}
			i = s.copyTo(i, i+j)

		case c == '/' && next == '*':
			j := strings.Index(sql[i+2:], "*/")
			if j < 0 {
				j = len(sql)
			} else {
				j = i + 2 + j + 2
			}
			i = s.copyTo(i, j)

		case c == '$' && s.d == Postgres && isDigit(next):
			s.dollar = true
			i = s.copyTo(i, skipDigits(sql, i+1))

		case c == '$' && s.d == Postgres && (next == '$' || isIdentStart(next)) && !s.afterIdent(i):
			i = s.copyTo(i, skipDollarQuoted(sql, i))

		case c == ':' && next == ':':
			i = s.copyTo(i, i+2)

		case c == '[':
			s.subscripts = append(s.subscripts, s.isSubscript(i))
			i = s.copyTo(i, i+1)

		case c == ']':
			if n := len(s.subscripts); n > 0 {
				s.subscripts = s.subscripts[:n-1]
			}
			i = s.copyTo(i, i+1)

		case c == ':' && isIdentStart(next) && !s.inSubscript():
			j := i + 1
			for j < len(sql) && isIdentPart(sql[j]) {
				j++
			}
			s.named(sql[i:j])
			i = j

		case c == '?' && next == '?':
			s.b.WriteByte('?')
			i += 2

		case c == '?' && s.d == Postgres && (next == '|' || next == '&'):
			i = s.copyTo(i, i+2)

		case c == '?' && isDigit(next):
			s.numbered = true
			i = s.copyTo(i, skipDigits(sql, i+1))

		case c == '?' && !s.operatorQ:
			s.p.positional++
			s.p.slots = append(s.p.slots, query.Placeholder{Position: s.p.positional})
			s.b.WriteString(s.d.placeholder(len(s.p.slots)))
			i++

		default:
			s.b.WriteByte(c)
			i++
		}
	}
}

func (s *scanner) copyTo(i, j int) int {
	s.b.WriteString(s.sql[i:j])
	return j
}

// named writes the number of name, assigning one on first use.
func (s *scanner) named(name string) {
	n, ok := s.p.names[name]
	if !ok {
		s.p.slots = append(s.p.slots, query.Placeholder{Name: name})
		n = len(s.p.slots)
		s.p.names[name] = n
	}
	s.b.WriteString(s.d.placeholder(n))
}

func (s *scanner) inSubscript() bool {
	n := len(s.subscripts)
	return n > 0 && s.subscripts[n-1]
}

// isSubscript reports whether the "[" at i indexes a value, that is it follows
// an expression rather than the ARRAY keyword or an operator.
func (s *scanner) isSubscript(i int) bool {
	j := i - 1
	for j >= 0 && isSpace(s.sql[j]) {
		j--
	}
	if j < 0 {
		return false
	}

	switch c := s.sql[j]; {
	case c == ']' || c == ')' || c == '"':
		return true
	case isIdentPart(c):
		k := j
		for k >= 0 && isIdentPart(s.sql[k]) {
			k--
		}
		return !strings.EqualFold(s.sql[k+1:j+1], "ARRAY")
	}
	return false
}

// afterIdent reports whether sql[i] continues an identifier, where Postgres
// allows "$".
func (s *scanner) afterIdent(i int) bool {
	return i > 0 && (isIdentPart(s.sql[i-1]) || s.sql[i-1] == '$')
}

// skipQuoted returns the index just past the literal opened at sql[i].
// A doubled quote character escapes itself.
func skipQuoted(sql string, i int, quote byte) int {
	j := i + 1
	for j < len(sql) {
		if sql[j] == quote {
			if j+1 < len(sql) && sql[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(sql)
}

// skipDollarQuoted returns the index just past the $tag$...$tag$ body opened
// at sql[i]. Text that is not a valid opening tag is consumed up to the tag
// name only.
func skipDollarQuoted(sql string, i int) int {
	k := i + 1
	for k < len(sql) && isIdentPart(sql[k]) {
		k++
	}
	if k >= len(sql) || sql[k] != '$' {
		return k
	}

	tag := sql[i : k+1]
	end := strings.Index(sql[k+1:], tag)
	if end < 0 {
		return len(sql)
	}
	return k + 1 + end + len(tag)
}

func skipDigits(sql string, j int) int {
	for j < len(sql) && isDigit(sql[j]) {
		j++
	}
	return j
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
