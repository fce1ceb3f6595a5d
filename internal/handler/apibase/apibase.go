// Package apibase implements the small SQL-like-query parser shared by the
// kosis and restapi handlers, per spec.md §4.3: a query of the form
// "SELECT ... FROM <virtual_table> WHERE <field> = <value> [AND ...]" is
// parsed into a {table, predicates, projection} struct that each concrete
// handler then translates into request parameters via its own virtual
// table map.
//
// No SQL-parsing library in the example corpus covers this shallow,
// equality-only grammar, so a small hand-rolled parser (a quote-aware
// tokenizer plus FROM/WHERE keyword lookup and AND splitting) is used
// instead of a general-purpose SQL parser (see DESIGN.md).
package apibase

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsedQuery is the result of parsing a SELECT ... FROM ... WHERE ...
// statement against a virtual table.
type ParsedQuery struct {
	Table      string
	Predicates map[string]string
	Projection []string // empty means "*"
}

// Parse parses a query of the form:
//
//	SELECT * FROM statistics_search WHERE searchNm = '인구'
//	SELECT col1, col2 FROM table WHERE a = 1 AND b = 'x'
func Parse(query string) (ParsedQuery, error) {
	fields := tokenizeTopLevel(query)
	if len(fields) < 4 {
		return ParsedQuery{}, fmt.Errorf("malformed query: %q", query)
	}

	upperFields := make([]string, len(fields))
	for i, f := range fields {
		upperFields[i] = strings.ToUpper(f)
	}

	fromIdx := indexOf(upperFields, "FROM")
	if fromIdx < 1 {
		return ParsedQuery{}, fmt.Errorf("missing FROM clause: %q", query)
	}

	projectionTokens := fields[1:fromIdx]
	pq := ParsedQuery{Predicates: map[string]string{}}
	if len(projectionTokens) != 1 || projectionTokens[0] != "*" {
		pq.Projection = splitProjection(strings.Join(projectionTokens, " "))
	}

	whereIdx := indexOf(upperFields, "WHERE")
	if whereIdx < 0 {
		if fromIdx+1 >= len(fields) {
			return ParsedQuery{}, fmt.Errorf("missing table name: %q", query)
		}
		pq.Table = strings.TrimRight(fields[fromIdx+1], ";")
		return pq, nil
	}

	if fromIdx+1 >= whereIdx {
		return ParsedQuery{}, fmt.Errorf("missing table name: %q", query)
	}
	pq.Table = fields[fromIdx+1]

	whereClause := strings.Join(fields[whereIdx+1:], " ")
	predicates, err := parsePredicates(whereClause)
	if err != nil {
		return ParsedQuery{}, err
	}
	pq.Predicates = predicates

	return pq, nil
}

func splitProjection(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePredicates parses a chain of "field = value" clauses joined by AND.
func parsePredicates(clause string) (map[string]string, error) {
	predicates := map[string]string{}
	parts := splitOnWord(clause, "AND")
	for _, part := range parts {
		eq := strings.Index(part, "=")
		if eq < 0 {
			return nil, fmt.Errorf("malformed predicate: %q", part)
		}
		field := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		value = strings.Trim(value, "'\"")
		if field == "" {
			return nil, fmt.Errorf("malformed predicate: %q", part)
		}
		predicates[field] = value
	}
	return predicates, nil
}

// splitOnWord splits on a case-insensitive whole-word separator without
// breaking quoted string values that might themselves contain the word.
func splitOnWord(s, word string) []string {
	var parts []string
	upper := strings.ToUpper(s)
	upperWord := " " + strings.ToUpper(word) + " "
	start := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && i+len(upperWord) <= len(upper) && upper[i:i+len(upperWord)] == upperWord {
			parts = append(parts, s[start:i])
			start = i + len(upperWord)
			i += len(upperWord) - 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// tokenizeTopLevel splits a query into whitespace-separated tokens,
// keeping quoted strings intact.
func tokenizeTopLevel(query string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := byte(0)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case inQuote != 0:
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		case c == ',':
			cur.WriteByte(c)
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func indexOf(tokens []string, target string) int {
	for i, t := range tokens {
		if t == target {
			return i
		}
	}
	return -1
}

// FormatStrconv is exposed so concrete handlers can coerce a predicate
// string value back to a number when the upstream endpoint expects one.
func FormatStrconv(value string) (float64, error) {
	return strconv.ParseFloat(value, 64)
}
