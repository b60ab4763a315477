package author

import (
	"strings"
)

// Query is a parsed author lookup against canonical names.
type Query struct {
	First string // Given names, may be empty for last-name-only queries
	Last  string // Required
}

// ParseQuery parses a free-form author lookup. The input is canonicalized
// first, so "García-López" and "garcia lopez" parse the same way.
//
// Supported formats:
//   - "smith"             → last="smith"
//   - "alice smith"       → first="alice", last="smith"
//   - "smith, alice"      → first="alice", last="smith"
func ParseQuery(input string) Query {
	return splitName(Canonicalize(input))
}

// splitName splits a canonical name into given names and last name.
func splitName(name string) Query {
	if name == "" {
		return Query{}
	}

	if idx := strings.Index(name, ","); idx > 0 {
		return Query{
			First: strings.TrimSpace(name[idx+1:]),
			Last:  strings.TrimSpace(name[:idx]),
		}
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return Query{Last: parts[0]}
	}
	return Query{
		First: strings.Join(parts[:len(parts)-1], " "),
		Last:  parts[len(parts)-1],
	}
}

// IsEmpty reports whether the query has nothing to match on.
func (q Query) IsEmpty() bool {
	return q.Last == ""
}

// Matches checks the query against a canonical name.
//
// The last name must match exactly and the query's given names must be a
// prefix of the name's given names, so "a. smith" matches "a. b. smith"
// and "alice smith" but "smith" never matches "smithson".
func (q Query) Matches(name string) bool {
	if q.IsEmpty() {
		return false
	}
	other := splitName(name)
	if other.Last != q.Last {
		return false
	}
	if q.First == "" {
		return true
	}
	first := strings.TrimSuffix(q.First, ".")
	return strings.HasPrefix(other.First, first)
}

// Filter returns the names the query matches, in input order.
func (q Query) Filter(names []string) []string {
	var out []string
	for _, name := range names {
		if q.Matches(name) {
			out = append(out, name)
		}
	}
	return out
}
