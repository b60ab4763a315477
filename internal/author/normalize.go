// Package author canonicalizes author names so that spelling variants of
// the same person collapse to one identity key.
//
// A canonical name contains only lowercase ASCII letters, commas, spaces and
// dots. It is derived by lowercasing, turning hyphen/underscore runs into
// spaces, folding accented letters through a fixed table, dropping every
// other character, collapsing whitespace, and finally applying a table of
// manual overrides for known-bad extractions.
package author

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/coauthor/internal/paper"
)

var separatorPattern = regexp.MustCompile(`[-_]+`)

// UnmappedCharacter records a non-ASCII character that had no fold-table
// entry and was therefore deleted from a name.
type UnmappedCharacter struct {
	Char    rune   `json:"char"`
	Count   int    `json:"count"`
	Example string `json:"example"` // First raw name it was seen in
}

// Normalizer canonicalizes author lists. It collects unmapped characters
// across every name it sees, so use one Normalizer per pipeline run.
type Normalizer struct {
	overrides []Override
	logger    *zap.Logger
	unmapped  map[rune]*UnmappedCharacter
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithOverrides adds rules checked before DefaultOverrides.
func WithOverrides(rules []Override) Option {
	return func(n *Normalizer) {
		n.overrides = append(append([]Override(nil), rules...), n.overrides...)
	}
}

// WithLogger sets the logger used for unmapped-character warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNormalizer returns a Normalizer with the default override table.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		overrides: append([]Override(nil), DefaultOverrides...),
		logger:    zap.NewNop(),
		unmapped:  make(map[rune]*UnmappedCharacter),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Canonicalize applies every step except the override table.
func Canonicalize(raw string) string {
	return canonicalize(raw, nil)
}

// canonicalize implements the fold-and-filter steps. Deleted non-ASCII
// characters are passed to unmapped if it is non-nil.
func canonicalize(raw string, unmapped func(rune)) string {
	s := norm.NFC.String(raw)
	s = strings.ToLower(s)
	s = separatorPattern.ReplaceAllString(s, " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, c := range s {
		if folded, ok := Fold(c); ok {
			sb.WriteString(folded)
			continue
		}
		if isCanonicalRune(c) {
			sb.WriteRune(c)
			continue
		}
		if c >= utf8.RuneSelf && unmapped != nil {
			unmapped(c)
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// NormalizeName canonicalizes one raw name. Overrides may split it into
// several names; a name with nothing left after filtering yields none.
func (n *Normalizer) NormalizeName(raw string) []string {
	name := canonicalize(raw, func(c rune) { n.recordUnmapped(c, raw) })
	if name == "" {
		n.logger.Warn("author name empty after normalization", zap.String("raw", raw))
		return nil
	}

	for _, o := range n.overrides {
		if o.Applies(name) {
			n.logger.Debug("applied author override",
				zap.String("name", name),
				zap.Strings("replace", o.Replace))
			return append([]string(nil), o.Replace...)
		}
	}
	return []string{name}
}

// Normalize canonicalizes a record's author list, removing duplicates while
// keeping the first occurrence of each name.
func (n *Normalizer) Normalize(raws []string) []string {
	seen := make(map[string]bool, len(raws))
	names := make([]string, 0, len(raws))
	for _, raw := range raws {
		for _, name := range n.NormalizeName(raw) {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// NormalizeRecord replaces the record's authors with their canonical form.
func (n *Normalizer) NormalizeRecord(r *paper.Record) {
	r.Authors = n.Normalize(r.Authors)
}

// Unmapped returns the characters deleted so far, ordered by code point.
func (n *Normalizer) Unmapped() []UnmappedCharacter {
	out := make([]UnmappedCharacter, 0, len(n.unmapped))
	for _, u := range n.unmapped {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Char < out[j].Char })
	return out
}

func (n *Normalizer) recordUnmapped(c rune, raw string) {
	if u, ok := n.unmapped[c]; ok {
		u.Count++
		return
	}
	n.unmapped[c] = &UnmappedCharacter{Char: c, Count: 1, Example: raw}
	n.logger.Warn("unmapped character removed from author name",
		zap.String("char", string(c)),
		zap.String("codepoint", Codepoint(c)),
		zap.String("raw", raw))
}

// IsCanonical reports whether name uses only the canonical alphabet.
func IsCanonical(name string) bool {
	for _, c := range name {
		if !isCanonicalRune(c) {
			return false
		}
	}
	return true
}

func isCanonicalRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || c == ',' || c == ' ' || c == '.'
}

// Codepoint formats c as "U+XXXX".
func Codepoint(c rune) string {
	return fmt.Sprintf("U+%04X", c)
}
