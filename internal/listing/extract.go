// Package listing extracts paper records from monthly listing pages.
//
// A listing is processed line by line against a fixed marker vocabulary.
// Every paper entry must present its markers in the order identifier,
// title, one or more authors, subjects; any other order is a structural
// error. The page declares its total entry count twice, once before the
// first entry and once after the last.
package listing

import (
	"bufio"
	"errors"
	"fmt"
	"html"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
)

// DefaultBaseURL prefixes the listing's relative abstract links.
const DefaultBaseURL = "http://arxiv.org"

// maxLineCapacity is the largest listing line the scanner accepts.
const maxLineCapacity = 1024 * 1024

// Markers of the listing vocabulary.
const (
	identifierMarker = `<span class="list-identifier"><a href="`
	titleMarker      = `<span class="descriptor">Title:</span>`
	authorMarker     = `<a href="/find/`
	subjectsMarker   = `<span class="descriptor">Subjects:</span>`
)

var (
	totalPattern = regexp.MustCompile(`total of (\d+) entries`)
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
)

// LineKind classifies a listing line by the marker it carries.
type LineKind int

const (
	LineInert LineKind = iota
	LineTotal
	LineIdentifier
	LineTitle
	LineAuthor
	LineSubjects
)

// Classify returns the kind of marker a line carries. Lines carrying none
// are inert.
func Classify(line string) LineKind {
	switch {
	case strings.Contains(line, "total of ") && strings.Contains(line, " entries"):
		return LineTotal
	case strings.Contains(line, identifierMarker):
		return LineIdentifier
	case strings.Contains(line, titleMarker):
		return LineTitle
	case strings.Contains(line, authorMarker):
		return LineAuthor
	case strings.Contains(line, subjectsMarker):
		return LineSubjects
	default:
		return LineInert
	}
}

// Extractor turns listing text into records.
type Extractor struct {
	BaseURL string
}

// NewExtractor returns an extractor that resolves abstract links against
// baseURL. An empty baseURL selects DefaultBaseURL.
func NewExtractor(baseURL string) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Extractor{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Extract parses the listing text of period p. It fails with a
// *StructuralError if the markers are out of order or the number of
// extracted records differs from the declared total.
func (e *Extractor) Extract(text string, p period.Period) ([]paper.Record, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineCapacity)

	s := NewState(p)
	var records []paper.Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		next, rec, err := e.Transition(s, line)
		if err != nil {
			return nil, atLine(err, lineNum, line)
		}
		s = next
		if rec != nil {
			records = append(records, *rec)
		}
		if s.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading listing %s: %w", p, err)
	}

	if err := finish(s); err != nil {
		return nil, atLine(err, lineNum, "")
	}
	return records, nil
}

// ExtractFile reads and extracts the listing stored at path.
func (e *Extractor) ExtractFile(path string, p period.Period) ([]paper.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listing %s: %w", p, err)
	}
	return e.Extract(string(data), p)
}

// finish validates the state at end of input. Listings normally end at the
// second total line; one that runs out first must still be complete.
func finish(s State) error {
	if s.Done {
		return nil
	}
	if s.Expected < 0 {
		return structuralf(s.Period, "listing declares no total entry count")
	}
	if s.Phase != PhaseExpectIdentifier {
		return structuralf(s.Period, "input ended while %s", s.Phase)
	}
	if s.Extracted != s.Expected {
		return structuralf(s.Period, "declared %d entries, extracted %d", s.Expected, s.Extracted)
	}
	return nil
}

func atLine(err error, lineNum int, line string) error {
	var se *StructuralError
	if errors.As(err, &se) {
		se.Line = lineNum
		se.Text = line
		return se
	}
	return err
}

func (e *Extractor) locator(href string) string {
	return e.BaseURL + "/" + strings.TrimLeft(href, "/")
}

func parseTotal(line string) (int, bool) {
	m := totalPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseHref returns the href following the identifier marker.
func parseHref(line string) string {
	i := strings.Index(line, identifierMarker)
	if i < 0 {
		return ""
	}
	rest := line[i+len(identifierMarker):]
	if end := strings.Index(rest, `"`); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// parseAuthor returns the link text of an author line.
func parseAuthor(line string) string {
	if end := strings.Index(line, "</a>"); end >= 0 {
		line = line[:end]
	}
	if start := strings.LastIndex(line, `">`); start >= 0 {
		line = line[start+2:]
	}
	return unescape(line)
}

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// afterColon returns the text after the first colon (the descriptor label).
func afterColon(s string) string {
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func unescape(s string) string {
	return strings.TrimSpace(html.UnescapeString(strings.TrimSpace(s)))
}
