package listing

import (
	"strings"

	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
)

// Phase is the position of the extractor within one paper entry.
type Phase int

const (
	PhaseExpectIdentifier Phase = iota
	PhaseExpectTitle
	PhaseCollectingAuthors
)

func (p Phase) String() string {
	switch p {
	case PhaseExpectIdentifier:
		return "expect-identifier"
	case PhaseExpectTitle:
		return "expect-title"
	case PhaseCollectingAuthors:
		return "collecting-authors"
	default:
		return "unknown"
	}
}

// State is the extractor's complete state between two lines.
type State struct {
	Period period.Period
	Phase  Phase

	// Authors counts author lines seen for the in-progress record. It must
	// always equal len(Record.Authors).
	Authors int
	Record  paper.Record

	Expected  int // Declared total; -1 until the first total line
	Extracted int
	Done      bool // Second total line seen; later lines are ignored
}

// NewState returns the initial state for a listing of period p.
func NewState(p period.Period) State {
	return State{Period: p, Phase: PhaseExpectIdentifier, Expected: -1}
}

// Transition consumes one line. It returns the next state and, when the line
// closes an entry, the completed record. Illegal marker orderings return a
// *StructuralError; the caller fills in the line position.
func (e *Extractor) Transition(s State, line string) (State, *paper.Record, error) {
	if s.Done {
		return s, nil, nil
	}

	switch Classify(line) {
	case LineTotal:
		return e.onTotal(s, line)
	case LineIdentifier:
		return e.onIdentifier(s, line)
	case LineTitle:
		return e.onTitle(s, line)
	case LineAuthor:
		return e.onAuthor(s, line)
	case LineSubjects:
		return e.onSubjects(s, line)
	default:
		return s, nil, nil
	}
}

func (e *Extractor) onTotal(s State, line string) (State, *paper.Record, error) {
	n, ok := parseTotal(line)
	if !ok {
		return s, nil, structuralf(s.Period, "malformed total line")
	}
	if s.Expected < 0 {
		s.Expected = n
		return s, nil, nil
	}
	if s.Phase != PhaseExpectIdentifier {
		return s, nil, structuralf(s.Period, "listing ended while %s", s.Phase)
	}
	if s.Extracted != s.Expected {
		return s, nil, structuralf(s.Period, "declared %d entries, extracted %d", s.Expected, s.Extracted)
	}
	s.Done = true
	return s, nil, nil
}

func (e *Extractor) onIdentifier(s State, line string) (State, *paper.Record, error) {
	if s.Phase != PhaseExpectIdentifier {
		return s, nil, structuralf(s.Period, "identifier marker while %s", s.Phase)
	}
	href := parseHref(line)
	if href == "" {
		return s, nil, structuralf(s.Period, "identifier marker without href")
	}
	s.Record = paper.Record{URL: e.locator(href)}
	s.Authors = 0
	s.Phase = PhaseExpectTitle
	return s, nil, nil
}

func (e *Extractor) onTitle(s State, line string) (State, *paper.Record, error) {
	if s.Phase != PhaseExpectTitle {
		return s, nil, structuralf(s.Period, "title marker while %s", s.Phase)
	}
	title := unescape(afterColon(stripTags(line)))
	if title == "" {
		return s, nil, structuralf(s.Period, "empty title for %s", s.Record.URL)
	}
	s.Record.Title = title
	s.Phase = PhaseCollectingAuthors
	return s, nil, nil
}

func (e *Extractor) onAuthor(s State, line string) (State, *paper.Record, error) {
	if s.Phase != PhaseCollectingAuthors {
		return s, nil, structuralf(s.Period, "author marker while %s", s.Phase)
	}
	name := parseAuthor(line)
	if name == "" {
		return s, nil, structuralf(s.Period, "empty author name for %s", s.Record.URL)
	}

	authors := make([]string, len(s.Record.Authors), len(s.Record.Authors)+1)
	copy(authors, s.Record.Authors)
	s.Record.Authors = append(authors, name)
	s.Authors++
	if s.Authors != len(s.Record.Authors) {
		return s, nil, structuralf(s.Period, "author count %d disagrees with %d collected", s.Authors, len(s.Record.Authors))
	}
	return s, nil, nil
}

func (e *Extractor) onSubjects(s State, line string) (State, *paper.Record, error) {
	if s.Phase != PhaseCollectingAuthors {
		return s, nil, structuralf(s.Period, "subjects marker while %s", s.Phase)
	}
	if s.Authors != len(s.Record.Authors) {
		return s, nil, structuralf(s.Period, "author count %d disagrees with %d collected", s.Authors, len(s.Record.Authors))
	}
	if s.Authors == 0 {
		return s, nil, structuralf(s.Period, "no authors before subjects for %s", s.Record.URL)
	}

	var subjects []string
	for _, part := range strings.Split(afterColon(stripTags(line)), ";") {
		if subject := unescape(part); subject != "" {
			subjects = append(subjects, subject)
		}
	}
	if len(subjects) == 0 {
		return s, nil, structuralf(s.Period, "empty subjects for %s", s.Record.URL)
	}

	done := s.Record
	done.Subjects = subjects
	done.Stamp(s.Period)

	s.Record = paper.Record{}
	s.Authors = 0
	s.Phase = PhaseExpectIdentifier
	s.Extracted++
	return s, &done, nil
}
