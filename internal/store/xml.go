package store

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/matsen/coauthor/internal/fsutil"
	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
)

type xmlPapers struct {
	XMLName xml.Name   `xml:"papers"`
	Count   int        `xml:"count,attr"`
	Papers  []xmlPaper `xml:"paper"`
}

type xmlPaper struct {
	Year     int         `xml:"year,attr"`
	Month    int         `xml:"month,attr"`
	URL      string      `xml:"url,attr"`
	Title    string      `xml:"title"`
	Authors  xmlAuthors  `xml:"authors"`
	Subjects xmlSubjects `xml:"subjects"`
}

type xmlAuthors struct {
	Count int      `xml:"count,attr"`
	Names []string `xml:"author"`
}

type xmlSubjects struct {
	Count    int      `xml:"count,attr"`
	Subjects []string `xml:"subject"`
}

// XMLStore keeps each period in <dir>/<YYYYMM>.xml.
type XMLStore struct {
	files
}

// NewXMLStore returns an XML store rooted at dir.
func NewXMLStore(dir string) *XMLStore {
	return &XMLStore{files{dir: dir, ext: ".xml"}}
}

// Save replaces the period's file with records. Every record must belong
// to period p.
func (s *XMLStore) Save(p period.Period, records []paper.Record) error {
	if err := checkPeriods(p, records); err != nil {
		return err
	}

	doc := xmlPapers{Count: len(records), Papers: make([]xmlPaper, len(records))}
	for i, r := range records {
		doc.Papers[i] = xmlPaper{
			Year:     r.Year,
			Month:    r.Month,
			URL:      r.URL,
			Title:    r.Title,
			Authors:  xmlAuthors{Count: len(r.Authors), Names: r.Authors},
			Subjects: xmlSubjects{Count: len(r.Subjects), Subjects: r.Subjects},
		}
	}

	return fsutil.WriteAtomic(s.path(p), func(w io.Writer) error {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding %s: %w", p, err)
		}
		_, err := io.WriteString(w, "\n")
		return err
	})
}

// Load reads the period's records, validating the count attributes.
func (s *XMLStore) Load(p period.Period) ([]paper.Record, error) {
	f, err := s.open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc xmlPapers
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	if doc.Count != len(doc.Papers) {
		return nil, fmt.Errorf("parsing %s: count attribute %d, found %d papers", p, doc.Count, len(doc.Papers))
	}

	records := make([]paper.Record, len(doc.Papers))
	for i, x := range doc.Papers {
		if x.Authors.Count != len(x.Authors.Names) {
			return nil, fmt.Errorf("parsing %s: paper %s declares %d authors, found %d", p, x.URL, x.Authors.Count, len(x.Authors.Names))
		}
		if x.Subjects.Count != len(x.Subjects.Subjects) {
			return nil, fmt.Errorf("parsing %s: paper %s declares %d subjects, found %d", p, x.URL, x.Subjects.Count, len(x.Subjects.Subjects))
		}
		records[i] = paper.Record{
			Year:     x.Year,
			Month:    x.Month,
			URL:      strings.TrimSpace(x.URL),
			Title:    strings.TrimSpace(x.Title),
			Authors:  trimAll(x.Authors.Names),
			Subjects: trimAll(x.Subjects.Subjects),
		}
	}

	if err := checkPeriods(p, records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return records, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
