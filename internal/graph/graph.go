// Package graph derives tidy, id-based relations from clean paper records:
// a paper table, an author table, the paper↔author incidence list and the
// weighted coauthorship graph.
package graph

import (
	"fmt"
	"sort"

	"github.com/matsen/coauthor/internal/paper"
)

// Paper is a row of the paper table.
type Paper struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// Author is a row of the author table.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Authorship links an author to a paper, stamped with the paper's period.
type Authorship struct {
	AuthorID int `json:"author_id"`
	PaperID  int `json:"paper_id"`
	Year     int `json:"year"`
	Month    int `json:"month"`
}

// Coauthorship is an undirected, weighted edge with Low < High. Weight is
// the number of distinct papers both authors appear on.
type Coauthorship struct {
	Low    int `json:"low"`
	High   int `json:"high"`
	Weight int `json:"weight"`
}

// Relations is the full derived dataset.
type Relations struct {
	Papers        []Paper
	Authors       []Author
	Authorships   []Authorship
	Coauthorships []Coauthorship
}

// Stats summarizes the size of a Relations value.
type Stats struct {
	Papers        int `json:"papers"`
	Authors       int `json:"authors"`
	Authorships   int `json:"authorships"`
	Coauthorships int `json:"coauthorships"`
}

// Stats returns the row count of each relation.
func (r *Relations) Stats() Stats {
	return Stats{
		Papers:        len(r.Papers),
		Authors:       len(r.Authors),
		Authorships:   len(r.Authorships),
		Coauthorships: len(r.Coauthorships),
	}
}

type pair struct {
	low, high int
}

// Derive builds the relations from a deduplicated record set given in
// period order.
//
// Paper ids follow record order. Author ids follow the byte-wise sort of
// all distinct names, so both tables depend only on the input records.
// Records must have unique URLs and duplicate-free, non-empty author
// lists; anything else is reported as an error.
func Derive(records []paper.Record) (*Relations, error) {
	rel := &Relations{Papers: make([]Paper, 0, len(records))}

	paperIDs := make(map[string]int, len(records))
	names := make(map[string]struct{})
	for _, r := range records {
		if r.URL == "" {
			return nil, fmt.Errorf("record %q in %s has no identifier", r.Title, r.Period())
		}
		if _, dup := paperIDs[r.URL]; dup {
			return nil, fmt.Errorf("duplicate paper %s in %s", r.URL, r.Period())
		}
		id := len(rel.Papers) + 1
		paperIDs[r.URL] = id
		rel.Papers = append(rel.Papers, Paper{ID: id, URL: r.URL})

		for _, name := range r.Authors {
			if name == "" {
				return nil, fmt.Errorf("paper %s has an empty author name", r.URL)
			}
			names[name] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	authorIDs := make(map[string]int, len(sorted))
	rel.Authors = make([]Author, len(sorted))
	for i, name := range sorted {
		authorIDs[name] = i + 1
		rel.Authors[i] = Author{ID: i + 1, Name: name}
	}

	weights := make(map[pair]int)
	for _, r := range records {
		paperID := paperIDs[r.URL]

		ids := make([]int, 0, len(r.Authors))
		inPaper := make(map[int]bool, len(r.Authors))
		for _, name := range r.Authors {
			id := authorIDs[name]
			if inPaper[id] {
				return nil, fmt.Errorf("paper %s lists author %q twice", r.URL, name)
			}
			inPaper[id] = true
			ids = append(ids, id)
			rel.Authorships = append(rel.Authorships, Authorship{
				AuthorID: id,
				PaperID:  paperID,
				Year:     r.Year,
				Month:    r.Month,
			})
		}

		// Each paper is visited once with distinct ids, so counting pairs
		// counts distinct shared papers.
		sort.Ints(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				weights[pair{ids[i], ids[j]}]++
			}
		}
	}

	rel.Coauthorships = make([]Coauthorship, 0, len(weights))
	for p, w := range weights {
		rel.Coauthorships = append(rel.Coauthorships, Coauthorship{Low: p.low, High: p.high, Weight: w})
	}
	sort.Slice(rel.Coauthorships, func(i, j int) bool {
		a, b := rel.Coauthorships[i], rel.Coauthorships[j]
		if a.Low != b.Low {
			return a.Low < b.Low
		}
		return a.High < b.High
	})

	return rel, nil
}
