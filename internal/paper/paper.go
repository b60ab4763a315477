// Package paper defines the canonical paper record.
package paper

import "github.com/matsen/coauthor/internal/period"

// Record is one paper's metadata as extracted from a monthly listing.
type Record struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	// URL is the abstract locator; it is the identity key across periods.
	URL string `json:"url"`

	Title    string   `json:"title"`
	Authors  []string `json:"authors"`  // First-listed first
	Subjects []string `json:"subjects"` // In listing order
}

// Period returns the listing period the record was extracted from.
func (r Record) Period() period.Period {
	return period.Period{Year: r.Year, Month: r.Month}
}

// Stamp sets the record's period.
func (r *Record) Stamp(p period.Period) {
	r.Year = p.Year
	r.Month = p.Month
}

// Key returns the identity key used for cross-period deduplication.
func (r Record) Key() string {
	return r.URL
}
