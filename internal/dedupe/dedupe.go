// Package dedupe drops papers that reappear in later listings.
package dedupe

import (
	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
)

// Group is the record sequence of one listing period.
type Group struct {
	Period  period.Period
	Records []paper.Record
}

// Deduplicator remembers every identity key it has passed. The first
// occurrence of a key wins; later ones are dropped without comparison.
type Deduplicator struct {
	seen    map[string]struct{}
	dropped int
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Seed marks the keys of records as already seen without counting them as
// dropped. It is used to resume a run after periods that are already clean.
func (d *Deduplicator) Seed(records []paper.Record) {
	for _, r := range records {
		d.seen[r.Key()] = struct{}{}
	}
}

// Filter returns the records whose key has not been seen before and marks
// them as seen. Records are returned unmodified, in input order.
func (d *Deduplicator) Filter(records []paper.Record) []paper.Record {
	var kept []paper.Record
	for _, r := range records {
		key := r.Key()
		if _, ok := d.seen[key]; ok {
			d.dropped++
			continue
		}
		d.seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept
}

// Apply filters groups in the given (chronological) order. Groups left
// with no records are omitted.
func (d *Deduplicator) Apply(groups []Group) []Group {
	var out []Group
	for _, g := range groups {
		kept := d.Filter(g.Records)
		if len(kept) == 0 {
			continue
		}
		out = append(out, Group{Period: g.Period, Records: kept})
	}
	return out
}

// Seen returns the number of distinct keys passed so far.
func (d *Deduplicator) Seen() int {
	return len(d.seen)
}

// Dropped returns the number of records dropped so far.
func (d *Deduplicator) Dropped() int {
	return d.dropped
}

// Flatten concatenates the records of groups in order.
func Flatten(groups []Group) []paper.Record {
	var records []paper.Record
	for _, g := range groups {
		records = append(records, g.Records...)
	}
	return records
}
