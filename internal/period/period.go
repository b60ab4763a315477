// Package period identifies monthly listing batches.
package period

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a (year, month) pair identifying one listing batch.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
}

// New returns a validated Period.
func New(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks that the month is in range and the year has four digits.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("invalid month %d in period %d-%d", p.Month, p.Year, p.Month)
	}
	if p.Year < 1000 || p.Year > 9999 {
		return fmt.Errorf("invalid year %d", p.Year)
	}
	return nil
}

// Parse parses "YYYY-MM" (or "YYYYMM").
func Parse(s string) (Period, error) {
	s = strings.TrimSpace(s)
	var ys, ms string
	switch {
	case len(s) == 7 && s[4] == '-':
		ys, ms = s[:4], s[5:]
	case len(s) == 6:
		ys, ms = s[:4], s[4:]
	default:
		return Period{}, fmt.Errorf("invalid period %q (want YYYY-MM)", s)
	}

	year, err := strconv.Atoi(ys)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	month, err := strconv.Atoi(ms)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return New(year, month)
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Key formats the period as "YYYYMM", used for file names.
func (p Period) Key() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// YYMM formats the period the way arXiv listing URLs expect it.
func (p Period) YYMM() string {
	return fmt.Sprintf("%02d%02d", p.Year%100, p.Month)
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Range returns every month from start (inclusive) to end (exclusive) in
// chronological order.
func Range(start, end Period) ([]Period, error) {
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if err := end.Validate(); err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s is not before end %s", start, end)
	}

	var periods []Period
	for p := start; p.Before(end); p = p.Next() {
		periods = append(periods, p)
	}
	return periods, nil
}
