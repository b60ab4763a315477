// Package store persists per-period paper records.
//
// Each period is one file named after the period key (YYYYMM) inside the
// store directory. Two encodings are supported: the attributed XML layout
// used for the published datasets and line-delimited JSON.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
)

// Supported store formats.
const (
	FormatXML   = "xml"
	FormatJSONL = "jsonl"
)

// ErrPeriodNotFound is returned by Load when a period has no file.
var ErrPeriodNotFound = errors.New("period not found in store")

// Store loads and saves the ordered record list of a period.
type Store interface {
	Load(p period.Period) ([]paper.Record, error)
	Save(p period.Period, records []paper.Record) error
	Exists(p period.Period) bool
	Remove(p period.Period) error
	Periods() ([]period.Period, error)
}

// Open returns a store of the given format rooted at dir.
func Open(format, dir string) (Store, error) {
	switch format {
	case FormatXML, "":
		return NewXMLStore(dir), nil
	case FormatJSONL:
		return NewJSONLStore(dir), nil
	default:
		return nil, fmt.Errorf("unknown store format %q (valid: %s, %s)", format, FormatXML, FormatJSONL)
	}
}

// ValidFormat reports whether format names a supported store format.
func ValidFormat(format string) bool {
	return format == FormatXML || format == FormatJSONL
}

// files holds the path logic shared by both encodings.
type files struct {
	dir string
	ext string
}

func (f files) path(p period.Period) string {
	return filepath.Join(f.dir, p.Key()+f.ext)
}

func (f files) Exists(p period.Period) bool {
	info, err := os.Stat(f.path(p))
	return err == nil && !info.IsDir()
}

func (f files) Remove(p period.Period) error {
	if err := os.Remove(f.path(p)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", p, err)
	}
	return nil
}

// Periods lists the periods present in the store, in chronological order.
func (f files) Periods() ([]period.Period, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing store: %w", err)
	}

	var periods []period.Period
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, f.ext) {
			continue
		}
		p, err := period.Parse(strings.TrimSuffix(name, f.ext))
		if err != nil {
			continue // Not a period file
		}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	return periods, nil
}

func (f files) open(p period.Period) (*os.File, error) {
	file, err := os.Open(f.path(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPeriodNotFound, p)
		}
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}
	return file, nil
}

// checkPeriods verifies that every record belongs to period p.
func checkPeriods(p period.Period, records []paper.Record) error {
	for i, r := range records {
		if r.Period() != p {
			return fmt.Errorf("record %d (%s) has period %s, want %s", i+1, r.URL, r.Period(), p)
		}
	}
	return nil
}

// LoadOrEmpty loads a period, treating a missing file as no records.
func LoadOrEmpty(s Store, p period.Period) ([]paper.Record, error) {
	records, err := s.Load(p)
	if errors.Is(err, ErrPeriodNotFound) {
		return nil, nil
	}
	return records, err
}
