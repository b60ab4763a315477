package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matsen/coauthor/internal/fsutil"
	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// JSONLStore keeps each period in <dir>/<YYYYMM>.jsonl, one record per line.
type JSONLStore struct {
	files
}

// NewJSONLStore returns a JSONL store rooted at dir.
func NewJSONLStore(dir string) *JSONLStore {
	return &JSONLStore{files{dir: dir, ext: ".jsonl"}}
}

// Save replaces the period's file with records.
func (s *JSONLStore) Save(p period.Period, records []paper.Record) error {
	if err := checkPeriods(p, records); err != nil {
		return err
	}

	return fsutil.WriteAtomic(s.path(p), func(w io.Writer) error {
		for i, r := range records {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encoding record %d: %w", i, err)
			}
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("writing record %d: %w", i, err)
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
		return nil
	})
}

// Load reads the period's records in file order.
func (s *JSONLStore) Load(p period.Period) ([]paper.Record, error) {
	f, err := s.open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []paper.Record
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var r paper.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", p, lineNum, err)
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	if err := checkPeriods(p, records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return records, nil
}
