package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matsen/coauthor/internal/fsutil"
)

// File names of the relation tables within the output directory.
const (
	PapersFile        = "papers.tsv"
	AuthorsFile       = "authors.tsv"
	AuthorshipsFile   = "authorships.tsv"
	CoauthorshipsFile = "coauthorships.tsv"
)

// WriteTSV writes the four relations as headerless tab-separated files.
// Each file is replaced atomically.
func (r *Relations) WriteTSV(dir string) error {
	writers := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{PapersFile, func(w io.Writer) error {
			for _, p := range r.Papers {
				if _, err := fmt.Fprintf(w, "%d\t%s\n", p.ID, p.URL); err != nil {
					return err
				}
			}
			return nil
		}},
		{AuthorsFile, func(w io.Writer) error {
			for _, a := range r.Authors {
				if _, err := fmt.Fprintf(w, "%d\t%s\n", a.ID, a.Name); err != nil {
					return err
				}
			}
			return nil
		}},
		{AuthorshipsFile, func(w io.Writer) error {
			for _, a := range r.Authorships {
				if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", a.AuthorID, a.PaperID, a.Year, a.Month); err != nil {
					return err
				}
			}
			return nil
		}},
		{CoauthorshipsFile, func(w io.Writer) error {
			for _, c := range r.Coauthorships {
				if _, err := fmt.Fprintf(w, "%d\t%d\t%d\n", c.Low, c.High, c.Weight); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	for _, wr := range writers {
		if err := fsutil.WriteAtomic(filepath.Join(dir, wr.name), wr.write); err != nil {
			return fmt.Errorf("writing %s: %w", wr.name, err)
		}
	}
	return nil
}

// ReadTSV reads relations previously written by WriteTSV.
func ReadTSV(dir string) (*Relations, error) {
	rel := &Relations{}

	err := readRows(filepath.Join(dir, PapersFile), 2, func(f []string) error {
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return err
		}
		rel.Papers = append(rel.Papers, Paper{ID: id, URL: f[1]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readRows(filepath.Join(dir, AuthorsFile), 2, func(f []string) error {
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return err
		}
		rel.Authors = append(rel.Authors, Author{ID: id, Name: f[1]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readRows(filepath.Join(dir, AuthorshipsFile), 4, func(f []string) error {
		n, err := atois(f)
		if err != nil {
			return err
		}
		rel.Authorships = append(rel.Authorships, Authorship{AuthorID: n[0], PaperID: n[1], Year: n[2], Month: n[3]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readRows(filepath.Join(dir, CoauthorshipsFile), 3, func(f []string) error {
		n, err := atois(f)
		if err != nil {
			return err
		}
		rel.Coauthorships = append(rel.Coauthorships, Coauthorship{Low: n[0], High: n[1], Weight: n[2]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rel, nil
}

func readRows(path string, fields int, row func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != fields {
			return fmt.Errorf("%s line %d: got %d fields, want %d", filepath.Base(path), lineNum, len(parts), fields)
		}
		if err := row(parts); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

func atois(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
