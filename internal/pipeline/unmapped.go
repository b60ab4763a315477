package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matsen/coauthor/internal/author"
	"github.com/matsen/coauthor/internal/config"
	"github.com/matsen/coauthor/internal/fsutil"
)

// UnmappedFile lists the characters the clean stage deleted from names.
const UnmappedFile = "unmapped.tsv"

// UnmappedPath returns where the clean stage writes its character audit.
func UnmappedPath(root string) string {
	return filepath.Join(config.CleanPath(root), UnmappedFile)
}

// WriteUnmapped writes one row per character: code point, character,
// count and the first raw name it was seen in. The file is always written
// so an empty audit replaces a stale one.
func WriteUnmapped(path string, chars []author.UnmappedCharacter) error {
	err := fsutil.WriteAtomic(path, func(w io.Writer) error {
		for _, c := range chars {
			example := strings.NewReplacer("\t", " ", "\n", " ").Replace(c.Example)
			if _, err := fmt.Fprintf(w, "%s\t%c\t%d\t%s\n", author.Codepoint(c.Char), c.Char, c.Count, example); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", UnmappedFile, err)
	}
	return nil
}

// ReadUnmapped reads an audit written by WriteUnmapped. A missing file is
// an empty audit.
func ReadUnmapped(path string) ([]author.UnmappedCharacter, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", UnmappedFile, err)
	}
	defer f.Close()

	var out []author.UnmappedCharacter
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.SplitN(scanner.Text(), "\t", 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s line %d: got %d fields, want 4", UnmappedFile, lineNum, len(fields))
		}
		cp, err := strconv.ParseInt(strings.TrimPrefix(fields[0], "U+"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad code point %q", UnmappedFile, lineNum, fields[0])
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad count %q", UnmappedFile, lineNum, fields[2])
		}
		out = append(out, author.UnmappedCharacter{Char: rune(cp), Count: count, Example: fields[3]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", UnmappedFile, err)
	}
	return out, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
