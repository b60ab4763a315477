package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/matsen/coauthor/internal/graph"
	"github.com/matsen/coauthor/internal/paper"
)

// setupTestDB derives relations from a small record set, writes them as TSV
// and rebuilds a database from the TSV.
func setupTestDB(t *testing.T) (*DB, *graph.Relations) {
	t.Helper()

	records := []paper.Record{
		{Year: 1993, Month: 1, URL: "http://arxiv.org/abs/gr-qc/9301001", Title: "One",
			Authors: []string{"a. smith", "b. jones"}, Subjects: []string{"gr-qc"}},
		{Year: 1993, Month: 1, URL: "http://arxiv.org/abs/gr-qc/9301002", Title: "Two",
			Authors: []string{"a. smith", "b. jones", "c. carter"}, Subjects: []string{"gr-qc"}},
		{Year: 1993, Month: 2, URL: "http://arxiv.org/abs/gr-qc/9302001", Title: "Three",
			Authors: []string{"alice smith", "c. carter"}, Subjects: []string{"gr-qc"}},
		{Year: 1993, Month: 2, URL: "http://arxiv.org/abs/gr-qc/9302002", Title: "Four",
			Authors: []string{"d. smithson"}, Subjects: []string{"gr-qc"}},
	}
	rel, err := graph.Derive(records)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	tmpDir := t.TempDir()
	tidy := filepath.Join(tmpDir, "tidy")
	if err := rel.WriteTSV(tidy); err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}

	db, err := OpenDB(filepath.Join(tmpDir, "cache", "relations.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RebuildFromTSV(tidy); err != nil {
		t.Fatalf("RebuildFromTSV() error = %v", err)
	}
	return db, rel
}

// authorID looks up an id from the derived author table.
func authorID(t *testing.T, rel *graph.Relations, name string) int {
	t.Helper()
	for _, a := range rel.Authors {
		if a.Name == name {
			return a.ID
		}
	}
	t.Fatalf("author %q not in relations", name)
	return 0
}

func TestStats(t *testing.T) {
	db, rel := setupTestDB(t)

	got, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if got != rel.Stats() {
		t.Errorf("Stats() = %+v, want %+v", got, rel.Stats())
	}
	if got.Papers != 4 || got.Authors != 5 {
		t.Errorf("Stats() = %+v, want 4 papers and 5 authors", got)
	}
}

func TestRebuildReplaces(t *testing.T) {
	db, _ := setupTestDB(t)

	rel, err := graph.Derive([]paper.Record{
		{Year: 2000, Month: 1, URL: "u", Title: "t", Authors: []string{"x. y"}, Subjects: []string{"s"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RebuildFromRelations(rel); err != nil {
		t.Fatalf("RebuildFromRelations() error = %v", err)
	}

	got, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	want := graph.Stats{Papers: 1, Authors: 1, Authorships: 1}
	if got != want {
		t.Errorf("Stats() after rebuild = %+v, want %+v", got, want)
	}
	if found, _ := db.FindAuthors("smith", 0); len(found) != 0 {
		t.Errorf("stale FTS rows after rebuild: %+v", found)
	}
}

func TestFindAuthors(t *testing.T) {
	db, _ := setupTestDB(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"smith", []string{"a. smith", "alice smith"}},
		{"a. smith", []string{"a. smith", "alice smith"}},
		{"Alice Smith", []string{"alice smith"}},
		{"Smith, A.", []string{"a. smith", "alice smith"}},
		{"smithson", []string{"d. smithson"}},
		{"nobody", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := db.FindAuthors(tt.query, 0)
			if err != nil {
				t.Fatalf("FindAuthors() error = %v", err)
			}
			var names []string
			for _, a := range found {
				names = append(names, a.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("FindAuthors(%q) = %v, want %v", tt.query, names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("FindAuthors(%q)[%d] = %q, want %q", tt.query, i, names[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindAuthorsPaperCountAndLimit(t *testing.T) {
	db, _ := setupTestDB(t)

	found, err := db.FindAuthors("smith", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("limit 1 returned %d rows", len(found))
	}
	if found[0].Name != "a. smith" || found[0].Papers != 2 {
		t.Errorf("FindAuthors()[0] = %+v, want a. smith with 2 papers", found[0])
	}
}

func TestCoauthors(t *testing.T) {
	db, rel := setupTestDB(t)
	smith := authorID(t, rel, "a. smith")

	got, err := db.Coauthors(smith, 0)
	if err != nil {
		t.Fatalf("Coauthors() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Coauthors() = %+v, want 2 collaborators", got)
	}
	if got[0].Name != "b. jones" || got[0].Weight != 2 {
		t.Errorf("Coauthors()[0] = %+v, want b. jones weight 2", got[0])
	}
	if got[1].Name != "c. carter" || got[1].Weight != 1 {
		t.Errorf("Coauthors()[1] = %+v, want c. carter weight 1", got[1])
	}

	limited, err := db.Coauthors(smith, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("Coauthors(limit 1) returned %d rows", len(limited))
	}

	solo, err := db.Coauthors(authorID(t, rel, "d. smithson"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(solo) != 0 {
		t.Errorf("solo author has coauthors: %+v", solo)
	}
}

func TestAuthorPapers(t *testing.T) {
	db, rel := setupTestDB(t)

	got, err := db.AuthorPapers(authorID(t, rel, "c. carter"))
	if err != nil {
		t.Fatalf("AuthorPapers() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("AuthorPapers() = %+v, want 2", got)
	}
	if got[0].URL != "http://arxiv.org/abs/gr-qc/9301002" || got[0].Month != 1 {
		t.Errorf("AuthorPapers()[0] = %+v", got[0])
	}
	if got[1].URL != "http://arxiv.org/abs/gr-qc/9302001" || got[1].Month != 2 {
		t.Errorf("AuthorPapers()[1] = %+v", got[1])
	}
}

func TestUnknownAuthor(t *testing.T) {
	db, _ := setupTestDB(t)

	if _, err := db.Coauthors(999, 0); !errors.Is(err, ErrAuthorNotFound) {
		t.Errorf("Coauthors(999) error = %v, want ErrAuthorNotFound", err)
	}
	if _, err := db.AuthorPapers(999); !errors.Is(err, ErrAuthorNotFound) {
		t.Errorf("AuthorPapers(999) error = %v, want ErrAuthorNotFound", err)
	}
}

func TestPaperCount(t *testing.T) {
	db, rel := setupTestDB(t)

	got, err := db.PaperCount(authorID(t, rel, "b. jones"))
	if err != nil {
		t.Fatalf("PaperCount() error = %v", err)
	}
	if got != 2 {
		t.Errorf("PaperCount(b. jones) = %d, want 2", got)
	}
}
