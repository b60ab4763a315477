// Package storage maintains the SQLite query cache over the derived
// relations. The TSV tables are the source of truth; the database is
// disposable and rebuilt from them.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matsen/coauthor/internal/author"
	"github.com/matsen/coauthor/internal/graph"
)

// ErrAuthorNotFound is returned when an author id has no row.
var ErrAuthorNotFound = errors.New("author not found")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// AuthorSummary is an author with the number of papers they appear on.
type AuthorSummary struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Papers int    `json:"papers"`
}

// Collaborator is a coauthor of some author with the edge weight.
type Collaborator struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// PaperRef is a paper an author appears on.
type PaperRef struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY,
			url TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS authors (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS authorships (
			author_id INTEGER NOT NULL,
			paper_id INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			PRIMARY KEY (author_id, paper_id)
		);
		CREATE INDEX IF NOT EXISTS idx_authorships_paper ON authorships(paper_id);

		CREATE TABLE IF NOT EXISTS coauthorships (
			low INTEGER NOT NULL,
			high INTEGER NOT NULL,
			weight INTEGER NOT NULL,
			PRIMARY KEY (low, high)
		);
		CREATE INDEX IF NOT EXISTS idx_coauthorships_high ON coauthorships(high);

		-- Name search over canonical author names
		CREATE VIRTUAL TABLE IF NOT EXISTS authors_fts USING fts5(name);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromTSV clears the database and reloads it from the TSV tables in dir.
func (d *DB) RebuildFromTSV(dir string) (graph.Stats, error) {
	rel, err := graph.ReadTSV(dir)
	if err != nil {
		return graph.Stats{}, fmt.Errorf("reading relations: %w", err)
	}
	return d.RebuildFromRelations(rel)
}

// RebuildFromRelations replaces the database contents with rel.
func (d *DB) RebuildFromRelations(rel *graph.Relations) (graph.Stats, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return graph.Stats{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"papers", "authors", "authorships", "coauthorships", "authors_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return graph.Stats{}, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	inserts := []struct {
		name string
		sql  string
		rows int
		args func(i int) []any
	}{
		{"papers", "INSERT INTO papers (id, url) VALUES (?, ?)", len(rel.Papers), func(i int) []any {
			p := rel.Papers[i]
			return []any{p.ID, p.URL}
		}},
		{"authors", "INSERT INTO authors (id, name) VALUES (?, ?)", len(rel.Authors), func(i int) []any {
			a := rel.Authors[i]
			return []any{a.ID, a.Name}
		}},
		{"authors_fts", "INSERT INTO authors_fts (rowid, name) VALUES (?, ?)", len(rel.Authors), func(i int) []any {
			a := rel.Authors[i]
			return []any{a.ID, a.Name}
		}},
		{"authorships", "INSERT INTO authorships (author_id, paper_id, year, month) VALUES (?, ?, ?, ?)", len(rel.Authorships), func(i int) []any {
			a := rel.Authorships[i]
			return []any{a.AuthorID, a.PaperID, a.Year, a.Month}
		}},
		{"coauthorships", "INSERT INTO coauthorships (low, high, weight) VALUES (?, ?, ?)", len(rel.Coauthorships), func(i int) []any {
			c := rel.Coauthorships[i]
			return []any{c.Low, c.High, c.Weight}
		}},
	}

	for _, ins := range inserts {
		stmt, err := tx.Prepare(ins.sql)
		if err != nil {
			return graph.Stats{}, fmt.Errorf("preparing %s insert: %w", ins.name, err)
		}
		for i := 0; i < ins.rows; i++ {
			if _, err := stmt.Exec(ins.args(i)...); err != nil {
				stmt.Close()
				return graph.Stats{}, fmt.Errorf("inserting %s row %d: %w", ins.name, i+1, err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return graph.Stats{}, fmt.Errorf("committing: %w", err)
	}
	return rel.Stats(), nil
}

// Stats returns the row count of each relation table.
func (d *DB) Stats() (graph.Stats, error) {
	var s graph.Stats
	counts := []struct {
		table string
		dest  *int
	}{
		{"papers", &s.Papers},
		{"authors", &s.Authors},
		{"authorships", &s.Authorships},
		{"coauthorships", &s.Coauthorships},
	}
	for _, c := range counts {
		if err := d.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
			return s, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	return s, nil
}

// FindAuthors returns authors matching a free-form name query, ordered by
// paper count (descending) then id. See author.Query for matching rules.
func (d *DB) FindAuthors(input string, limit int) ([]AuthorSummary, error) {
	q := author.ParseQuery(input)
	if q.IsEmpty() {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT a.id, a.name, COUNT(s.paper_id) AS papers
		FROM authors a
		LEFT JOIN authorships s ON s.author_id = a.id
		WHERE a.id IN (SELECT rowid FROM authors_fts WHERE authors_fts MATCH ?)
		GROUP BY a.id, a.name
		ORDER BY papers DESC, a.id`, prepareFTSPhrase(q.Last))
	if err != nil {
		return nil, fmt.Errorf("searching authors: %w", err)
	}
	defer rows.Close()

	var out []AuthorSummary
	for rows.Next() {
		var a AuthorSummary
		if err := rows.Scan(&a.ID, &a.Name, &a.Papers); err != nil {
			return nil, err
		}
		if !q.Matches(a.Name) {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// GetAuthor retrieves an author by id.
func (d *DB) GetAuthor(id int) (*graph.Author, error) {
	var a graph.Author
	err := d.db.QueryRow("SELECT id, name FROM authors WHERE id = ?", id).Scan(&a.ID, &a.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %d", ErrAuthorNotFound, id)
		}
		return nil, err
	}
	return &a, nil
}

// Coauthors returns the neighbors of an author, heaviest edges first.
// A limit of zero returns all of them.
func (d *DB) Coauthors(authorID, limit int) ([]Collaborator, error) {
	if _, err := d.GetAuthor(authorID); err != nil {
		return nil, err
	}

	query := `
		SELECT a.id, a.name, c.weight
		FROM coauthorships c
		JOIN authors a ON a.id = CASE WHEN c.low = ? THEN c.high ELSE c.low END
		WHERE c.low = ? OR c.high = ?
		ORDER BY c.weight DESC, a.id`
	args := []any{authorID, authorID, authorID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing coauthors: %w", err)
	}
	defer rows.Close()

	var out []Collaborator
	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(&c.ID, &c.Name, &c.Weight); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AuthorPapers returns the papers of an author in paper id order.
func (d *DB) AuthorPapers(authorID int) ([]PaperRef, error) {
	if _, err := d.GetAuthor(authorID); err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`
		SELECT p.id, p.url, s.year, s.month
		FROM authorships s
		JOIN papers p ON p.id = s.paper_id
		WHERE s.author_id = ?
		ORDER BY p.id`, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var out []PaperRef
	for rows.Next() {
		var p PaperRef
		if err := rows.Scan(&p.ID, &p.URL, &p.Year, &p.Month); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PaperCount returns the number of papers an author appears on.
func (d *DB) PaperCount(authorID int) (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM authorships WHERE author_id = ?", authorID).Scan(&count)
	return count, err
}

// prepareFTSPhrase quotes text as an FTS5 phrase.
func prepareFTSPhrase(text string) string {
	return "\"" + strings.ReplaceAll(strings.TrimSpace(text), "\"", "\"\"") + "\""
}
