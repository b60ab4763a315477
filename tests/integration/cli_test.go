// Package integration provides integration tests for coauthor commands.
package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	coauthorBinary     string
	coauthorBinaryOnce sync.Once
	coauthorBinaryErr  error
)

// moduleRoot returns the repository root of this module.
func moduleRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate test file")
	}
	return filepath.Dir(filepath.Dir(filepath.Dir(filename)))
}

// getBinary builds the coauthor binary once and returns its path.
func getBinary(t *testing.T) string {
	t.Helper()
	root := moduleRoot(t)
	coauthorBinaryOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "coauthor-test-*")
		if err != nil {
			coauthorBinaryErr = err
			return
		}
		coauthorBinary = filepath.Join(tmpDir, "coauthor")

		cmd := exec.Command("go", "build", "-o", coauthorBinary, "./cmd/coauthor")
		cmd.Dir = root
		if output, err := cmd.CombinedOutput(); err != nil {
			coauthorBinaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if coauthorBinaryErr != nil {
		t.Fatalf("failed to build coauthor: %v", coauthorBinaryErr)
	}
	return coauthorBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

// result holds the outcome of one command.
type result struct {
	stdout string
	stderr string
	code   int
}

// runCoauthor executes coauthor in dir with an isolated global config.
func runCoauthor(t *testing.T, dir string, args ...string) result {
	t.Helper()
	cmd := exec.Command(getBinary(t), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+filepath.Join(dir, ".xdg"))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := result{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("running coauthor: %v", err)
	}
	return res
}

// setupRepo initializes a repository for January 1993 holding the listing fixture.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	res := runCoauthor(t, dir, "init", "--start", "1993-01", "--end", "1993-02")
	if res.code != 0 {
		t.Fatalf("init failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}

	fixture, err := os.ReadFile(filepath.Join(moduleRoot(t), "internal", "listing", "testdata", "9301.html"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "html", "199301.html"), fixture, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func decode(t *testing.T, res result, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(res.stdout), v); err != nil {
		t.Fatalf("parsing JSON output: %v\nstdout: %s\nstderr: %s", err, res.stdout, res.stderr)
	}
}

func TestInitTwice(t *testing.T) {
	dir := setupRepo(t)

	res := runCoauthor(t, dir, "init")
	if res.code != 1 {
		t.Errorf("second init exit code = %d, want 1", res.code)
	}
	if !strings.Contains(res.stdout, "already contains") {
		t.Errorf("unexpected output: %s", res.stdout)
	}
}

func TestRunAndQuery(t *testing.T) {
	dir := setupRepo(t)

	res := runCoauthor(t, dir, "run")
	if res.code != 0 {
		t.Fatalf("run failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}
	var summary struct {
		Extract struct{ Records int } `json:"extract"`
		Derive  struct {
			Relations struct {
				Papers        int `json:"papers"`
				Authors       int `json:"authors"`
				Coauthorships int `json:"coauthorships"`
			} `json:"relations"`
		} `json:"derive"`
	}
	decode(t, res, &summary)
	if summary.Extract.Records != 3 {
		t.Errorf("extracted %d records, want 3", summary.Extract.Records)
	}
	if summary.Derive.Relations.Papers != 3 || summary.Derive.Relations.Authors != 3 || summary.Derive.Relations.Coauthorships != 1 {
		t.Errorf("unexpected relations: %+v", summary.Derive.Relations)
	}

	authors, err := os.ReadFile(filepath.Join(dir, "tidy", "authors.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "1\ta. smith\n2\tjose garcia lopez\n3\trainer weiss\n"
	if string(authors) != want {
		t.Errorf("authors.tsv = %q, want %q", authors, want)
	}

	coauthorships, err := os.ReadFile(filepath.Join(dir, "tidy", "coauthorships.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(coauthorships) != "1\t2\t1\n" {
		t.Errorf("coauthorships.tsv = %q", coauthorships)
	}

	if res := runCoauthor(t, dir, "rebuild"); res.code != 0 {
		t.Fatalf("rebuild failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}

	res = runCoauthor(t, dir, "authors", "José García-López")
	if res.code != 0 {
		t.Fatalf("authors failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}
	var found []struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Papers int    `json:"papers"`
	}
	decode(t, res, &found)
	if len(found) != 1 || found[0].Name != "jose garcia lopez" || found[0].Papers != 1 {
		t.Errorf("authors = %+v", found)
	}

	res = runCoauthor(t, dir, "authors", "nobody")
	if strings.TrimSpace(res.stdout) != "[]" {
		t.Errorf("authors nobody = %s, want []", res.stdout)
	}

	res = runCoauthor(t, dir, "coauthors", "A. Smith", "--papers")
	if res.code != 0 {
		t.Fatalf("coauthors failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}
	var co struct {
		Author struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"author"`
		Coauthors []struct {
			Name   string `json:"name"`
			Weight int    `json:"weight"`
		} `json:"coauthors"`
		Papers []struct {
			URL string `json:"url"`
		} `json:"papers"`
	}
	decode(t, res, &co)
	if co.Author.Name != "a. smith" || co.Author.ID != 1 {
		t.Errorf("author = %+v", co.Author)
	}
	if len(co.Coauthors) != 1 || co.Coauthors[0].Name != "jose garcia lopez" || co.Coauthors[0].Weight != 1 {
		t.Errorf("coauthors = %+v", co.Coauthors)
	}
	if len(co.Papers) != 2 {
		t.Errorf("papers = %+v, want 2", co.Papers)
	}

	out := filepath.Join(dir, "smith.html")
	res = runCoauthor(t, dir, "viz", "1", "-o", out)
	if res.code != 0 {
		t.Fatalf("viz failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}
	var v struct {
		Nodes int `json:"nodes"`
		Edges int `json:"edges"`
	}
	decode(t, res, &v)
	if v.Nodes != 2 || v.Edges != 1 {
		t.Errorf("viz = %+v, want 2 nodes and 1 edge", v)
	}
	page, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `"label":"jose garcia lopez"`) {
		t.Error("viz page is missing the coauthor")
	}
}

func TestRunIdempotent(t *testing.T) {
	dir := setupRepo(t)

	if res := runCoauthor(t, dir, "run"); res.code != 0 {
		t.Fatalf("first run failed: %s%s", res.stdout, res.stderr)
	}
	first, err := os.ReadFile(filepath.Join(dir, "tidy", "authorships.tsv"))
	if err != nil {
		t.Fatal(err)
	}

	if res := runCoauthor(t, dir, "run"); res.code != 0 {
		t.Fatalf("second run failed: %s%s", res.stdout, res.stderr)
	}
	second, err := os.ReadFile(filepath.Join(dir, "tidy", "authorships.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("authorships.tsv changed between runs:\n%s\n---\n%s", first, second)
	}
}

func TestExtractStructuralErrorExitCode(t *testing.T) {
	dir := setupRepo(t)
	path := filepath.Join(dir, "html", "199301.html")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	broken := strings.Replace(string(data), "total of 3 entries", "total of 4 entries", 1)
	if err := os.WriteFile(path, []byte(broken), 0644); err != nil {
		t.Fatal(err)
	}

	res := runCoauthor(t, dir, "extract")
	if res.code != 3 {
		t.Errorf("exit code = %d, want 3 (stdout: %s)", res.code, res.stdout)
	}
	if !strings.Contains(res.stdout, "line") {
		t.Errorf("error does not name the line: %s", res.stdout)
	}
}

func TestCleanBeforeExtractExitCode(t *testing.T) {
	dir := setupRepo(t)

	res := runCoauthor(t, dir, "clean")
	if res.code != 3 {
		t.Errorf("exit code = %d, want 3 (stdout: %s)", res.code, res.stdout)
	}
}

func TestNoRepository(t *testing.T) {
	res := runCoauthor(t, t.TempDir(), "extract")
	if res.code != 2 {
		t.Errorf("exit code = %d, want 2", res.code)
	}
	if !strings.Contains(res.stderr, "coauthor init") {
		t.Errorf("missing hint in stderr: %s", res.stderr)
	}
}

func TestConfigSetGet(t *testing.T) {
	dir := setupRepo(t)

	if res := runCoauthor(t, dir, "config", "end", "1993-03"); res.code != 0 {
		t.Fatalf("config set failed (%d): %s", res.code, res.stdout)
	}
	res := runCoauthor(t, dir, "config", "end", "--human")
	if strings.TrimSpace(res.stdout) != "1993-03" {
		t.Errorf("config end = %q", res.stdout)
	}

	res = runCoauthor(t, dir, "config", "end", "1992-01")
	if res.code != 2 {
		t.Errorf("setting end before start exit code = %d, want 2", res.code)
	}
}

func TestCleanFromLaterMonth(t *testing.T) {
	dir := setupRepo(t)
	if res := runCoauthor(t, dir, "config", "end", "1993-03"); res.code != 0 {
		t.Fatalf("config set failed (%d): %s", res.code, res.stdout)
	}
	// February relists every January paper.
	jan, err := os.ReadFile(filepath.Join(dir, "html", "199301.html"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "html", "199302.html"), jan, 0644); err != nil {
		t.Fatal(err)
	}

	if res := runCoauthor(t, dir, "run"); res.code != 0 {
		t.Fatalf("run failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}

	res := runCoauthor(t, dir, "clean", "--from", "1993-02")
	if res.code != 0 {
		t.Fatalf("clean --from failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}
	var cleaned struct {
		Kept    int `json:"kept"`
		Dropped int `json:"dropped"`
	}
	decode(t, res, &cleaned)
	if cleaned.Kept != 0 || cleaned.Dropped != 3 {
		t.Errorf("clean --from = %+v, want every February paper dropped", cleaned)
	}

	if res := runCoauthor(t, dir, "derive"); res.code != 0 {
		t.Errorf("derive after partial clean failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}
}

func TestUnmappedAudit(t *testing.T) {
	dir := setupRepo(t)
	if res := runCoauthor(t, dir, "run"); res.code != 0 {
		t.Fatalf("run failed (%d): %s%s", res.code, res.stdout, res.stderr)
	}

	var entries []struct {
		Codepoint string `json:"codepoint"`
		Char      string `json:"char"`
		Count     int    `json:"count"`
		Example   string `json:"example"`
	}
	decode(t, runCoauthor(t, dir, "unmapped"), &entries)
	if len(entries) != 0 {
		t.Errorf("fixture audit = %+v, want empty", entries)
	}

	audit := filepath.Join(dir, "clean", "unmapped.tsv")
	if err := os.WriteFile(audit, []byte("U+674E\t李\t2\t李 Wei\n"), 0644); err != nil {
		t.Fatal(err)
	}
	decode(t, runCoauthor(t, dir, "unmapped"), &entries)
	if len(entries) != 1 || entries[0].Codepoint != "U+674E" || entries[0].Char != "李" || entries[0].Count != 2 {
		t.Errorf("audit = %+v", entries)
	}

	res := runCoauthor(t, dir, "unmapped", "--human")
	if !strings.Contains(res.stdout, "李 Wei") {
		t.Errorf("human audit missing example: %s", res.stdout)
	}
}
