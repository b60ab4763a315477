package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/coauthor/internal/graph"
	"github.com/matsen/coauthor/internal/storage"
)

var (
	queryLimit int
	withPapers bool
)

func init() {
	authorsCmd.Flags().IntVarP(&queryLimit, "limit", "n", DefaultQueryLimit, "Maximum number of results (0 for all)")
	coauthorsCmd.Flags().IntVarP(&queryLimit, "limit", "n", DefaultQueryLimit, "Maximum number of coauthors (0 for all)")
	coauthorsCmd.Flags().BoolVar(&withPapers, "papers", false, "Also list the author's papers")
	rootCmd.AddCommand(authorsCmd, coauthorsCmd, statsCmd)
}

var authorsCmd = &cobra.Command{
	Use:   "authors <name>",
	Short: "Find authors by name",
	Long: `Find authors by name in the query database.

The name is normalized the same way as author names in the dataset, so
accents and hyphens do not matter. Given names match by prefix:

  coauthor authors smith          # every author with last name smith
  coauthor authors "a. smith"     # a. smith, alice smith, a. b. smith
  coauthor authors "Smith, Alice"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAuthors,
}

var coauthorsCmd = &cobra.Command{
	Use:   "coauthors <author-id|name>",
	Short: "List an author's coauthors",
	Long: `List the coauthors of an author, most shared papers first.

The author is given by id or by a name that matches exactly one author.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCoauthors,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show relation counts from the query database",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runAuthors(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenQueryDatabase(repoRoot)
	defer db.Close()

	found, err := db.FindAuthors(strings.Join(args, " "), queryLimit)
	if err != nil {
		exitWithError(ExitError, "searching authors: %v", err)
	}
	if found == nil {
		found = []storage.AuthorSummary{}
	}

	if humanOutput {
		if len(found) == 0 {
			fmt.Println("No authors found")
			return nil
		}
		for _, a := range found {
			fmt.Printf("%6d  %-40s %d papers\n", a.ID, a.Name, a.Papers)
		}
	} else {
		outputJSON(found)
	}
	return nil
}

// CoauthorsResponse is the response for the coauthors command.
type CoauthorsResponse struct {
	Author    graph.Author           `json:"author"`
	Coauthors []storage.Collaborator `json:"coauthors"`
	Papers    []storage.PaperRef     `json:"papers,omitempty"`
}

func runCoauthors(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenQueryDatabase(repoRoot)
	defer db.Close()

	a := mustResolveAuthor(db, strings.Join(args, " "))

	collaborators, err := db.Coauthors(a.ID, queryLimit)
	if err != nil {
		exitWithError(ExitError, "listing coauthors: %v", err)
	}
	resp := CoauthorsResponse{Author: *a, Coauthors: collaborators}
	if resp.Coauthors == nil {
		resp.Coauthors = []storage.Collaborator{}
	}
	if withPapers {
		if resp.Papers, err = db.AuthorPapers(a.ID); err != nil {
			exitWithError(ExitError, "listing papers: %v", err)
		}
	}

	if humanOutput {
		fmt.Printf("%s (id %d)\n", a.Name, a.ID)
		if len(resp.Coauthors) == 0 {
			fmt.Println("  no coauthors")
		}
		for _, c := range resp.Coauthors {
			fmt.Printf("  %3d  %s (id %d)\n", c.Weight, c.Name, c.ID)
		}
		if withPapers {
			fmt.Printf("\nPapers (%d):\n", len(resp.Papers))
			for _, p := range resp.Papers {
				fmt.Printf("  %04d-%02d  %s\n", p.Year, p.Month, p.URL)
			}
		}
	} else {
		outputJSON(resp)
	}
	return nil
}

// mustResolveAuthor finds the author named by an id or an unambiguous name.
func mustResolveAuthor(db *storage.DB, arg string) *graph.Author {
	if id, err := strconv.Atoi(arg); err == nil {
		a, err := db.GetAuthor(id)
		if err != nil {
			if errors.Is(err, storage.ErrAuthorNotFound) {
				exitWithError(ExitDataError, "no author with id %d", id)
			}
			exitWithError(ExitError, "looking up author: %v", err)
		}
		return a
	}

	found, err := db.FindAuthors(arg, 0)
	if err != nil {
		exitWithError(ExitError, "searching authors: %v", err)
	}
	switch len(found) {
	case 0:
		exitWithError(ExitDataError, "no author matches %q", arg)
	case 1:
		return &graph.Author{ID: found[0].ID, Name: found[0].Name}
	}

	var names []string
	for _, a := range found {
		names = append(names, fmt.Sprintf("%s (id %d)", a.Name, a.ID))
	}
	exitWithError(ExitDataError, "%q matches %d authors: %s", arg, len(found), strings.Join(names, ", "))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenQueryDatabase(repoRoot)
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		exitWithError(ExitError, "reading stats: %v", err)
	}

	if humanOutput {
		fmt.Printf("papers:        %d\n", stats.Papers)
		fmt.Printf("authors:       %d\n", stats.Authors)
		fmt.Printf("authorships:   %d\n", stats.Authorships)
		fmt.Printf("coauthorships: %d\n", stats.Coauthorships)
	} else {
		outputJSON(stats)
	}
	return nil
}
