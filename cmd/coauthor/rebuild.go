package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/coauthor/internal/config"
	"github.com/matsen/coauthor/internal/graph"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from the relation tables",
	Long: `Rebuild the SQLite query database from the TSV tables in tidy/.

Run this after 'coauthor derive' so 'authors' and 'coauthors' see the new data.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	graph.Stats
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	stats, err := db.RebuildFromTSV(config.TidyPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v\n\nRun 'coauthor derive' first.", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d papers, %d authors and %d coauthorships\n",
			stats.Papers, stats.Authors, stats.Coauthorships)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Stats: stats})
	}

	return nil
}
