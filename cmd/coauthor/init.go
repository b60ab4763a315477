package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/coauthor/internal/config"
)

var (
	initCategory string
	initStart    string
	initEnd      string
	initFormat   string
)

func init() {
	initCmd.Flags().StringVar(&initCategory, "category", config.DefaultCategory, "Listing category")
	initCmd.Flags().StringVar(&initStart, "start", config.DefaultStart, "First month, YYYY-MM (inclusive)")
	initCmd.Flags().StringVar(&initEnd, "end", config.DefaultEnd, "Last month, YYYY-MM (exclusive)")
	initCmd.Flags().StringVar(&initFormat, "format", "xml", "Record store format (xml or jsonl)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new dataset repository",
	Long: `Initialize a new dataset repository in the given directory (default: current).

Creates:
  .coauthor/
  ├── config.yml   # Category, month range, fetch and store settings
  └── cache/       # SQLite query cache (disposable)
  html/            # Fetched listing pages
  raw/             # Extracted records, one file per month
  clean/           # Normalized, deduplicated records
  tidy/            # Derived TSV relations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a coauthor repository")
	}

	cfg := config.Default()
	cfg.Category = initCategory
	cfg.Start = initStart
	cfg.End = initEnd
	cfg.StoreFormat = initFormat
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	dirs := []string{
		config.CachePath(root),
		config.HTMLPath(root),
		config.RawPath(root),
		config.CleanPath(root),
		config.TidyPath(root),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating config.yml: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized coauthor repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}
