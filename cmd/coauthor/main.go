// Package main provides the coauthor CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/coauthor/internal/config"
	"github.com/matsen/coauthor/internal/logging"
	"github.com/matsen/coauthor/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	devLog      bool

	// logger is built before any command runs
	logger = zap.NewNop()
)

func main() {
	// Load .env if present (ignore error if missing)
	_ = godotenv.Load()

	err := rootCmd.Execute()
	logging.Sync(logger)
	if err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coauthor",
	Short: "Build a coauthorship dataset from monthly listing pages",
	Long: `coauthor turns monthly arXiv listing pages into a coauthorship dataset.

Stages:
  fetch     download listing pages into html/
  extract   parse listings into raw per-month records
  clean     normalize author names and drop repeated papers
  derive    write papers, authors, authorships and coauthorships as TSV

The TSV tables under tidy/ are the dataset; the SQLite cache built by
'coauthor rebuild' is disposable and only serves the query commands.
All commands output JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "Use colored console logs instead of JSON")
	rootCmd.Version = Version
}

// setupLogger builds the logger from flags, falling back to the global config.
func setupLogger(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		level = config.GetLogLevel()
	}
	l, err := logging.New(level, devLog)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// getStartingDirectory returns the directory to start searching for a repository.
// The working directory wins; the global data_root is the fallback.
func getStartingDirectory() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	if _, err := config.FindRepository(cwd); err != nil {
		if root := config.GetDataRoot(); root != "" {
			return root, 0
		}
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustOpenQueryDatabase opens the database for the query commands, exiting
// with a hint when it has never been built.
func mustOpenQueryDatabase(repoRoot string) *storage.DB {
	if _, err := os.Stat(config.DBPath(repoRoot)); err != nil {
		exitWithError(ExitConfigError, "query database not found\n\nRun 'coauthor rebuild' to create it.")
	}
	return mustOpenDatabase(repoRoot)
}
