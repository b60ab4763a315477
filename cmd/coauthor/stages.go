package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matsen/coauthor/internal/config"
	"github.com/matsen/coauthor/internal/fetch"
	"github.com/matsen/coauthor/internal/period"
	"github.com/matsen/coauthor/internal/pipeline"
)

var (
	stageFrom  string
	stageTo    string
	fetchForce bool
	runFetch   bool
)

func init() {
	for _, cmd := range []*cobra.Command{fetchCmd, extractCmd, cleanCmd, deriveCmd, runCmd} {
		cmd.Flags().StringVar(&stageFrom, "from", "", "First month, YYYY-MM (default: config start)")
		cmd.Flags().StringVar(&stageTo, "to", "", "Last month, YYYY-MM, exclusive (default: config end)")
		rootCmd.AddCommand(cmd)
	}
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "Download listings that are already saved")
	runCmd.Flags().BoolVar(&runFetch, "fetch", false, "Fetch missing listings before extracting")
	runCmd.Flags().BoolVar(&fetchForce, "force", false, "With --fetch, download listings that are already saved")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download listing pages",
	Long: `Download the listing page of every month into html/.

Months that already have a page are skipped unless --force is given.
Requests are rate limited (rate_limit in config.yml) and never retried.`,
	Args: cobra.NoArgs,
	RunE: runFetchCmd,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract raw records from listing pages",
	Long: `Parse every month's listing page into raw/.

Extraction is strict: a listing that does not follow the expected entry
structure, or whose entry count disagrees with its declared total, fails
with exit code 3 and nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize authors and drop repeated papers",
	Long: `Normalize author names in raw/ and write clean/.

A paper listed in several months is kept only in the first. Characters that
cannot be mapped to the canonical alphabet are logged and listed in
clean/unmapped.tsv.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the relation tables",
	Long: `Derive papers.tsv, authors.tsv, authorships.tsv and coauthorships.tsv
in tidy/ from the clean records.`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run extract, clean and derive",
	Args:  cobra.NoArgs,
	RunE:  runAll,
}

// setupRun loads the repository and returns a pipeline run with its periods.
func setupRun() (string, *config.Config, *pipeline.Run, []period.Period) {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// --from/--to narrow the stage; the run keeps the configured range as
	// the dataset.
	span := *cfg
	if stageFrom != "" {
		span.Start = stageFrom
	}
	if stageTo != "" {
		span.End = stageTo
	}
	periods, err := span.Periods()
	if err != nil {
		exitWithError(ExitError, "invalid month range: %v", err)
	}

	run, err := pipeline.New(repoRoot, cfg, logger)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return repoRoot, cfg, run, periods
}

// newFetchClient builds the listing client from config and environment.
func newFetchClient(cfg *config.Config) *fetch.Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.GetUserAgent()
	}
	return fetch.NewClient(
		fetch.WithURLTemplate(cfg.ListingURL),
		fetch.WithRateLimit(cfg.RateLimit),
		fetch.WithUserAgent(ua),
		fetch.WithLogger(logger),
	)
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	_, cfg, run, periods := setupRun()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := run.Fetch(ctx, newFetchClient(cfg), periods, fetchForce)
	if err != nil {
		exitWithStageError("fetch", err)
	}

	if humanOutput {
		outputHuman("Fetched %d listings (%d already saved)\n", res.Fetched, res.Skipped)
	} else {
		outputJSON(res)
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	_, _, run, periods := setupRun()

	res, err := run.Extract(periods)
	if err != nil {
		exitWithStageError("extract", err)
	}

	if humanOutput {
		outputHuman("Extracted %d records from %d listings\n", res.Records, res.Periods)
	} else {
		outputJSON(res)
	}
	return nil
}

func runClean(cmd *cobra.Command, args []string) error {
	_, _, run, periods := setupRun()

	res, err := run.Clean(periods)
	if err != nil {
		exitWithStageError("clean", err)
	}

	if humanOutput {
		printCleanHuman(res)
	} else {
		outputJSON(res)
	}
	return nil
}

func runDerive(cmd *cobra.Command, args []string) error {
	_, _, run, periods := setupRun()

	res, err := run.Derive(periods)
	if err != nil {
		exitWithStageError("derive", err)
	}

	if humanOutput {
		printDeriveHuman(res)
	} else {
		outputJSON(res)
	}
	return nil
}

// RunResponse is the response for the run command.
type RunResponse struct {
	Fetch *pipeline.FetchResult `json:"fetch,omitempty"`
	pipeline.Summary
}

func runAll(cmd *cobra.Command, args []string) error {
	_, cfg, run, periods := setupRun()
	var resp RunResponse

	if runFetch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := run.Fetch(ctx, newFetchClient(cfg), periods, fetchForce)
		if err != nil {
			exitWithStageError("fetch", err)
		}
		resp.Fetch = &res
	}

	sum, err := run.All(periods)
	if err != nil {
		exitWithStageError("run", err)
	}
	resp.Summary = sum

	if humanOutput {
		if resp.Fetch != nil {
			outputHuman("Fetched %d listings (%d already saved)\n", resp.Fetch.Fetched, resp.Fetch.Skipped)
		}
		outputHuman("Extracted %d records from %d listings\n", sum.Extract.Records, sum.Extract.Periods)
		printCleanHuman(sum.Clean)
		printDeriveHuman(sum.Derive)
	} else {
		outputJSON(resp)
	}
	return nil
}

func printCleanHuman(res pipeline.CleanResult) {
	outputHuman("Kept %d records in %d months, dropped %d repeats\n", res.Kept, res.Periods, res.Dropped)
	if res.Removed > 0 {
		outputHuman("Removed %d stale clean files\n", res.Removed)
	}
	if len(res.Unmapped) > 0 {
		printUnmappedHuman(res.Unmapped)
	}
}

func printDeriveHuman(res pipeline.DeriveResult) {
	s := res.Relations
	outputHuman("Derived %d papers, %d authors, %d authorships, %d coauthorships\n",
		s.Papers, s.Authors, s.Authorships, s.Coauthorships)
}
