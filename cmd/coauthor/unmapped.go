package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/coauthor/internal/author"
	"github.com/matsen/coauthor/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(unmappedCmd)
}

var unmappedCmd = &cobra.Command{
	Use:   "unmapped",
	Short: "Show characters the last clean deleted from author names",
	Long: `Show the unmapped-character audit written by the last 'coauthor clean'.

Each character has no ASCII folding and was removed from at least one
author name. Add it to the fold table or an override rule to keep it.`,
	Args: cobra.NoArgs,
	RunE: runUnmapped,
}

// UnmappedEntry is one row of the unmapped response.
type UnmappedEntry struct {
	Codepoint string `json:"codepoint"`
	Char      string `json:"char"`
	Count     int    `json:"count"`
	Example   string `json:"example"`
}

func runUnmapped(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	chars, err := pipeline.ReadUnmapped(pipeline.UnmappedPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "reading audit: %v", err)
	}

	if humanOutput {
		if len(chars) == 0 {
			outputHuman("No unmapped characters\n")
			return nil
		}
		printUnmappedHuman(chars)
		return nil
	}

	entries := make([]UnmappedEntry, 0, len(chars))
	for _, c := range chars {
		entries = append(entries, UnmappedEntry{
			Codepoint: author.Codepoint(c.Char),
			Char:      string(c.Char),
			Count:     c.Count,
			Example:   c.Example,
		})
	}
	outputJSON(entries)
	return nil
}

func printUnmappedHuman(chars []author.UnmappedCharacter) {
	outputHuman("Unmapped characters (%d):\n", len(chars))
	for _, u := range chars {
		outputHuman("  %-7s %c  x%d  e.g. %s\n", author.Codepoint(u.Char), u.Char, u.Count, u.Example)
	}
}
