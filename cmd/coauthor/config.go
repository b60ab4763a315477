package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/coauthor/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  coauthor config                      # Show all config
  coauthor config start                # Get specific value
  coauthor config end 2000-01          # Set value

Keys:
  category      Listing category (e.g., gr-qc)
  start         First month, YYYY-MM (inclusive)
  end           Last month, YYYY-MM (exclusive)
  base-url      Prefix for paper identifiers
  listing-url   Listing URL template (category, yymm)
  rate-limit    Listing requests per second
  user-agent    User-Agent for listing requests
  store-format  Record store format (xml or jsonl)

Author overrides are edited directly in .coauthor/config.yml.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configKeys lists the settable keys in display order.
var configKeys = []string{"category", "start", "end", "base-url", "listing-url", "rate-limit", "user-agent", "store-format"}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Printf("%-13s %s\n", key+":", value)
			}
			fmt.Printf("%-13s %d\n", "overrides:", len(cfg.Overrides))
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := getConfigValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}

	return nil
}

// normalizeKey accepts snake_case keys as in config.yml.
func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

func getConfigValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "category":
		return cfg.Category, true
	case "start":
		return cfg.Start, true
	case "end":
		return cfg.End, true
	case "base-url":
		return cfg.BaseURL, true
	case "listing-url":
		return cfg.ListingURL, true
	case "rate-limit":
		return strconv.FormatFloat(cfg.RateLimit, 'g', -1, 64), true
	case "user-agent":
		return cfg.UserAgent, true
	case "store-format":
		return cfg.StoreFormat, true
	}
	return "", false
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "category":
		cfg.Category = value
	case "start":
		cfg.Start = value
	case "end":
		cfg.End = value
	case "base-url":
		cfg.BaseURL = strings.TrimRight(value, "/")
	case "listing-url":
		if strings.Count(value, "%s") != 2 {
			return fmt.Errorf("listing-url must contain two %%s verbs (category, yymm)")
		}
		cfg.ListingURL = value
	case "rate-limit":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			return fmt.Errorf("rate-limit must be a positive number, got %q", value)
		}
		cfg.RateLimit = rate
	case "user-agent":
		cfg.UserAgent = value
	case "store-format":
		cfg.StoreFormat = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
