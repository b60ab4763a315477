package main

import (
	"fmt"
	"testing"

	"github.com/matsen/coauthor/internal/config"
	"github.com/matsen/coauthor/internal/fetch"
	"github.com/matsen/coauthor/internal/listing"
	"github.com/matsen/coauthor/internal/period"
	"github.com/matsen/coauthor/internal/pipeline"
	"github.com/matsen/coauthor/internal/store"
)

func TestConfigKeysRoundTrip(t *testing.T) {
	values := map[string]string{
		"category":     "hep-th",
		"start":        "1995-01",
		"end":          "1996-01",
		"base-url":     "https://export.arxiv.org",
		"listing-url":  "https://export.arxiv.org/list/%s/%s",
		"rate-limit":   "0.5",
		"user-agent":   "lab-crawler/2.0",
		"store-format": "jsonl",
	}
	cfg := config.Default()
	for _, key := range configKeys {
		if err := setConfigValue(cfg, key, values[key]); err != nil {
			t.Fatalf("setConfigValue(%s) error = %v", key, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for _, key := range configKeys {
		got, ok := getConfigValue(cfg, key)
		if !ok || got != values[key] {
			t.Errorf("getConfigValue(%s) = %q, %v; want %q", key, got, ok, values[key])
		}
	}
}

func TestSetConfigValueErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"rate-limit", "fast"},
		{"rate-limit", "0"},
		{"listing-url", "https://example.org/%s"},
		{"colour", "blue"},
	}
	for _, tt := range tests {
		if err := setConfigValue(config.Default(), tt.key, tt.value); err == nil {
			t.Errorf("setConfigValue(%s, %s) expected error", tt.key, tt.value)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := normalizeKey("Store_Format"); got != "store-format" {
		t.Errorf("normalizeKey() = %q", got)
	}
}

func TestExitCodeFor(t *testing.T) {
	structural := &listing.StructuralError{Period: period.Period{Year: 1993, Month: 1}, Line: 4, Reason: "bad"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"structural", fmt.Errorf("extract: %w", structural), ExitDataError},
		{"missing period", fmt.Errorf("loading raw: %w", store.ErrPeriodNotFound), ExitDataError},
		{"clean conflict", fmt.Errorf("clean: %w", pipeline.ErrCleanConflict), ExitDataError},
		{"not found", fmt.Errorf("fetching: %w", fetch.ErrNotFound), ExitNetworkError},
		{"too large", fmt.Errorf("fetching: %w", fetch.ErrTooLarge), ExitNetworkError},
		{"http", &fetch.HTTPError{StatusCode: 500, URL: "u"}, ExitNetworkError},
		{"other", fmt.Errorf("boom"), ExitError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("%s: exitCodeFor() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
