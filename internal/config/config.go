// Package config handles dataset repository configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/matsen/coauthor/internal/author"
	"github.com/matsen/coauthor/internal/period"
	"github.com/matsen/coauthor/internal/store"
)

// Config represents repository configuration stored in .coauthor/config.yml.
type Config struct {
	Category string `yaml:"category" json:"category"` // Listing category, e.g. gr-qc
	Start    string `yaml:"start" json:"start"`       // First period, YYYY-MM (inclusive)
	End      string `yaml:"end" json:"end"`           // Last period, YYYY-MM (exclusive)

	BaseURL    string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`       // Prefix for abstract locators
	ListingURL string  `yaml:"listing_url,omitempty" json:"listing_url,omitempty"` // fmt template: category, yymm
	RateLimit  float64 `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`   // Listing requests per second
	UserAgent  string  `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`

	StoreFormat string `yaml:"store_format,omitempty" json:"store_format,omitempty"` // xml or jsonl

	// Overrides extend the built-in author override table. They are
	// checked first, in file order.
	Overrides []author.Override `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

const (
	CoauthorDir = ".coauthor"
	ConfigFile  = "config.yml"
	HTMLDir     = "html"
	RawDir      = "raw"
	CleanDir    = "clean"
	TidyDir     = "tidy"
	CacheDir    = "cache"
	DBFile      = "relations.db"
)

// Defaults for a new repository.
const (
	DefaultCategory   = "gr-qc"
	DefaultStart      = "1992-07"
	DefaultEnd        = "2013-12"
	DefaultBaseURL    = "http://arxiv.org"
	DefaultListingURL = "https://arxiv.org/list/%s/%s?show=1000"
	DefaultRateLimit  = 0.25
)

// Default returns the configuration written by `coauthor init`.
func Default() *Config {
	return &Config{
		Category:    DefaultCategory,
		Start:       DefaultStart,
		End:         DefaultEnd,
		BaseURL:     DefaultBaseURL,
		ListingURL:  DefaultListingURL,
		RateLimit:   DefaultRateLimit,
		StoreFormat: store.FormatXML,
	}
}

// CoauthorPath returns the path to the .coauthor directory from a root path.
func CoauthorPath(root string) string {
	return filepath.Join(root, CoauthorDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, CoauthorDir, ConfigFile)
}

// HTMLPath returns the directory holding fetched listing pages.
func HTMLPath(root string) string {
	return filepath.Join(root, HTMLDir)
}

// RawPath returns the directory of the raw record store.
func RawPath(root string) string {
	return filepath.Join(root, RawDir)
}

// CleanPath returns the directory of the clean record store.
func CleanPath(root string) string {
	return filepath.Join(root, CleanDir)
}

// TidyPath returns the directory holding the derived relation tables.
func TidyPath(root string) string {
	return filepath.Join(root, TidyDir)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, CoauthorDir, CacheDir)
}

// DBPath returns the path to relations.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, CoauthorDir, CacheDir, DBFile)
}

// ListingPath returns the file a period's listing page is saved to.
func ListingPath(root string, p period.Period) string {
	return filepath.Join(HTMLPath(root), p.Key()+".html")
}

// IsRepository checks if the given path contains a coauthor repository.
func IsRepository(root string) bool {
	info, err := os.Stat(CoauthorPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a coauthor repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a coauthor repository (no %s directory found)", CoauthorDir)
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root. Unset
// optional fields take their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(CoauthorPath(root), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", CoauthorDir, err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ListingURL == "" {
		c.ListingURL = DefaultListingURL
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.StoreFormat == "" {
		c.StoreFormat = store.FormatXML
	}
}

// Validate checks the period range, store format, rate limit and the
// override table.
func (c *Config) Validate() error {
	if c.Category == "" {
		return fmt.Errorf("invalid config: category is required")
	}
	if _, err := c.Periods(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !store.ValidFormat(c.StoreFormat) {
		return fmt.Errorf("invalid config: store_format %q (valid: %s, %s)", c.StoreFormat, store.FormatXML, store.FormatJSONL)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid config: rate_limit must be positive")
	}
	if err := author.ValidateOverrides(c.AllOverrides()); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Periods returns every period of the configured range in order.
func (c *Config) Periods() ([]period.Period, error) {
	start, err := period.Parse(c.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := period.Parse(c.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	return period.Range(start, end)
}

// AllOverrides returns the configured overrides followed by the built-in
// table, in the order the normalizer checks them.
func (c *Config) AllOverrides() []author.Override {
	all := append([]author.Override(nil), c.Overrides...)
	return append(all, author.DefaultOverrides...)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
