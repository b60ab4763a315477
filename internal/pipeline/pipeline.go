// Package pipeline runs the dataset stages over a range of periods:
// fetch listings, extract raw records, clean them and derive relations.
//
// Every stage reads the output of the previous one from disk, so stages can
// be rerun independently. Rerunning a stage over unchanged input produces
// byte-identical output.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/coauthor/internal/author"
	"github.com/matsen/coauthor/internal/config"
	"github.com/matsen/coauthor/internal/dedupe"
	"github.com/matsen/coauthor/internal/fetch"
	"github.com/matsen/coauthor/internal/graph"
	"github.com/matsen/coauthor/internal/listing"
	"github.com/matsen/coauthor/internal/paper"
	"github.com/matsen/coauthor/internal/period"
	"github.com/matsen/coauthor/internal/store"
)

// Run is the context of one pipeline invocation. It owns the stores, the
// extractor and the per-run accumulators (normalizer and deduplicator).
type Run struct {
	root      string
	cfg       *config.Config
	logger    *zap.Logger
	extractor *listing.Extractor
	raw       store.Store
	clean     store.Store

	normalizer *author.Normalizer
	dedup      *dedupe.Deduplicator
}

// FetchResult reports the fetch stage.
type FetchResult struct {
	Fetched int `json:"fetched"`
	Skipped int `json:"skipped"`
}

// ExtractResult reports the extract stage.
type ExtractResult struct {
	Periods int `json:"periods"`
	Records int `json:"records"`
}

// CleanResult reports the clean stage.
type CleanResult struct {
	Periods  int                        `json:"periods"`        // Periods with at least one kept record
	Kept     int                        `json:"kept"`           // Records written to the clean store
	Dropped  int                        `json:"dropped"`        // Records dropped as repeats
	Removed  int                        `json:"removed"`        // Stale clean files deleted
	Unmapped []author.UnmappedCharacter `json:"unmapped,omitempty"`
}

// DeriveResult reports the derive stage.
type DeriveResult struct {
	Records   int         `json:"records"`
	Relations graph.Stats `json:"relations"`
}

// Summary reports a full run.
type Summary struct {
	Periods int           `json:"periods"`
	Extract ExtractResult `json:"extract"`
	Clean   CleanResult   `json:"clean"`
	Derive  DeriveResult  `json:"derive"`
}

// New creates a run over the repository at root.
func New(root string, cfg *config.Config, logger *zap.Logger) (*Run, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	raw, err := store.Open(cfg.StoreFormat, config.RawPath(root))
	if err != nil {
		return nil, err
	}
	clean, err := store.Open(cfg.StoreFormat, config.CleanPath(root))
	if err != nil {
		return nil, err
	}

	return &Run{
		root:      root,
		cfg:       cfg,
		logger:    logger,
		extractor: listing.NewExtractor(cfg.BaseURL),
		raw:       raw,
		clean:     clean,
	}, nil
}

// Periods returns the configured period range.
func (r *Run) Periods() ([]period.Period, error) {
	return r.cfg.Periods()
}

// Fetch downloads the listing of every period that has no saved page yet.
// With force, existing pages are downloaded again. The first failure stops
// the stage; nothing is retried.
func (r *Run) Fetch(ctx context.Context, client *fetch.Client, periods []period.Period, force bool) (FetchResult, error) {
	var res FetchResult
	for _, p := range periods {
		path := config.ListingPath(r.root, p)
		if !force && fileExists(path) {
			res.Skipped++
			continue
		}
		r.logger.Info("fetching listing", zap.Stringer("period", p), zap.String("url", client.URL(r.cfg.Category, p)))
		if err := client.FetchToFile(ctx, r.cfg.Category, p, path); err != nil {
			return res, fmt.Errorf("fetching %s: %w", p, err)
		}
		res.Fetched++
	}
	return res, nil
}

// Extract parses the saved listing of every period into the raw store.
// All periods are extracted before anything is written, so a structural
// error leaves the raw store untouched.
func (r *Run) Extract(periods []period.Period) (ExtractResult, error) {
	var res ExtractResult
	extracted := make([][]paper.Record, len(periods))

	for i, p := range periods {
		records, err := r.extractor.ExtractFile(config.ListingPath(r.root, p), p)
		if err != nil {
			return res, err
		}
		r.logger.Debug("extracted listing", zap.Stringer("period", p), zap.Int("records", len(records)))
		extracted[i] = records
	}

	for i, p := range periods {
		if err := r.raw.Save(p, extracted[i]); err != nil {
			return res, fmt.Errorf("saving raw %s: %w", p, err)
		}
		res.Periods++
		res.Records += len(extracted[i])
	}

	r.logger.Info("extract complete", zap.Int("periods", res.Periods), zap.Int("records", res.Records))
	return res, nil
}

// ErrCleanConflict is returned when cleaning a range would keep a paper
// that a later clean period of the dataset already holds.
var ErrCleanConflict = errors.New("clean store conflict")

// Clean normalizes the authors of every raw record, drops papers already
// seen in an earlier period and writes the clean store. Periods left with
// no records get no clean file; a stale one from an earlier run is removed.
//
// When periods starts after the configured start, the papers of the clean
// periods in between count as seen, so a partial rerun never keeps a paper
// twice. Every period is cleaned and checked before the first write. Each
// file is then replaced atomically, but the store as a whole is not: a
// failed write leaves the periods before it updated and the rest as they
// were.
func (r *Run) Clean(periods []period.Period) (CleanResult, error) {
	var res CleanResult
	r.normalizer = author.NewNormalizer(
		author.WithOverrides(r.cfg.Overrides),
		author.WithLogger(r.logger),
	)
	r.dedup = dedupe.New()

	groups := make([]dedupe.Group, 0, len(periods))
	for _, p := range periods {
		records, err := r.raw.Load(p)
		if err != nil {
			return res, fmt.Errorf("loading raw %s: %w", p, err)
		}
		for i := range records {
			r.normalizer.NormalizeRecord(&records[i])
		}
		groups = append(groups, dedupe.Group{Period: p, Records: records})
	}

	var cleaned []dedupe.Group
	if len(periods) > 0 {
		if err := r.seedCleanBefore(periods[0]); err != nil {
			return res, err
		}
		cleaned = r.dedup.Apply(groups)
		if err := r.checkCleanAfter(periods[len(periods)-1], cleaned); err != nil {
			return res, err
		}
	}

	kept := make(map[period.Period]bool)
	for _, g := range cleaned {
		if err := r.clean.Save(g.Period, g.Records); err != nil {
			return res, fmt.Errorf("saving clean %s: %w", g.Period, err)
		}
		kept[g.Period] = true
		res.Periods++
		res.Kept += len(g.Records)
	}

	for _, p := range periods {
		if kept[p] || !r.clean.Exists(p) {
			continue
		}
		if err := r.clean.Remove(p); err != nil {
			return res, err
		}
		r.logger.Debug("removed stale clean period", zap.Stringer("period", p))
		res.Removed++
	}

	res.Dropped = r.dedup.Dropped()
	res.Unmapped = r.normalizer.Unmapped()
	if err := WriteUnmapped(UnmappedPath(r.root), res.Unmapped); err != nil {
		return res, err
	}

	r.logger.Info("clean complete",
		zap.Int("periods", res.Periods),
		zap.Int("kept", res.Kept),
		zap.Int("dropped", res.Dropped),
		zap.Int("unmapped_chars", len(res.Unmapped)))
	return res, nil
}

// cleanInDataset returns the clean periods of the configured range that
// satisfy keep, in chronological order.
func (r *Run) cleanInDataset(keep func(period.Period) bool) ([]period.Period, error) {
	dataset, err := r.cfg.Periods()
	if err != nil {
		return nil, err
	}
	inRange := make(map[period.Period]bool, len(dataset))
	for _, p := range dataset {
		inRange[p] = true
	}

	stored, err := r.clean.Periods()
	if err != nil {
		return nil, err
	}
	var out []period.Period
	for _, p := range stored {
		if inRange[p] && keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// seedCleanBefore marks the papers of the clean periods before start as seen.
func (r *Run) seedCleanBefore(start period.Period) error {
	earlier, err := r.cleanInDataset(func(p period.Period) bool { return p.Before(start) })
	if err != nil {
		return err
	}
	for _, p := range earlier {
		records, err := r.clean.Load(p)
		if err != nil {
			return fmt.Errorf("loading clean %s: %w", p, err)
		}
		r.dedup.Seed(records)
	}
	if len(earlier) > 0 {
		r.logger.Info("resuming after clean periods",
			zap.Int("periods", len(earlier)),
			zap.Int("papers", r.dedup.Seen()))
	}
	return nil
}

// checkCleanAfter fails if a later clean period holds a paper this run keeps.
func (r *Run) checkCleanAfter(end period.Period, cleaned []dedupe.Group) error {
	later, err := r.cleanInDataset(func(p period.Period) bool { return end.Before(p) })
	if err != nil || len(later) == 0 {
		return err
	}

	keptIn := make(map[string]period.Period)
	for _, rec := range dedupe.Flatten(cleaned) {
		keptIn[rec.Key()] = rec.Period()
	}
	for _, p := range later {
		records, err := r.clean.Load(p)
		if err != nil {
			return fmt.Errorf("loading clean %s: %w", p, err)
		}
		for _, rec := range records {
			if first, ok := keptIn[rec.Key()]; ok {
				return fmt.Errorf("%w: %s would be kept in %s but is already clean in %s; clean through %s",
					ErrCleanConflict, rec.URL, first, p, p)
			}
		}
	}
	return nil
}

// Derive builds the relations from the clean store and writes them as TSV.
// Periods with no clean file contribute nothing.
func (r *Run) Derive(periods []period.Period) (DeriveResult, error) {
	var res DeriveResult
	var records []paper.Record
	for _, p := range periods {
		got, err := store.LoadOrEmpty(r.clean, p)
		if err != nil {
			return res, fmt.Errorf("loading clean %s: %w", p, err)
		}
		records = append(records, got...)
	}

	rel, err := graph.Derive(records)
	if err != nil {
		return res, err
	}
	if err := rel.WriteTSV(config.TidyPath(r.root)); err != nil {
		return res, err
	}

	res.Records = len(records)
	res.Relations = rel.Stats()
	r.logger.Info("derive complete",
		zap.Int("papers", res.Relations.Papers),
		zap.Int("authors", res.Relations.Authors),
		zap.Int("coauthorships", res.Relations.Coauthorships))
	return res, nil
}

// All runs extract, clean and derive in sequence.
func (r *Run) All(periods []period.Period) (Summary, error) {
	sum := Summary{Periods: len(periods)}
	var err error

	if sum.Extract, err = r.Extract(periods); err != nil {
		return sum, err
	}
	if sum.Clean, err = r.Clean(periods); err != nil {
		return sum, err
	}
	if sum.Derive, err = r.Derive(periods); err != nil {
		return sum, err
	}
	return sum, nil
}
