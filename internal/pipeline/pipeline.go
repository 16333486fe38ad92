package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/szse-eventlog/internal/archive"
	"github.com/rickgao/szse-eventlog/internal/config"
	"github.com/rickgao/szse-eventlog/internal/database"
	"github.com/rickgao/szse-eventlog/internal/eventcsv"
	"github.com/rickgao/szse-eventlog/internal/loader"
	"github.com/rickgao/szse-eventlog/internal/merge"
	"github.com/rickgao/szse-eventlog/internal/model"
	"github.com/rickgao/szse-eventlog/internal/normalize"
	"github.com/rickgao/szse-eventlog/internal/partition"
	"github.com/rickgao/szse-eventlog/internal/validate"
)

// ErrNoEvents is returned when both archives together yield zero events.
var ErrNoEvents = errors.New("no events in any source")

// Stats summarizes one completed run.
type Stats struct {
	OrderSources int   // raw order files normalized
	TickSources  int   // raw tick files normalized
	Skipped      int   // sources with zero events after filtering
	Events       int64 // events across all sources
	PerChannel   map[int64]int64
	Artifacts    []string
	Duration     time.Duration
}

// Run executes one merge job. cfg must already be finalized.
func Run(ctx context.Context, cfg *config.MergerConfig, logger *slog.Logger) (*Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	var symbolRE *regexp.Regexp
	if cfg.SymbolRegex != "" {
		re, err := regexp.Compile(cfg.SymbolRegex)
		if err != nil {
			return nil, fmt.Errorf("symbol_regex: %w", err)
		}
		symbolRE = re
	}

	workDir, removeWork, err := resolveWorkDir(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("run starting",
		"order_archive", cfg.OrderArchive,
		"tick_archive", cfg.TickArchive,
		"work_dir", workDir,
		"max_open", cfg.MaxOpen,
	)

	stats := &Stats{PerChannel: make(map[int64]int64)}
	index := newChannelIndex()

	// Order sources precede tick sources, each family in archive
	// enumeration order. Source position fixes merge tie-breaks, so this
	// order is part of the output contract.
	var sources []partition.Source
	for _, family := range []model.SourceFamily{model.FamilyOrder, model.FamilyTick} {
		famSources, err := extractFamily(ctx, cfg, family, workDir, symbolRE, index, stats, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, famSources...)
	}

	if stats.Events == 0 {
		return nil, ErrNoEvents
	}

	var groups []partition.Group
	if cfg.Output.PerChannel() {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
		groups = partition.PlanPerChannel(sources, cfg.Output.Dir)
	} else {
		groups = partition.PlanCombined(sources, cfg.Output.Path)
	}

	m := merge.New(cfg.MaxOpen, cfg.MergeWorkers, logger)
	if err := partition.Run(ctx, groups, workDir, m, cfg.GroupWorkers, logger); err != nil {
		return nil, err
	}
	for _, g := range groups {
		stats.Artifacts = append(stats.Artifacts, g.Dest)
	}

	indexPath := filepath.Join(artifactDir(cfg), indexFileName)
	if err := index.write(indexPath); err != nil {
		return nil, err
	}

	if cfg.Database != nil {
		if err := loadArtifacts(ctx, cfg, stats.Artifacts, logger); err != nil {
			return nil, err
		}
	}

	if removeWork {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("work dir cleanup failed", "work_dir", workDir, "error", err)
		}
	}

	stats.Duration = time.Since(start)
	logger.Info("run complete",
		"order_sources", stats.OrderSources,
		"tick_sources", stats.TickSources,
		"skipped", stats.Skipped,
		"events", stats.Events,
		"channels", len(stats.PerChannel),
		"artifacts", len(stats.Artifacts),
		"duration", stats.Duration,
	)
	return stats, nil
}

// resolveWorkDir returns the work directory and whether the run owns it.
// A caller-supplied directory is created if missing but never removed; an
// auto-created one is removed after success unless keep_temp is set.
func resolveWorkDir(cfg *config.MergerConfig) (dir string, remove bool, err error) {
	if cfg.WorkDir != "" {
		if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
			return "", false, fmt.Errorf("create work dir: %w", err)
		}
		return cfg.WorkDir, false, nil
	}
	dir = filepath.Join(os.TempDir(), "szse_merge_"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create work dir: %w", err)
	}
	return dir, !cfg.KeepTemp, nil
}

// extractFamily normalizes one archive family into sorted event files under
// workDir, returning one source per symbol that produced events.
func extractFamily(
	ctx context.Context,
	cfg *config.MergerConfig,
	family model.SourceFamily,
	workDir string,
	symbolRE *regexp.Regexp,
	index *channelIndex,
	stats *Stats,
	logger *slog.Logger,
) ([]partition.Source, error) {
	path := cfg.OrderArchive
	if family == model.FamilyTick {
		path = cfg.TickArchive
	}

	ar, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	eventsDir := filepath.Join(workDir, string(family)+"_events")
	if err := os.MkdirAll(eventsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", eventsDir, err)
	}

	var sources []partition.Source
	for _, entry := range ar.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol := archive.Symbol(entry)
		if symbolRE != nil && !symbolRE.MatchString(symbol) {
			continue
		}

		src, ok, err := extractSource(ar, family, entry, symbol, eventsDir, cfg.Channel)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Empty sources do not count toward the file limit.
			stats.Skipped++
			logger.Debug("source empty, skipped", "family", family, "entry", entry)
			continue
		}

		if err := index.add(symbol, src.channel); err != nil {
			return nil, err
		}
		stats.Events += src.events
		stats.PerChannel[src.channel] += src.events
		sources = append(sources, partition.Source{Channel: src.channel, Path: src.path})
		if cfg.LimitFiles > 0 && len(sources) >= cfg.LimitFiles {
			break
		}
	}

	switch family {
	case model.FamilyOrder:
		stats.OrderSources = len(sources)
	case model.FamilyTick:
		stats.TickSources = len(sources)
	}
	logger.Info("family extracted",
		"family", family,
		"archive", path,
		"sources", len(sources),
	)
	return sources, nil
}

type extracted struct {
	path    string
	channel int64
	events  int64
}

// extractSource streams one archive entry through normalization and
// validation into a sorted event file. ok is false when the entry yields no
// events; its file is removed.
func extractSource(
	ar archive.Reader,
	family model.SourceFamily,
	entry, symbol, eventsDir string,
	channelFilter *int64,
) (src extracted, ok bool, err error) {
	rc, err := ar.Open(entry)
	if err != nil {
		return src, false, err
	}
	defer rc.Close()

	norm, err := normalize.New(family, entry, symbol, rc, normalize.Options{Channel: channelFilter})
	if err != nil {
		return src, false, err
	}
	v := validate.New(entry, norm)

	outPath := filepath.Join(eventsDir, symbol+".events.csv")
	w, err := eventcsv.Create(outPath)
	if err != nil {
		return src, false, err
	}

	for {
		e, err := v.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Close()
			os.Remove(outPath)
			return src, false, err
		}
		if err := w.WriteEvent(e); err != nil {
			w.Close()
			os.Remove(outPath)
			return src, false, err
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(outPath)
		return src, false, err
	}

	channel, has := v.Channel()
	if !has {
		os.Remove(outPath)
		return src, false, nil
	}
	return extracted{path: outPath, channel: channel, events: v.Events()}, true, nil
}

// artifactDir is where run artifacts besides the merged logs land.
func artifactDir(cfg *config.MergerConfig) string {
	if cfg.Output.PerChannel() {
		return cfg.Output.Dir
	}
	return filepath.Dir(cfg.Output.Path)
}

// loadArtifacts imports every merged artifact into the events table.
func loadArtifacts(ctx context.Context, cfg *config.MergerConfig, artifacts []string, logger *slog.Logger) error {
	pool, err := database.Connect(ctx, *cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	l := loader.New(pool, 0, logger)
	if err := l.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, path := range artifacts {
		if _, err := l.LoadFile(ctx, path); err != nil {
			return err
		}
	}
	return nil
}
