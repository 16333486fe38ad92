package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rickgao/szse-eventlog/internal/config"
	"github.com/rickgao/szse-eventlog/internal/pipeline"
	"github.com/rickgao/szse-eventlog/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, flags override)")
	flag.String("order-archive", "", "order archive (zip or directory)")
	flag.String("tick-archive", "", "tick archive (zip or directory)")
	flag.String("out", "", "combined output file")
	flag.String("out-dir", "", "per-channel output directory")
	flag.String("work-dir", "", "work directory for intermediates")
	flag.Bool("keep-temp", false, "keep auto-created work directory")
	flag.Int("max-open", 0, "open-handle budget per merge")
	flag.Int("limit-files", 0, "cap on files per archive, 0 = all")
	flag.String("symbol-regex", "", "only merge symbols matching this regex")
	channel := flag.Int64("channel", 0, "only merge this channel")
	flag.String("log-level", "", "debug | info | warn | error")
	flag.Parse()

	cfg := &config.MergerConfig{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal("failed to load config", err)
		}
		cfg = loaded
	}
	applyFlags(cfg, *channel)

	if err := cfg.Finalize(); err != nil {
		fatal("invalid configuration", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting merger",
		"version", version.Version,
		"commit", version.Commit,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	stats, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("merge failed", "error", err)
		os.Exit(1)
	}

	logger.Info("merger finished",
		"events", stats.Events,
		"artifacts", len(stats.Artifacts),
		"duration", stats.Duration,
	)
}

// applyFlags overlays explicitly-set flags onto the config. flag.Visit only
// walks flags the user actually passed, so file values survive unless
// overridden.
func applyFlags(cfg *config.MergerConfig, channel int64) {
	passed := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { passed[f.Name] = true })

	flag.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "order-archive":
			cfg.OrderArchive = v
		case "tick-archive":
			cfg.TickArchive = v
		case "out":
			cfg.Output.Path = v
			// Replaces a file-configured mode; passing both flags is left
			// for Validate to reject.
			if !passed["out-dir"] {
				cfg.Output.Dir = ""
			}
		case "out-dir":
			cfg.Output.Dir = v
			if !passed["out"] {
				cfg.Output.Path = ""
			}
		case "work-dir":
			cfg.WorkDir = v
		case "keep-temp":
			cfg.KeepTemp = v == "true"
		case "max-open":
			cfg.MaxOpen = atoiFlag(v)
		case "limit-files":
			cfg.LimitFiles = atoiFlag(v)
		case "symbol-regex":
			cfg.SymbolRegex = v
		case "channel":
			ch := channel
			cfg.Channel = &ch
		case "log-level":
			cfg.LogLevel = v
		}
	})
}

func atoiFlag(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(msg string, err error) {
	slog.New(slog.NewTextHandler(os.Stderr, nil)).Error(msg, "error", err)
	os.Exit(1)
}
