// Command seekctl is a thin operator CLI: load configuration, run a
// one-shot full or smart index of the configured roots, and print the
// resulting statistics. Useful for scripting and CI smoke tests without
// standing up the HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/akelsh/seek/internal/config"
	"github.com/akelsh/seek/internal/indexer"
	"github.com/akelsh/seek/internal/logging"
	"github.com/akelsh/seek/internal/monitor"
	"github.com/akelsh/seek/internal/policy"
	"github.com/akelsh/seek/internal/scanner"
	"github.com/akelsh/seek/internal/store"
)

func main() {
	configPath := flag.String("config", "seek.config.json", "path to the configuration file")
	mode := flag.String("mode", "full", "indexing mode: full or smart")
	flag.Parse()

	if err := run(*configPath, *mode); err != nil {
		fmt.Fprintln(os.Stderr, "seekctl:", err)
		os.Exit(1)
	}
}

func run(configPath, mode string) error {
	if mode != "full" && mode != "smart" {
		return fmt.Errorf("unknown mode %q (must be full or smart)", mode)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.Roots) == 0 {
		return fmt.Errorf("no roots configured in %s", configPath)
	}

	logger := logging.NewLogger("seekctl", logging.WARN, io.Discard)

	ctx := context.Background()
	pool, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer pool.Close()
	st := store.New(pool, logger)

	pol := policy.New(
		cfg.Policy.ExtraSystemPaths,
		cfg.Policy.ExtraDevDirectories,
		cfg.Policy.ExtraVolumeMetadata,
		cfg.Policy.DevDirectoryGlobs,
		cfg.Policy.HiddenFiles,
		cfg.Policy.DevExtensions,
	)
	logFn := func(format string, args ...interface{}) { logger.Warn(format, args...) }
	factory := scanner.NewFactory(pol.Exclude, logFn)
	sc := scanner.New(factory, logFn)
	idx := indexer.New(st, pool, sc, logger, cfg.Concurrency.FullWorkers, cfg.Concurrency.BatchSize)

	progress := func(p indexer.Progress) {
		fmt.Printf("\r%5.1f%% (%d/%d) %s", p.Fraction*100, p.Processed, p.Total, p.Message)
	}

	var stats indexer.Statistics
	if mode == "full" {
		stats, err = idx.PerformFullIndexing(ctx, cfg.Roots, progress)
	} else {
		mon := monitor.New(st, factory, logger, pol.Exclude, cfg.Monitor.BatchSize, time.Duration(cfg.Monitor.DebounceSeconds)*time.Second)
		stats, err = idx.PerformSmartIndexing(ctx, cfg.Roots, mon, progress)
	}
	fmt.Println()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	status, err := st.IndexingStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read indexing status: %w", err)
	}

	fmt.Printf("total_processed=%d excluded=%d symlinks=%d rate=%s/s\n",
		stats.TotalProcessed, stats.ExcludedPathCount, stats.SymlinkCount, stats.Rate())
	fmt.Printf("total_files=%d is_indexed=%v\n", status.FileCount, status.IsIndexed)

	return nil
}
