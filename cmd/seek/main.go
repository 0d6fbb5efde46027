// Command seek runs the file-search indexing service: it loads
// configuration, opens the index, and serves the search/indexing/monitor
// HTTP API until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akelsh/seek/internal/api"
	"github.com/akelsh/seek/internal/config"
	"github.com/akelsh/seek/internal/indexer"
	"github.com/akelsh/seek/internal/logging"
	"github.com/akelsh/seek/internal/monitor"
	"github.com/akelsh/seek/internal/policy"
	"github.com/akelsh/seek/internal/scanner"
	"github.com/akelsh/seek/internal/search"
	"github.com/akelsh/seek/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "seek.config.json", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "seek:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := logging.INFO
	switch cfg.Logging.Level {
	case "debug":
		level = logging.DEBUG
	case "warn":
		level = logging.WARN
	case "error":
		level = logging.ERROR
	}

	var logOutput io.Writer = os.Stdout
	if cfg.Logging.DebugEnabled {
		fw, err := logging.NewFileWriter(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer fw.Close()
		logOutput = logging.NewMultiWriter(os.Stdout, fw, true)
	}
	logger := logging.NewLogger("seek", level, logOutput)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	mon := monitor.New(st, factory, logger, pol.Exclude, cfg.Monitor.BatchSize, time.Duration(cfg.Monitor.DebounceSeconds)*time.Second)
	searchSvc := search.New(st, logger)

	server := api.NewServer(ctx, searchSvc, st, idx, mon, cfg.Roots, logger)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	status, err := st.IndexingStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read indexing status: %w", err)
	}
	if status.IsIndexed {
		if err := mon.StartMonitoringWithRecovery(ctx, cfg.Roots); err != nil {
			logger.Warn("failed to start change monitor on startup: %v", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigCh:
		logger.Info("shutting down")
		mon.StopMonitoring()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}

	return nil
}
