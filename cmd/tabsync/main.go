package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/config"
	"github.com/dshills/tabsync/internal/crawler"
	"github.com/dshills/tabsync/internal/ledger"
	"github.com/dshills/tabsync/internal/logging"
	"github.com/dshills/tabsync/internal/mcp"
	"github.com/dshills/tabsync/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `Usage:
  tabsync [flags] [root_dir [mapping_dir [apply_filters]]]
  tabsync [flags] serve
  tabsync [flags] reset-ledger
  tabsync --version

Flags:
`

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("tabsync\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.SQLiteDriverName)
		os.Exit(0)
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tabsync: %s\n", logging.SanitizeError(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("tabsync", flag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("TABSYNC_CONFIG"), "path to a YAML or .env configuration file")
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rest := flags.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case "serve":
			return serve(ctx, cfg, logger)
		case "reset-ledger":
			return resetLedger(ctx, cfg, logger)
		}
	}
	return crawl(ctx, cfg, logger, rest)
}

// crawl runs one ingestion pass. Positional arguments override the
// configured root directory, mapping directory and filter switch.
func crawl(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	if len(args) > 3 {
		return fmt.Errorf("too many arguments: %v", args)
	}

	root := cfg.RootDirectory
	crawlCfg := cfg.Crawler()
	if len(args) > 0 {
		root = args[0]
	}
	if len(args) > 1 {
		crawlCfg.MappingDirectory = args[1]
	}
	if len(args) > 2 {
		apply, err := cast.ToBoolE(args[2])
		if err != nil {
			return fmt.Errorf("invalid apply_filters %q: %w", args[2], err)
		}
		crawlCfg.ApplyFilters = apply
	}

	storageCfg := cfg.Storage()
	logger.Info("starting crawl",
		zap.String("version", version),
		zap.String("root", root),
		zap.String("driver", storageCfg.Driver),
		zap.String("dsn", logging.SanitizeConnectionString(storageCfg.DSN)),
		zap.Bool("apply_filters", crawlCfg.ApplyFilters),
		zap.Bool("update_database", crawlCfg.UpdateDatabase))

	c := crawler.New(storage.Opener(storageCfg), logger)
	stats, err := c.Crawl(ctx, root, crawlCfg)
	if err != nil {
		return err
	}

	logger.Info("crawl finished",
		zap.String("run_id", stats.RunID),
		zap.Int("files_ingested", stats.FilesIngested),
		zap.Int("files_skipped", stats.FilesSkipped),
		zap.Int("files_failed", stats.FilesFailed),
		zap.Duration("duration", stats.Duration))
	return nil
}

// serve runs the MCP server on stdio until the client disconnects or the
// process is signalled
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
		return nil
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

// resetLedger empties the ledger so the next crawl ingests every file again
func resetLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	return ledger.With(ctx, storage.Opener(cfg.Storage()), ledger.Options{
		Table:  cfg.LedgerTable,
		Logger: logger,
	}, func(l *ledger.Ledger) error {
		n := l.Len()
		if err := l.Reset(ctx); err != nil {
			return err
		}
		logger.Info("ledger reset", zap.String("table", cfg.LedgerTable), zap.Int("entries_removed", n))
		return nil
	})
}
