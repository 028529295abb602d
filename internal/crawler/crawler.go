package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/tabsync/internal/filter"
	"github.com/dshills/tabsync/internal/fingerprint"
	"github.com/dshills/tabsync/internal/ledger"
	"github.com/dshills/tabsync/internal/merger"
	"github.com/dshills/tabsync/internal/normalizer"
	"github.com/dshills/tabsync/internal/parser"
	"github.com/dshills/tabsync/internal/storage"
	"github.com/dshills/tabsync/internal/translation"
	"github.com/dshills/tabsync/internal/views"
	"github.com/dshills/tabsync/pkg/types"
)

// ErrCrawlInProgress is returned when a crawl is requested while another
// one is running in this process
var ErrCrawlInProgress = errors.New("a crawl is already in progress")

// Crawler coordinates the ingestion pipeline for every file under a root:
// ledger check -> parse -> normalize -> filter -> merge -> persist -> record
type Crawler struct {
	open       storage.OpenFunc
	parser     *parser.Parser
	normalizer *normalizer.Normalizer
	merger     *merger.Merger
	views      *views.Generator
	loader     *translation.Loader
	logger     *zap.Logger

	lock CrawlLock
	mu   sync.Mutex
	last *Statistics
}

// Config contains configuration for one crawl
type Config struct {
	MappingDirectory     string // directory holding the translation file
	MappingFileName      string // translation file name, translation.DefaultFileName when empty
	DefaultMappingPath   string // used when the mapping directory has no translation file
	ApplyFilters         bool   // run the value filter pipeline before merging
	UpdateDatabase       bool   // persist merged tables and views
	DetectByContent      bool   // skip files whose content is already ingested under another path
	FingerprintAlgorithm fingerprint.Algorithm
	FingerprintCacheSize int
	LedgerTable          string
}

// DefaultConfig returns the configuration used when Crawl gets nil
func DefaultConfig() *Config {
	return &Config{
		MappingFileName:      translation.DefaultFileName,
		UpdateDatabase:       true,
		DetectByContent:      true,
		FingerprintAlgorithm: fingerprint.DefaultAlgorithm,
		FingerprintCacheSize: fingerprint.DefaultCacheSize,
		LedgerTable:          ledger.DefaultTable,
	}
}

// Statistics contains statistics about one crawl
type Statistics struct {
	RunID            string
	Root             string
	FilesDiscovered  int
	FilesIngested    int
	FilesSkipped     int
	FilesFailed      int
	TablesWritten    int
	ViewsRegenerated int
	StartTime        time.Time
	Duration         time.Duration
	ErrorMessages    []string
}

func (s *Statistics) fail(path string, err error) {
	s.ErrorMessages = append(s.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
}

// New creates a new Crawler. open is called once for the table store and
// once for the ledger, so the two never share a transaction.
func New(open storage.OpenFunc, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		open:       open,
		parser:     parser.New(),
		normalizer: normalizer.New(),
		merger:     merger.New(logger),
		views:      views.New(logger),
		loader:     translation.NewLoader(logger),
		logger:     logger,
	}
}

// Running reports whether a crawl is in progress
func (c *Crawler) Running() bool {
	return c.lock.Held()
}

// LastRun returns the statistics of the most recent completed crawl, or nil
func (c *Crawler) LastRun() *Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Crawl ingests every supported file under root. Failures confined to one
// file are logged and counted; an unreadable root or unreachable storage
// aborts the crawl. The ledger is written back even when the crawl aborts.
func (c *Crawler) Crawl(ctx context.Context, root string, cfg *Config) (*Statistics, error) {
	if !c.lock.TryAcquire() {
		return nil, ErrCrawlInProgress
	}
	defer c.lock.Release()

	if cfg == nil {
		cfg = DefaultConfig()
	}

	stats := &Statistics{
		RunID:         uuid.NewString(),
		Root:          root,
		StartTime:     time.Now(),
		ErrorMessages: make([]string, 0),
	}
	logger := c.logger.With(zap.String("run_id", stats.RunID))

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	hasher, err := fingerprint.New(cfg.FingerprintAlgorithm, cfg.FingerprintCacheSize)
	if err != nil {
		return nil, err
	}

	tmap, err := c.loader.Load(ctx, cfg.MappingDirectory, cfg.MappingFileName, cfg.DefaultMappingPath)
	if err != nil {
		logger.Warn("failed to load translation map, views will not be generated", zap.Error(err))
		tmap = translation.Map{}
	}

	store, err := c.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	run := &run{
		ctx:     ctx,
		crawler: c,
		cfg:     cfg,
		store:   store,
		tmap:    tmap,
		stats:   stats,
		logger:  logger,
	}

	opts := ledger.Options{Table: cfg.LedgerTable, Hasher: hasher, Logger: logger}
	err = ledger.With(ctx, c.open, opts, func(l *ledger.Ledger) error {
		run.ledger = l
		return filepath.WalkDir(root, run.visit)
	})

	stats.Duration = time.Since(stats.StartTime)
	if err != nil {
		return stats, fmt.Errorf("crawl of %s aborted: %w", root, err)
	}

	c.mu.Lock()
	c.last = stats
	c.mu.Unlock()

	logger.Info("crawl complete",
		zap.String("root", root),
		zap.Int("discovered", stats.FilesDiscovered),
		zap.Int("ingested", stats.FilesIngested),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("failed", stats.FilesFailed),
		zap.Int("tables_written", stats.TablesWritten),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

// run holds the state of one crawl
type run struct {
	ctx     context.Context
	crawler *Crawler
	cfg     *Config
	store   storage.Storage
	ledger  *ledger.Ledger
	tmap    translation.Map
	stats   *Statistics
	logger  *zap.Logger
}

// visit is the WalkDir callback. Only an error on the root itself stops
// the walk; unreadable subdirectories and files are logged and skipped.
func (r *run) visit(path string, d fs.DirEntry, err error) error {
	if ctxErr := r.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if d == nil || path == r.stats.Root {
			return err
		}
		r.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.IsDir() {
		return nil
	}

	if !parser.Supported(path) {
		return nil
	}
	if parser.IsLockFile(path) {
		r.logger.Debug("skipping lock file", zap.String("path", path))
		return nil
	}

	r.stats.FilesDiscovered++
	if err := r.processFile(path); err != nil {
		r.stats.FilesFailed++
		r.stats.fail(path, err)
		r.logger.Warn("file not ingested", zap.String("path", path), zap.Error(err))
	}
	return nil
}

// processFile runs the pipeline for one file. The file is recorded in the
// ledger only after every sheet has been handled.
func (r *run) processFile(path string) error {
	seen, err := r.ledger.Exists(path)
	if err != nil {
		return err
	}
	if seen {
		r.stats.FilesSkipped++
		r.logger.Debug("already ingested", zap.String("path", path))
		return nil
	}

	if r.cfg.DetectByContent {
		dup, err := r.ledger.ExistsByContent(path)
		if err != nil {
			return err
		}
		if dup {
			r.stats.FilesSkipped++
			r.logger.Info("content already ingested under another path", zap.String("path", path))
			return nil
		}
	}

	result, err := r.crawler.parser.ParseFile(path)
	if err != nil {
		return err
	}

	var errs []error
	for i := range result.Errors {
		pe := &result.Errors[i]
		if errors.Is(pe, types.ErrEmptySheet) {
			r.logger.Info("skipping empty sheet", zap.String("path", path), zap.String("table", pe.Sheet))
			continue
		}
		errs = append(errs, pe)
	}

	for _, sheet := range result.Sheets {
		if err := r.ingestSheet(sheet); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sheet.Name, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if err := r.ledger.Record(path); err != nil {
		return fmt.Errorf("failed to record file: %w", err)
	}
	r.stats.FilesIngested++
	r.logger.Info("file ingested", zap.String("path", path), zap.Int("tables", len(result.Sheets)))
	return nil
}

// ingestSheet normalizes, filters and merges one sheet and, unless the
// crawl is a dry run, persists it and refreshes its views
func (r *run) ingestSheet(sheet types.Sheet) error {
	table := r.crawler.normalizer.Normalize(sheet.Table)
	if table.NumCols() == 0 {
		r.logger.Info("sheet has no data", zap.String("table", sheet.Name))
		return nil
	}
	if r.cfg.ApplyFilters {
		table = filter.Apply(table)
	}

	merged, err := r.crawler.merger.Merge(r.ctx, r.store, sheet.Name, table)
	if err != nil {
		return err
	}
	if !r.cfg.UpdateDatabase {
		r.logger.Debug("database update disabled, not persisting",
			zap.String("table", sheet.Name), zap.Int("merged_rows", merged.MergedRows))
		return nil
	}

	if err := r.crawler.merger.Persist(r.ctx, r.store, merged); err != nil {
		return err
	}
	r.stats.TablesWritten++

	regenerated, err := r.crawler.views.Regenerate(r.ctx, r.store, r.tmap, sheet.Name)
	if err != nil {
		return err
	}
	if regenerated {
		r.stats.ViewsRegenerated++
	}
	return nil
}
