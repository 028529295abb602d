// Package crawler walks a directory tree and runs every supported file
// through the ingestion pipeline.
//
// # Basic Usage
//
//	c := crawler.New(storage.Opener(cfg), logger)
//
//	stats, err := c.Crawl(ctx, "/data/incoming", crawler.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Ingested %d files in %v\n", stats.FilesIngested, stats.Duration)
//
// # Per-File Pipeline
//
//  1. Discovery: supported extensions only, office lock files (~$) skipped
//  2. Ledger check: skip files already ingested, by metadata and content
//  3. Parse: one table per CSV file or per workbook sheet
//  4. Normalize: find the header row and clean column names
//  5. Filter: optional scale correction, deduplication and interpolation
//  6. Merge: union with the stored table and derive the clean tier
//  7. Persist: replace the raw and clean tables, then regenerate views
//  8. Record: add the file to the ledger
//
// A file is recorded only when every sheet made it through, so failed
// files are retried on the next crawl.
//
// # Concurrency
//
// Files are processed one at a time. A Crawler refuses to start a second
// crawl while one is running; separate processes crawling into the same
// store are not coordinated.
package crawler
