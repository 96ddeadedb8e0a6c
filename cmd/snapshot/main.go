// Command snapshot publishes the current course catalog to the object
// store so server instances can load it without reaching the upstream
// source. It reads the catalog from a local file or URL, normalizes it the
// same way the server does, and uploads the raw records zstd-compressed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/objstore"
)

// publishLockTTL bounds how long a crashed publisher can block the next
// run.
const publishLockTTL = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	if cfg.CatalogSnapshotKey == "" || !cfg.HasSnapshotStore() {
		log.Error("Snapshot publishing requires CATALOG_SNAPSHOT_KEY and the R2 credentials")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := publish(ctx, cfg, log); err != nil {
		log.WithError(err).Error("Snapshot publish failed")
		os.Exit(1)
	}
}

func publish(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	var source catalog.Source
	if cfg.CatalogURL != "" {
		source = catalog.NewURLSource(cfg.CatalogURL, config.CatalogFetch)
	} else {
		source = &catalog.FileSource{Path: cfg.CatalogPath}
	}

	data, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	// Validate before publishing: a snapshot that fails to parse would put
	// every server that loads it into degraded mode.
	records, malformed, err := catalog.ParseRecords(data)
	if err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	for _, merr := range malformed {
		log.WithError(merr).Warn("Malformed catalog entry")
	}
	courses, stats := catalog.Normalize(records)
	log.WithField("source", source.Name()).
		WithField("records", stats.Records).
		WithField("courses", len(courses)).
		Info("Catalog validated")

	store, err := objstore.New(ctx, objstore.Config{
		Endpoint:    cfg.R2Endpoint,
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretKey,
		BucketName:  cfg.R2Bucket,
	})
	if err != nil {
		return fmt.Errorf("create object store client: %w", err)
	}

	lock := objstore.NewPublishLock(store, cfg.CatalogSnapshotKey+".lock", publishLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire publish lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("another publisher holds the lock for %s", cfg.CatalogSnapshotKey)
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			log.WithError(err).Warn("Failed to release publish lock")
		}
	}()

	etag, err := store.Upload(ctx, cfg.CatalogSnapshotKey, data, "application/json")
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	log.WithField("key", cfg.CatalogSnapshotKey).
		WithField("etag", etag).
		WithField("bytes", len(data)).
		Info("Snapshot published")
	return nil
}
