package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/config"
	"github.com/HerbHall/distrocompare/internal/loader"
	"github.com/HerbHall/distrocompare/internal/store"
	"github.com/HerbHall/distrocompare/pkg/catalog"
)

const sqliteScheme = "sqlite://"

// loadCatalog builds the snapshot named by catalog.source: a compiled
// SQLite catalog or a document source.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger, obs loader.FailureObserver) (*catalog.Snapshot, *loader.Report, error) {
	source := cfg.GetString("catalog.source")

	if path, ok := strings.CutPrefix(source, sqliteScheme); ok {
		db, err := store.New(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog database: %w", err)
		}
		defer db.Close()
		repo, err := store.NewCatalogRepository(ctx, db)
		if err != nil {
			return nil, nil, err
		}
		return loader.NewSnapshotSource(repo).Load(ctx)
	}

	src, err := parseSource(cfg, source)
	if err != nil {
		return nil, nil, err
	}
	records := cfg.GetStringSlice("catalog.records")
	if len(records) == 0 {
		records = loader.DefaultManifest
	}
	l := loader.New(src, loader.Config{
		Template:     cfg.GetString("catalog.template"),
		Descriptions: cfg.GetString("catalog.descriptions"),
		RecordDir:    cfg.GetString("catalog.record_dir"),
		Records:      records,
		Concurrency:  cfg.GetInt("catalog.fetch_concurrency"),
		Timeout:      cfg.GetDuration("catalog.fetch_timeout"),
	}, logger, loader.WithObserver(obs))
	return l.Load(ctx)
}

func parseSource(cfg *config.Config, location string) (loader.Source, error) {
	var opts []loader.HTTPOption
	if p := cfg.GetString("catalog.proxy"); p != "" {
		opts = append(opts, loader.WithProxy(p))
	}
	if d := cfg.GetDuration("catalog.fetch_timeout"); d > 0 {
		opts = append(opts, loader.WithTimeout(d))
	}
	return loader.ParseSource(location, opts...)
}

// guideSource splits a user guide location into its directory source and
// document name. An empty location selects the embedded guide.
func guideSource(cfg *config.Config) (loader.Source, string, error) {
	location := cfg.GetString("docs.user_guide")
	if location == "" {
		return nil, "", nil
	}
	i := strings.LastIndex(location, "/")
	if i < 0 {
		src, err := parseSource(cfg, ".")
		return src, location, err
	}
	src, err := parseSource(cfg, location[:i+1])
	return src, location[i+1:], err
}
