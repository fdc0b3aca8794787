// Package loader assembles a catalog snapshot from a document source: the
// attribute template, the descriptions and one document per distribution,
// fetched concurrently with failures isolated per document.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HerbHall/distrocompare/pkg/catalog"
)

// Document kinds reported in failures and metrics.
const (
	KindTemplate     = "template"
	KindDescriptions = "descriptions"
	KindRecord       = "record"
)

// Config names the documents to load. An empty Template or Descriptions
// uses the embedded default.
type Config struct {
	Template     string
	Descriptions string
	RecordDir    string
	Records      []string
	Concurrency  int
	Timeout      time.Duration
}

// DefaultConfig returns the published catalog layout.
func DefaultConfig() Config {
	return Config{
		Template:     DefaultTemplate,
		Descriptions: DefaultDescriptions,
		RecordDir:    DefaultRecordDir,
		Records:      append([]string(nil), DefaultManifest...),
		Concurrency:  8,
		Timeout:      time.Minute,
	}
}

// Failure is one document that could not be loaded.
type Failure struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Report summarizes a load.
type Report struct {
	Source     string        `json:"source"`
	Requested  int           `json:"requested"`
	Loaded     int           `json:"loaded"`
	Failures   []Failure     `json:"failures,omitempty"`
	Duplicates []string      `json:"duplicates,omitempty"`
	Skipped    []string      `json:"skipped_attributes,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// FailureObserver is told about every failed document.
type FailureObserver interface {
	ObserveFetchFailure(kind string)
}

// Loader fetches a catalog from a Source.
type Loader struct {
	source   Source
	cfg      Config
	logger   *zap.Logger
	observer FailureObserver
	defaults *catalog.Defaults
}

// Option configures a Loader.
type Option func(*Loader)

// WithObserver sets the failure observer.
func WithObserver(o FailureObserver) Option {
	return func(l *Loader) { l.observer = o }
}

// New creates a loader.
func New(source Source, cfg Config, logger *zap.Logger, opts ...Option) *Loader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	l := &Loader{
		source:   source,
		cfg:      cfg,
		logger:   logger.Named("loader"),
		defaults: catalog.NewDefaults(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches every document concurrently and returns the snapshot. A
// failing descriptions or record document is logged and reported; only an
// unusable template fails the load. Records keep manifest order and the
// first record with a given name wins.
func (l *Loader) Load(ctx context.Context) (*catalog.Snapshot, *Report, error) {
	start := time.Now()
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	report := &Report{Source: l.source.String(), Requested: len(l.cfg.Records)}
	var (
		mu       sync.Mutex
		tmpl     *catalog.Template
		tmplErr  error
		desc     map[string]string
		slots    = make([]*catalog.Record, len(l.cfg.Records))
		failures []Failure
	)
	fail := func(kind, name string, err error) {
		mu.Lock()
		failures = append(failures, Failure{Kind: kind, Name: name, Error: err.Error()})
		mu.Unlock()
		if l.observer != nil {
			l.observer.ObserveFetchFailure(kind)
		}
		l.logger.Warn("catalog document failed",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.Error(err),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Concurrency)

	g.Go(func() error {
		tmpl, tmplErr = l.loadTemplate(gctx)
		if tmplErr != nil {
			fail(KindTemplate, l.cfg.Template, tmplErr)
		}
		return nil
	})
	g.Go(func() error {
		d, err := l.loadDescriptions(gctx)
		if err != nil {
			fail(KindDescriptions, l.cfg.Descriptions, err)
			d = map[string]string{}
		}
		desc = d
		return nil
	})
	for i, name := range l.cfg.Records {
		g.Go(func() error {
			rec, err := l.loadRecord(gctx, name)
			if err != nil {
				fail(KindRecord, name, err)
				return nil
			}
			slots[i] = &rec
			return nil
		})
	}
	// Every task swallows its own error; Wait only joins.
	_ = g.Wait()

	report.Failures = failures
	report.Duration = time.Since(start)
	if tmplErr != nil {
		return nil, report, fmt.Errorf("load template: %w", tmplErr)
	}

	seen := make(map[string]bool, len(slots))
	records := make([]catalog.Record, 0, len(slots))
	for _, r := range slots {
		if r == nil {
			continue
		}
		if seen[r.Name] {
			report.Duplicates = append(report.Duplicates, r.Name)
			l.logger.Warn("duplicate record name ignored", zap.String("name", r.Name))
			continue
		}
		seen[r.Name] = true
		records = append(records, *r)
	}
	report.Loaded = len(records)
	report.Skipped = tmpl.Skipped()
	for _, k := range report.Skipped {
		l.logger.Debug("template attribute skipped", zap.String("attribute", k))
	}

	l.logger.Info("catalog loaded",
		zap.String("source", report.Source),
		zap.Int("records", report.Loaded),
		zap.Int("requested", report.Requested),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("duration", report.Duration),
	)
	return catalog.NewSnapshot(tmpl, records, desc), report, nil
}

func (l *Loader) loadTemplate(ctx context.Context) (*catalog.Template, error) {
	if l.cfg.Template == "" {
		return l.defaults.Template()
	}
	data, err := l.source.Fetch(ctx, l.cfg.Template)
	if err != nil {
		return nil, err
	}
	return catalog.ParseTemplate(data)
}

func (l *Loader) loadDescriptions(ctx context.Context) (map[string]string, error) {
	if l.cfg.Descriptions == "" {
		return l.defaults.Descriptions()
	}
	data, err := l.source.Fetch(ctx, l.cfg.Descriptions)
	if err != nil {
		return nil, err
	}
	return catalog.ParseDescriptions(data)
}

func (l *Loader) loadRecord(ctx context.Context, name string) (catalog.Record, error) {
	p := name
	if l.cfg.RecordDir != "" {
		p = path.Join(l.cfg.RecordDir, name)
	}
	data, err := l.source.Fetch(ctx, p)
	if err != nil {
		return catalog.Record{}, err
	}
	rec, err := catalog.ParseRecord(data)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingName) {
			return catalog.Record{}, fmt.Errorf("%s: %w", name, err)
		}
		return catalog.Record{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return rec, nil
}
