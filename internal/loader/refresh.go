package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/pkg/catalog"
)

// LoadFunc produces a catalog snapshot, as Loader.Load and
// SnapshotSource.Load do.
type LoadFunc func(ctx context.Context) (*catalog.Snapshot, *Report, error)

// ApplyFunc receives every successfully reloaded snapshot.
type ApplyFunc func(snap *catalog.Snapshot, report *Report)

// Refresher reloads the catalog on a cron schedule. A failed reload keeps
// the current snapshot; an overrunning reload skips the next tick.
type Refresher struct {
	cron    *cron.Cron
	load    LoadFunc
	apply   ApplyFunc
	timeout time.Duration
	logger  *zap.Logger
}

// NewRefresher schedules load with a standard cron expression or a
// descriptor such as "@every 6h".
func NewRefresher(spec string, load LoadFunc, apply ApplyFunc, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		load:    load,
		apply:   apply,
		timeout: timeout,
		logger:  logger.Named("refresh"),
	}
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	r.logger.Info("catalog refresh scheduled", zap.String("schedule", spec))
	return r, nil
}

// Start begins the schedule.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts the schedule and waits for a running reload to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Refresh reloads the catalog now.
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	snap, report, err := r.load(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	r.apply(snap, report)
	r.logger.Info("catalog refreshed",
		zap.Int("records", len(snap.Records)),
		zap.Int("failures", len(report.Failures)),
	)
	return nil
}

func (r *Refresher) tick() {
	if err := r.Refresh(context.Background()); err != nil {
		r.logger.Warn("keeping previous catalog", zap.Error(err))
	}
}
