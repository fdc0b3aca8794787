package loader

import (
	"context"
	"fmt"

	"github.com/HerbHall/distrocompare/internal/store"
	"github.com/HerbHall/distrocompare/pkg/catalog"
)

// SnapshotSource serves a catalog compiled into SQLite.
type SnapshotSource struct {
	repo store.CatalogRepository
}

// NewSnapshotSource returns a source backed by repo.
func NewSnapshotSource(repo store.CatalogRepository) *SnapshotSource {
	return &SnapshotSource{repo: repo}
}

// Load returns the stored snapshot with a report describing it.
func (s *SnapshotSource) Load(ctx context.Context) (*catalog.Snapshot, *Report, error) {
	snap, err := s.repo.LoadSnapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load stored catalog: %w", err)
	}
	return snap, &Report{
		Source:    "sqlite",
		Requested: len(snap.Records),
		Loaded:    len(snap.Records),
		Skipped:   snap.Template.Skipped(),
	}, nil
}
