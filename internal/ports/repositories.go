package ports

import (
	"context"

	"footprint/internal/domain"
)

// InvestigationRepository stores investigation records and their snapshots.
type InvestigationRepository interface {
	Create(ctx context.Context, target domain.Target) (id string, err error)
	Get(ctx context.Context, id string) (domain.Investigation, error)
	SaveSnapshot(ctx context.Context, id string, snap *domain.Snapshot) error
	Snapshot(ctx context.Context, id string) (*domain.Snapshot, error)
	LatestSnapshot(ctx context.Context, target domain.Target) (*domain.Snapshot, error)
}

// SnapshotStore writes a snapshot somewhere durable and returns its location.
type SnapshotStore interface {
	Save(snap *domain.Snapshot, name string) (location string, err error)
}
