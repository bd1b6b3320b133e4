package ports

import (
	"context"

	"footprint/internal/domain"
	"footprint/internal/identity"
)

// Connector is one external data source. Invoke must honour ctx; the
// orchestrator still guards against connectors that do not. A connector that
// lacks credentials returns a needs_key result rather than an error.
type Connector interface {
	Name() string
	Category() domain.Category
	Supports(kind domain.IdentifierKind) bool
	Invoke(ctx context.Context, id domain.Identifier) (domain.SourceResult, error)
	// Close releases sessions the connector opened. It is called at the end of
	// every run; the connector may be invoked again afterwards.
	Close() error
}

// Investigations enqueues and tracks dashboard-triggered runs.
type Investigations interface {
	Enqueue(ctx context.Context, in identity.Input) (id string, err error)
	Status(ctx context.Context, id string) (domain.Investigation, error)
	Snapshot(ctx context.Context, id string) (*domain.Snapshot, error)
}

// Profiles provides the latest correlated profile for a target identifier.
type Profiles interface {
	GetLatest(ctx context.Context, in identity.Input) (*domain.Snapshot, error)
}
