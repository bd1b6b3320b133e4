package investigations

import (
	"context"

	"github.com/google/uuid"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
)

// Service queues dashboard-triggered investigations and reports on them.
type Service struct {
	repo      ports.InvestigationRepository
	validator identity.Validator
}

func New(repo ports.InvestigationRepository, defaultRegion string) *Service {
	return &Service{repo: repo, validator: identity.Validator{DefaultRegion: defaultRegion}}
}

// Enqueue validates the input up front so that a bad request never creates a job.
func (s *Service) Enqueue(ctx context.Context, in identity.Input) (string, error) {
	target, err := s.validator.Validate(in)
	if err != nil {
		return "", err
	}
	return s.repo.Create(ctx, target)
}

func (s *Service) Status(ctx context.Context, id string) (domain.Investigation, error) {
	if !validID(id) {
		return domain.Investigation{}, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Snapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return s.repo.Snapshot(ctx, id)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
