package profiles

import (
	"context"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
)

type Service struct {
	repo      ports.InvestigationRepository
	validator identity.Validator
}

func New(repo ports.InvestigationRepository, defaultRegion string) *Service {
	return &Service{repo: repo, validator: identity.Validator{DefaultRegion: defaultRegion}}
}

// GetLatest normalizes the identifiers the same way investigations do, so
// "Jane@ACME.com" finds the profile stored for "Jane@acme.com".
func (s *Service) GetLatest(ctx context.Context, in identity.Input) (*domain.Snapshot, error) {
	target, err := s.validator.Validate(in)
	if err != nil {
		return nil, err
	}
	return s.repo.LatestSnapshot(ctx, target)
}
