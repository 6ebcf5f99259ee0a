package profiles

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/safemeds/safemeds/internal/application"
	domain "github.com/safemeds/safemeds/internal/domain/profiles"
)

// Service implements use-cases untuk HealthProfile
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

func NewService(repo domain.Repository, clock application.Clock) *Service {
	return &Service{Repo: repo, Clock: clock}
}

func (s *Service) Create(ctx context.Context, p *domain.HealthProfile) (*domain.HealthProfile, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	if p.ID == "" {
		p.ID = domain.ProfileID(uuid.New().String())
	}
	p.Normalize()
	now := s.Clock.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p *domain.HealthProfile) (*domain.HealthProfile, error) {
	existing, err := s.Repo.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.Clock.Now()
	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id domain.ProfileID) (*domain.HealthProfile, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.HealthProfile, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.Normalize()
	}
	return list, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ProfileID) error {
	return s.Repo.Delete(ctx, id)
}
