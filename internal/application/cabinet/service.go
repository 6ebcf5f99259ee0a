package cabinet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/safemeds/safemeds/internal/application"
	domain "github.com/safemeds/safemeds/internal/domain/cabinet"
)

// Service implements use-cases untuk the medicine cabinet
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

func NewService(repo domain.Repository, clock application.Clock) *Service {
	return &Service{Repo: repo, Clock: clock}
}

func (s *Service) Add(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if e.DrugName == "" {
		return nil, fmt.Errorf("drugName is required")
	}
	if e.ID == "" {
		e.ID = domain.EntryID(uuid.New().String())
	}
	e.AddedAt = s.Clock.Now()
	if err := s.Repo.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, profileID string) ([]*domain.Entry, error) {
	return s.Repo.List(ctx, profileID)
}

func (s *Service) Remove(ctx context.Context, profileID string, id domain.EntryID) error {
	return s.Repo.Delete(ctx, profileID, id)
}
