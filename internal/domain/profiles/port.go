package profiles

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, p *HealthProfile) error
	Get(ctx context.Context, id ProfileID) (*HealthProfile, error)
	List(ctx context.Context) ([]*HealthProfile, error)
	Delete(ctx context.Context, id ProfileID) error
}
