package faults

import "context"

// Repository defines persistence for pipeline faults
type Repository interface {
	Save(ctx context.Context, f *Fault) error
	ListByProfile(ctx context.Context, profileID string, limit int) ([]*Fault, error)
}
