package cabinet

import "context"

// Repository port for persisting and querying cabinet entries
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	List(ctx context.Context, profileID string) ([]*Entry, error)
	Delete(ctx context.Context, profileID string, id EntryID) error
}
