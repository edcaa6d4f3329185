package domain

import "context"

type EntryRepository interface {
	ListByCategory(ctx context.Context, userID string, category Category) ([]Entry, error)
	GetByID(ctx context.Context, userID, entryID string) (*Entry, error)
	Create(ctx context.Context, entry *Entry) error
	// Update applies the given column/value pairs to the entry. Implementations
	// must scope the update to userID and report ErrEntryNotFound when nothing
	// matched.
	Update(ctx context.Context, userID, entryID string, columns map[string]any) error
	Delete(ctx context.Context, userID, entryID string) error
}
