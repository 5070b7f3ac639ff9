package audit

import "context"

type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
}
