package notification

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n Notification) error
	ListByRecipient(ctx context.Context, recipientID string, page, pageSize int, unreadOnly bool) ([]Notification, int, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkAsRead(ctx context.Context, recipientID string, ids []string) error
	MarkAllAsRead(ctx context.Context, recipientID string) error
	// DeleteReadBefore removes read notifications created before the cutoff.
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}
