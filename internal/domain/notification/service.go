package notification

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
)

// Notifier delivers a workflow notice to one recipient. Callers treat a
// failure as degraded delivery, never as a reason to undo a transition.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, eventType EventType, payload map[string]interface{}, message string) error
}

type Service interface {
	Notifier

	List(ctx context.Context, recipientID string, query ListQuery) (ListResponse, error)
	MarkAsRead(ctx context.Context, recipientID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, recipientID string) error
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)

	// Subscribe streams live notifications until ctx is done.
	Subscribe(ctx context.Context, recipientID string) <-chan sse.Event
}
