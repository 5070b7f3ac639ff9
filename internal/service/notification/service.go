package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

type service struct {
	repo notification.Repository
	hub  *sse.Hub
	now  func() time.Time
}

// NewNotificationService stores notifications and pushes them to live SSE
// streams. Notify returns only after the row is written, so callers that
// notify in sequence get the same order on the wire.
func NewNotificationService(repo notification.Repository, hub *sse.Hub) notification.Service {
	return &service{
		repo: repo,
		hub:  hub,
		now:  time.Now,
	}
}

func (s *service) Notify(ctx context.Context, recipientID string, eventType notification.EventType, payload map[string]interface{}, message string) error {
	if recipientID == "" {
		return notification.ErrNoRecipient
	}
	if !eventType.IsValid() {
		return notification.ErrInvalidEventType
	}

	n := notification.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Type:        eventType,
		Message:     message,
		Payload:     payload,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	delivered := s.hub.Publish(sse.Event{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Name:        string(n.Type),
		Data:        toResponse(n),
	})
	slog.DebugContext(ctx, "notification stored",
		"notification_id", n.ID, "recipient_id", recipientID, "type", eventType, "live_streams", delivered)
	return nil
}

func (s *service) List(ctx context.Context, recipientID string, query notification.ListQuery) (notification.ListResponse, error) {
	query.Normalize()

	items, total, err := s.repo.ListByRecipient(ctx, recipientID, query.Page, query.PageSize, query.UnreadOnly)
	if err != nil {
		return notification.ListResponse{}, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return notification.ListResponse{}, fmt.Errorf("count unread notifications: %w", err)
	}

	out := make([]notification.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toResponse(n))
	}
	return notification.ListResponse{
		Notifications: out,
		Total:         total,
		UnreadCount:   unread,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}, nil
}

func (s *service) MarkAsRead(ctx context.Context, recipientID string, req notification.MarkAsReadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, recipientID, req.NotificationIDs)
}

func (s *service) MarkAllAsRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}

// PurgeRead drops read notifications older than the retention window.
// Unread notifications are kept regardless of age.
func (s *service) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	deleted, err := s.repo.DeleteReadBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("purge read notifications: %w", err)
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "purged read notifications", "deleted", deleted, "older_than", olderThan)
	}
	return deleted, nil
}

func (s *service) Subscribe(ctx context.Context, recipientID string) <-chan sse.Event {
	return s.hub.Subscribe(ctx, recipientID)
}

func toResponse(n notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		Payload:   n.Payload,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
