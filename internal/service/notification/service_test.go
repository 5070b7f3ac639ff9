package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu      sync.Mutex
	created []notification.Notification
	failErr error
	cutoff  time.Time
}

func (m *memoryRepo) Create(_ context.Context, n notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memoryRepo) ListByRecipient(_ context.Context, recipientID string, page, pageSize int, unreadOnly bool) ([]notification.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Notification
	for _, n := range m.created {
		if n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) CountUnread(_ context.Context, recipientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.created {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) MarkAsRead(context.Context, string, []string) error { return nil }
func (m *memoryRepo) MarkAllAsRead(context.Context, string) error        { return nil }

func (m *memoryRepo) DeleteReadBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return 0, m.failErr
	}
	m.cutoff = before
	kept := m.created[:0]
	var deleted int64
	for _, n := range m.created {
		if n.IsRead && n.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.created = kept
	return deleted, nil
}

func TestNotify_StoresAndStreams(t *testing.T) {
	repo := &memoryRepo{}
	hub := sse.NewHub()
	svc := NewNotificationService(repo, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := svc.Subscribe(ctx, "emp-1")

	err := svc.Notify(ctx, "emp-1", notification.TypePayrollApproved, map[string]interface{}{"payroll_id": "p1"}, "Your payroll was approved")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, notification.TypePayrollApproved, repo.created[0].Type)

	select {
	case ev := <-stream:
		assert.Equal(t, string(notification.TypePayrollApproved), ev.Name)
		assert.Equal(t, repo.created[0].ID, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no live event")
	}
}

func TestNotify_Validation(t *testing.T) {
	svc := NewNotificationService(&memoryRepo{}, sse.NewHub())

	err := svc.Notify(context.Background(), "", notification.TypePayrollPaid, nil, "")
	assert.ErrorIs(t, err, notification.ErrNoRecipient)

	err = svc.Notify(context.Background(), "emp-1", "leave_approved", nil, "")
	assert.ErrorIs(t, err, notification.ErrInvalidEventType)
}

func TestNotify_StoreFailure(t *testing.T) {
	boom := errors.New("db down")
	svc := NewNotificationService(&memoryRepo{failErr: boom}, sse.NewHub())

	err := svc.Notify(context.Background(), "emp-1", notification.TypePayrollPaid, nil, "paid")
	assert.ErrorIs(t, err, boom)
}

func TestList_Paging(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewNotificationService(repo, sse.NewHub())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "emp-1", notification.TypePayrollSubmitted, nil, "a"))
	require.NoError(t, svc.Notify(ctx, "emp-1", notification.TypePayrollApproved, nil, "b"))
	require.NoError(t, svc.Notify(ctx, "emp-2", notification.TypePayrollApproved, nil, "c"))

	resp, err := svc.List(ctx, "emp-1", notification.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.UnreadCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PageSize)
	assert.Equal(t, "a", resp.Notifications[0].Message)
}

func TestPurgeRead(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	repo := &memoryRepo{created: []notification.Notification{
		{ID: "old-read", IsRead: true, CreatedAt: now.AddDate(0, 0, -100)},
		{ID: "old-unread", CreatedAt: now.AddDate(0, 0, -100)},
		{ID: "new-read", IsRead: true, CreatedAt: now.AddDate(0, 0, -1)},
	}}
	svc := &service{repo: repo, hub: sse.NewHub(), now: func() time.Time { return now }}

	deleted, err := svc.PurgeRead(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, now.AddDate(0, 0, -90), repo.cutoff)

	var ids []string
	for _, n := range repo.created {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"old-unread", "new-read"}, ids)
}

func TestPurgeRead_DisabledWindow(t *testing.T) {
	repo := &memoryRepo{failErr: errors.New("must not be called")}
	svc := NewNotificationService(repo, sse.NewHub())

	deleted, err := svc.PurgeRead(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
