package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/audit"
	"github.com/google/uuid"
)

type Service struct {
	repo audit.Repository
	now  func() time.Time
}

func NewAuditService(repo audit.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// LogAction writes one audit entry. It is awaited by callers, so a returned
// nil means the entry is durable.
func (s *Service) LogAction(ctx context.Context, action audit.Action, entityType, entityID, actorID string, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	entry := audit.Entry{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Details:    details,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry for %s %s: %w", entityType, entityID, err)
	}
	return nil
}

// Trail returns the entries recorded for one entity, oldest first.
func (s *Service) Trail(ctx context.Context, entityType, entityID string) ([]audit.Entry, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}
