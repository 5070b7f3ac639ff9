package audit

import "context"

// Logger records one entry per state-changing operation. Details must be
// enough to reconstruct the before and after state without a re-read.
type Logger interface {
	LogAction(ctx context.Context, action Action, entityType, entityID, actorID string, details map[string]interface{}) error
}
