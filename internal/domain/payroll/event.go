package payroll

import (
	"context"
	"time"
)

type EventType string

const (
	EventTypeCreated   EventType = "payroll.created"
	EventTypeSubmitted EventType = "payroll.submitted"
	EventTypeApproved  EventType = "payroll.approved"
	EventTypeRejected  EventType = "payroll.rejected"
	EventTypePaid      EventType = "payroll.paid"
	EventTypeCancelled EventType = "payroll.cancelled"
)

// Event is the structured record of one workflow transition, published after
// the transition is persisted.
type Event struct {
	Type         EventType     `json:"type"`
	PayrollID    string        `json:"payroll_id"`
	EmployeeID   string        `json:"employee_id"`
	DepartmentID string        `json:"department_id"`
	PeriodMonth  int           `json:"period_month"`
	PeriodYear   int           `json:"period_year"`
	FromStatus   Status        `json:"from_status,omitempty"`
	ToStatus     Status        `json:"to_status"`
	FromLevel    ApprovalLevel `json:"from_level,omitempty"`
	ToLevel      ApprovalLevel `json:"to_level"`
	ActorID      string        `json:"actor_id"`
	NetPay       string        `json:"net_pay"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
