package notification

import (
	"time"
)

// EventType names what happened to the payroll a notification is about.
type EventType string

const (
	TypePayrollCreated         EventType = "payroll_created"
	TypePayrollSubmitted       EventType = "payroll_submitted"
	TypePayrollPendingApproval EventType = "payroll_pending_approval"
	TypePayrollApproved        EventType = "payroll_approved"
	TypePayrollRejected        EventType = "payroll_rejected"
	TypePayrollPaid            EventType = "payroll_paid"
	TypePayrollCancelled       EventType = "payroll_cancelled"
)

// AllEventTypes returns all available notification types
func AllEventTypes() []EventType {
	return []EventType{
		TypePayrollCreated,
		TypePayrollSubmitted,
		TypePayrollPendingApproval,
		TypePayrollApproved,
		TypePayrollRejected,
		TypePayrollPaid,
		TypePayrollCancelled,
	}
}

func (t EventType) IsValid() bool {
	for _, known := range AllEventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is an in-app notice addressed to one employee.
type Notification struct {
	ID          string
	RecipientID string
	Type        EventType
	Message     string
	Payload     map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
