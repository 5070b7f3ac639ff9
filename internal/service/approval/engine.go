// Package approval is the payroll sign-off state machine. Every function here
// is pure: it mutates the record in memory and never touches storage.
package approval

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

// Transition describes one state change applied to a record.
type Transition struct {
	FromStatus payroll.Status
	ToStatus   payroll.Status
	FromLevel  payroll.ApprovalLevel
	ToLevel    payroll.ApprovalLevel
	Event      *payroll.ApprovalEvent
}

// Details is the audit payload of the transition.
func (t Transition) Details() map[string]interface{} {
	d := map[string]interface{}{
		"from_status": string(t.FromStatus),
		"to_status":   string(t.ToStatus),
		"from_level":  string(t.FromLevel),
		"to_level":    string(t.ToLevel),
	}
	if t.Event != nil && t.Event.Remarks != "" {
		d["remarks"] = t.Event.Remarks
	}
	return d
}

// RequiredCapability is the capability an approver needs at level.
func RequiredCapability(level payroll.ApprovalLevel) (employee.Capability, bool) {
	switch level {
	case payroll.LevelDepartmentHead:
		return employee.CapabilityDepartmentHead, true
	case payroll.LevelHRManager:
		return employee.CapabilityHRManager, true
	case payroll.LevelFinanceDirector:
		return employee.CapabilityFinanceDirector, true
	case payroll.LevelSuperAdmin:
		return employee.CapabilitySuperAdmin, true
	default:
		return "", false
	}
}

// IsHRHead reports whether e manages the Human Resources department.
func IsHRHead(e employee.Employee, dept *department.Department) bool {
	return dept != nil &&
		dept.IsHumanResources &&
		e.InDepartment(dept.ID) &&
		e.HasCapability(employee.CapabilityHRManager)
}

// InitialLevel skips the department head step when the HR head submits, since
// they would otherwise approve their own submission.
func InitialLevel(submitter employee.Employee, submitterDept *department.Department) payroll.ApprovalLevel {
	if IsHRHead(submitter, submitterDept) {
		return payroll.LevelHRManager
	}
	return payroll.LevelDepartmentHead
}

// Authorize checks that actor may approve or reject at level for a record of
// departmentID.
func Authorize(actor employee.Employee, level payroll.ApprovalLevel, departmentID string) error {
	required, ok := RequiredCapability(level)
	if !ok {
		return payroll.ErrInvalidStatus
	}
	if !actor.HasCapability(required) {
		return payroll.ErrForbidden
	}
	if level == payroll.LevelDepartmentHead {
		if actor.DepartmentID == nil {
			return payroll.ErrNoDepartment
		}
		if !actor.InDepartment(departmentID) {
			return payroll.ErrOutsideDepartment
		}
	}
	return nil
}

// CanManage reports whether actor may create, submit or cancel payrolls.
func CanManage(actor employee.Employee) bool {
	return actor.IsSuperAdmin() ||
		actor.Role == employee.RoleAdmin ||
		actor.HasCapability(employee.CapabilityHRManager)
}

// CanProcessPayment reports whether actor may pay out approved payrolls.
func CanProcessPayment(actor employee.Employee) bool {
	return actor.IsSuperAdmin() ||
		actor.Role == employee.RoleAdmin ||
		actor.HasCapability(employee.CapabilityFinanceDirector)
}

// Submit hands a DRAFT or REJECTED record to its initial approval level.
// History restarts with a single SUBMIT event.
func Submit(record *payroll.PayrollRecord, submitter employee.Employee, submitterDept *department.Department, remarks string, now time.Time) (Transition, error) {
	if record.Status != payroll.StatusDraft && record.Status != payroll.StatusRejected {
		return Transition{}, payroll.ErrInvalidStatus
	}

	tr := Transition{FromStatus: record.Status, FromLevel: record.ApprovalFlow.CurrentLevel}
	level := InitialLevel(submitter, submitterDept)
	event := payroll.ApprovalEvent{
		Level:     level,
		Status:    payroll.EventSubmit,
		ActorID:   submitter.ID,
		Timestamp: now,
		Remarks:   strings.TrimSpace(remarks),
	}

	submittedBy := submitter.ID
	submittedAt := now
	record.Status = payroll.StatusPending
	record.ApprovalFlow = payroll.ApprovalFlow{
		CurrentLevel: level,
		History:      []payroll.ApprovalEvent{event},
		SubmittedBy:  &submittedBy,
		SubmittedAt:  &submittedAt,
		Remarks:      event.Remarks,
	}
	record.UpdatedAt = now

	tr.ToStatus = record.Status
	tr.ToLevel = level
	tr.Event = &event
	return tr, nil
}

// Approve records the actor's approval at the current level and advances the
// record. Approval at the last level completes the flow.
func Approve(record *payroll.PayrollRecord, actor employee.Employee, remarks string, now time.Time) (Transition, error) {
	if record.Status != payroll.StatusPending {
		return Transition{}, payroll.ErrInvalidStatus
	}
	level := record.ApprovalFlow.CurrentLevel
	if err := Authorize(actor, level, record.DepartmentID); err != nil {
		return Transition{}, err
	}
	if last, ok := record.ApprovalFlow.LastEventAt(level); ok && last.Status == payroll.EventApproved {
		return Transition{}, payroll.ErrAlreadyApprovedAtLevel
	}

	tr := Transition{FromStatus: record.Status, FromLevel: level}
	event := payroll.ApprovalEvent{
		Level:     level,
		Status:    payroll.EventApproved,
		ActorID:   actor.ID,
		Timestamp: now,
		Remarks:   strings.TrimSpace(remarks),
	}

	next := payroll.NextLevel(level)
	record.ApprovalFlow.History = append(record.ApprovalFlow.History, event)
	record.ApprovalFlow.CurrentLevel = next
	if event.Remarks != "" {
		record.ApprovalFlow.Remarks = event.Remarks
	}
	if next == payroll.LevelCompleted {
		approvedAt := now
		record.Status = payroll.StatusApproved
		record.ApprovalFlow.ApprovedAt = &approvedAt
	}
	record.UpdatedAt = now

	tr.ToStatus = record.Status
	tr.ToLevel = next
	tr.Event = &event
	return tr, nil
}

// Reject ends the flow at the current level. History is replaced by the single
// REJECTED event; earlier events survive in the audit trail.
func Reject(record *payroll.PayrollRecord, actor employee.Employee, remarks string, now time.Time) (Transition, error) {
	if record.Status != payroll.StatusPending {
		return Transition{}, payroll.ErrInvalidStatus
	}
	level := record.ApprovalFlow.CurrentLevel
	if err := Authorize(actor, level, record.DepartmentID); err != nil {
		return Transition{}, err
	}

	tr := Transition{FromStatus: record.Status, FromLevel: level}
	event := payroll.ApprovalEvent{
		Level:     level,
		Status:    payroll.EventRejected,
		ActorID:   actor.ID,
		Timestamp: now,
		Remarks:   strings.TrimSpace(remarks),
	}

	rejectedBy := actor.ID
	rejectedAt := now
	record.Status = payroll.StatusRejected
	record.ApprovalFlow.History = []payroll.ApprovalEvent{event}
	record.ApprovalFlow.RejectedBy = &rejectedBy
	record.ApprovalFlow.RejectedAt = &rejectedAt
	record.ApprovalFlow.Remarks = event.Remarks
	record.UpdatedAt = now

	tr.ToStatus = record.Status
	tr.ToLevel = level
	tr.Event = &event
	return tr, nil
}

// Cancel retires a record that has not been approved. Nothing is deleted.
func Cancel(record *payroll.PayrollRecord, remarks string, now time.Time) (Transition, error) {
	switch record.Status {
	case payroll.StatusDraft, payroll.StatusPending, payroll.StatusRejected:
	default:
		return Transition{}, payroll.ErrInvalidStatus
	}

	tr := Transition{FromStatus: record.Status, FromLevel: record.ApprovalFlow.CurrentLevel}
	record.Status = payroll.StatusCancelled
	if r := strings.TrimSpace(remarks); r != "" {
		record.ApprovalFlow.Remarks = r
	}
	record.UpdatedAt = now

	tr.ToStatus = record.Status
	tr.ToLevel = record.ApprovalFlow.CurrentLevel
	return tr, nil
}

// MarkPaid stamps payment details on an APPROVED record.
func MarkPaid(record *payroll.PayrollRecord, details payroll.PaymentDetails, now time.Time) (Transition, error) {
	if record.Status != payroll.StatusApproved {
		return Transition{}, payroll.ErrInvalidStatus
	}
	if strings.TrimSpace(details.AccountName) == "" ||
		strings.TrimSpace(details.AccountNumber) == "" ||
		strings.TrimSpace(details.BankName) == "" {
		return Transition{}, payroll.ErrIncompletePaymentDetails
	}

	tr := Transition{FromStatus: record.Status, FromLevel: record.ApprovalFlow.CurrentLevel}
	details.ProcessedAt = now
	record.PaymentDetails = &details
	record.Status = payroll.StatusPaid
	record.UpdatedAt = now

	tr.ToStatus = record.Status
	tr.ToLevel = record.ApprovalFlow.CurrentLevel
	return tr, nil
}
