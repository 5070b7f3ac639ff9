package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/approval"
)

// effect names what a transition records and announces once persisted.
type effect struct {
	action    audit.Action
	notice    notification.EventType
	eventType payroll.EventType
}

var (
	effectCreate   = effect{audit.ActionCreate, notification.TypePayrollCreated, payroll.EventTypeCreated}
	effectSubmit   = effect{audit.ActionSubmit, notification.TypePayrollSubmitted, payroll.EventTypeSubmitted}
	effectResubmit = effect{audit.ActionResubmit, notification.TypePayrollSubmitted, payroll.EventTypeSubmitted}
	effectApprove  = effect{audit.ActionApprove, notification.TypePayrollApproved, payroll.EventTypeApproved}
	effectReject   = effect{audit.ActionReject, notification.TypePayrollRejected, payroll.EventTypeRejected}
	effectPay      = effect{audit.ActionPay, notification.TypePayrollPaid, payroll.EventTypePaid}
	effectCancel   = effect{audit.ActionCancel, notification.TypePayrollCancelled, payroll.EventTypeCancelled}
)

// mutateFunc applies one engine transition to record in memory. It runs
// inside the transaction that persists the result.
type mutateFunc func(ctx context.Context, record *payroll.PayrollRecord) (approval.Transition, error)

// applyOne mutates a copy of record, persists it with a conditional update,
// then audits and announces the transition. Failures after the write are
// returned as warnings and never undo it.
func (s *PayrollServiceImpl) applyOne(ctx context.Context, a actor, record payroll.PayrollRecord, eff effect, mutate mutateFunc) (payroll.PayrollRecord, []payroll.SummaryIssue, error) {
	updated := record.Clone()
	var tr approval.Transition

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = mutate(ctx, &updated)
		if err != nil {
			return err
		}
		return s.payrollRepo.UpdateWorkflow(ctx, updated, tr.FromStatus, tr.FromLevel)
	})
	if err != nil {
		return payroll.PayrollRecord{}, nil, err
	}

	slog.InfoContext(ctx, "payroll transition persisted",
		"payroll_id", updated.ID,
		"action", eff.action,
		"from_status", tr.FromStatus,
		"to_status", tr.ToStatus,
		"level", tr.ToLevel,
	)

	s.recordAudit(ctx, eff.action, audit.EntityPayroll, updated.ID, a.ID, tr.Details())
	warnings := s.announce(ctx, updated, tr, a.ID, eff)
	return updated, warnings, nil
}

// recordAudit writes one audit entry. A failed write is logged only.
func (s *PayrollServiceImpl) recordAudit(ctx context.Context, action audit.Action, entityType, entityID, actorID string, details map[string]interface{}) {
	if err := s.auditor.LogAction(ctx, action, entityType, entityID, actorID, details); err != nil {
		slog.WarnContext(ctx, "failed to write audit entry",
			"action", action, "entity_id", entityID, "error", err)
	}
}

// announce notifies the employee, then the next approver when the record
// waits on one, then publishes the workflow event.
func (s *PayrollServiceImpl) announce(ctx context.Context, record payroll.PayrollRecord, tr approval.Transition, actorID string, eff effect) []payroll.SummaryIssue {
	var warnings []payroll.SummaryIssue
	payload := noticePayload(record)

	if err := s.notifier.Notify(ctx, record.EmployeeID, eff.notice, payload, employeeMessage(eff.notice, record)); err != nil {
		slog.WarnContext(ctx, "failed to notify employee",
			"payroll_id", record.ID, "employee_id", record.EmployeeID, "error", err)
		warnings = append(warnings, payroll.SummaryIssue{
			ItemID:  record.ID,
			Code:    apperror.CodeNotificationFailed,
			Message: "employee could not be notified",
		})
	}

	if record.Status == payroll.StatusPending {
		if w, ok := s.notifyApprover(ctx, record, payload); !ok {
			warnings = append(warnings, w)
		}
	}

	s.publish(ctx, record, tr, actorID, eff.eventType)
	return warnings
}

func (s *PayrollServiceImpl) notifyApprover(ctx context.Context, record payroll.PayrollRecord, payload map[string]interface{}) (payroll.SummaryIssue, bool) {
	level := record.ApprovalFlow.CurrentLevel
	capability, ok := approval.RequiredCapability(level)
	if !ok {
		return payroll.SummaryIssue{}, true
	}

	approver, err := s.approvers.FindApproverForLevel(ctx, capability, record.DepartmentID)
	if err != nil {
		slog.WarnContext(ctx, "failed to resolve approver",
			"payroll_id", record.ID, "level", level, "error", err)
	}
	if approver == nil {
		return payroll.SummaryIssue{
			ItemID:  record.ID,
			Code:    apperror.CodeNoApproverFound,
			Message: fmt.Sprintf("no approver found for level %s", level),
		}, false
	}

	msg := fmt.Sprintf("A payroll for %s is waiting for your approval at %s", periodLabel(record.PeriodMonth, record.PeriodYear), level)
	if err := s.notifier.Notify(ctx, approver.ID, notification.TypePayrollPendingApproval, payload, msg); err != nil {
		slog.WarnContext(ctx, "failed to notify approver",
			"payroll_id", record.ID, "approver_id", approver.ID, "level", level, "error", err)
		return payroll.SummaryIssue{
			ItemID:  record.ID,
			Code:    apperror.CodeNotificationFailed,
			Message: "approver could not be notified",
		}, false
	}
	return payroll.SummaryIssue{}, true
}

func (s *PayrollServiceImpl) publish(ctx context.Context, record payroll.PayrollRecord, tr approval.Transition, actorID string, eventType payroll.EventType) {
	if s.publisher == nil {
		return
	}
	event := payroll.Event{
		Type:         eventType,
		PayrollID:    record.ID,
		EmployeeID:   record.EmployeeID,
		DepartmentID: record.DepartmentID,
		PeriodMonth:  record.PeriodMonth,
		PeriodYear:   record.PeriodYear,
		FromStatus:   tr.FromStatus,
		ToStatus:     record.Status,
		FromLevel:    tr.FromLevel,
		ToLevel:      record.ApprovalFlow.CurrentLevel,
		ActorID:      actorID,
		NetPay:       record.Totals.NetPay.StringFixed(2),
		OccurredAt:   s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish payroll event",
			"payroll_id", record.ID, "type", eventType, "error", err)
	}
}

func noticePayload(r payroll.PayrollRecord) map[string]interface{} {
	return map[string]interface{}{
		"payroll_id":    r.ID,
		"department_id": r.DepartmentID,
		"period_month":  r.PeriodMonth,
		"period_year":   r.PeriodYear,
		"status":        string(r.Status),
		"level":         string(r.ApprovalFlow.CurrentLevel),
	}
}

func employeeMessage(t notification.EventType, r payroll.PayrollRecord) string {
	period := periodLabel(r.PeriodMonth, r.PeriodYear)
	switch t {
	case notification.TypePayrollCreated:
		return fmt.Sprintf("Your payroll for %s has been prepared", period)
	case notification.TypePayrollSubmitted:
		return fmt.Sprintf("Your payroll for %s has been submitted for approval", period)
	case notification.TypePayrollApproved:
		if r.Status == payroll.StatusApproved {
			return fmt.Sprintf("Your payroll for %s has been fully approved", period)
		}
		return fmt.Sprintf("Your payroll for %s was approved and moved to %s", period, r.ApprovalFlow.CurrentLevel)
	case notification.TypePayrollRejected:
		return fmt.Sprintf("Your payroll for %s was rejected at %s", period, r.ApprovalFlow.CurrentLevel)
	case notification.TypePayrollPaid:
		return fmt.Sprintf("Your payroll for %s has been paid", period)
	case notification.TypePayrollCancelled:
		return fmt.Sprintf("Your payroll for %s was cancelled", period)
	default:
		return fmt.Sprintf("Your payroll for %s was updated", period)
	}
}

// ========== SINGLE TRANSITIONS ==========

// transitionByID loads the record and runs applyOne, returning the response
// with any post-persist warnings attached.
func (s *PayrollServiceImpl) transitionByID(ctx context.Context, a actor, id string, eff effect, mutate mutateFunc) (payroll.PayrollRecordResponse, error) {
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	updated, warnings, err := s.applyOne(ctx, a, record, eff, mutate)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	resp := updated.ToResponse()
	resp.Warnings = warnings
	return resp, nil
}

func (s *PayrollServiceImpl) SubmitPayroll(ctx context.Context, id string, req payroll.SubmitPayrollRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !approval.CanManage(a.Employee) {
		return payroll.PayrollRecordResponse{}, errNotManager
	}

	return s.transitionByID(ctx, a, id, effectSubmit, s.submitDraft(a, req.Frequency, req.Remarks))
}

// submitDraft submits a DRAFT record. Anything else, including a record of
// another frequency when one is given, is treated as missing.
func (s *PayrollServiceImpl) submitDraft(a actor, frequency, remarks string) mutateFunc {
	return func(_ context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		if record.Status != payroll.StatusDraft {
			return approval.Transition{}, apperror.WithMessage(payroll.ErrPayrollNotFound, "no draft payroll found with this id")
		}
		if frequency != "" && record.Frequency != payroll.Frequency(frequency) {
			return approval.Transition{}, apperror.WithMessage(payroll.ErrPayrollNotFound, "no draft payroll found with this id and frequency")
		}
		return approval.Submit(record, a.Employee, a.dept, remarks, s.now())
	}
}

func (s *PayrollServiceImpl) ApprovePayroll(ctx context.Context, id string, req payroll.ApprovalActionRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return s.transitionByID(ctx, a, id, effectApprove, s.approve(a, req.Remarks))
}

func (s *PayrollServiceImpl) approve(a actor, remarks string) mutateFunc {
	return func(_ context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		return approval.Approve(record, a.Employee, remarks, s.now())
	}
}

func (s *PayrollServiceImpl) RejectPayroll(ctx context.Context, id string, req payroll.ApprovalActionRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return s.transitionByID(ctx, a, id, effectReject, s.reject(a, req.Remarks))
}

func (s *PayrollServiceImpl) reject(a actor, remarks string) mutateFunc {
	return func(_ context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		return approval.Reject(record, a.Employee, remarks, s.now())
	}
}

// ResubmitPayroll recomputes a rejected payroll from the current salary grade
// and deduction definitions and submits it again.
func (s *PayrollServiceImpl) ResubmitPayroll(ctx context.Context, id string, req payroll.ApprovalActionRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !approval.CanManage(a.Employee) {
		return payroll.PayrollRecordResponse{}, errNotManager
	}

	return s.transitionByID(ctx, a, id, effectResubmit, func(ctx context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		if record.Status != payroll.StatusRejected {
			return approval.Transition{}, apperror.WithMessage(payroll.ErrInvalidStatus, "only rejected payrolls can be resubmitted")
		}

		emp, err := s.employeeRepo.GetByID(ctx, record.EmployeeID)
		if err != nil {
			return approval.Transition{}, err
		}
		exists, err := s.payrollRepo.ExistsForPeriod(ctx, record.EmployeeID, record.PeriodMonth, record.PeriodYear, record.Frequency, record.ID)
		if err != nil {
			return approval.Transition{}, fmt.Errorf("check existing payroll: %w", err)
		}
		if exists {
			return approval.Transition{}, payroll.ErrPayrollAlreadyExists
		}

		amt, err := s.computeAmounts(ctx, emp)
		if err != nil {
			return approval.Transition{}, err
		}
		amt.applyTo(record)

		return approval.Submit(record, a.Employee, a.dept, req.Remarks, s.now())
	})
}

func (s *PayrollServiceImpl) CancelPayroll(ctx context.Context, id string, req payroll.ApprovalActionRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !approval.CanManage(a.Employee) {
		return payroll.PayrollRecordResponse{}, errNotManager
	}

	return s.transitionByID(ctx, a, id, effectCancel, func(_ context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		return approval.Cancel(record, req.Remarks, s.now())
	})
}

// ProcessPayment pays out an approved payroll. Bank fields missing from the
// request fall back to the employee's stored bank details.
func (s *PayrollServiceImpl) ProcessPayment(ctx context.Context, id string, req payroll.ProcessPaymentRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if !approval.CanProcessPayment(a.Employee) {
		return payroll.PayrollRecordResponse{}, apperror.WithMessage(payroll.ErrForbidden, "you are not allowed to process payroll payments")
	}

	return s.transitionByID(ctx, a, id, effectPay, func(ctx context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		if record.Status != payroll.StatusApproved {
			return approval.Transition{}, payroll.ErrInvalidStatus
		}
		details := payroll.PaymentDetails{
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			BankName:      req.BankName,
			ProcessedBy:   a.ID,
		}
		if details.AccountName == "" || details.AccountNumber == "" || details.BankName == "" {
			emp, err := s.employeeRepo.GetByID(ctx, record.EmployeeID)
			if err != nil {
				return approval.Transition{}, err
			}
			details.AccountName = firstNonEmpty(details.AccountName, emp.BankAccountName)
			details.AccountNumber = firstNonEmpty(details.AccountNumber, emp.BankAccountNumber)
			details.BankName = firstNonEmpty(details.BankName, emp.BankName)
		}
		return approval.MarkPaid(record, details, s.now())
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
