package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/approval"
	"github.com/google/uuid"
)

// creation is one payroll slot to fill.
type creation struct {
	employeeID   string
	departmentID string
	month        int
	year         int
	frequency    payroll.Frequency
}

// created is a persisted record with the transition that placed it.
type created struct {
	record payroll.PayrollRecord
	tr     approval.Transition
}

// createOne checks and prices one employee and inserts the record in a single
// transaction. When the creator heads HR the record is submitted straight to
// HR_MANAGER.
func (s *PayrollServiceImpl) createOne(ctx context.Context, a actor, c creation) (created, error) {
	var out created
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employeeRepo.GetByID(ctx, c.employeeID)
		if err != nil {
			return err
		}
		if !emp.InDepartment(c.departmentID) {
			return employee.ErrNotInDepartment
		}

		exists, err := s.payrollRepo.ExistsForPeriod(ctx, emp.ID, c.month, c.year, c.frequency, "")
		if err != nil {
			return fmt.Errorf("check existing payroll: %w", err)
		}
		if exists {
			return payroll.ErrPayrollAlreadyExists
		}

		amt, err := s.computeAmounts(ctx, emp)
		if err != nil {
			return err
		}

		now := s.now()
		record := payroll.PayrollRecord{
			ID:           uuid.NewString(),
			EmployeeID:   emp.ID,
			DepartmentID: c.departmentID,
			PeriodMonth:  c.month,
			PeriodYear:   c.year,
			Frequency:    c.frequency,
			Status:       payroll.StatusDraft,
			ApprovalFlow: payroll.ApprovalFlow{CurrentLevel: payroll.LevelDraft},
			CreatedBy:    a.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
			EmployeeName: &emp.FullName,
			EmployeeCode: &emp.EmployeeCode,
		}
		amt.applyTo(&record)

		tr := approval.Transition{ToStatus: payroll.StatusDraft, ToLevel: payroll.LevelDraft}
		if approval.IsHRHead(a.Employee, a.dept) {
			if tr, err = approval.Submit(&record, a.Employee, a.dept, "", now); err != nil {
				return err
			}
		}

		saved, err := s.payrollRepo.Create(ctx, record)
		if err != nil {
			return err
		}
		out = created{record: saved, tr: tr}
		return nil
	})
	return out, err
}

func creationDetails(c created) map[string]interface{} {
	d := c.tr.Details()
	d["employee_id"] = c.record.EmployeeID
	d["period_month"] = c.record.PeriodMonth
	d["period_year"] = c.record.PeriodYear
	d["frequency"] = string(c.record.Frequency)
	d["net_pay"] = c.record.Totals.NetPay.StringFixed(2)
	return d
}

func detailOf(itemID string, r payroll.PayrollRecord) payroll.SummaryDetail {
	return payroll.SummaryDetail{
		ItemID:     itemID,
		PayrollID:  r.ID,
		EmployeeID: r.EmployeeID,
		Status:     r.Status,
		Level:      r.ApprovalFlow.CurrentLevel,
	}
}

// ========== CREATION ==========

func (s *PayrollServiceImpl) CreateSingleEmployeePayroll(ctx context.Context, req payroll.CreateSinglePayrollRequest) (payroll.CreateSinglePayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CreateSinglePayrollResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.CreateSinglePayrollResponse{}, err
	}
	if !approval.CanManage(a.Employee) {
		return payroll.CreateSinglePayrollResponse{}, errNotManager
	}

	summary := payroll.NewProcessingSummary(payroll.OperationCreateSingle)
	c, err := s.createOne(ctx, a, creation{
		employeeID:   req.EmployeeID,
		departmentID: req.DepartmentID,
		month:        req.PeriodMonth,
		year:         req.PeriodYear,
		frequency:    payroll.ResolveFrequency(req.Frequency),
	})
	if err != nil {
		summary.RecordFailure(payroll.SummaryDetail{ItemID: req.EmployeeID, EmployeeID: req.EmployeeID}, err)
		return payroll.CreateSinglePayrollResponse{Summary: summary}, err
	}
	summary.RecordProcessed(detailOf(req.EmployeeID, c.record))

	s.recordAudit(ctx, audit.ActionCreate, audit.EntityPayroll, c.record.ID, a.ID, creationDetails(c))
	warnings := s.announce(ctx, c.record, c.tr, a.ID, effectCreate)
	summary.AddWarnings(warnings...)

	resp := c.record.ToResponse()
	resp.Warnings = warnings
	return payroll.CreateSinglePayrollResponse{Record: &resp, Summary: summary}, nil
}

// CreateBatchPayroll creates payrolls for the listed employees, or for every
// active employee of the department. Items run strictly in order so each
// uniqueness check sees the records inserted before it.
func (s *PayrollServiceImpl) CreateBatchPayroll(ctx context.Context, req payroll.CreateBatchPayrollRequest) (*payroll.ProcessingSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return nil, err
	}
	if !approval.CanManage(a.Employee) {
		return nil, errNotManager
	}
	if _, err := s.departmentRepo.GetByID(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	employeeIDs := req.EmployeeIDs
	if len(employeeIDs) == 0 {
		employees, err := s.employeeRepo.GetActiveByDepartmentID(ctx, req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get department employees: %w", err)
		}
		for _, emp := range employees {
			employeeIDs = append(employeeIDs, emp.ID)
		}
	}

	summary := payroll.NewProcessingSummary(payroll.OperationCreateBatch)
	frequency := payroll.ResolveFrequency(req.Frequency)
	var done []created
	for _, employeeID := range employeeIDs {
		c, err := s.createOne(ctx, a, creation{
			employeeID:   employeeID,
			departmentID: req.DepartmentID,
			month:        req.PeriodMonth,
			year:         req.PeriodYear,
			frequency:    frequency,
		})
		if err != nil {
			summary.RecordFailure(
				payroll.SummaryDetail{ItemID: employeeID, EmployeeID: employeeID},
				apperror.NewBatchItemError(employeeID, err),
			)
			continue
		}
		summary.RecordProcessed(detailOf(employeeID, c.record))
		done = append(done, c)
	}

	if len(done) > 0 {
		ids := make([]string, 0, len(done))
		for _, c := range done {
			ids = append(ids, c.record.ID)
		}
		s.recordAudit(ctx, audit.ActionBatchCreate, audit.EntityPayrollBatch, uuid.NewString(), a.ID, map[string]interface{}{
			"department_id": req.DepartmentID,
			"period_month":  req.PeriodMonth,
			"period_year":   req.PeriodYear,
			"frequency":     string(frequency),
			"payroll_ids":   ids,
			"processed":     summary.Processed,
			"skipped":       summary.Skipped,
			"failed":        summary.Failed,
		})
		for _, c := range done {
			summary.AddWarnings(s.announce(ctx, c.record, c.tr, a.ID, effectCreate)...)
		}
	}

	slog.InfoContext(ctx, "payroll batch created",
		"department_id", req.DepartmentID,
		"attempted", summary.TotalAttempted,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// ========== BULK TRANSITIONS ==========

// runBatch applies mutate to every record in order. A failing item is
// recorded and the loop moves on.
func (s *PayrollServiceImpl) runBatch(ctx context.Context, a actor, summary *payroll.ProcessingSummary, records []payroll.PayrollRecord, eff effect, mutate mutateFunc) {
	for _, record := range records {
		updated, warnings, err := s.applyOne(ctx, a, record, eff, mutate)
		if err != nil {
			summary.RecordFailure(
				payroll.SummaryDetail{ItemID: record.ID, PayrollID: record.ID, EmployeeID: record.EmployeeID, Status: record.Status, Level: record.ApprovalFlow.CurrentLevel},
				apperror.NewBatchItemError(record.ID, err),
			)
			continue
		}
		summary.RecordProcessed(detailOf(record.ID, updated))
		summary.AddWarnings(warnings...)
	}
}

// SubmitBulkPayrolls submits the listed payrolls, or every DRAFT payroll of
// the department and period.
func (s *PayrollServiceImpl) SubmitBulkPayrolls(ctx context.Context, req payroll.SubmitBulkRequest) (*payroll.ProcessingSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return nil, err
	}
	if !approval.CanManage(a.Employee) {
		return nil, errNotManager
	}

	summary := payroll.NewProcessingSummary(payroll.OperationSubmitBulk)
	var records []payroll.PayrollRecord

	if len(req.PayrollIDs) > 0 {
		for _, id := range req.PayrollIDs {
			record, err := s.payrollRepo.GetByID(ctx, id)
			if err != nil {
				summary.RecordFailure(payroll.SummaryDetail{ItemID: id, PayrollID: id}, apperror.NewBatchItemError(id, err))
				continue
			}
			records = append(records, record)
		}
	} else {
		draft := payroll.StatusDraft
		filter := payroll.PayrollFilter{
			DepartmentID: &req.DepartmentID,
			PeriodMonth:  &req.PeriodMonth,
			PeriodYear:   &req.PeriodYear,
			Status:       &draft,
		}
		if req.Frequency != "" {
			f := payroll.Frequency(req.Frequency)
			filter.Frequency = &f
		}
		records, _, err = s.payrollRepo.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list draft payrolls: %w", err)
		}
	}

	submit := s.submitDraft(a, req.Frequency, req.Remarks)
	s.runBatch(ctx, a, summary, records, effectSubmit, func(ctx context.Context, record *payroll.PayrollRecord) (approval.Transition, error) {
		if record.Status != payroll.StatusDraft {
			return approval.Transition{}, apperror.WithMessage(payroll.ErrInvalidStatus, "only draft payrolls can be submitted")
		}
		return submit(ctx, record)
	})
	return summary, nil
}

func (s *PayrollServiceImpl) ApproveDepartmentPayrolls(ctx context.Context, req payroll.DepartmentActionRequest) (*payroll.ProcessingSummary, error) {
	return s.departmentAction(ctx, req, payroll.OperationApproveDepartment, effectApprove, s.approve)
}

func (s *PayrollServiceImpl) RejectDepartmentPayrolls(ctx context.Context, req payroll.DepartmentActionRequest) (*payroll.ProcessingSummary, error) {
	return s.departmentAction(ctx, req, payroll.OperationRejectDepartment, effectReject, s.reject)
}

// departmentAction checks the actor may act at the requested level before any
// record is touched, then applies the action to every PENDING record of the
// department and period sitting at that level.
func (s *PayrollServiceImpl) departmentAction(
	ctx context.Context,
	req payroll.DepartmentActionRequest,
	op payroll.Operation,
	eff effect,
	action func(a actor, remarks string) mutateFunc,
) (*payroll.ProcessingSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	level, err := payroll.ParseApprovalLevel(req.Level)
	if err != nil {
		return nil, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := approval.Authorize(a.Employee, level, req.DepartmentID); err != nil {
		return nil, err
	}

	pending := payroll.StatusPending
	filter := payroll.PayrollFilter{
		DepartmentID: &req.DepartmentID,
		PeriodMonth:  &req.PeriodMonth,
		PeriodYear:   &req.PeriodYear,
		Status:       &pending,
		Level:        &level,
	}
	if req.Frequency != "" {
		f := payroll.Frequency(req.Frequency)
		filter.Frequency = &f
	}
	records, _, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payrolls: %w", err)
	}

	summary := payroll.NewProcessingSummary(op)
	s.runBatch(ctx, a, summary, records, eff, action(a, req.Remarks))

	slog.InfoContext(ctx, "department payrolls processed",
		"operation", op,
		"department_id", req.DepartmentID,
		"level", level,
		"processed", summary.Processed,
		"failed", summary.Failed,
	)
	return summary, nil
}
