package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/payslip"
	"github.com/cmlabs-hris/payroll-backend-go/internal/service/approval"
	deductioncalc "github.com/cmlabs-hris/payroll-backend-go/internal/service/deduction"
)

// Deps are the collaborators of the payroll service. Publisher may be nil.
type Deps struct {
	Tx             database.Transactor
	PayrollRepo    payroll.PayrollRepository
	EmployeeRepo   employee.EmployeeRepository
	DepartmentRepo department.DepartmentRepository
	GradeRepo      grade.SalaryGradeRepository
	DeductionRepo  deduction.DefinitionRepository
	Approvers      employee.ApproverResolver
	Notifier       notification.Notifier
	Auditor        audit.Logger
	Publisher      payroll.EventPublisher
	CompanyName    string
}

type PayrollServiceImpl struct {
	tx             database.Transactor
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	departmentRepo department.DepartmentRepository
	gradeRepo      grade.SalaryGradeRepository
	deductionRepo  deduction.DefinitionRepository
	approvers      employee.ApproverResolver
	notifier       notification.Notifier
	auditor        audit.Logger
	publisher      payroll.EventPublisher
	companyName    string
	now            func() time.Time
}

func NewPayrollService(d Deps) *PayrollServiceImpl {
	tx := d.Tx
	if tx == nil {
		tx = database.NoopTransactor{}
	}
	return &PayrollServiceImpl{
		tx:             tx,
		payrollRepo:    d.PayrollRepo,
		employeeRepo:   d.EmployeeRepo,
		departmentRepo: d.DepartmentRepo,
		gradeRepo:      d.GradeRepo,
		deductionRepo:  d.DeductionRepo,
		approvers:      d.Approvers,
		notifier:       d.Notifier,
		auditor:        d.Auditor,
		publisher:      d.Publisher,
		companyName:    d.CompanyName,
		now:            time.Now,
	}
}

var _ payroll.PayrollService = (*PayrollServiceImpl)(nil)

var errNotManager = apperror.WithMessage(payroll.ErrForbidden, "you are not allowed to manage payrolls")

// actor is the authenticated employee together with their department.
type actor struct {
	employee.Employee
	dept *department.Department
}

// loadActor resolves the employee behind the request token.
func (s *PayrollServiceImpl) loadActor(ctx context.Context) (actor, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return actor{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	var emp employee.Employee
	if claims.EmployeeID != "" {
		emp, err = s.employeeRepo.GetByID(ctx, claims.EmployeeID)
	} else {
		emp, err = s.employeeRepo.GetByUserID(ctx, claims.UserID)
	}
	if errors.Is(err, employee.ErrEmployeeNotFound) {
		return actor{}, employee.ErrActorNotFound
	}
	if err != nil {
		return actor{}, fmt.Errorf("load acting employee: %w", err)
	}

	a := actor{Employee: emp}
	if emp.DepartmentID != nil {
		dept, err := s.departmentRepo.GetByID(ctx, *emp.DepartmentID)
		switch {
		case err == nil:
			a.dept = &dept
		case errors.Is(err, department.ErrDepartmentNotFound):
		default:
			return actor{}, fmt.Errorf("load acting employee department: %w", err)
		}
	}
	return a, nil
}

// seesAll reports whether the actor may read every payroll record.
func (a actor) seesAll() bool {
	return approval.CanManage(a.Employee) ||
		approval.CanProcessPayment(a.Employee) ||
		a.HasCapability(employee.CapabilitySuperAdmin)
}

func (a actor) headsDepartment() bool {
	return a.DepartmentID != nil && a.HasCapability(employee.CapabilityDepartmentHead)
}

func (a actor) canSee(r payroll.PayrollRecord) bool {
	if a.seesAll() || r.EmployeeID == a.ID {
		return true
	}
	return a.headsDepartment() && a.InDepartment(r.DepartmentID)
}

// scope narrows a list filter to what the actor may read.
func (a actor) scope(f payroll.PayrollFilter) payroll.PayrollFilter {
	if a.seesAll() {
		return f
	}
	if a.headsDepartment() {
		if f.DepartmentID == nil {
			f.DepartmentID = a.DepartmentID
			return f
		}
		if *f.DepartmentID == *a.DepartmentID {
			return f
		}
	}
	id := a.ID
	f.EmployeeID = &id
	return f
}

// visibleRecord loads a record the actor may read. Records outside the
// actor's reach are reported as missing.
func (s *PayrollServiceImpl) visibleRecord(ctx context.Context, a actor, id string) (payroll.PayrollRecord, error) {
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if !a.canSee(record) {
		return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
	}
	return record, nil
}

// ========== READS ==========

func (s *PayrollServiceImpl) GetPayrollRecord(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	record, err := s.visibleRecord(ctx, a, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	if s.backfillBreakdown(&record) {
		if err := s.payrollRepo.UpdateBreakdown(ctx, record); err != nil {
			slog.WarnContext(ctx, "failed to persist back-filled deduction breakdown",
				"payroll_id", record.ID, "error", err)
		}
	}
	return record.ToResponse(), nil
}

// backfillBreakdown rebuilds the breakdown of records stored before it was
// kept. It reports whether the record changed.
func (s *PayrollServiceImpl) backfillBreakdown(record *payroll.PayrollRecord) bool {
	if len(record.Deductions.Breakdown) > 0 {
		return false
	}
	record.Deductions.Breakdown = deductioncalc.BuildBreakdown(record.Deductions.Statutory, record.Deductions.Voluntary)
	return true
}

func (s *PayrollServiceImpl) ListPayrollRecords(ctx context.Context, query payroll.ListPayrollQuery) (payroll.ListPayrollResponse, error) {
	if err := query.Validate(); err != nil {
		return payroll.ListPayrollResponse{}, err
	}
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	filter := a.scope(query.ToFilter())
	records, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to list payroll records: %w", err)
	}

	responses := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, r.ToResponse())
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return payroll.ListPayrollResponse{
		Records:    responses,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// ========== PAYSLIP ==========

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.Payslip, error) {
	a, err := s.loadActor(ctx)
	if err != nil {
		return payroll.Payslip{}, err
	}
	record, err := s.visibleRecord(ctx, a, id)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if record.Status != payroll.StatusApproved && record.Status != payroll.StatusPaid {
		return payroll.Payslip{}, apperror.WithMessage(payroll.ErrInvalidStatus, "payslips are only available for approved or paid payrolls")
	}
	s.backfillBreakdown(&record)

	var buf bytes.Buffer
	if err := payslip.Render(&buf, s.payslipData(record)); err != nil {
		return payroll.Payslip{}, fmt.Errorf("render payslip: %w", err)
	}

	code := record.ID
	if record.EmployeeCode != nil && *record.EmployeeCode != "" {
		code = *record.EmployeeCode
	}
	return payroll.Payslip{
		FileName:    fmt.Sprintf("payslip-%s-%d-%02d.pdf", code, record.PeriodYear, record.PeriodMonth),
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}

func (s *PayrollServiceImpl) payslipData(r payroll.PayrollRecord) payslip.Data {
	d := payslip.Data{
		CompanyName:     s.companyName,
		EmployeeName:    deref(r.EmployeeName),
		EmployeeCode:    deref(r.EmployeeCode),
		DepartmentName:  deref(r.DepartmentName),
		Period:          periodLabel(r.PeriodMonth, r.PeriodYear),
		Frequency:       string(r.Frequency),
		Status:          string(r.Status),
		GrossPay:        formatMoney(r.Totals.GrossPay),
		TotalDeductions: formatMoney(r.Totals.TotalDeductions),
		NetPay:          formatMoney(r.Totals.NetPay),
		GeneratedAt:     s.now(),
	}

	d.Earnings = append(d.Earnings, payslip.Line{Label: "Basic salary", Amount: formatMoney(r.BasicSalary)})
	for _, al := range r.Allowances {
		d.Earnings = append(d.Earnings, payslip.Line{Label: al.Name, Amount: formatMoney(al.Amount)})
	}
	for _, line := range r.Deductions.Breakdown {
		d.Deductions = append(d.Deductions, payslip.Line{Label: line.Name, Amount: formatMoney(line.Amount)})
	}

	if pd := r.PaymentDetails; pd != nil {
		paidAt := pd.ProcessedAt
		d.BankName = pd.BankName
		d.AccountNumber = pd.AccountNumber
		d.PaidAt = &paidAt
	}
	return d
}

func periodLabel(month, year int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
