package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ResolveFrequency defaults an empty frequency to monthly.
func ResolveFrequency(s string) Frequency {
	if s == "" {
		return FrequencyMonthly
	}
	return Frequency(s)
}

func validateFrequency(errs *validator.ValidationErrors, s string) {
	if s != "" && !Frequency(s).IsValid() {
		errs.Add("frequency", ErrInvalidFrequency.Message)
	}
}

type CreateSinglePayrollRequest struct {
	EmployeeID   string `json:"employee_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	PeriodMonth  int    `json:"period_month" validate:"required,min=1,max=12"`
	PeriodYear   int    `json:"period_year" validate:"required,min=2000,max=2100"`
	Frequency    string `json:"frequency"`
}

func (r *CreateSinglePayrollRequest) Validate() error {
	errs := validator.Struct(r)
	validateFrequency(&errs, r.Frequency)
	return errs.Err()
}

// CreateBatchPayrollRequest targets EmployeeIDs, or the whole department when empty.
type CreateBatchPayrollRequest struct {
	DepartmentID string   `json:"department_id" validate:"required"`
	EmployeeIDs  []string `json:"employee_ids" validate:"dive,required"`
	PeriodMonth  int      `json:"period_month" validate:"required,min=1,max=12"`
	PeriodYear   int      `json:"period_year" validate:"required,min=2000,max=2100"`
	Frequency    string   `json:"frequency"`
}

func (r *CreateBatchPayrollRequest) Validate() error {
	errs := validator.Struct(r)
	validateFrequency(&errs, r.Frequency)
	return errs.Err()
}

type SubmitPayrollRequest struct {
	Remarks   string `json:"remarks" validate:"max=1000"`
	Frequency string `json:"frequency"`
}

func (r *SubmitPayrollRequest) Validate() error {
	if r.Frequency != "" && !Frequency(r.Frequency).IsValid() {
		return ErrInvalidFrequency
	}
	return validator.Struct(r).Err()
}

// SubmitBulkRequest targets PayrollIDs, or every DRAFT record of the
// department and period when PayrollIDs is empty.
type SubmitBulkRequest struct {
	PayrollIDs   []string `json:"payroll_ids" validate:"dive,required"`
	DepartmentID string   `json:"department_id"`
	PeriodMonth  int      `json:"period_month"`
	PeriodYear   int      `json:"period_year"`
	Frequency    string   `json:"frequency"`
	Remarks      string   `json:"remarks" validate:"max=1000"`
}

func (r *SubmitBulkRequest) Validate() error {
	errs := validator.Struct(r)
	if len(r.PayrollIDs) == 0 {
		if validator.IsEmpty(r.DepartmentID) {
			errs.Add("department_id", "department_id is required when payroll_ids is empty")
		}
		if !validator.IsValidPeriod(r.PeriodMonth, r.PeriodYear) {
			errs.Add("period", "a valid period_month and period_year are required when payroll_ids is empty")
		}
	}
	validateFrequency(&errs, r.Frequency)
	return errs.Err()
}

type ApprovalActionRequest struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

func (r *ApprovalActionRequest) Validate() error {
	return validator.Struct(r).Err()
}

// DepartmentActionRequest approves or rejects every PENDING record of a
// department and period sitting at Level.
type DepartmentActionRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
	PeriodMonth  int    `json:"period_month" validate:"required,min=1,max=12"`
	PeriodYear   int    `json:"period_year" validate:"required,min=2000,max=2100"`
	Level        string `json:"level" validate:"required"`
	Frequency    string `json:"frequency"`
	Remarks      string `json:"remarks" validate:"max=1000"`
}

func (r *DepartmentActionRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Level != "" {
		if l, err := ParseApprovalLevel(r.Level); err != nil || !l.IsActionable() {
			errs.Add("level", "level must be one of DEPARTMENT_HEAD, HR_MANAGER, FINANCE_DIRECTOR, SUPER_ADMIN")
		}
	}
	validateFrequency(&errs, r.Frequency)
	return errs.Err()
}

// ProcessPaymentRequest may omit bank fields; the employee's stored bank
// details fill the gaps.
type ProcessPaymentRequest struct {
	AccountName   string `json:"account_name" validate:"max=200"`
	AccountNumber string `json:"account_number" validate:"max=50"`
	BankName      string `json:"bank_name" validate:"max=200"`
}

func (r *ProcessPaymentRequest) Validate() error {
	return validator.Struct(r).Err()
}

type PayrollFilter struct {
	DepartmentID *string
	EmployeeID   *string
	PeriodMonth  *int
	PeriodYear   *int
	Frequency    *Frequency
	Status       *Status
	Level        *ApprovalLevel
	Page         int
	Limit        int // 0 means no limit
}

type ListPayrollQuery struct {
	DepartmentID string `json:"department_id"`
	EmployeeID   string `json:"employee_id"`
	PeriodMonth  int    `json:"period_month" validate:"omitempty,min=1,max=12"`
	PeriodYear   int    `json:"period_year" validate:"omitempty,min=2000,max=2100"`
	Frequency    string `json:"frequency"`
	Status       string `json:"status"`
	Level        string `json:"level"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
}

func (q *ListPayrollQuery) Validate() error {
	errs := validator.Struct(q)
	validateFrequency(&errs, q.Frequency)
	if q.Status != "" && !Status(q.Status).IsValid() {
		errs.Add("status", "invalid status")
	}
	if q.Level != "" {
		if _, err := ParseApprovalLevel(q.Level); err != nil {
			errs.Add("level", "invalid approval level")
		}
	}
	return errs.Err()
}

// ToFilter converts the query to a repository filter with paging defaults.
func (q *ListPayrollQuery) ToFilter() PayrollFilter {
	f := PayrollFilter{Page: q.Page, Limit: q.Limit}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if q.DepartmentID != "" {
		f.DepartmentID = &q.DepartmentID
	}
	if q.EmployeeID != "" {
		f.EmployeeID = &q.EmployeeID
	}
	if q.PeriodMonth != 0 {
		f.PeriodMonth = &q.PeriodMonth
	}
	if q.PeriodYear != 0 {
		f.PeriodYear = &q.PeriodYear
	}
	if q.Frequency != "" {
		fr := Frequency(q.Frequency)
		f.Frequency = &fr
	}
	if q.Status != "" {
		st := Status(q.Status)
		f.Status = &st
	}
	if q.Level != "" {
		if l, err := ParseApprovalLevel(q.Level); err == nil {
			f.Level = &l
		}
	}
	return f
}

// ============= Response DTOs =============

type StatutoryResponse struct {
	PAYE    decimal.Decimal `json:"paye"`
	Pension decimal.Decimal `json:"pension"`
	NHF     decimal.Decimal `json:"nhf"`
	Total   decimal.Decimal `json:"total"`
}

type DeductionsResponse struct {
	Statutory StatutoryResponse              `json:"statutory"`
	Voluntary []deduction.VoluntaryDeduction `json:"voluntary"`
	Breakdown []deduction.BreakdownLine      `json:"breakdown"`
}

type TotalsResponse struct {
	BasicSalary     decimal.Decimal `json:"basic_salary"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
	TotalAllowances decimal.Decimal `json:"total_allowances"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
}

type ApprovalFlowResponse struct {
	CurrentLevel ApprovalLevel   `json:"current_level"`
	History      []ApprovalEvent `json:"history"`
	SubmittedBy  *string         `json:"submitted_by,omitempty"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
	RejectedBy   *string         `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time      `json:"rejected_at,omitempty"`
	ApprovedAt   *time.Time      `json:"approved_at,omitempty"`
	Remarks      string          `json:"remarks,omitempty"`
}

type PaymentDetailsResponse struct {
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
	ProcessedBy   string    `json:"processed_by"`
	ProcessedAt   time.Time `json:"processed_at"`
}

type PayrollRecordResponse struct {
	ID             string                  `json:"id"`
	EmployeeID     string                  `json:"employee_id"`
	EmployeeName   *string                 `json:"employee_name,omitempty"`
	EmployeeCode   *string                 `json:"employee_code,omitempty"`
	DepartmentID   string                  `json:"department_id"`
	DepartmentName *string                 `json:"department_name,omitempty"`
	PeriodMonth    int                     `json:"period_month"`
	PeriodYear     int                     `json:"period_year"`
	Frequency      Frequency               `json:"frequency"`
	BasicSalary    decimal.Decimal         `json:"basic_salary"`
	Allowances     []Allowance             `json:"allowances"`
	Deductions     DeductionsResponse      `json:"deductions"`
	Totals         TotalsResponse          `json:"totals"`
	Status         Status                  `json:"status"`
	ApprovalFlow   ApprovalFlowResponse    `json:"approval_flow"`
	PaymentDetails *PaymentDetailsResponse `json:"payment_details,omitempty"`
	CreatedBy      string                  `json:"created_by"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Warnings       []SummaryIssue          `json:"warnings,omitempty"`
}

type CreateSinglePayrollResponse struct {
	Record  *PayrollRecordResponse `json:"record"`
	Summary *ProcessingSummary     `json:"summary"`
}

type ListPayrollResponse struct {
	Records    []PayrollRecordResponse `json:"records"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
}

// Payslip is a rendered document ready to be streamed.
type Payslip struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ToResponse maps a record to its wire shape.
func (r PayrollRecord) ToResponse() PayrollRecordResponse {
	resp := PayrollRecordResponse{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		EmployeeCode:   r.EmployeeCode,
		DepartmentID:   r.DepartmentID,
		DepartmentName: r.DepartmentName,
		PeriodMonth:    r.PeriodMonth,
		PeriodYear:     r.PeriodYear,
		Frequency:      r.Frequency,
		BasicSalary:    r.BasicSalary,
		Allowances:     nonNil(r.Allowances),
		Deductions: DeductionsResponse{
			Statutory: StatutoryResponse(r.Deductions.Statutory),
			Voluntary: nonNil(r.Deductions.Voluntary),
			Breakdown: nonNil(r.Deductions.Breakdown),
		},
		Totals: TotalsResponse(r.Totals),
		Status: r.Status,
		ApprovalFlow: ApprovalFlowResponse{
			CurrentLevel: r.ApprovalFlow.CurrentLevel,
			History:      nonNil(r.ApprovalFlow.History),
			SubmittedBy:  r.ApprovalFlow.SubmittedBy,
			SubmittedAt:  r.ApprovalFlow.SubmittedAt,
			RejectedBy:   r.ApprovalFlow.RejectedBy,
			RejectedAt:   r.ApprovalFlow.RejectedAt,
			ApprovedAt:   r.ApprovalFlow.ApprovedAt,
			Remarks:      r.ApprovalFlow.Remarks,
		},
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.PaymentDetails != nil {
		pd := PaymentDetailsResponse(*r.PaymentDetails)
		resp.PaymentDetails = &pd
	}
	return resp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
