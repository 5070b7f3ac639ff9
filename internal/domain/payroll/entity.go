package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/shopspring/decimal"
)

// Frequency is the pay cycle a record covers.
type Frequency string

const (
	FrequencyMonthly  Frequency = "monthly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyWeekly   Frequency = "weekly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyBiWeekly, FrequencyWeekly:
		return true
	}
	return false
}

// ParseFrequency validates a client-supplied frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

// Status enum
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// EventStatus is the outcome recorded by an approval event.
type EventStatus string

const (
	EventSubmit   EventStatus = "SUBMIT"
	EventApproved EventStatus = "APPROVED"
	EventRejected EventStatus = "REJECTED"
)

// ApprovalEvent is immutable once appended to a history.
type ApprovalEvent struct {
	Level     ApprovalLevel `json:"level"`
	Status    EventStatus   `json:"status"`
	ActorID   string        `json:"actor_id"`
	Timestamp time.Time     `json:"timestamp"`
	Remarks   string        `json:"remarks,omitempty"`
}

type ApprovalFlow struct {
	CurrentLevel ApprovalLevel
	History      []ApprovalEvent
	SubmittedBy  *string
	SubmittedAt  *time.Time
	RejectedBy   *string
	RejectedAt   *time.Time
	ApprovedAt   *time.Time
	Remarks      string
}

// LastEventAt returns the most recent history entry at level, if any.
func (f ApprovalFlow) LastEventAt(level ApprovalLevel) (ApprovalEvent, bool) {
	for i := len(f.History) - 1; i >= 0; i-- {
		if f.History[i].Level == level {
			return f.History[i], true
		}
	}
	return ApprovalEvent{}, false
}

type Allowance struct {
	Name              string          `json:"name"`
	Amount            decimal.Decimal `json:"amount"`
	CalculationMethod string          `json:"calculation_method"`
}

type Deductions struct {
	Statutory deduction.Statutory
	Voluntary []deduction.VoluntaryDeduction
	Breakdown []deduction.BreakdownLine
}

type Totals struct {
	BasicSalary     decimal.Decimal
	GrossPay        decimal.Decimal
	TotalAllowances decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
}

type PaymentDetails struct {
	AccountName   string
	AccountNumber string
	BankName      string
	ProcessedBy   string
	ProcessedAt   time.Time
}

// PayrollRecord is never deleted; CANCELLED is its soft end state.
type PayrollRecord struct {
	ID             string
	EmployeeID     string
	DepartmentID   string
	PeriodMonth    int
	PeriodYear     int
	Frequency      Frequency
	BasicSalary    decimal.Decimal
	Allowances     []Allowance
	Deductions     Deductions
	Totals         Totals
	Status         Status
	ApprovalFlow   ApprovalFlow
	PaymentDetails *PaymentDetails
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Joined fields
	EmployeeName   *string
	EmployeeCode   *string
	DepartmentName *string
}

// Clone returns a copy whose slices can be mutated without touching r.
func (r PayrollRecord) Clone() PayrollRecord {
	c := r
	c.Allowances = append([]Allowance(nil), r.Allowances...)
	c.Deductions.Voluntary = append([]deduction.VoluntaryDeduction(nil), r.Deductions.Voluntary...)
	c.Deductions.Breakdown = append([]deduction.BreakdownLine(nil), r.Deductions.Breakdown...)
	c.ApprovalFlow.History = append([]ApprovalEvent(nil), r.ApprovalFlow.History...)
	if r.PaymentDetails != nil {
		pd := *r.PaymentDetails
		c.PaymentDetails = &pd
	}
	return c
}

// BlocksUniqueness reports whether the record occupies its (employee, period,
// frequency) slot.
func (r PayrollRecord) BlocksUniqueness() bool {
	return r.Status != StatusCancelled && r.Status != StatusRejected
}
