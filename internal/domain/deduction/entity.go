package deduction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type separates legally mandated withholdings from opt-in ones.
type Type string

const (
	TypeStatutory Type = "statutory"
	TypeVoluntary Type = "voluntary"
)

type CalculationMethod string

const (
	MethodFixed       CalculationMethod = "fixed"
	MethodPercentage  CalculationMethod = "percentage"
	MethodProgressive CalculationMethod = "progressive"
)

// Scope decides which employees a definition applies to.
type Scope string

const (
	ScopeCompanyWide Scope = "company-wide"
	ScopeDepartment  Scope = "department"
	ScopeIndividual  Scope = "individual"
)

// TaxBracket is one band of a progressive schedule. Max is nil on the open
// top band only.
type TaxBracket struct {
	Min  decimal.Decimal  `json:"min"`
	Max  *decimal.Decimal `json:"max"`
	Rate decimal.Decimal  `json:"rate"`
}

type Definition struct {
	ID                string
	Name              string
	Type              Type
	CalculationMethod CalculationMethod
	Value             decimal.Decimal
	TaxBrackets       []TaxBracket
	Scope             Scope
	DepartmentID      *string
	EmployeeID        *string
	IsActive          bool
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AppliesTo reports whether an active definition covers the employee.
func (d Definition) AppliesTo(employeeID, departmentID string) bool {
	if !d.IsActive {
		return false
	}
	switch d.Scope {
	case ScopeCompanyWide:
		return true
	case ScopeDepartment:
		return d.DepartmentID != nil && *d.DepartmentID == departmentID
	case ScopeIndividual:
		return d.EmployeeID != nil && *d.EmployeeID == employeeID
	default:
		return false
	}
}

// Statutory holds the mandated lines. Total is the sum of the rounded lines.
type Statutory struct {
	PAYE    decimal.Decimal `json:"paye"`
	Pension decimal.Decimal `json:"pension"`
	NHF     decimal.Decimal `json:"nhf"`
	Total   decimal.Decimal `json:"total"`
}

type VoluntaryDeduction struct {
	Name              string            `json:"name"`
	Amount            decimal.Decimal   `json:"amount"`
	CalculationMethod CalculationMethod `json:"calculation_method"`
}

// BreakdownLine is one itemised deduction as shown to approvers.
type BreakdownLine struct {
	Name              string            `json:"name"`
	Type              Type              `json:"type"`
	Amount            decimal.Decimal   `json:"amount"`
	CalculationMethod CalculationMethod `json:"calculation_method"`
}

// Result is the calculator output for one employee and period.
type Result struct {
	Statutory       Statutory            `json:"statutory"`
	Voluntary       []VoluntaryDeduction `json:"voluntary"`
	Breakdown       []BreakdownLine      `json:"breakdown"`
	TotalDeductions decimal.Decimal      `json:"total_deductions"`
	NetPay          decimal.Decimal      `json:"net_pay"`
}

// Names of the statutory breakdown lines.
const (
	LinePAYE    = "PAYE"
	LinePension = "Pension"
	LineNHF     = "NHF"
)

var (
	PensionRate = decimal.NewFromInt(8)
	NHFRate     = decimal.RequireFromString("2.5")
)

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultTaxBrackets is the PAYE schedule used when no active progressive
// statutory definition exists.
func DefaultTaxBrackets() []TaxBracket {
	return []TaxBracket{
		{Min: decimal.NewFromInt(0), Max: bound(300000), Rate: decimal.NewFromInt(7)},
		{Min: decimal.NewFromInt(300001), Max: bound(600000), Rate: decimal.NewFromInt(11)},
		{Min: decimal.NewFromInt(600001), Max: bound(1100000), Rate: decimal.NewFromInt(15)},
		{Min: decimal.NewFromInt(1100001), Max: bound(1600000), Rate: decimal.NewFromInt(19)},
		{Min: decimal.NewFromInt(1600001), Max: bound(3200000), Rate: decimal.NewFromInt(21)},
		{Min: decimal.NewFromInt(3200001), Max: nil, Rate: decimal.NewFromInt(24)},
	}
}

// ValidateBrackets checks that a progressive schedule is non-empty, starts at
// zero, is contiguous and ordered, and is open on its last band only. A
// closed top band would leave income above it untaxed.
func ValidateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return WithReason("tax bracket list is empty")
	}
	if !brackets[0].Min.IsZero() {
		return WithReason("first tax bracket must start at 0")
	}
	for i, b := range brackets {
		if b.Rate.IsNegative() || b.Min.IsNegative() {
			return WithReason("tax bracket values must not be negative")
		}
		last := i == len(brackets)-1
		if b.Max == nil {
			if !last {
				return WithReason("only the last tax bracket may be open-ended")
			}
			continue
		}
		if last {
			return WithReason("last tax bracket must be open-ended")
		}
		if b.Max.LessThan(b.Min) {
			return WithReason("tax bracket max is below its min")
		}
		if next := brackets[i+1]; !next.Min.Equal(b.Max.Add(decimal.NewFromInt(1))) {
			return WithReason("tax brackets must be ordered and contiguous")
		}
	}
	return nil
}
