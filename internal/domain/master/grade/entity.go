package grade

import (
	"time"

	"github.com/shopspring/decimal"
)

type AllowanceMethod string

const (
	AllowanceFixed      AllowanceMethod = "fixed"
	AllowancePercentage AllowanceMethod = "percentage"
)

// AllowanceRule prices one allowance. Percentages are of basic salary.
type AllowanceRule struct {
	Name              string          `json:"name"`
	CalculationMethod AllowanceMethod `json:"calculation_method"`
	Value             decimal.Decimal `json:"value"`
}

// SalaryGrade is the pay scale attached to an employee grade level.
type SalaryGrade struct {
	ID          string
	Level       string
	Name        string
	BasicSalary decimal.Decimal
	Allowances  []AllowanceRule
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PricedAllowance is an allowance rule evaluated against a basic salary.
type PricedAllowance struct {
	Name              string
	Amount            decimal.Decimal
	CalculationMethod AllowanceMethod
}

// PriceAllowances evaluates every allowance rule, rounding each to 2 dp.
func (g SalaryGrade) PriceAllowances() ([]PricedAllowance, error) {
	out := make([]PricedAllowance, 0, len(g.Allowances))
	for _, rule := range g.Allowances {
		var amount decimal.Decimal
		switch rule.CalculationMethod {
		case AllowanceFixed:
			amount = rule.Value
		case AllowancePercentage:
			amount = g.BasicSalary.Mul(rule.Value).Div(decimal.NewFromInt(100))
		default:
			return nil, ErrInvalidAllowanceMethod
		}
		if amount.IsNegative() {
			return nil, ErrInvalidAllowanceMethod
		}
		out = append(out, PricedAllowance{Name: rule.Name, Amount: amount.Round(2), CalculationMethod: rule.CalculationMethod})
	}
	return out, nil
}
