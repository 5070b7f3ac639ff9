package payroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"
	deductioncalc "github.com/cmlabs-hris/payroll-backend-go/internal/service/deduction"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// amounts is the priced pay of one employee for one period.
type amounts struct {
	basic          decimal.Decimal
	allowances     []payroll.Allowance
	allowanceTotal decimal.Decimal
	gross          decimal.Decimal
	deductions     deduction.Result
}

// computeAmounts prices the employee's salary grade and runs the deduction
// calculator over the definitions that apply to them.
func (s *PayrollServiceImpl) computeAmounts(ctx context.Context, emp employee.Employee) (amounts, error) {
	if emp.GradeLevel == nil || strings.TrimSpace(*emp.GradeLevel) == "" {
		return amounts{}, employee.ErrNoGradeLevel
	}

	sg, err := s.gradeRepo.GetActiveByLevel(ctx, *emp.GradeLevel)
	if err != nil {
		return amounts{}, fmt.Errorf("load salary grade %q: %w", *emp.GradeLevel, err)
	}
	priced, err := sg.PriceAllowances()
	if err != nil {
		return amounts{}, err
	}

	a := amounts{
		basic:          sg.BasicSalary,
		allowances:     make([]payroll.Allowance, 0, len(priced)),
		allowanceTotal: decimal.Zero,
	}
	for _, p := range priced {
		a.allowances = append(a.allowances, payroll.Allowance{
			Name:              p.Name,
			Amount:            p.Amount,
			CalculationMethod: string(p.CalculationMethod),
		})
		a.allowanceTotal = a.allowanceTotal.Add(p.Amount)
	}
	a.gross = a.basic.Add(a.allowanceTotal)

	var departmentID string
	if emp.DepartmentID != nil {
		departmentID = *emp.DepartmentID
	}
	defs, err := s.deductionRepo.ListApplicable(ctx, emp.ID, departmentID)
	if err != nil {
		return amounts{}, fmt.Errorf("load deduction definitions: %w", err)
	}

	result, err := deductioncalc.Calculate(deductioncalc.Input{
		BasicSalary: a.basic,
		GrossSalary: a.gross,
		TaxBrackets: deductioncalc.SelectTaxBrackets(defs),
		Voluntary:   deductioncalc.SelectVoluntary(defs),
	})
	if err != nil {
		return amounts{}, apperror.Wrap(payroll.ErrCalculationFailed, err)
	}
	a.deductions = result
	return a, nil
}

// applyTo overwrites every monetary field of r.
func (a amounts) applyTo(r *payroll.PayrollRecord) {
	r.BasicSalary = a.basic
	r.Allowances = a.allowances
	r.Deductions = payroll.Deductions{
		Statutory: a.deductions.Statutory,
		Voluntary: a.deductions.Voluntary,
		Breakdown: a.deductions.Breakdown,
	}
	r.Totals = payroll.Totals{
		BasicSalary:     a.basic,
		GrossPay:        a.gross,
		TotalAllowances: a.allowanceTotal,
		TotalDeductions: a.deductions.TotalDeductions,
		NetPay:          a.deductions.NetPay,
	}
}

var moneyPrinter = message.NewPrinter(language.English)

// formatMoney renders d with thousands separators and two decimals.
func formatMoney(d decimal.Decimal) string {
	return moneyPrinter.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}
