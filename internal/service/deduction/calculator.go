package deduction

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input is everything the calculator needs for one employee and period.
// A nil TaxBrackets falls back to deduction.DefaultTaxBrackets.
type Input struct {
	BasicSalary decimal.Decimal
	GrossSalary decimal.Decimal
	TaxBrackets []deduction.TaxBracket
	Voluntary   []deduction.Definition
}

// Calculate produces the deduction breakdown and net pay. It has no side effects.
func Calculate(in Input) (deduction.Result, error) {
	if in.BasicSalary.IsNegative() || in.GrossSalary.IsNegative() {
		return deduction.Result{}, deduction.ErrInvalidInput
	}

	brackets := in.TaxBrackets
	if brackets == nil {
		brackets = deduction.DefaultTaxBrackets()
	}

	paye, err := CalculatePAYE(in.GrossSalary, brackets)
	if err != nil {
		return deduction.Result{}, err
	}

	statutory := deduction.Statutory{
		PAYE:    paye,
		Pension: CalculatePension(in.BasicSalary),
		NHF:     CalculateNHF(in.BasicSalary),
	}
	statutory.Total = statutory.PAYE.Add(statutory.Pension).Add(statutory.NHF)

	voluntary := make([]deduction.VoluntaryDeduction, 0, len(in.Voluntary))
	for _, def := range in.Voluntary {
		amount, err := CalculateVoluntary(def, in.BasicSalary)
		if err != nil {
			return deduction.Result{}, fmt.Errorf("voluntary deduction %q: %w", def.Name, err)
		}
		voluntary = append(voluntary, deduction.VoluntaryDeduction{
			Name:              def.Name,
			Amount:            amount,
			CalculationMethod: def.CalculationMethod,
		})
	}

	total := statutory.Total
	for _, v := range voluntary {
		total = total.Add(v.Amount)
	}

	return deduction.Result{
		Statutory:       statutory,
		Voluntary:       voluntary,
		Breakdown:       BuildBreakdown(statutory, voluntary),
		TotalDeductions: total,
		NetPay:          in.GrossSalary.Sub(total),
	}, nil
}

// CalculatePAYE walks the ordered brackets against the gross salary. The open
// top band absorbs whatever remains.
func CalculatePAYE(gross decimal.Decimal, brackets []deduction.TaxBracket) (decimal.Decimal, error) {
	if gross.IsNegative() {
		return decimal.Zero, deduction.ErrInvalidInput
	}
	if err := deduction.ValidateBrackets(brackets); err != nil {
		return decimal.Zero, err
	}

	tax := decimal.Zero
	remaining := gross
	for _, b := range brackets {
		if !remaining.IsPositive() {
			break
		}

		taxable := remaining
		if b.Max != nil {
			size := b.Max.Sub(b.Min).Add(decimal.NewFromInt(1))
			if b.Min.IsZero() {
				size = *b.Max
			}
			taxable = decimal.Min(remaining, size)
		}

		tax = tax.Add(taxable.Mul(b.Rate).Div(hundred))
		remaining = remaining.Sub(taxable)
	}
	return round(tax), nil
}

func CalculatePension(basic decimal.Decimal) decimal.Decimal {
	return round(basic.Mul(deduction.PensionRate).Div(hundred))
}

func CalculateNHF(basic decimal.Decimal) decimal.Decimal {
	return round(basic.Mul(deduction.NHFRate).Div(hundred))
}

// CalculateVoluntary prices a voluntary definition. Percentages are of basic salary.
func CalculateVoluntary(def deduction.Definition, basic decimal.Decimal) (decimal.Decimal, error) {
	switch def.CalculationMethod {
	case deduction.MethodFixed:
		return round(def.Value), nil
	case deduction.MethodPercentage:
		return round(basic.Mul(def.Value).Div(hundred)), nil
	default:
		return decimal.Zero, deduction.ErrInvalidCalculationMethod
	}
}

// BuildBreakdown lists PAYE, Pension and NHF followed by voluntary lines in
// their given order. Equal inputs always give equal output.
func BuildBreakdown(statutory deduction.Statutory, voluntary []deduction.VoluntaryDeduction) []deduction.BreakdownLine {
	lines := []deduction.BreakdownLine{
		{Name: deduction.LinePAYE, Type: deduction.TypeStatutory, Amount: statutory.PAYE, CalculationMethod: deduction.MethodProgressive},
		{Name: deduction.LinePension, Type: deduction.TypeStatutory, Amount: statutory.Pension, CalculationMethod: deduction.MethodPercentage},
		{Name: deduction.LineNHF, Type: deduction.TypeStatutory, Amount: statutory.NHF, CalculationMethod: deduction.MethodPercentage},
	}
	for _, v := range voluntary {
		lines = append(lines, deduction.BreakdownLine{
			Name:              v.Name,
			Type:              deduction.TypeVoluntary,
			Amount:            v.Amount,
			CalculationMethod: v.CalculationMethod,
		})
	}
	return lines
}

// SelectTaxBrackets returns the schedule of the first active progressive
// statutory definition, or nil when none exists.
func SelectTaxBrackets(defs []deduction.Definition) []deduction.TaxBracket {
	for _, def := range defs {
		if def.IsActive && def.Type == deduction.TypeStatutory && def.CalculationMethod == deduction.MethodProgressive {
			if def.TaxBrackets == nil {
				// Non-nil so that validation rejects it instead of using the defaults.
				return []deduction.TaxBracket{}
			}
			return def.TaxBrackets
		}
	}
	return nil
}

// SelectVoluntary keeps active voluntary definitions in their given order.
func SelectVoluntary(defs []deduction.Definition) []deduction.Definition {
	var out []deduction.Definition
	for _, def := range defs {
		if def.IsActive && def.Type == deduction.TypeVoluntary {
			out = append(out, def)
		}
	}
	return out
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
