package deduction

import (
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type TaxBracketRequest struct {
	Min  decimal.Decimal  `json:"min"`
	Max  *decimal.Decimal `json:"max"`
	Rate decimal.Decimal  `json:"rate"`
}

type CreateDefinitionRequest struct {
	Name              string              `json:"name" validate:"required,max=100"`
	Type              string              `json:"type" validate:"required,oneof=statutory voluntary"`
	CalculationMethod string              `json:"calculation_method" validate:"required,oneof=fixed percentage progressive"`
	Value             decimal.Decimal     `json:"value"`
	TaxBrackets       []TaxBracketRequest `json:"tax_brackets"`
	Scope             string              `json:"scope" validate:"required,oneof=company-wide department individual"`
	DepartmentID      *string             `json:"department_id"`
	EmployeeID        *string             `json:"employee_id"`
}

func (r *CreateDefinitionRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Value.IsNegative() {
		errs.Add("value", "must not be negative")
	}
	if CalculationMethod(r.CalculationMethod) == MethodPercentage && r.Value.GreaterThan(decimal.NewFromInt(100)) {
		errs.Add("value", "percentage must not exceed 100")
	}

	switch Type(r.Type) {
	case TypeStatutory:
		// Pension and NHF are fixed by law; only the PAYE schedule is configurable.
		if CalculationMethod(r.CalculationMethod) != MethodProgressive {
			errs.Add("calculation_method", "statutory definitions must be progressive")
		}
	case TypeVoluntary:
		if CalculationMethod(r.CalculationMethod) == MethodProgressive {
			errs.Add("calculation_method", "voluntary definitions must be fixed or percentage")
		}
	}

	if CalculationMethod(r.CalculationMethod) == MethodProgressive && len(r.TaxBrackets) == 0 {
		errs.Add("tax_brackets", "is required for progressive definitions")
	}

	switch Scope(r.Scope) {
	case ScopeDepartment:
		if r.DepartmentID == nil || !validator.IsValidUUID(*r.DepartmentID) {
			errs.Add("department_id", "a valid department_id is required for department scope")
		}
	case ScopeIndividual:
		if r.EmployeeID == nil || !validator.IsValidUUID(*r.EmployeeID) {
			errs.Add("employee_id", "a valid employee_id is required for individual scope")
		}
	}

	return errs.Err()
}

// Brackets converts the request schedule to domain brackets.
func (r *CreateDefinitionRequest) Brackets() []TaxBracket {
	if len(r.TaxBrackets) == 0 {
		return nil
	}
	out := make([]TaxBracket, 0, len(r.TaxBrackets))
	for _, b := range r.TaxBrackets {
		out = append(out, TaxBracket{Min: b.Min, Max: b.Max, Rate: b.Rate})
	}
	return out
}

type DefinitionResponse struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Type              Type         `json:"type"`
	CalculationMethod string       `json:"calculation_method"`
	Value             string       `json:"value"`
	TaxBrackets       []TaxBracket `json:"tax_brackets,omitempty"`
	Scope             Scope        `json:"scope"`
	DepartmentID      *string      `json:"department_id,omitempty"`
	EmployeeID        *string      `json:"employee_id,omitempty"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
}

type ListDefinitionsQuery struct {
	Type         string `json:"type" validate:"omitempty,oneof=statutory voluntary"`
	Scope        string `json:"scope" validate:"omitempty,oneof=company-wide department individual"`
	DepartmentID string `json:"department_id"`
	ActiveOnly   bool   `json:"active_only"`
}

func (q *ListDefinitionsQuery) Validate() error {
	return validator.Struct(q).Err()
}

// PreviewRequest runs the calculator without persisting anything.
type PreviewRequest struct {
	BasicSalary   decimal.Decimal `json:"basic_salary"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	EmployeeID    string          `json:"employee_id"`
	DepartmentID  string          `json:"department_id"`
	DefinitionIDs []string        `json:"definition_ids" validate:"dive,required"`
}

func (r *PreviewRequest) Validate() error {
	errs := validator.Struct(r)
	if r.BasicSalary.IsNegative() {
		errs.Add("basic_salary", "must not be negative")
	}
	if r.GrossSalary.IsNegative() {
		errs.Add("gross_salary", "must not be negative")
	}
	if r.GrossSalary.LessThan(r.BasicSalary) {
		errs.Add("gross_salary", "must not be less than basic_salary")
	}
	return errs.Err()
}
