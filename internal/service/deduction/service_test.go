package deduction

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDefinitions struct {
	defs []deduction.Definition
}

func (m *memoryDefinitions) Create(_ context.Context, d deduction.Definition) (deduction.Definition, error) {
	m.defs = append(m.defs, d)
	return d, nil
}

func (m *memoryDefinitions) GetByID(_ context.Context, id string) (deduction.Definition, error) {
	for _, d := range m.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return deduction.Definition{}, deduction.ErrDefinitionNotFound
}

func (m *memoryDefinitions) List(_ context.Context, f deduction.DefinitionFilter) ([]deduction.Definition, error) {
	var out []deduction.Definition
	for _, d := range m.defs {
		if f.ActiveOnly && !d.IsActive {
			continue
		}
		if f.Type != nil && d.Type != *f.Type {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryDefinitions) ListApplicable(_ context.Context, employeeID, departmentID string) ([]deduction.Definition, error) {
	var out []deduction.Definition
	for _, d := range m.defs {
		if d.AppliesTo(employeeID, departmentID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryDefinitions) SetActive(_ context.Context, id string, active bool) error {
	for i := range m.defs {
		if m.defs[i].ID == id {
			m.defs[i].IsActive = active
			return nil
		}
	}
	return deduction.ErrDefinitionNotFound
}

type staticEmployees map[string]employee.Employee

func (s staticEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := s[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (s staticEmployees) GetByUserID(context.Context, string) (employee.Employee, error) {
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (s staticEmployees) GetActiveByDepartmentID(context.Context, string) ([]employee.Employee, error) {
	return nil, nil
}

func newTestService() (*DeductionServiceImpl, *memoryDefinitions) {
	defs := &memoryDefinitions{}
	people := staticEmployees{
		"hr":     {ID: "hr", Role: employee.RoleEmployee, Capabilities: []employee.Capability{employee.CapabilityHRManager}},
		"worker": {ID: "worker", Role: employee.RoleEmployee},
	}
	svc := NewDeductionService(defs, people).(*DeductionServiceImpl)
	return svc, defs
}

func ctxAs(t *testing.T, employeeID string) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret-key-for-jwt"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"user_id":     "user-" + employeeID,
		"employee_id": employeeID,
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func flatSchedule(rate int64) []deduction.TaxBracketRequest {
	return []deduction.TaxBracketRequest{{Min: decimal.Zero, Max: nil, Rate: decimal.NewFromInt(rate)}}
}

func TestCreateDefinition(t *testing.T) {
	svc, defs := newTestService()

	resp, err := svc.CreateDefinition(ctxAs(t, "hr"), deduction.CreateDefinitionRequest{
		Name:              "Cooperative",
		Type:              "voluntary",
		CalculationMethod: "fixed",
		Value:             decimal.NewFromInt(20000),
		Scope:             "company-wide",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "20000.00", resp.Value)
	assert.True(t, resp.IsActive)
	require.Len(t, defs.defs, 1)
	assert.Equal(t, "hr", defs.defs[0].CreatedBy)
}

var capAt300k = decimal.NewFromInt(300000)

func TestCreateDefinition_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		actor     string
		req       deduction.CreateDefinitionRequest
		wantErr   error
		wantField string
	}{
		{
			name:    "not a manager",
			actor:   "worker",
			req:     deduction.CreateDefinitionRequest{Name: "Coop", Type: "voluntary", CalculationMethod: "fixed", Scope: "company-wide"},
			wantErr: deduction.ErrForbidden,
		},
		{
			name:      "statutory must be progressive",
			actor:     "hr",
			req:       deduction.CreateDefinitionRequest{Name: "Levy", Type: "statutory", CalculationMethod: "fixed", Scope: "company-wide"},
			wantField: "calculation_method",
		},
		{
			name:      "voluntary cannot be progressive",
			actor:     "hr",
			req:       deduction.CreateDefinitionRequest{Name: "Coop", Type: "voluntary", CalculationMethod: "progressive", TaxBrackets: flatSchedule(5), Scope: "company-wide"},
			wantField: "calculation_method",
		},
		{
			name:      "department scope needs a department",
			actor:     "hr",
			req:       deduction.CreateDefinitionRequest{Name: "Coop", Type: "voluntary", CalculationMethod: "fixed", Scope: "department"},
			wantField: "department_id",
		},
		{
			name:  "schedule must start at zero",
			actor: "hr",
			req: deduction.CreateDefinitionRequest{
				Name:              "PAYE",
				Type:              "statutory",
				CalculationMethod: "progressive",
				TaxBrackets:       []deduction.TaxBracketRequest{{Min: decimal.NewFromInt(100), Rate: decimal.NewFromInt(7)}},
				Scope:             "company-wide",
			},
			wantErr: deduction.ErrInvalidDeductionDefinition,
		},
		{
			name:  "schedule must end open",
			actor: "hr",
			req: deduction.CreateDefinitionRequest{
				Name:              "PAYE",
				Type:              "statutory",
				CalculationMethod: "progressive",
				TaxBrackets: []deduction.TaxBracketRequest{
					{Min: decimal.Zero, Max: &capAt300k, Rate: decimal.NewFromInt(7)},
				},
				Scope: "company-wide",
			},
			wantErr: deduction.ErrInvalidDeductionDefinition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, defs := newTestService()
			_, err := svc.CreateDefinition(ctxAs(t, tt.actor), tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantField != "" {
				var verrs validator.ValidationErrors
				require.True(t, errors.As(err, &verrs))
				assert.Contains(t, verrs.ToMap(), tt.wantField)
			}
			assert.Empty(t, defs.defs)
		})
	}
}

func TestDeactivateDefinition(t *testing.T) {
	svc, defs := newTestService()
	defs.defs = []deduction.Definition{{ID: "d1", Type: deduction.TypeVoluntary, IsActive: true}}

	require.ErrorIs(t, svc.DeactivateDefinition(ctxAs(t, "worker"), "d1"), deduction.ErrForbidden)
	require.NoError(t, svc.DeactivateDefinition(ctxAs(t, "hr"), "d1"))
	assert.False(t, defs.defs[0].IsActive)

	active, err := svc.ListDefinitions(ctxAs(t, "hr"), deduction.ListDefinitionsQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPreview(t *testing.T) {
	svc, defs := newTestService()
	defs.defs = []deduction.Definition{
		{
			ID:                "coop",
			Name:              "Cooperative",
			Type:              deduction.TypeVoluntary,
			CalculationMethod: deduction.MethodFixed,
			Value:             decimal.NewFromInt(20000),
			Scope:             deduction.ScopeCompanyWide,
			IsActive:          true,
		},
		{
			ID:                "flat",
			Name:              "Flat PAYE",
			Type:              deduction.TypeStatutory,
			CalculationMethod: deduction.MethodProgressive,
			TaxBrackets:       []deduction.TaxBracket{{Min: decimal.Zero, Rate: decimal.NewFromInt(10)}},
			Scope:             deduction.ScopeIndividual,
			EmployeeID:        strPtr("someone-else"),
			IsActive:          true,
		},
	}
	base := deduction.PreviewRequest{
		BasicSalary: decimal.NewFromInt(500000),
		GrossSalary: decimal.NewFromInt(650000),
	}

	t.Run("no definitions uses the default schedule", func(t *testing.T) {
		res, err := svc.Preview(ctxAs(t, "hr"), base)
		require.NoError(t, err)
		assert.True(t, res.TotalDeductions.Equal(decimal.NewFromInt(114000)))
		assert.True(t, res.NetPay.Equal(decimal.NewFromInt(536000)))
	})

	t.Run("applicable definitions for an employee", func(t *testing.T) {
		req := base
		req.EmployeeID = "worker"
		res, err := svc.Preview(ctxAs(t, "hr"), req)
		require.NoError(t, err)
		require.Len(t, res.Voluntary, 1)
		assert.True(t, res.TotalDeductions.Equal(decimal.NewFromInt(134000)))
	})

	t.Run("explicit definitions", func(t *testing.T) {
		req := base
		req.DefinitionIDs = []string{"flat"}
		res, err := svc.Preview(ctxAs(t, "hr"), req)
		require.NoError(t, err)
		assert.True(t, res.Statutory.PAYE.Equal(decimal.NewFromInt(65000)))
		assert.True(t, res.TotalDeductions.Equal(decimal.NewFromInt(117500)))
	})

	t.Run("unknown definition", func(t *testing.T) {
		req := base
		req.DefinitionIDs = []string{"nope"}
		_, err := svc.Preview(ctxAs(t, "hr"), req)
		assert.ErrorIs(t, err, deduction.ErrDefinitionNotFound)
	})
}

func strPtr(s string) *string { return &s }
