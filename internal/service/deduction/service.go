package deduction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/google/uuid"
)

type DeductionServiceImpl struct {
	definitionRepo deduction.DefinitionRepository
	employeeRepo   employee.EmployeeRepository
	now            func() time.Time
}

func NewDeductionService(
	definitionRepo deduction.DefinitionRepository,
	employeeRepo employee.EmployeeRepository,
) deduction.DeductionService {
	return &DeductionServiceImpl{
		definitionRepo: definitionRepo,
		employeeRepo:   employeeRepo,
		now:            time.Now,
	}
}

// requireManager loads the acting employee and checks they may manage definitions.
func (s *DeductionServiceImpl) requireManager(ctx context.Context) (employee.Employee, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}
	actor, err := s.employeeRepo.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("load acting employee: %w", err)
	}
	if actor.Role != employee.RoleAdmin && !actor.IsSuperAdmin() && !actor.HasCapability(employee.CapabilityHRManager) {
		return employee.Employee{}, deduction.ErrForbidden
	}
	return actor, nil
}

func (s *DeductionServiceImpl) CreateDefinition(ctx context.Context, req deduction.CreateDefinitionRequest) (deduction.DefinitionResponse, error) {
	if err := req.Validate(); err != nil {
		return deduction.DefinitionResponse{}, err
	}
	actor, err := s.requireManager(ctx)
	if err != nil {
		return deduction.DefinitionResponse{}, err
	}

	def := deduction.Definition{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Type:              deduction.Type(req.Type),
		CalculationMethod: deduction.CalculationMethod(req.CalculationMethod),
		Value:             req.Value,
		TaxBrackets:       req.Brackets(),
		Scope:             deduction.Scope(req.Scope),
		IsActive:          true,
		CreatedBy:         actor.ID,
		CreatedAt:         s.now(),
	}
	switch def.Scope {
	case deduction.ScopeDepartment:
		def.DepartmentID = req.DepartmentID
	case deduction.ScopeIndividual:
		def.EmployeeID = req.EmployeeID
	}
	if def.CalculationMethod == deduction.MethodProgressive {
		if err := deduction.ValidateBrackets(def.TaxBrackets); err != nil {
			return deduction.DefinitionResponse{}, err
		}
	}

	created, err := s.definitionRepo.Create(ctx, def)
	if err != nil {
		return deduction.DefinitionResponse{}, fmt.Errorf("create deduction definition: %w", err)
	}

	slog.InfoContext(ctx, "deduction definition created",
		"definition_id", created.ID, "type", created.Type, "scope", created.Scope)
	return mapToDefinitionResponse(created), nil
}

func (s *DeductionServiceImpl) GetDefinition(ctx context.Context, id string) (deduction.DefinitionResponse, error) {
	def, err := s.definitionRepo.GetByID(ctx, id)
	if err != nil {
		return deduction.DefinitionResponse{}, err
	}
	return mapToDefinitionResponse(def), nil
}

func (s *DeductionServiceImpl) ListDefinitions(ctx context.Context, query deduction.ListDefinitionsQuery) ([]deduction.DefinitionResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := deduction.DefinitionFilter{ActiveOnly: query.ActiveOnly}
	if query.Type != "" {
		t := deduction.Type(query.Type)
		filter.Type = &t
	}
	if query.Scope != "" {
		sc := deduction.Scope(query.Scope)
		filter.Scope = &sc
	}
	if query.DepartmentID != "" {
		filter.DepartmentID = &query.DepartmentID
	}

	defs, err := s.definitionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list deduction definitions: %w", err)
	}

	out := make([]deduction.DefinitionResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, mapToDefinitionResponse(def))
	}
	return out, nil
}

func (s *DeductionServiceImpl) DeactivateDefinition(ctx context.Context, id string) error {
	if _, err := s.requireManager(ctx); err != nil {
		return err
	}
	if err := s.definitionRepo.SetActive(ctx, id, false); err != nil {
		return err
	}
	slog.InfoContext(ctx, "deduction definition deactivated", "definition_id", id)
	return nil
}

func (s *DeductionServiceImpl) Preview(ctx context.Context, req deduction.PreviewRequest) (deduction.Result, error) {
	if err := req.Validate(); err != nil {
		return deduction.Result{}, err
	}

	var defs []deduction.Definition
	switch {
	case len(req.DefinitionIDs) > 0:
		for _, id := range req.DefinitionIDs {
			def, err := s.definitionRepo.GetByID(ctx, id)
			if err != nil {
				return deduction.Result{}, err
			}
			defs = append(defs, def)
		}
	case req.EmployeeID != "" || req.DepartmentID != "":
		applicable, err := s.definitionRepo.ListApplicable(ctx, req.EmployeeID, req.DepartmentID)
		if err != nil {
			return deduction.Result{}, fmt.Errorf("list applicable deductions: %w", err)
		}
		defs = applicable
	}

	return Calculate(Input{
		BasicSalary: req.BasicSalary,
		GrossSalary: req.GrossSalary,
		TaxBrackets: SelectTaxBrackets(defs),
		Voluntary:   SelectVoluntary(defs),
	})
}

func mapToDefinitionResponse(def deduction.Definition) deduction.DefinitionResponse {
	return deduction.DefinitionResponse{
		ID:                def.ID,
		Name:              def.Name,
		Type:              def.Type,
		CalculationMethod: string(def.CalculationMethod),
		Value:             def.Value.StringFixed(2),
		TaxBrackets:       def.TaxBrackets,
		Scope:             def.Scope,
		DepartmentID:      def.DepartmentID,
		EmployeeID:        def.EmployeeID,
		IsActive:          def.IsActive,
		CreatedAt:         def.CreatedAt,
	}
}
