package deduction

import "context"

type DefinitionFilter struct {
	Type         *Type
	Scope        *Scope
	DepartmentID *string
	ActiveOnly   bool
}

type DefinitionRepository interface {
	Create(ctx context.Context, def Definition) (Definition, error)
	GetByID(ctx context.Context, id string) (Definition, error)
	List(ctx context.Context, filter DefinitionFilter) ([]Definition, error)
	// ListApplicable returns active definitions covering the employee, ordered by creation.
	ListApplicable(ctx context.Context, employeeID, departmentID string) ([]Definition, error)
	SetActive(ctx context.Context, id string, active bool) error
}
