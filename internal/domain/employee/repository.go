package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	GetActiveByDepartmentID(ctx context.Context, departmentID string) ([]Employee, error)
}

// ApproverResolver finds who should act on a payroll at a given approval level.
// A nil employee with a nil error means no eligible approver exists.
type ApproverResolver interface {
	FindApproverForLevel(ctx context.Context, capability Capability, departmentID string) (*Employee, error)
}
