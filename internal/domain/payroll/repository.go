package payroll

import "context"

type PayrollRepository interface {
	// Create returns ErrPayrollAlreadyExists when the period slot is taken.
	Create(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	// ExistsForPeriod ignores CANCELLED and REJECTED records and excludeID.
	ExistsForPeriod(ctx context.Context, employeeID string, month, year int, frequency Frequency, excludeID string) (bool, error)
	List(ctx context.Context, filter PayrollFilter) ([]PayrollRecord, int64, error)
	// UpdateWorkflow persists every mutable field of record only while the stored
	// status and current level still equal the expected ones. Otherwise it
	// returns ErrConcurrentUpdate.
	UpdateWorkflow(ctx context.Context, record PayrollRecord, expectedStatus Status, expectedLevel ApprovalLevel) error
	UpdateBreakdown(ctx context.Context, record PayrollRecord) error
}
