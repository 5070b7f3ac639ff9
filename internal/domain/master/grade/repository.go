package grade

import "context"

type SalaryGradeRepository interface {
	// GetActiveByLevel returns ErrNoActiveSalaryGrade when no active grade exists for level.
	GetActiveByLevel(ctx context.Context, level string) (SalaryGrade, error)
}
