package grade

import "github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"

var (
	ErrNoActiveSalaryGrade    = apperror.New(apperror.KindCalculation, apperror.CodeNoActiveSalaryGrade, "no active salary grade for the employee's grade level")
	ErrInvalidAllowanceMethod = apperror.New(apperror.KindCalculation, apperror.CodePayrollCalculationFailed, "salary grade has an invalid allowance rule")
)
