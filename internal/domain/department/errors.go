package department

import "github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"

var (
	ErrDepartmentNotFound = apperror.New(apperror.KindNotFound, apperror.CodeDepartmentNotFound, "department not found")
)
