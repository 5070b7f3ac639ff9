package employee

import "github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"

var (
	ErrEmployeeNotFound = apperror.New(apperror.KindNotFound, apperror.CodeEmployeeNotFound, "employee not found")
	ErrNotInDepartment  = apperror.New(apperror.KindValidation, apperror.CodeEmployeeNotInDepartment, "employee does not belong to this department")
	ErrNoGradeLevel     = apperror.New(apperror.KindCalculation, apperror.CodeNoGradeLevel, "employee has no grade level assigned")
	ErrActorNotFound    = apperror.New(apperror.KindPermission, apperror.CodeForbidden, "acting user has no employee profile")
)
