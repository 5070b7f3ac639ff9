package payroll

import "github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"

var (
	ErrInvalidFrequency         = apperror.New(apperror.KindValidation, apperror.CodeInvalidFrequency, "frequency must be one of monthly, bi-weekly, weekly")
	ErrInvalidLevel             = apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "invalid approval level")
	ErrPayrollNotFound          = apperror.New(apperror.KindNotFound, apperror.CodePayrollNotFound, "payroll record not found")
	ErrPayrollAlreadyExists     = apperror.New(apperror.KindStateConflict, apperror.CodePayrollAlreadyExists, "payroll record already exists for this employee, period and frequency")
	ErrCalculationFailed        = apperror.New(apperror.KindCalculation, apperror.CodePayrollCalculationFailed, "payroll calculation failed")
	ErrForbidden                = apperror.New(apperror.KindPermission, apperror.CodeForbidden, "you are not allowed to act on this payroll at its current level")
	ErrOutsideDepartment        = apperror.New(apperror.KindPermission, apperror.CodeOutsideDepartment, "department heads may only act on their own department's payrolls")
	ErrNoDepartment             = apperror.New(apperror.KindPermission, apperror.CodeNoDepartment, "acting user has no department")
	ErrInvalidStatus            = apperror.New(apperror.KindStateConflict, apperror.CodeInvalidStatus, "operation is not allowed in the payroll's current status")
	ErrAlreadyApprovedAtLevel   = apperror.New(apperror.KindStateConflict, apperror.CodeAlreadyApprovedAtLevel, "payroll has already been approved at this level")
	ErrIncompletePaymentDetails = apperror.New(apperror.KindValidation, apperror.CodeIncompletePaymentDetails, "account name, account number and bank name are required")
	ErrConcurrentUpdate         = apperror.New(apperror.KindStateConflict, apperror.CodeConcurrentUpdate, "payroll was modified by another request, reload and retry")
)
