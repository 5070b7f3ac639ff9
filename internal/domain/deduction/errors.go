package deduction

import "github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"

var (
	ErrInvalidInput               = apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "salary inputs must be non-negative numbers")
	ErrInvalidCalculationMethod   = apperror.New(apperror.KindValidation, apperror.CodeInvalidCalculationMethod, "invalid calculation method")
	ErrInvalidDeductionDefinition = apperror.New(apperror.KindCalculation, apperror.CodeInvalidDeductionDefinition, "invalid deduction definition")
	ErrDefinitionNotFound         = apperror.New(apperror.KindNotFound, apperror.CodeNotFound, "deduction definition not found")
	ErrForbidden                  = apperror.New(apperror.KindPermission, apperror.CodeForbidden, "not allowed to manage deduction definitions")
)

// WithReason narrows ErrInvalidDeductionDefinition to a specific cause.
func WithReason(reason string) error {
	return apperror.WithMessage(ErrInvalidDeductionDefinition, "invalid deduction definition: "+reason)
}
