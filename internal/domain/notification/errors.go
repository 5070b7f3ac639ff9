package notification

import "github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"

var (
	ErrNotificationNotFound = apperror.New(apperror.KindNotFound, apperror.CodeNotFound, "notification not found")
	ErrInvalidEventType     = apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "invalid notification type")
	ErrNoRecipient          = apperror.New(apperror.KindValidation, apperror.CodeInvalidInput, "notification recipient is required")
)
