package apperror

// Stable codes shared by single-record errors and batch summaries.
const (
	CodeInvalidInput               = "INVALID_INPUT"
	CodeInvalidFrequency           = "INVALID_FREQUENCY"
	CodeInvalidCalculationMethod   = "INVALID_CALCULATION_METHOD"
	CodeInvalidDeductionDefinition = "INVALID_DEDUCTION_DEFINITION"
	CodeNotFound                   = "NOT_FOUND"
	CodeEmployeeNotFound           = "EMPLOYEE_NOT_FOUND"
	CodeEmployeeNotInDepartment    = "EMPLOYEE_NOT_IN_DEPARTMENT"
	CodeDepartmentNotFound         = "DEPARTMENT_NOT_FOUND"
	CodePayrollNotFound            = "PAYROLL_NOT_FOUND"
	CodeNoGradeLevel               = "NO_GRADE_LEVEL"
	CodeNoActiveSalaryGrade        = "NO_ACTIVE_SALARY_GRADE"
	CodePayrollAlreadyExists       = "PAYROLL_ALREADY_EXISTS"
	CodePayrollCalculationFailed   = "PAYROLL_CALCULATION_FAILED"
	CodeForbidden                  = "FORBIDDEN"
	CodeOutsideDepartment          = "OUTSIDE_DEPARTMENT"
	CodeNoDepartment               = "NO_DEPARTMENT"
	CodeInvalidStatus              = "INVALID_STATUS"
	CodeAlreadyApprovedAtLevel     = "ALREADY_APPROVED_AT_LEVEL"
	CodeIncompletePaymentDetails   = "INCOMPLETE_PAYMENT_DETAILS"
	CodeConcurrentUpdate           = "CONCURRENT_UPDATE"
	CodeNoApproverFound            = "NO_APPROVER_FOUND"
	CodeNotificationFailed         = "NOTIFICATION_FAILED"
	CodeInternal                   = "INTERNAL_ERROR"
)
