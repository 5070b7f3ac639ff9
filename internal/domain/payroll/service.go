package payroll

import "context"

type PayrollService interface {
	// Creation
	CreateSingleEmployeePayroll(ctx context.Context, req CreateSinglePayrollRequest) (CreateSinglePayrollResponse, error)
	CreateBatchPayroll(ctx context.Context, req CreateBatchPayrollRequest) (*ProcessingSummary, error)

	// Workflow transitions
	SubmitPayroll(ctx context.Context, id string, req SubmitPayrollRequest) (PayrollRecordResponse, error)
	SubmitBulkPayrolls(ctx context.Context, req SubmitBulkRequest) (*ProcessingSummary, error)
	ApprovePayroll(ctx context.Context, id string, req ApprovalActionRequest) (PayrollRecordResponse, error)
	RejectPayroll(ctx context.Context, id string, req ApprovalActionRequest) (PayrollRecordResponse, error)
	ApproveDepartmentPayrolls(ctx context.Context, req DepartmentActionRequest) (*ProcessingSummary, error)
	RejectDepartmentPayrolls(ctx context.Context, req DepartmentActionRequest) (*ProcessingSummary, error)
	ResubmitPayroll(ctx context.Context, id string, req ApprovalActionRequest) (PayrollRecordResponse, error)
	CancelPayroll(ctx context.Context, id string, req ApprovalActionRequest) (PayrollRecordResponse, error)
	ProcessPayment(ctx context.Context, id string, req ProcessPaymentRequest) (PayrollRecordResponse, error)

	// Reads
	GetPayrollRecord(ctx context.Context, id string) (PayrollRecordResponse, error)
	ListPayrollRecords(ctx context.Context, query ListPayrollQuery) (ListPayrollResponse, error)
	GetPayslip(ctx context.Context, id string) (Payslip, error)
}
