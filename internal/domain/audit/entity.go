package audit

import "time"

// Action is a state-changing operation recorded in the audit trail.
type Action string

const (
	ActionCreate      Action = "PAYROLL_CREATE"
	ActionBatchCreate Action = "PAYROLL_BATCH_CREATE"
	ActionSubmit      Action = "PAYROLL_SUBMIT"
	ActionResubmit    Action = "PAYROLL_RESUBMIT"
	ActionApprove     Action = "PAYROLL_APPROVE"
	ActionReject      Action = "PAYROLL_REJECT"
	ActionPay         Action = "PAYROLL_PAY"
	ActionCancel      Action = "PAYROLL_CANCEL"
)

const (
	EntityPayroll      = "payroll"
	EntityPayrollBatch = "payroll_batch"
)

type Entry struct {
	ID         string
	Action     Action
	EntityType string
	EntityID   string
	ActorID    string
	Details    map[string]interface{}
	CreatedAt  time.Time
}
