package payroll

import (
	"errors"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/apperror"
)

type Operation string

const (
	OperationCreateSingle      Operation = "CREATE_SINGLE"
	OperationCreateBatch       Operation = "CREATE_BATCH"
	OperationSubmitBulk        Operation = "SUBMIT_BULK"
	OperationApproveDepartment Operation = "APPROVE_DEPARTMENT"
	OperationRejectDepartment  Operation = "REJECT_DEPARTMENT"
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// SummaryIssue is an error or warning attached to one item.
type SummaryIssue struct {
	ItemID  string `json:"item_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SummaryDetail struct {
	ItemID     string        `json:"item_id"`
	PayrollID  string        `json:"payroll_id,omitempty"`
	EmployeeID string        `json:"employee_id,omitempty"`
	Outcome    Outcome       `json:"outcome"`
	Status     Status        `json:"status,omitempty"`
	Level      ApprovalLevel `json:"level,omitempty"`
	Code       string        `json:"code,omitempty"`
}

// ProcessingSummary is the one aggregate shape returned by every batch and
// single-item creation call. The counters always reconcile with Details.
type ProcessingSummary struct {
	Operation      Operation       `json:"operation"`
	TotalAttempted int             `json:"total_attempted"`
	Processed      int             `json:"processed"`
	Skipped        int             `json:"skipped"`
	Failed         int             `json:"failed"`
	Errors         []SummaryIssue  `json:"errors"`
	Warnings       []SummaryIssue  `json:"warnings"`
	Details        []SummaryDetail `json:"details"`
}

func NewProcessingSummary(op Operation) *ProcessingSummary {
	return &ProcessingSummary{
		Operation: op,
		Errors:    []SummaryIssue{},
		Warnings:  []SummaryIssue{},
		Details:   []SummaryDetail{},
	}
}

// RecordProcessed counts a successful item.
func (s *ProcessingSummary) RecordProcessed(detail SummaryDetail) {
	s.TotalAttempted++
	s.Processed++
	detail.Outcome = OutcomeProcessed
	s.Details = append(s.Details, detail)
}

// RecordFailure counts a failed item. Duplicates are skipped with a warning;
// everything else is failed with an error.
func (s *ProcessingSummary) RecordFailure(detail SummaryDetail, err error) {
	s.TotalAttempted++

	var itemErr *apperror.BatchItemError
	if !errors.As(err, &itemErr) {
		itemErr = apperror.NewBatchItemError(detail.ItemID, err)
	}
	issue := SummaryIssue{ItemID: itemErr.ItemID, Code: itemErr.Code, Message: apperror.MessageOf(err)}
	detail.Code = itemErr.Code

	if itemErr.Code == apperror.CodePayrollAlreadyExists {
		s.Skipped++
		detail.Outcome = OutcomeSkipped
		s.Warnings = append(s.Warnings, issue)
	} else {
		s.Failed++
		detail.Outcome = OutcomeFailed
		s.Errors = append(s.Errors, issue)
	}
	s.Details = append(s.Details, detail)
}

// AddWarnings attaches non-fatal issues, such as a missing approver.
func (s *ProcessingSummary) AddWarnings(issues ...SummaryIssue) {
	s.Warnings = append(s.Warnings, issues...)
}

// HasFailures reports whether any item failed outright.
func (s *ProcessingSummary) HasFailures() bool {
	return s.Failed > 0
}
