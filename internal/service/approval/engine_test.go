package approval

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now = time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC)

	engineering = department.Department{ID: "dept-eng", Name: "Engineering"}
	hr          = department.Department{ID: "dept-hr", Name: "Human Resources", IsHumanResources: true}
)

func strPtr(s string) *string { return &s }

func person(id, deptID string, role employee.Role, caps ...employee.Capability) employee.Employee {
	e := employee.Employee{ID: id, Role: role, Capabilities: caps}
	if deptID != "" {
		e.DepartmentID = strPtr(deptID)
	}
	return e
}

var (
	admin       = person("admin", engineering.ID, employee.RoleAdmin)
	engHead     = person("eng-head", engineering.ID, employee.RoleEmployee, employee.CapabilityDepartmentHead)
	otherHead   = person("ops-head", "dept-ops", employee.RoleEmployee, employee.CapabilityDepartmentHead)
	hrHead      = person("hr-head", hr.ID, employee.RoleEmployee, employee.CapabilityHRManager)
	finance     = person("cfo", "dept-fin", employee.RoleEmployee, employee.CapabilityFinanceDirector)
	superAdmin  = person("root", "", employee.RoleSuperAdmin)
	plainWorker = person("worker", engineering.ID, employee.RoleEmployee)
)

func draftRecord() *payroll.PayrollRecord {
	return &payroll.PayrollRecord{
		ID:           "payroll-1",
		EmployeeID:   plainWorker.ID,
		DepartmentID: engineering.ID,
		PeriodMonth:  3,
		PeriodYear:   2025,
		Frequency:    payroll.FrequencyMonthly,
		Status:       payroll.StatusDraft,
		ApprovalFlow: payroll.ApprovalFlow{CurrentLevel: payroll.LevelDraft},
	}
}

func approvedLevels(r *payroll.PayrollRecord) []payroll.ApprovalLevel {
	var levels []payroll.ApprovalLevel
	for _, ev := range r.ApprovalFlow.History {
		if ev.Status == payroll.EventApproved {
			levels = append(levels, ev.Level)
		}
	}
	return levels
}

func TestInitialLevel(t *testing.T) {
	assert.Equal(t, payroll.LevelDepartmentHead, InitialLevel(admin, &engineering))
	assert.Equal(t, payroll.LevelHRManager, InitialLevel(hrHead, &hr))
	assert.Equal(t, payroll.LevelDepartmentHead, InitialLevel(hrHead, &engineering), "HR capability outside HR does not skip")
	assert.Equal(t, payroll.LevelDepartmentHead, InitialLevel(person("hr-clerk", hr.ID, employee.RoleEmployee), &hr))
	assert.Equal(t, payroll.LevelDepartmentHead, InitialLevel(hrHead, nil))
}

func TestFullApprovalChain(t *testing.T) {
	record := draftRecord()

	tr, err := Submit(record, admin, &engineering, "March payroll", now)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusDraft, tr.FromStatus)
	assert.Equal(t, payroll.StatusPending, tr.ToStatus)
	assert.Equal(t, payroll.LevelDepartmentHead, tr.ToLevel)

	approvers := []employee.Employee{engHead, hrHead, finance, superAdmin}
	for i, approver := range approvers {
		tr, err := Approve(record, approver, "", now.Add(time.Duration(i+1)*time.Hour))
		require.NoError(t, err, "approval %d by %s", i, approver.ID)
		assert.Equal(t, payroll.ApprovalOrder()[i], tr.FromLevel)
	}

	assert.Equal(t, payroll.StatusApproved, record.Status)
	assert.Equal(t, payroll.LevelCompleted, record.ApprovalFlow.CurrentLevel)
	require.NotNil(t, record.ApprovalFlow.ApprovedAt)
	assert.Equal(t, payroll.ApprovalOrder(), approvedLevels(record))
	assert.Len(t, record.ApprovalFlow.History, 5)
}

func TestHRHeadSubmissionSkipsDepartmentHead(t *testing.T) {
	record := draftRecord()
	record.DepartmentID = hr.ID

	_, err := Submit(record, hrHead, &hr, "", now)
	require.NoError(t, err)
	assert.Equal(t, payroll.LevelHRManager, record.ApprovalFlow.CurrentLevel)

	for _, approver := range []employee.Employee{hrHead, finance, superAdmin} {
		_, err := Approve(record, approver, "", now)
		require.NoError(t, err)
	}
	assert.Equal(t, []payroll.ApprovalLevel{payroll.LevelHRManager, payroll.LevelFinanceDirector, payroll.LevelSuperAdmin}, approvedLevels(record))
	assert.Equal(t, payroll.StatusApproved, record.Status)
}

func TestApprove_Permissions(t *testing.T) {
	tests := []struct {
		name  string
		actor employee.Employee
		want  error
	}{
		{"no capability", plainWorker, payroll.ErrForbidden},
		{"wrong capability", finance, payroll.ErrForbidden},
		{"head of another department", otherHead, payroll.ErrOutsideDepartment},
		{"head without department", person("floating", "", employee.RoleEmployee, employee.CapabilityDepartmentHead), payroll.ErrNoDepartment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := draftRecord()
			_, err := Submit(record, admin, &engineering, "", now)
			require.NoError(t, err)

			before := record.Clone()
			_, err = Approve(record, tt.actor, "", now)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, *record, "a refused approval must not mutate the record")
		})
	}
}

func TestSuperAdminLevelRequiresRole(t *testing.T) {
	record := draftRecord()
	record.Status = payroll.StatusPending
	record.ApprovalFlow.CurrentLevel = payroll.LevelSuperAdmin

	_, err := Approve(record, admin, "", now)
	assert.ErrorIs(t, err, payroll.ErrForbidden)

	_, err = Approve(record, superAdmin, "", now)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, record.Status)
}

func TestApprove_AlreadyApprovedAtLevel(t *testing.T) {
	record := draftRecord()
	record.Status = payroll.StatusPending
	record.ApprovalFlow = payroll.ApprovalFlow{
		CurrentLevel: payroll.LevelHRManager,
		History: []payroll.ApprovalEvent{
			{Level: payroll.LevelDepartmentHead, Status: payroll.EventApproved, ActorID: engHead.ID},
			{Level: payroll.LevelHRManager, Status: payroll.EventApproved, ActorID: hrHead.ID},
		},
	}

	_, err := Approve(record, hrHead, "", now)
	assert.ErrorIs(t, err, payroll.ErrAlreadyApprovedAtLevel)
}

func TestApprove_RequiresPending(t *testing.T) {
	for _, status := range []payroll.Status{payroll.StatusDraft, payroll.StatusApproved, payroll.StatusRejected, payroll.StatusPaid, payroll.StatusCancelled} {
		record := draftRecord()
		record.Status = status
		record.ApprovalFlow.CurrentLevel = payroll.LevelDepartmentHead
		_, err := Approve(record, engHead, "", now)
		assert.ErrorIs(t, err, payroll.ErrInvalidStatus, string(status))
	}
}

func TestReject_TruncatesHistory(t *testing.T) {
	record := draftRecord()
	_, err := Submit(record, admin, &engineering, "", now)
	require.NoError(t, err)
	_, err = Approve(record, engHead, "", now)
	require.NoError(t, err)
	_, err = Approve(record, hrHead, "", now)
	require.NoError(t, err)
	require.Len(t, record.ApprovalFlow.History, 3)

	tr, err := Reject(record, finance, "figures do not match ledger", now)
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusRejected, record.Status)
	require.Len(t, record.ApprovalFlow.History, 1)
	assert.Equal(t, payroll.EventRejected, record.ApprovalFlow.History[0].Status)
	assert.Equal(t, payroll.LevelFinanceDirector, record.ApprovalFlow.History[0].Level)
	assert.Equal(t, finance.ID, *record.ApprovalFlow.RejectedBy)
	assert.Equal(t, "figures do not match ledger", record.ApprovalFlow.Remarks)
	assert.Equal(t, "figures do not match ledger", tr.Details()["remarks"])
}

func TestReject_SamePermissionAsApprove(t *testing.T) {
	record := draftRecord()
	_, err := Submit(record, admin, &engineering, "", now)
	require.NoError(t, err)

	_, err = Reject(record, otherHead, "", now)
	assert.ErrorIs(t, err, payroll.ErrOutsideDepartment)
	assert.Equal(t, payroll.StatusPending, record.Status)
}

func TestResubmitAfterRejection(t *testing.T) {
	record := draftRecord()
	_, err := Submit(record, admin, &engineering, "", now)
	require.NoError(t, err)
	_, err = Reject(record, engHead, "wrong grade", now)
	require.NoError(t, err)

	tr, err := Submit(record, admin, &engineering, "fixed grade", now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusRejected, tr.FromStatus)
	assert.Equal(t, payroll.StatusPending, record.Status)
	assert.Equal(t, payroll.LevelDepartmentHead, record.ApprovalFlow.CurrentLevel)
	require.Len(t, record.ApprovalFlow.History, 1)
	assert.Equal(t, payroll.EventSubmit, record.ApprovalFlow.History[0].Status)
	assert.Nil(t, record.ApprovalFlow.RejectedBy)
	assert.Nil(t, record.ApprovalFlow.RejectedAt)
}

func TestSubmit_RequiresDraftOrRejected(t *testing.T) {
	record := draftRecord()
	record.Status = payroll.StatusPending
	_, err := Submit(record, admin, &engineering, "", now)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatus)
}

func TestCancel(t *testing.T) {
	record := draftRecord()
	tr, err := Cancel(record, "duplicate run", now)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusCancelled, record.Status)
	assert.Equal(t, payroll.StatusDraft, tr.FromStatus)

	_, err = Cancel(record, "", now)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatus)

	approved := draftRecord()
	approved.Status = payroll.StatusApproved
	_, err = Cancel(approved, "", now)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatus)
}

func TestMarkPaid(t *testing.T) {
	record := draftRecord()
	details := payroll.PaymentDetails{AccountName: "Ada Obi", AccountNumber: "0123456789", BankName: "First Bank", ProcessedBy: "cfo"}

	_, err := MarkPaid(record, details, now)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatus)

	record.Status = payroll.StatusApproved
	_, err = MarkPaid(record, payroll.PaymentDetails{AccountName: "Ada Obi"}, now)
	assert.ErrorIs(t, err, payroll.ErrIncompletePaymentDetails)
	assert.Nil(t, record.PaymentDetails)

	tr, err := MarkPaid(record, details, now)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPaid, tr.ToStatus)
	require.NotNil(t, record.PaymentDetails)
	assert.Equal(t, now, record.PaymentDetails.ProcessedAt)
}

func TestTransitionDetails(t *testing.T) {
	record := draftRecord()
	tr, err := Submit(record, admin, &engineering, "", now)
	require.NoError(t, err)

	d := tr.Details()
	assert.Equal(t, "DRAFT", d["from_status"])
	assert.Equal(t, "PENDING", d["to_status"])
	assert.Equal(t, "DRAFT", d["from_level"])
	assert.Equal(t, "DEPARTMENT_HEAD", d["to_level"])
	assert.NotContains(t, d, "remarks")
}

func TestCapabilityPredicates(t *testing.T) {
	assert.True(t, CanManage(admin))
	assert.True(t, CanManage(hrHead))
	assert.True(t, CanManage(superAdmin))
	assert.False(t, CanManage(engHead))

	assert.True(t, CanProcessPayment(finance))
	assert.False(t, CanProcessPayment(hrHead))
}
