package payroll

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/department"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ---------- payroll records ----------

type fakePayrollRepo struct {
	mu          sync.Mutex
	records     map[string]payroll.PayrollRecord
	order       []string
	updateErr   map[string]error
	breakdowns  int
	createCalls int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		records:   make(map[string]payroll.PayrollRecord),
		updateErr: make(map[string]error),
	}
}

func (f *fakePayrollRepo) Create(_ context.Context, r payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	for _, existing := range f.records {
		if existing.BlocksUniqueness() &&
			existing.EmployeeID == r.EmployeeID &&
			existing.PeriodMonth == r.PeriodMonth &&
			existing.PeriodYear == r.PeriodYear &&
			existing.Frequency == r.Frequency {
			return payroll.PayrollRecord{}, payroll.ErrPayrollAlreadyExists
		}
	}
	f.records[r.ID] = r.Clone()
	f.order = append(f.order, r.ID)
	return r, nil
}

func (f *fakePayrollRepo) GetByID(_ context.Context, id string) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
	}
	return r.Clone(), nil
}

func (f *fakePayrollRepo) ExistsForPeriod(_ context.Context, employeeID string, month, year int, frequency payroll.Frequency, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID != excludeID && r.BlocksUniqueness() &&
			r.EmployeeID == employeeID && r.PeriodMonth == month &&
			r.PeriodYear == year && r.Frequency == frequency {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePayrollRepo) List(_ context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.PayrollRecord
	for _, id := range f.order {
		r := f.records[id]
		switch {
		case filter.DepartmentID != nil && r.DepartmentID != *filter.DepartmentID,
			filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID,
			filter.PeriodMonth != nil && r.PeriodMonth != *filter.PeriodMonth,
			filter.PeriodYear != nil && r.PeriodYear != *filter.PeriodYear,
			filter.Frequency != nil && r.Frequency != *filter.Frequency,
			filter.Status != nil && r.Status != *filter.Status,
			filter.Level != nil && r.ApprovalFlow.CurrentLevel != *filter.Level:
			continue
		}
		out = append(out, r.Clone())
	}
	total := int64(len(out))
	if filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start > len(out) {
			start = len(out)
		}
		end := start + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (f *fakePayrollRepo) UpdateWorkflow(_ context.Context, r payroll.PayrollRecord, expectedStatus payroll.Status, expectedLevel payroll.ApprovalLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[r.ID]; err != nil {
		return err
	}
	stored, ok := f.records[r.ID]
	if !ok {
		return payroll.ErrPayrollNotFound
	}
	if stored.Status != expectedStatus || stored.ApprovalFlow.CurrentLevel != expectedLevel {
		return payroll.ErrConcurrentUpdate
	}
	f.records[r.ID] = r.Clone()
	return nil
}

func (f *fakePayrollRepo) UpdateBreakdown(_ context.Context, r payroll.PayrollRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakdowns++
	stored := f.records[r.ID]
	stored.Deductions.Breakdown = r.Deductions.Breakdown
	f.records[r.ID] = stored
	return nil
}

func (f *fakePayrollRepo) put(r payroll.PayrollRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
	f.order = append(f.order, r.ID)
}

func (f *fakePayrollRepo) get(id string) payroll.PayrollRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id].Clone()
}

// ---------- people ----------

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
	ids       []string
}

func (f *fakeEmployeeRepo) add(e employee.Employee) {
	if f.employees == nil {
		f.employees = make(map[string]employee.Employee)
	}
	f.employees[e.ID] = e
	f.ids = append(f.ids, e.ID)
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) GetActiveByDepartmentID(_ context.Context, departmentID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range f.ids {
		e := f.employees[id]
		if e.InDepartment(departmentID) && e.EmploymentStatus == employee.EmploymentStatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

// FindApproverForLevel picks the first employee holding the capability, in
// the record's department for department heads.
func (f *fakeEmployeeRepo) FindApproverForLevel(_ context.Context, c employee.Capability, departmentID string) (*employee.Employee, error) {
	for _, id := range f.ids {
		e := f.employees[id]
		if !e.HasCapability(c) {
			continue
		}
		if c == employee.CapabilityDepartmentHead && !e.InDepartment(departmentID) {
			continue
		}
		return &e, nil
	}
	return nil, nil
}

type fakeDepartmentRepo map[string]department.Department

func (f fakeDepartmentRepo) GetByID(_ context.Context, id string) (department.Department, error) {
	d, ok := f[id]
	if !ok {
		return department.Department{}, department.ErrDepartmentNotFound
	}
	return d, nil
}

type fakeGradeRepo map[string]grade.SalaryGrade

func (f fakeGradeRepo) GetActiveByLevel(_ context.Context, level string) (grade.SalaryGrade, error) {
	g, ok := f[level]
	if !ok || !g.IsActive {
		return grade.SalaryGrade{}, grade.ErrNoActiveSalaryGrade
	}
	return g, nil
}

type fakeDefinitionRepo struct {
	defs []deduction.Definition
}

func (f *fakeDefinitionRepo) Create(_ context.Context, d deduction.Definition) (deduction.Definition, error) {
	f.defs = append(f.defs, d)
	return d, nil
}

func (f *fakeDefinitionRepo) GetByID(_ context.Context, id string) (deduction.Definition, error) {
	for _, d := range f.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return deduction.Definition{}, deduction.ErrDefinitionNotFound
}

func (f *fakeDefinitionRepo) List(context.Context, deduction.DefinitionFilter) ([]deduction.Definition, error) {
	return f.defs, nil
}

func (f *fakeDefinitionRepo) ListApplicable(_ context.Context, employeeID, departmentID string) ([]deduction.Definition, error) {
	var out []deduction.Definition
	for _, d := range f.defs {
		if d.AppliesTo(employeeID, departmentID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDefinitionRepo) SetActive(context.Context, string, bool) error { return nil }

// ---------- side effects ----------

type notice struct {
	RecipientID string
	Type        notification.EventType
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []notice
	fails map[string]error
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID string, t notification.EventType, _ map[string]interface{}, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fails[recipientID]; err != nil {
		return err
	}
	n.sent = append(n.sent, notice{RecipientID: recipientID, Type: t})
	return nil
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *recordingAuditor) LogAction(_ context.Context, action audit.Action, entityType, entityID, actorID string, details map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, audit.Entry{Action: action, EntityType: entityType, EntityID: entityID, ActorID: actorID, Details: details})
	return nil
}

func (a *recordingAuditor) actions() []audit.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.Action, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []payroll.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e payroll.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// ---------- fixture ----------

const (
	deptEng = "dept-eng"
	deptHR  = "dept-hr"
	gradeL1 = "L1"
)

type fixture struct {
	svc       *PayrollServiceImpl
	payrolls  *fakePayrollRepo
	employees *fakeEmployeeRepo
	notifier  *recordingNotifier
	auditor   *recordingAuditor
	publisher *recordingPublisher
	clock     time.Time
}

func strPtr(s string) *string { return &s }

func worker(id, dept string) employee.Employee {
	return employee.Employee{
		ID:                id,
		UserID:            strPtr("user-" + id),
		DepartmentID:      strPtr(dept),
		EmployeeCode:      "EMP-" + id,
		FullName:          "Worker " + id,
		Role:              employee.RoleEmployee,
		GradeLevel:        strPtr(gradeL1),
		BankName:          "First Bank",
		BankAccountName:   "Worker " + id,
		BankAccountNumber: "0123456789",
		EmploymentStatus:  employee.EmploymentStatusActive,
	}
}

func manager(id string, dept *string, role employee.Role, caps ...employee.Capability) employee.Employee {
	return employee.Employee{
		ID:               id,
		UserID:           strPtr("user-" + id),
		DepartmentID:     dept,
		FullName:         "Manager " + id,
		Role:             role,
		Capabilities:     caps,
		EmploymentStatus: employee.EmploymentStatusActive,
	}
}

// newFixture wires the service over fakes. Grade L1 pays 500,000 basic plus a
// fixed 150,000 housing allowance, so gross is 650,000 and net pay 536,000.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	employees := &fakeEmployeeRepo{}
	employees.add(manager("admin", nil, employee.RoleAdmin))
	employees.add(manager("eng-head", strPtr(deptEng), employee.RoleEmployee, employee.CapabilityDepartmentHead))
	employees.add(manager("hr-head", strPtr(deptHR), employee.RoleEmployee, employee.CapabilityHRManager))
	employees.add(manager("cfo", strPtr("dept-fin"), employee.RoleEmployee, employee.CapabilityFinanceDirector))
	employees.add(manager("root", nil, employee.RoleSuperAdmin))
	employees.add(worker("w1", deptEng))
	employees.add(worker("w2", deptEng))
	employees.add(worker("w3", deptEng))
	employees.add(worker("hr-w1", deptHR))

	depts := fakeDepartmentRepo{
		deptEng: {ID: deptEng, Name: "Engineering"},
		deptHR:  {ID: deptHR, Name: "Human Resources", IsHumanResources: true},
	}
	grades := fakeGradeRepo{
		gradeL1: {
			ID:          "grade-1",
			Level:       gradeL1,
			BasicSalary: decimal.NewFromInt(500000),
			Allowances: []grade.AllowanceRule{
				{Name: "Housing", CalculationMethod: grade.AllowanceFixed, Value: decimal.NewFromInt(150000)},
			},
			IsActive: true,
		},
	}

	f := &fixture{
		payrolls:  newFakePayrollRepo(),
		employees: employees,
		notifier:  &recordingNotifier{fails: make(map[string]error)},
		auditor:   &recordingAuditor{},
		publisher: &recordingPublisher{},
		clock:     time.Date(2025, time.March, 31, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewPayrollService(Deps{
		PayrollRepo:    f.payrolls,
		EmployeeRepo:   employees,
		DepartmentRepo: depts,
		GradeRepo:      grades,
		DeductionRepo:  &fakeDefinitionRepo{},
		Approvers:      employees,
		Notifier:       f.notifier,
		Auditor:        f.auditor,
		Publisher:      f.publisher,
		CompanyName:    "CMLABS",
	})
	f.svc.now = func() time.Time { return f.clock }
	return f
}

// as returns a request context authenticated as employeeID.
func (f *fixture) as(t *testing.T, employeeID string) context.Context {
	t.Helper()
	e, ok := f.employees.employees[employeeID]
	require.True(t, ok, "unknown employee %s", employeeID)

	ja := jwtauth.New("HS256", []byte("test-secret-key-for-jwt"), nil)
	token, _, err := ja.Encode(map[string]interface{}{
		"user_id":     "user-" + e.ID,
		"employee_id": e.ID,
		"role":        string(e.Role),
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

// createDraft creates a DRAFT payroll for employeeID in March 2025.
func (f *fixture) createDraft(t *testing.T, employeeID, dept string) payroll.PayrollRecordResponse {
	t.Helper()
	resp, err := f.svc.CreateSingleEmployeePayroll(f.as(t, "admin"), payroll.CreateSinglePayrollRequest{
		EmployeeID:   employeeID,
		DepartmentID: dept,
		PeriodMonth:  3,
		PeriodYear:   2025,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Record)
	return *resp.Record
}

// createPending creates and submits a payroll so it waits at DEPARTMENT_HEAD.
func (f *fixture) createPending(t *testing.T, employeeID string) payroll.PayrollRecordResponse {
	t.Helper()
	draft := f.createDraft(t, employeeID, deptEng)
	resp, err := f.svc.SubmitPayroll(f.as(t, "admin"), draft.ID, payroll.SubmitPayrollRequest{})
	require.NoError(t, err)
	return resp
}

func historyLevels(h []payroll.ApprovalEvent) []payroll.ApprovalLevel {
	out := make([]payroll.ApprovalLevel, 0, len(h))
	for _, e := range h {
		out = append(out, e.Level)
	}
	return out
}

func issueCodes(issues []payroll.SummaryIssue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	sort.Strings(out)
	return out
}
