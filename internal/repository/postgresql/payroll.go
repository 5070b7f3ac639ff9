package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const payrollPeriodIndex = "ux_payroll_records_period"

const payrollSelect = `
	SELECT pr.id, pr.employee_id, pr.department_id, pr.period_month, pr.period_year, pr.frequency,
		   pr.basic_salary, pr.allowances, pr.gross_pay, pr.total_allowances, pr.total_deductions, pr.net_pay,
		   pr.statutory_paye, pr.statutory_pension, pr.statutory_nhf, pr.statutory_total,
		   pr.voluntary_deductions, pr.deduction_breakdown,
		   pr.status, pr.current_level, pr.approval_history,
		   pr.submitted_by, pr.submitted_at, pr.rejected_by, pr.rejected_at, pr.approved_at, pr.remarks,
		   pr.payment_details, pr.created_by, pr.created_at, pr.updated_at,
		   e.full_name, e.employee_code, d.name
	FROM payroll_records pr
	JOIN employees e ON e.id = pr.employee_id
	LEFT JOIN departments d ON d.id = pr.department_id
`

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// payrollJSON holds the JSONB columns of one record.
type payrollJSON struct {
	allowances []byte
	voluntary  []byte
	breakdown  []byte
	history    []byte
	payment    []byte
}

func encodePayrollJSON(r payroll.PayrollRecord) (payrollJSON, error) {
	var (
		out payrollJSON
		err error
	)
	if out.allowances, err = marshalList(r.Allowances); err != nil {
		return out, fmt.Errorf("marshal allowances: %w", err)
	}
	if out.voluntary, err = marshalList(r.Deductions.Voluntary); err != nil {
		return out, fmt.Errorf("marshal voluntary deductions: %w", err)
	}
	if out.breakdown, err = marshalList(r.Deductions.Breakdown); err != nil {
		return out, fmt.Errorf("marshal deduction breakdown: %w", err)
	}
	if out.history, err = marshalList(r.ApprovalFlow.History); err != nil {
		return out, fmt.Errorf("marshal approval history: %w", err)
	}
	if r.PaymentDetails != nil {
		if out.payment, err = json.Marshal(toPaymentJSON(*r.PaymentDetails)); err != nil {
			return out, fmt.Errorf("marshal payment details: %w", err)
		}
	}
	return out, nil
}

// marshalList encodes nil slices as [] so the NOT NULL columns stay arrays.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

type paymentJSON struct {
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
	ProcessedBy   string    `json:"processed_by"`
	ProcessedAt   time.Time `json:"processed_at"`
}

func toPaymentJSON(p payroll.PaymentDetails) paymentJSON {
	return paymentJSON(p)
}

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var (
		r  payroll.PayrollRecord
		js payrollJSON
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.DepartmentID, &r.PeriodMonth, &r.PeriodYear, &r.Frequency,
		&r.BasicSalary, &js.allowances, &r.Totals.GrossPay, &r.Totals.TotalAllowances, &r.Totals.TotalDeductions, &r.Totals.NetPay,
		&r.Deductions.Statutory.PAYE, &r.Deductions.Statutory.Pension, &r.Deductions.Statutory.NHF, &r.Deductions.Statutory.Total,
		&js.voluntary, &js.breakdown,
		&r.Status, &r.ApprovalFlow.CurrentLevel, &js.history,
		&r.ApprovalFlow.SubmittedBy, &r.ApprovalFlow.SubmittedAt, &r.ApprovalFlow.RejectedBy, &r.ApprovalFlow.RejectedAt,
		&r.ApprovalFlow.ApprovedAt, &r.ApprovalFlow.Remarks,
		&js.payment, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
		&r.EmployeeName, &r.EmployeeCode, &r.DepartmentName,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	r.Totals.BasicSalary = r.BasicSalary

	if err := json.Unmarshal(js.allowances, &r.Allowances); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("decode allowances: %w", err)
	}
	if err := json.Unmarshal(js.voluntary, &r.Deductions.Voluntary); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("decode voluntary deductions: %w", err)
	}
	if err := json.Unmarshal(js.breakdown, &r.Deductions.Breakdown); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("decode deduction breakdown: %w", err)
	}
	if err := json.Unmarshal(js.history, &r.ApprovalFlow.History); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("decode approval history: %w", err)
	}
	for i := range r.ApprovalFlow.History {
		// Rows written before the level rename still say HR_HEAD.
		if l, err := payroll.ParseApprovalLevel(string(r.ApprovalFlow.History[i].Level)); err == nil {
			r.ApprovalFlow.History[i].Level = l
		}
	}
	if l, err := payroll.ParseApprovalLevel(string(r.ApprovalFlow.CurrentLevel)); err == nil {
		r.ApprovalFlow.CurrentLevel = l
	}
	if len(js.payment) > 0 {
		var pj paymentJSON
		if err := json.Unmarshal(js.payment, &pj); err != nil {
			return payroll.PayrollRecord{}, fmt.Errorf("decode payment details: %w", err)
		}
		pd := payroll.PaymentDetails(pj)
		r.PaymentDetails = &pd
	}
	return r, nil
}

func (r *payrollRepository) Create(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	js, err := encodePayrollJSON(record)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	query := `
		INSERT INTO payroll_records (
			id, employee_id, department_id, period_month, period_year, frequency,
			basic_salary, allowances, gross_pay, total_allowances, total_deductions, net_pay,
			statutory_paye, statutory_pension, statutory_nhf, statutory_total,
			voluntary_deductions, deduction_breakdown,
			status, current_level, approval_history,
			submitted_by, submitted_at, remarks, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18,
			$19, $20, $21,
			$22, $23, $24, $25, $26, $27
		)
	`
	_, err = q.Exec(ctx, query,
		record.ID, record.EmployeeID, record.DepartmentID, record.PeriodMonth, record.PeriodYear, string(record.Frequency),
		record.BasicSalary, js.allowances, record.Totals.GrossPay, record.Totals.TotalAllowances, record.Totals.TotalDeductions, record.Totals.NetPay,
		record.Deductions.Statutory.PAYE, record.Deductions.Statutory.Pension, record.Deductions.Statutory.NHF, record.Deductions.Statutory.Total,
		js.voluntary, js.breakdown,
		string(record.Status), string(record.ApprovalFlow.CurrentLevel), js.history,
		record.ApprovalFlow.SubmittedBy, record.ApprovalFlow.SubmittedAt, record.ApprovalFlow.Remarks,
		record.CreatedBy, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, payrollPeriodIndex) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollAlreadyExists
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}

	return record, nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanPayrollRecord(q.QueryRow(ctx, payrollSelect+` WHERE pr.id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

func (r *payrollRepository) ExistsForPeriod(ctx context.Context, employeeID string, month, year int, frequency payroll.Frequency, excludeID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM payroll_records
			WHERE employee_id = $1 AND period_month = $2 AND period_year = $3 AND frequency = $4
			  AND status NOT IN ('CANCELLED', 'REJECTED')
			  AND id::text <> $5
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, month, year, string(frequency), excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check payroll period: %w", err)
	}
	return exists, nil
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := " WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	add := func(clause string, value interface{}) {
		where += fmt.Sprintf(" AND "+clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if filter.DepartmentID != nil {
		add("pr.department_id::text = $%d", *filter.DepartmentID)
	}
	if filter.EmployeeID != nil {
		add("pr.employee_id::text = $%d", *filter.EmployeeID)
	}
	if filter.PeriodMonth != nil {
		add("pr.period_month = $%d", *filter.PeriodMonth)
	}
	if filter.PeriodYear != nil {
		add("pr.period_year = $%d", *filter.PeriodYear)
	}
	if filter.Frequency != nil {
		add("pr.frequency = $%d", string(*filter.Frequency))
	}
	if filter.Status != nil {
		add("pr.status = $%d", string(*filter.Status))
	}
	if filter.Level != nil {
		add("pr.current_level = ANY($%d)", filter.Level.StoredSpellings())
	}

	// Count query
	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM payroll_records pr" + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	selectQuery := payrollSelect + where + " ORDER BY pr.period_year DESC, pr.period_month DESC, e.full_name ASC, pr.created_at ASC"
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		selectQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll records: %w", err)
	}

	return records, totalCount, nil
}

func (r *payrollRepository) UpdateWorkflow(ctx context.Context, record payroll.PayrollRecord, expectedStatus payroll.Status, expectedLevel payroll.ApprovalLevel) error {
	q := GetQuerier(ctx, r.db)

	js, err := encodePayrollJSON(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE payroll_records SET
			basic_salary = $4, allowances = $5, gross_pay = $6, total_allowances = $7,
			total_deductions = $8, net_pay = $9,
			statutory_paye = $10, statutory_pension = $11, statutory_nhf = $12, statutory_total = $13,
			voluntary_deductions = $14, deduction_breakdown = $15,
			status = $16, current_level = $17, approval_history = $18,
			submitted_by = $19, submitted_at = $20, rejected_by = $21, rejected_at = $22,
			approved_at = $23, remarks = $24, payment_details = $25,
			updated_at = $26
		WHERE id::text = $1 AND status = $2 AND current_level = ANY($3)
	`
	tag, err := q.Exec(ctx, query,
		record.ID, string(expectedStatus), expectedLevel.StoredSpellings(),
		record.BasicSalary, js.allowances, record.Totals.GrossPay, record.Totals.TotalAllowances,
		record.Totals.TotalDeductions, record.Totals.NetPay,
		record.Deductions.Statutory.PAYE, record.Deductions.Statutory.Pension, record.Deductions.Statutory.NHF, record.Deductions.Statutory.Total,
		js.voluntary, js.breakdown,
		string(record.Status), string(record.ApprovalFlow.CurrentLevel), js.history,
		record.ApprovalFlow.SubmittedBy, record.ApprovalFlow.SubmittedAt, record.ApprovalFlow.RejectedBy, record.ApprovalFlow.RejectedAt,
		record.ApprovalFlow.ApprovedAt, record.ApprovalFlow.Remarks, nullableJSON(js.payment),
		record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, payrollPeriodIndex) {
			return payroll.ErrPayrollAlreadyExists
		}
		return fmt.Errorf("failed to update payroll workflow: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payroll_records WHERE id::text = $1)`, record.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check payroll record: %w", err)
		}
		if !exists {
			return payroll.ErrPayrollNotFound
		}
		return payroll.ErrConcurrentUpdate
	}
	return nil
}

func (r *payrollRepository) UpdateBreakdown(ctx context.Context, record payroll.PayrollRecord) error {
	q := GetQuerier(ctx, r.db)

	breakdown, err := marshalList(record.Deductions.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal deduction breakdown: %w", err)
	}

	tag, err := q.Exec(ctx, `UPDATE payroll_records SET deduction_breakdown = $2 WHERE id::text = $1`, record.ID, breakdown)
	if err != nil {
		return fmt.Errorf("failed to update deduction breakdown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollNotFound
	}
	return nil
}
