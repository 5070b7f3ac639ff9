package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `
	id, user_id, department_id, employee_code, full_name, email, position, role, grade_level,
	capabilities, bank_name, bank_account_name, bank_account_number, employment_status,
	created_at, updated_at
`

// EmployeeRepository reads employees and resolves approvers.
type EmployeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

var (
	_ employee.EmployeeRepository = (*EmployeeRepository)(nil)
	_ employee.ApproverResolver   = (*EmployeeRepository)(nil)
)

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		emp  employee.Employee
		caps []string
	)
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.DepartmentID, &emp.EmployeeCode, &emp.FullName, &emp.Email,
		&emp.Position, &emp.Role, &emp.GradeLevel, &caps,
		&emp.BankName, &emp.BankAccountName, &emp.BankAccountNumber, &emp.EmploymentStatus,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	for _, c := range caps {
		if held := employee.Capability(c); held.IsValid() {
			emp.Capabilities = append(emp.Capabilities, held)
		}
	}
	// Rows that predate stored capabilities fall back to the title mapping.
	if len(emp.Capabilities) == 0 {
		emp.Capabilities = employee.DeriveCapabilities(emp.Position, emp.Role)
	}
	return emp, nil
}

func (e *EmployeeRepository) getOne(ctx context.Context, where string, arg string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := "SELECT " + employeeColumns + " FROM employees WHERE " + where
	emp, err := scanEmployee(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, "id::text = $1", id)
}

// GetByUserID implements employee.EmployeeRepository.
func (e *EmployeeRepository) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	return e.getOne(ctx, "user_id::text = $1", userID)
}

// GetActiveByDepartmentID implements employee.EmployeeRepository.
func (e *EmployeeRepository) GetActiveByDepartmentID(ctx context.Context, departmentID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := "SELECT " + employeeColumns + `
		FROM employees
		WHERE department_id::text = $1 AND employment_status = $2
		ORDER BY full_name ASC, id ASC
	`
	rows, err := q.Query(ctx, query, departmentID, string(employee.EmploymentStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list department employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// FindApproverForLevel implements employee.ApproverResolver. Stored
// capabilities are matched in SQL; rows without any recognised capability
// are loaded too so the title mapping can decide for them.
func (e *EmployeeRepository) FindApproverForLevel(ctx context.Context, capability employee.Capability, departmentID string) (*employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	known := make([]string, 0, len(employee.AllCapabilities()))
	for _, c := range employee.AllCapabilities() {
		known = append(known, string(c))
	}

	query := "SELECT " + employeeColumns + ` FROM employees
		WHERE employment_status = $1
		AND (capabilities @> ARRAY[$2::text] OR NOT (capabilities && $3::text[])`
	args := []interface{}{string(employee.EmploymentStatusActive), string(capability), known}
	if capability == employee.CapabilitySuperAdmin {
		query += " OR role = $4"
		args = append(args, string(employee.RoleSuperAdmin))
	}
	query += ")"
	if capability == employee.CapabilityDepartmentHead {
		query += fmt.Sprintf(" AND department_id::text = $%d", len(args)+1)
		args = append(args, departmentID)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find approver: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if emp.HasCapability(capability) {
			return &emp, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return nil, nil
}
