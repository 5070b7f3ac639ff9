package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/deduction"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const definitionColumns = `
	id, name, type, calculation_method, value, tax_brackets, scope,
	department_id, employee_id, is_active, created_by, created_at, updated_at
`

type deductionRepository struct {
	db *database.DB
}

func NewDeductionRepository(db *database.DB) deduction.DefinitionRepository {
	return &deductionRepository{db: db}
}

func scanDefinition(row pgx.Row) (deduction.Definition, error) {
	var (
		d        deduction.Definition
		brackets []byte
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.Type, &d.CalculationMethod, &d.Value, &brackets, &d.Scope,
		&d.DepartmentID, &d.EmployeeID, &d.IsActive, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return deduction.Definition{}, err
	}
	if len(brackets) > 0 {
		if err := json.Unmarshal(brackets, &d.TaxBrackets); err != nil {
			return deduction.Definition{}, fmt.Errorf("decode tax brackets: %w", err)
		}
	}
	return d, nil
}

func (r *deductionRepository) collect(rows pgx.Rows) ([]deduction.Definition, error) {
	defer rows.Close()

	var defs []deduction.Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deduction definition: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deduction definitions: %w", err)
	}
	return defs, nil
}

// Create implements deduction.DefinitionRepository.
func (r *deductionRepository) Create(ctx context.Context, def deduction.Definition) (deduction.Definition, error) {
	q := GetQuerier(ctx, r.db)

	var brackets []byte
	if len(def.TaxBrackets) > 0 {
		var err error
		if brackets, err = json.Marshal(def.TaxBrackets); err != nil {
			return deduction.Definition{}, fmt.Errorf("marshal tax brackets: %w", err)
		}
	}

	query := `
		INSERT INTO deduction_definitions (
			id, name, type, calculation_method, value, tax_brackets, scope,
			department_id, employee_id, is_active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := q.Exec(ctx, query,
		def.ID, def.Name, string(def.Type), string(def.CalculationMethod), def.Value, nullableJSON(brackets), string(def.Scope),
		def.DepartmentID, def.EmployeeID, def.IsActive, def.CreatedBy, def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return deduction.Definition{}, fmt.Errorf("failed to create deduction definition: %w", err)
	}
	return def, nil
}

// GetByID implements deduction.DefinitionRepository.
func (r *deductionRepository) GetByID(ctx context.Context, id string) (deduction.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + definitionColumns + " FROM deduction_definitions WHERE id::text = $1"
	d, err := scanDefinition(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deduction.Definition{}, deduction.ErrDefinitionNotFound
		}
		return deduction.Definition{}, fmt.Errorf("failed to get deduction definition: %w", err)
	}
	return d, nil
}

// List implements deduction.DefinitionRepository.
func (r *deductionRepository) List(ctx context.Context, filter deduction.DefinitionFilter) ([]deduction.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + definitionColumns + " FROM deduction_definitions WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, string(*filter.Type))
		argIdx++
	}
	if filter.Scope != nil {
		query += fmt.Sprintf(" AND scope = $%d", argIdx)
		args = append(args, string(*filter.Scope))
		argIdx++
	}
	if filter.DepartmentID != nil {
		query += fmt.Sprintf(" AND department_id::text = $%d", argIdx)
		args = append(args, *filter.DepartmentID)
	}
	if filter.ActiveOnly {
		query += " AND is_active"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deduction definitions: %w", err)
	}
	return r.collect(rows)
}

// ListApplicable implements deduction.DefinitionRepository.
func (r *deductionRepository) ListApplicable(ctx context.Context, employeeID, departmentID string) ([]deduction.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + definitionColumns + `
		FROM deduction_definitions
		WHERE is_active AND (
			scope = 'company-wide'
			OR (scope = 'department' AND department_id::text = $1)
			OR (scope = 'individual' AND employee_id::text = $2)
		)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := q.Query(ctx, query, departmentID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicable deductions: %w", err)
	}
	return r.collect(rows)
}

// SetActive implements deduction.DefinitionRepository.
func (r *deductionRepository) SetActive(ctx context.Context, id string, active bool) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE deduction_definitions SET is_active = $2, updated_at = NOW() WHERE id::text = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update deduction definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return deduction.ErrDefinitionNotFound
	}
	return nil
}
