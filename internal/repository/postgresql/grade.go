package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type gradeRepositoryImpl struct {
	db *database.DB
}

func NewGradeRepository(db *database.DB) grade.SalaryGradeRepository {
	return &gradeRepositoryImpl{db: db}
}

// GetActiveByLevel implements grade.SalaryGradeRepository.
func (r *gradeRepositoryImpl) GetActiveByLevel(ctx context.Context, level string) (grade.SalaryGrade, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, level, name, basic_salary, allowances, is_active, created_at, updated_at
		FROM salary_grades
		WHERE level = $1 AND is_active
	`

	var (
		g          grade.SalaryGrade
		allowances []byte
	)
	err := q.QueryRow(ctx, query, level).Scan(
		&g.ID,
		&g.Level,
		&g.Name,
		&g.BasicSalary,
		&allowances,
		&g.IsActive,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return grade.SalaryGrade{}, grade.ErrNoActiveSalaryGrade
		}
		return grade.SalaryGrade{}, fmt.Errorf("failed to get salary grade: %w", err)
	}

	if err := json.Unmarshal(allowances, &g.Allowances); err != nil {
		return grade.SalaryGrade{}, fmt.Errorf("decode grade allowances: %w", err)
	}
	return g, nil
}
