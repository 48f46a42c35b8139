package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/empdesk/internal/model"
)

// PostgresEmployeeRepo はPostgreSQLを使用した従業員リポジトリ。
type PostgresEmployeeRepo struct {
	db *sql.DB
}

// NewPostgresEmployeeRepo はPostgresEmployeeRepoを生成する。
func NewPostgresEmployeeRepo(db *sql.DB) *PostgresEmployeeRepo {
	return &PostgresEmployeeRepo{db: db}
}

const employeeColumns = `id, name, email, age, salary, experience`

// List は全従業員をID昇順で返す。
func (r *PostgresEmployeeRepo) List(ctx context.Context) ([]*model.Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM emp ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var emps []*model.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emps = append(emps, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return emps, nil
}

// FindByID は指定IDの従業員を取得する。見つからない場合はnilを返す。
func (r *PostgresEmployeeRepo) FindByID(ctx context.Context, id int64) (*model.Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM emp WHERE id = $1`,
		id,
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return emp, nil
}

// Create は従業員を作成し、採番されたIDを返す。
func (r *PostgresEmployeeRepo) Create(ctx context.Context, emp *model.Employee) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO emp (name, email, age, salary, experience)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		emp.Name, emp.Email, nullInt(emp.Age), nullFloat(emp.Salary), nullInt(emp.Experience),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert employee: %w", err)
	}

	emp.ID = id
	return id, nil
}

// Update は従業員の全項目を上書きする。対象が存在しない場合は何もしない。
func (r *PostgresEmployeeRepo) Update(ctx context.Context, emp *model.Employee) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE emp SET name = $1, email = $2, age = $3, salary = $4, experience = $5
		 WHERE id = $6`,
		emp.Name, emp.Email, nullInt(emp.Age), nullFloat(emp.Salary), nullInt(emp.Experience), emp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}

// Delete は指定IDの従業員を削除する。対象が存在しない場合は何もしない。
func (r *PostgresEmployeeRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM emp WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(s rowScanner) (*model.Employee, error) {
	var (
		emp        model.Employee
		age        sql.NullInt64
		salary     sql.NullFloat64
		experience sql.NullInt64
	)
	if err := s.Scan(&emp.ID, &emp.Name, &emp.Email, &age, &salary, &experience); err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		emp.Age = &v
	}
	if salary.Valid {
		v := salary.Float64
		emp.Salary = &v
	}
	if experience.Valid {
		v := int(experience.Int64)
		emp.Experience = &v
	}
	return &emp, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// compile-time interface check
var _ EmployeeRepository = (*PostgresEmployeeRepo)(nil)
