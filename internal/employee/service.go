// Package employee は従業員レコードの一覧・追加・更新・削除を提供する。
package employee

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/repository"
)

// Input は従業員フォームの入力を型変換した値。
// 文字列項目は入力のまま保存し、出力時のエスケープはテンプレートに任せる。
type Input struct {
	Name       string
	Email      string
	Age        *int
	Salary     *float64
	Experience *int
}

// Service は従業員レコードのビジネスロジックを提供する。
// 各操作は単一のSQL文で完結し、同時更新は後勝ちとなる。
type Service struct {
	repo repository.EmployeeRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.EmployeeRepository) *Service {
	return &Service{repo: repo}
}

// List は全従業員をID昇順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Employee, error) {
	emps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return emps, nil
}

// Get は指定IDの従業員を返す。存在しない場合はEMPLOYEE_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Employee, error) {
	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp == nil {
		return nil, model.NewEmployeeNotFoundError(id)
	}
	return emp, nil
}

// Add は従業員を追加し、採番済みのレコードを返す。
func (s *Service) Add(ctx context.Context, in Input) (*model.Employee, error) {
	emp := toEmployee(0, in)
	id, err := s.repo.Create(ctx, emp)
	if err != nil {
		return nil, fmt.Errorf("failed to add employee: %w", err)
	}
	emp.ID = id

	slog.Info("employee added", slog.Int64("employee_id", id))
	return emp, nil
}

// Update は指定IDの従業員を入力値で上書きする。存在しない場合は何もしない。
func (s *Service) Update(ctx context.Context, id int64, in Input) error {
	if err := s.repo.Update(ctx, toEmployee(id, in)); err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	slog.Info("employee updated", slog.Int64("employee_id", id))
	return nil
}

// Remove は指定IDの従業員を削除する。存在しない場合は何もしない。
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove employee: %w", err)
	}
	slog.Info("employee removed", slog.Int64("employee_id", id))
	return nil
}

func toEmployee(id int64, in Input) *model.Employee {
	return &model.Employee{
		ID:         id,
		Name:       in.Name,
		Email:      in.Email,
		Age:        in.Age,
		Salary:     in.Salary,
		Experience: in.Experience,
	}
}
