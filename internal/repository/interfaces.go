// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/empdesk/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDを返す。
	// emailが重複する場合はEMAIL_TAKENの*model.AppErrorを返す。
	Create(ctx context.Context, user *model.User) (int64, error)
}

// EmployeeRepository は従業員レコードの永続化インターフェース。
type EmployeeRepository interface {
	// List は全従業員をID昇順で返す。
	List(ctx context.Context) ([]*model.Employee, error)

	// FindByID は指定IDの従業員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Employee, error)

	// Create は従業員を作成し、採番されたIDを返す。
	Create(ctx context.Context, emp *model.Employee) (int64, error)

	// Update は従業員の全項目を上書きする。対象が存在しない場合は何もしない。
	Update(ctx context.Context, emp *model.Employee) error

	// Delete は指定IDの従業員を削除する。対象が存在しない場合は何もしない。
	Delete(ctx context.Context, id int64) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Update はセッションのユーザーとフラッシュを更新する。有効期限は変更しない。
	Update(ctx context.Context, session *model.Session) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
