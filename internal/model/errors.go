// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// AppError は画面に表示する統一エラー情報を表す。
// 原因カテゴリによってハンドラーでの扱い（再描画・フラッシュ・エラーページ）が決まる。
type AppError struct {
	Code     string // エラーコード
	Message  string // 画面に表示するメッセージ
	Category string // カテゴリ: validation, auth, not_found, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryNotFound   = "not_found"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmployeeNotFound   = "EMPLOYEE_NOT_FOUND"
	ErrCodeInvalidEmployeeID  = "INVALID_EMPLOYEE_ID"
	ErrCodeInvalidNumber      = "INVALID_NUMBER"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ValidationErrors はフォーム入力に対する複数の検証エラーをまとめたもの。
// 登録フォームでは該当するすべてのエラーを同時に表示する。
type ValidationErrors []*AppError

// Error はerrorインターフェースを実装する。
func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has は指定コードのエラーが含まれているかを返す。
func (v ValidationErrors) Has(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// NewMissingFieldError は未入力項目エラーを生成する。
func NewMissingFieldError() *AppError {
	return &AppError{
		Code:     ErrCodeMissingField,
		Message:  "Please enter all fields",
		Category: CategoryValidation,
		Action:   "Fill in every field and submit again.",
	}
}

// NewWeakPasswordError はパスワード長不足エラーを生成する。
func NewWeakPasswordError() *AppError {
	return &AppError{
		Code:     ErrCodeWeakPassword,
		Message:  "Password must be a least 6 characters long",
		Category: CategoryValidation,
		Action:   "Choose a password with at least 6 characters.",
	}
}

// NewPasswordMismatchError は確認用パスワード不一致エラーを生成する。
func NewPasswordMismatchError() *AppError {
	return &AppError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Passwords do not match",
		Category: CategoryValidation,
		Action:   "Type the same password in both fields.",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *AppError {
	return &AppError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email already registered",
		Category: CategoryValidation,
		Action:   "Register with another email or log in.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しないメッセージを返す。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Email or password is incorrect",
		Category: CategoryAuth,
		Action:   "Check your email and password.",
	}
}

// NewEmployeeNotFoundError は従業員未検出エラーを生成する。
func NewEmployeeNotFoundError(id int64) *AppError {
	return &AppError{
		Code:     ErrCodeEmployeeNotFound,
		Message:  fmt.Sprintf("Employee %d was not found", id),
		Category: CategoryNotFound,
		Action:   "Go back to the dashboard and pick an employee.",
	}
}

// NewInvalidEmployeeIDError は従業員IDの形式エラーを生成する。
func NewInvalidEmployeeIDError(raw string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidEmployeeID,
		Message:  fmt.Sprintf("Invalid employee id: %q", raw),
		Category: CategoryNotFound,
		Action:   "Go back to the dashboard and pick an employee.",
	}
}

// NewInvalidNumberError は数値項目の形式エラーを生成する。
func NewInvalidNumberError(field, raw string) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidNumber,
		Message:  fmt.Sprintf("%s must be a number, got %q", field, raw),
		Category: CategoryValidation,
		Action:   "Enter a number or leave the field empty.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *AppError {
	return &AppError{
		Code:     ErrCodeInternal,
		Message:  "Something went wrong. Please try again later.",
		Category: CategorySystem,
		Action:   "Wait a moment and try again.",
	}
}
