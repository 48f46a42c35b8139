// Package auth はメールアドレスとパスワードによるユーザー登録と認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/repository"
)

// RegistrationInput は登録フォームの入力値。パスワードは6文字以上。
type RegistrationInput struct {
	Name            string `validate:"required"`
	Email           string `validate:"required"`
	Password        string `validate:"min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int
}

// CredentialService はユーザー登録と認証のビジネスロジックを提供する。
type CredentialService struct {
	userRepo repository.UserRepository
	validate *validator.Validate
	config   ServiceConfig
}

// NewCredentialService はCredentialServiceを生成する。
// BcryptCostが範囲外の場合はbcrypt.DefaultCostを使う。
func NewCredentialService(userRepo repository.UserRepository, config ServiceConfig) *CredentialService {
	if config.BcryptCost < bcrypt.MinCost || config.BcryptCost > bcrypt.MaxCost {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &CredentialService{
		userRepo: userRepo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		config:   config,
	}
}

// Register は入力を検証してユーザーを作成し、採番されたIDを返す。
// 検証エラーはmodel.ValidationErrorsとして、該当するものをすべて
// MissingField, WeakPassword, PasswordMismatch の順で返す。
// 入力が妥当な場合に限りメールアドレスの重複を確認する。
func (s *CredentialService) Register(ctx context.Context, in RegistrationInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if verrs := s.validateRegistration(in); len(verrs) > 0 {
		return 0, verrs
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return 0, model.ValidationErrors{model.NewEmailTakenError()}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.userRepo.Create(ctx, &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
	})
	if err != nil {
		// 確認後に同じメールアドレスで登録された場合
		var appErr *model.AppError
		if errors.As(err, &appErr) && appErr.Code == model.ErrCodeEmailTaken {
			return 0, model.ValidationErrors{appErr}
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.Int64("user_id", id))
	return id, nil
}

// Authenticate はメールアドレスとパスワードを照合し、一致したユーザーを返す。
// 該当ユーザーなしとパスワード不一致はログ上でのみ区別し、呼び出し元には
// どちらもINVALID_CREDENTIALSを返す。
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		slog.Info("login failed", slog.String("reason", "email not registered"))
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		slog.Info("login failed",
			slog.String("reason", "password mismatch"),
			slog.Int64("user_id", user.ID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	return user, nil
}

// CurrentUser はセッションに紐付いたユーザーを返す。存在しない場合はnilを返す。
func (s *CredentialService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// validateRegistration はvalidatorの結果を表示順のValidationErrorsに変換する。
// 空のパスワードは未入力かつ文字数不足の両方として扱う。
func (s *CredentialService) validateRegistration(in RegistrationInput) model.ValidationErrors {
	var missing, weak, mismatch bool

	if in.Password == "" || in.ConfirmPassword == "" {
		missing = true
	}

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return model.ValidationErrors{model.NewInternalError()}
		}
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "required":
				missing = true
			case "min":
				weak = true
			case "eqfield":
				mismatch = true
			}
		}
	}

	var verrs model.ValidationErrors
	if missing {
		verrs = append(verrs, model.NewMissingFieldError())
	}
	if weak {
		verrs = append(verrs, model.NewWeakPasswordError())
	}
	if mismatch {
		verrs = append(verrs, model.NewPasswordMismatchError())
	}
	return verrs
}
