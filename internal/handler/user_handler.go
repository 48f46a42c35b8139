package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/empdesk/internal/auth"
	"github.com/hitoshi/empdesk/internal/metrics"
	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/session"
	"github.com/hitoshi/empdesk/internal/view"
)

// 画面に表示する固定メッセージ。
const (
	msgRegistered = "You are now registered. Please log in"
	msgLoggedOut  = "You have logged out successfully"
)

// AuthServiceInterface はユーザーハンドラーが必要とする認証サービスインターフェース。
type AuthServiceInterface interface {
	// Register は入力を検証してユーザーを作成する。
	Register(ctx context.Context, in auth.RegistrationInput) (int64, error)
	// Authenticate はメールアドレスとパスワードを照合する。
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	// CurrentUser はIDでユーザーを取得する。
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// UserHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type UserHandler struct {
	auth    AuthServiceInterface
	pages   *pages
	metrics metrics.MetricsCollector
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(authService AuthServiceInterface, p *pages, mc metrics.MetricsCollector) *UserHandler {
	return &UserHandler{
		auth:    authService,
		pages:   p,
		metrics: mc,
	}
}

// RegisterForm は登録フォームを表示する。
// GET /users/register
func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, view.PageRegister, nil)
}

// Register は登録フォームの送信を処理する。
// 検証エラー時は入力済みの名前とメールアドレスを保持したままフォームを再表示する。
// POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	in := auth.RegistrationInput{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("password2"),
	}

	_, err := h.auth.Register(r.Context(), in)
	if err != nil {
		var verrs model.ValidationErrors
		if !errors.As(err, &verrs) {
			h.pages.renderError(w, r, err)
			return
		}

		messages := make([]string, len(verrs))
		for i, e := range verrs {
			messages[i] = e.Message
		}
		h.pages.render(w, r, http.StatusOK, view.PageRegister, view.Data{
			"errors": messages,
			"name":   in.Name,
			"email":  in.Email,
		})
		return
	}

	h.metrics.RecordRegistration()
	h.pages.flashAndRedirect(w, r, session.FlashSuccess, msgRegistered, "/users/login")
}

// LoginForm はログインフォームを表示する。
// GET /users/login
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, view.PageLogin, nil)
}

// Login はログインフォームの送信を処理する。
// 成功時はセッションをローテーションしてダッシュボードへ、失敗時はフラッシュを積んでログイン画面へ転送する。
// POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Authenticate(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) && appErr.Category == model.CategoryAuth {
			h.metrics.RecordLogin(false)
			h.pages.flashAndRedirect(w, r, session.FlashError, appErr.Message, "/users/login")
			return
		}
		h.pages.renderError(w, r, err)
		return
	}

	current := middleware.SessionFromContext(r.Context())
	if _, err := h.pages.sessions.Login(r.Context(), w, current, user.ID); err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordLogin(true)
	http.Redirect(w, r, "/users/dashboard", http.StatusFound)
}

// Logout はセッションを破棄してトップページを表示する。
// GET /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	current := middleware.SessionFromContext(r.Context())
	if err := h.pages.sessions.Logout(r.Context(), w, current); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
	}

	// 破棄したセッションのフラッシュは読まない
	r = r.WithContext(middleware.ContextWithSession(r.Context(), nil))
	h.pages.render(w, r, http.StatusOK, view.PageIndex, view.Data{
		"message": msgLoggedOut,
	})
}

// Index はトップページを表示する。
// GET /
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, view.PageIndex, nil)
}
