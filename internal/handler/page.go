// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/session"
	"github.com/hitoshi/empdesk/internal/view"
)

// Renderer はページ描画のインターフェース。
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data view.Data) error
}

// SessionManager はハンドラーとセッションミドルウェアが必要とするセッション操作。
type SessionManager interface {
	middleware.SessionLoader
	Login(ctx context.Context, w http.ResponseWriter, current *model.Session, userID int64) (*model.Session, error)
	Logout(ctx context.Context, w http.ResponseWriter, current *model.Session) error
	AddFlash(ctx context.Context, w http.ResponseWriter, current *model.Session, key, message string) (*model.Session, error)
	ConsumeFlashes(ctx context.Context, current *model.Session) ([]model.Flash, error)
}

// pages はフラッシュとCSRFトークンを添えてページを描画する共通処理。
type pages struct {
	renderer Renderer
	sessions SessionManager
}

// render はセッションのフラッシュを取り出してページを描画する。
// フラッシュの取り出しに失敗しても描画は続ける。
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data view.Data) {
	if data == nil {
		data = view.Data{}
	}

	flashes, err := p.sessions.ConsumeFlashes(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		slog.Error("failed to consume flashes", slog.String("error", err.Error()))
	}
	data["flashes"] = session.GroupFlashes(flashes)
	data["csrfToken"] = middleware.CSRFTokenFromContext(r.Context())

	if err := p.renderer.Render(w, status, name, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderStatus はステータスコードとエラー内容をエラーページとして描画する。
func (p *pages) renderStatus(w http.ResponseWriter, r *http.Request, status int, appErr *model.AppError) {
	data := view.Data{
		"status":     status,
		"statusText": http.StatusText(status),
	}
	if appErr != nil {
		data["error"] = appErr
	}
	p.render(w, r, status, view.PageError, data)
}

// renderError はエラーをカテゴリに応じたステータスのエラーページとして描画する。
// AppErrorでないエラーは詳細をログにだけ残し、汎用の500を返す。
func (p *pages) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		slog.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		p.renderStatus(w, r, http.StatusInternalServerError, model.NewInternalError())
		return
	}
	p.renderStatus(w, r, statusForCategory(appErr.Category), appErr)
}

// flashAndRedirect はフラッシュを積んでから302で転送する。
// フラッシュの保存に失敗しても転送は行う。
func (p *pages) flashAndRedirect(w http.ResponseWriter, r *http.Request, key, message, target string) {
	if _, err := p.sessions.AddFlash(r.Context(), w, middleware.SessionFromContext(r.Context()), key, message); err != nil {
		slog.Error("failed to add flash", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// statusForCategory はエラーカテゴリをHTTPステータスコードに変換する。
func statusForCategory(category string) int {
	switch category {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryAuth:
		return http.StatusUnauthorized
	case model.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
