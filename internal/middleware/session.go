// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/empdesk/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionLoader はリクエストからセッションを読み込むインターフェース。
// session.Managerが満たす。
type SessionLoader interface {
	Load(r *http.Request) (*model.Session, error)
}

// NewSessionMiddleware はCookieからセッションを読み込み、コンテキストに注入するミドルウェアを返す。
// セッションがない、または読み込みに失敗したリクエストは匿名として処理を続ける。
func NewSessionMiddleware(loader SessionLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := loader.Load(r)
			if err != nil {
				slog.Error("failed to load session",
					slog.String("error", err.Error()),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				session = nil
			}

			if session.Authenticated() {
				annotateUserID(r.Context(), *session.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// SessionFromContext はリクエストコンテキストのセッションを返す。匿名の場合はnil。
func SessionFromContext(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// ContextWithSession はコンテキストにセッションを注入する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// UserIDFromContext は認証済みユーザーのIDを返す。
func UserIDFromContext(ctx context.Context) (int64, bool) {
	session := SessionFromContext(ctx)
	if !session.Authenticated() {
		return 0, false
	}
	return *session.UserID, true
}

// RequireAuthenticated は未認証リクエストをloginPathへ302で転送するゲートを返す。
func RequireAuthenticated(loginPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SessionFromContext(r.Context()).Authenticated() {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectIfAuthenticated は認証済みリクエストをdashboardPathへ302で転送するゲートを返す。
func RedirectIfAuthenticated(dashboardPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()).Authenticated() {
				http.Redirect(w, r, dashboardPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
