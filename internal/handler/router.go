package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/empdesk/internal/metrics"
	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger      *slog.Logger
	RateLimiter *middleware.RateLimiter
	CSRF        middleware.CSRFConfig

	// 監視
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer

	// 画面
	Renderer Renderer
	Sessions SessionManager

	// ドメインサービス
	AuthService     AuthServiceInterface
	EmployeeService EmployeeServiceInterface

	// EmployeeRoutesRequireAuth がtrueの場合、従業員CRUDをログイン必須にする
	EmployeeRoutesRequireAuth bool
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → Session → CSRF → RateLimit(General)
//
// /health と /metrics はセッションとCSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &pages{renderer: deps.Renderer, sessions: deps.Sessions}
	userHandler := NewUserHandler(deps.AuthService, p, deps.Metrics)
	empHandler := NewEmployeeHandler(deps.EmployeeService, deps.AuthService, p, deps.Metrics)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	csrfConfig := deps.CSRF
	if csrfConfig.OnFailure == nil {
		csrfConfig.OnFailure = func(w http.ResponseWriter, r *http.Request) {
			p.renderStatus(w, r, http.StatusForbidden, nil)
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(func(w http.ResponseWriter, r *http.Request) {
		p.renderStatus(w, r, http.StatusInternalServerError, model.NewInternalError())
	}))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(metrics.Middleware(deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// --- 監視エンドポイント ---
	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 画面 ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Sessions))
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			p.renderStatus(w, r, http.StatusNotFound, nil)
		})

		r.Get("/", userHandler.Index)

		r.Route("/users", func(r chi.Router) {
			// 未ログイン向けの画面
			r.Group(func(r chi.Router) {
				r.Use(middleware.RedirectIfAuthenticated("/users/dashboard"))
				r.Get("/register", userHandler.RegisterForm)
				r.Get("/login", userHandler.LoginForm)
			})

			// 資格情報の送信（ログイン専用レート制限を追加）
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/register", userHandler.Register)
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", userHandler.Login)

			r.Get("/logout", userHandler.Logout)
			r.With(middleware.RequireAuthenticated("/users/login")).Get("/dashboard", empHandler.Dashboard)

			// 従業員CRUD
			r.Route("/emp", func(r chi.Router) {
				if deps.EmployeeRoutesRequireAuth {
					r.Use(middleware.RequireAuthenticated("/users/login"))
				}
				r.Post("/add", empHandler.Add)
				r.Get("/edit/{id}", empHandler.Edit)
				r.Post("/update/{id}", empHandler.Update)
				r.Get("/delete/{id}", empHandler.Delete)
			})
		})
	})

	return r
}
