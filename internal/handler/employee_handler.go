package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/empdesk/internal/employee"
	"github.com/hitoshi/empdesk/internal/metrics"
	"github.com/hitoshi/empdesk/internal/middleware"
	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/session"
	"github.com/hitoshi/empdesk/internal/view"
)

const msgEmployeeAdded = "Employee added successfully !"

// EmployeeServiceInterface は従業員ハンドラーが必要とするサービスインターフェース。
type EmployeeServiceInterface interface {
	List(ctx context.Context) ([]*model.Employee, error)
	Get(ctx context.Context, id int64) (*model.Employee, error)
	Add(ctx context.Context, in employee.Input) (*model.Employee, error)
	Update(ctx context.Context, id int64, in employee.Input) error
	Remove(ctx context.Context, id int64) error
}

// EmployeeHandler はダッシュボードと従業員CRUDのHTTPハンドラー。
type EmployeeHandler struct {
	service EmployeeServiceInterface
	users   AuthServiceInterface
	pages   *pages
	metrics metrics.MetricsCollector
}

// NewEmployeeHandler はEmployeeHandlerを生成する。
func NewEmployeeHandler(service EmployeeServiceInterface, users AuthServiceInterface, p *pages, mc metrics.MetricsCollector) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		users:   users,
		pages:   p,
		metrics: mc,
	}
}

// Dashboard はログインユーザー名と従業員一覧を表示する。
// GET /users/dashboard
func (h *EmployeeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/users/login", http.StatusFound)
		return
	}

	user, err := h.users.CurrentUser(r.Context(), userID)
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}
	if user == nil {
		// セッションは有効だがユーザーが存在しない
		slog.Warn("session user not found", slog.Int64("user_id", userID))
		if err := h.pages.sessions.Logout(r.Context(), w, middleware.SessionFromContext(r.Context())); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
		http.Redirect(w, r, "/users/login", http.StatusFound)
		return
	}

	list, err := h.service.List(r.Context())
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.pages.render(w, r, http.StatusOK, view.PageDashboard, view.Data{
		"user": user.Name,
		"list": list,
		"show": false,
	})
}

// Add は従業員を追加してダッシュボードへ転送する。
// POST /users/emp/add
func (h *EmployeeHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.renderStatus(w, r, http.StatusBadRequest, nil)
		return
	}

	in, err := employee.ParseInput(r.PostForm)
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	if _, err := h.service.Add(r.Context(), in); err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordEmployeeMutation(metrics.OpAdd)
	h.pages.flashAndRedirect(w, r, session.FlashSuccess, msgEmployeeAdded, "/users/dashboard")
}

// Edit は従業員の編集フォームを表示する。
// GET /users/emp/edit/{id}
func (h *EmployeeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := employee.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.pages.render(w, r, http.StatusOK, view.PageUpdate, view.Data{
		"employee": emp,
	})
}

// Update は従業員を上書きしてダッシュボードへ転送する。
// POST /users/emp/update/{id}
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := employee.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.pages.renderStatus(w, r, http.StatusBadRequest, nil)
		return
	}

	in, err := employee.ParseInput(r.PostForm)
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), id, in); err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordEmployeeMutation(metrics.OpUpdate)
	http.Redirect(w, r, "/users/dashboard", http.StatusFound)
}

// Delete は従業員を削除してダッシュボードへ転送する。
// GET /users/emp/delete/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := employee.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		h.pages.renderError(w, r, err)
		return
	}

	h.metrics.RecordEmployeeMutation(metrics.OpDelete)
	http.Redirect(w, r, "/users/dashboard", http.StatusFound)
}
