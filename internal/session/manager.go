// Package session はCookieとサーバー側ストアによるセッション管理を提供する。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/hitoshi/empdesk/internal/model"
	"github.com/hitoshi/empdesk/internal/repository"
)

// CookieName はセッショントークンを保持するCookieの名前。
const CookieName = "session_id"

// Config はセッションマネージャーの設定。
type Config struct {
	Secret       []byte // Cookie署名鍵
	MaxAge       int    // セッション有効期間（秒）
	CookieSecure bool
	CookieDomain string
}

// Manager はセッションの読み込み、ローテーション、破棄とフラッシュメッセージを扱う。
// Cookieには署名済みのセッションIDだけを載せ、状態はストアに置く。
type Manager struct {
	store  repository.SessionRepository
	codec  *securecookie.SecureCookie
	config Config
	now    func() time.Time
}

// NewManager はManagerを生成する。
func NewManager(store repository.SessionRepository, config Config) *Manager {
	codec := securecookie.New(config.Secret, nil)
	codec.MaxAge(config.MaxAge)
	return &Manager{
		store:  store,
		codec:  codec,
		config: config,
		now:    time.Now,
	}
}

// Load はリクエストのCookieからセッションを取得する。
// Cookieがない、署名が不正、または期限切れの場合はnil, nilを返す。
func (m *Manager) Load(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	var id string
	if err := m.codec.Decode(CookieName, cookie.Value, &id); err != nil {
		slog.Debug("discarding undecodable session cookie", slog.String("error", err.Error()))
		return nil, nil
	}

	session, err := m.store.FindByID(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// Login は現在のセッションを破棄し、ユーザーを紐付けた新しいセッションを発行する。
// 未表示のフラッシュは新しいセッションへ引き継ぐ。
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, current *model.Session, userID int64) (*model.Session, error) {
	var flashes []model.Flash
	if current != nil {
		flashes = current.Flashes
		if err := m.store.DeleteByID(ctx, current.ID); err != nil {
			return nil, fmt.Errorf("failed to rotate session: %w", err)
		}
	}

	uid := userID
	session, err := m.create(ctx, w, &uid, flashes)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.Int64("user_id", userID))
	return session, nil
}

// Logout はセッションを破棄してCookieを削除する。
// セッションがない場合も成功として扱う。
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, current *model.Session) error {
	m.clearCookie(w)
	if current == nil {
		return nil
	}

	if err := m.store.DeleteByID(ctx, current.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if current.UserID != nil {
		slog.Info("user logged out", slog.Int64("user_id", *current.UserID))
	}
	return nil
}

func (m *Manager) create(ctx context.Context, w http.ResponseWriter, userID *int64, flashes []model.Flash) (*model.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := m.now()
	session := &model.Session{
		ID:        id,
		UserID:    userID,
		Flashes:   flashes,
		ExpiresAt: now.Add(time.Duration(m.config.MaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if err := m.setCookie(w, id); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) error {
	encoded, err := m.codec.Encode(CookieName, id)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Domain:   m.config.CookieDomain,
		MaxAge:   m.config.MaxAge,
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
