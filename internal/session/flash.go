package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/empdesk/internal/model"
)

// フラッシュメッセージのキー。
const (
	FlashSuccess = "success_msg"
	FlashError   = "error"
)

// AddFlash はセッションにフラッシュメッセージを積む。
// セッションがない場合は匿名セッションを作成してCookieを発行する。
func (m *Manager) AddFlash(ctx context.Context, w http.ResponseWriter, current *model.Session, key, message string) (*model.Session, error) {
	flash := model.Flash{Key: key, Message: message}

	if current == nil {
		return m.create(ctx, w, nil, []model.Flash{flash})
	}

	current.Flashes = append(current.Flashes, flash)
	if err := m.store.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save flash: %w", err)
	}
	return current, nil
}

// ConsumeFlashes は積まれたフラッシュを返し、セッションから取り除く。
func (m *Manager) ConsumeFlashes(ctx context.Context, current *model.Session) ([]model.Flash, error) {
	if current == nil || len(current.Flashes) == 0 {
		return nil, nil
	}

	flashes := current.Flashes
	current.Flashes = nil
	if err := m.store.Update(ctx, current); err != nil {
		current.Flashes = flashes
		return nil, fmt.Errorf("failed to clear flashes: %w", err)
	}
	return flashes, nil
}

// GroupFlashes はフラッシュをキーごとのメッセージ一覧にまとめる。
func GroupFlashes(flashes []model.Flash) map[string][]string {
	grouped := make(map[string][]string, len(flashes))
	for _, f := range flashes {
		grouped[f.Key] = append(grouped[f.Key], f.Message)
	}
	return grouped
}
