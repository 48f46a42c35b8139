// Package model はドメインモデルを定義する。
package model

import "time"

// User はアプリケーションにログインできる利用者を表す。
// 登録時に作成され、更新・削除は行わない。
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string // bcryptハッシュ
	CreatedAt time.Time
}

// Flash はセッションに積まれ、次に描画されるページで一度だけ表示されるメッセージ。
type Flash struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Session はブラウザとサーバー側状態を結び付けるセッションを表す。
// UserIDがnilのセッションは匿名セッションで、フラッシュメッセージの受け渡しにのみ使う。
type Session struct {
	ID        string
	UserID    *int64
	Flashes   []Flash
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はセッションにユーザーが紐付いているかを返す。
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != nil
}
