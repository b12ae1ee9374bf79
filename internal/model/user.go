// Package model はドメインモデルを定義する。
package model

import "time"

// Plan はユーザーの契約プランを表す。
type Plan string

const (
	// PlanFree は無料プラン。ステータスページは1件まで。
	PlanFree Plan = "free"
	// PlanPro は有料プラン。ステータスページ数に制限はない。
	PlanPro Plan = "pro"
)

// User はサービス利用ユーザーを表す。
// 1ユーザーが複数のステータスページを所有するテナントの最上位。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Company      string
	Plan         Plan
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はトークン発行時に記録されるサーバー側のセッションレコードを表す。
// 認可の根拠は署名付きトークン自体であり、セッション行は失効管理の帳簿。
// 期限切れ行はログイン時にまとめて削除される。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Principal は検証済みトークンから取り出した認証済みアイデンティティを表す。
type Principal struct {
	UserID string
	Email  string
}
