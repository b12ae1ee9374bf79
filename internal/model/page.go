// Package model はドメインモデルを定義する。
package model

import "time"

// StatusPage は公開ステータスページを表す。
// subdomainはシステム全体で一意。
type StatusPage struct {
	ID           string
	UserID       string
	Name         string
	Subdomain    string
	CustomDomain string
	Description  string
	LogoURL      string
	PrimaryColor string
	IsPublic     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// コンポーネントの慣例的なステータス値。
// 任意の文字列を受け付けるが、表示系はこの4値を想定している。
const (
	ComponentStatusOperational   = "operational"
	ComponentStatusDegraded      = "degraded"
	ComponentStatusPartialOutage = "partial_outage"
	ComponentStatusMajorOutage   = "major_outage"
)

// Component はステータスページ上の監視対象コンポーネントを表す。
// 表示順はposition昇順、同値の場合はname昇順、作成日時昇順で決定する。
type Component struct {
	ID           string
	StatusPageID string
	Name         string
	Description  string
	Status       string
	Position     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
