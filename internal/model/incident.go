// Package model はドメインモデルを定義する。
package model

import "time"

// インシデントの慣例的なステータス値。
// investigating → identified → monitoring → resolved、
// または investigating → resolved の直行パスを想定するが、
// 任意の文字列遷移を禁止はしない。
const (
	IncidentStatusInvestigating = "investigating"
	IncidentStatusIdentified    = "identified"
	IncidentStatusMonitoring    = "monitoring"
	IncidentStatusResolved      = "resolved"
)

// インシデントの慣例的な影響度。
const (
	IncidentImpactMinor    = "minor"
	IncidentImpactMajor    = "major"
	IncidentImpactCritical = "critical"
)

// Incident はステータスページ上の障害報告を表す。
// ResolvedAtはstatusがresolvedの場合にのみ設定される。
type Incident struct {
	ID           string
	StatusPageID string
	Title        string
	Description  string
	Status       string
	Impact       string
	StartedAt    time.Time
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IncidentUpdate はインシデントの経過報告を表す。
// 追記専用のタイムラインエントリで、親インシデントと独立に変更・削除されない。
type IncidentUpdate struct {
	ID         string
	IncidentID string
	Status     string
	Message    string
	CreatedAt  time.Time
}

// Resolved はインシデントが解決済みかどうかを返す。
func (i *Incident) Resolved() bool {
	return i.Status == IncidentStatusResolved
}
