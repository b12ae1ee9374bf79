// Package model はドメインモデルを定義する。
package model

import "time"

// Subscriber はステータスページの更新通知の購読者を表す。
// emailはページごとに一意。検証完了後はVerificationTokenをNULLにする。
type Subscriber struct {
	ID                string
	StatusPageID      string
	Email             string
	Verified          bool
	VerificationToken *string
	CreatedAt         time.Time
}
