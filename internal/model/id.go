// Package model はドメインモデルを定義する。
package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewID は新しいエンティティIDを生成する。
// UUID v4からダッシュを除いた32文字の不透明なトークンで、
// 全テーブルの主キーに共通して使用する。
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
