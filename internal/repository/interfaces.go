// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/statusdeck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// メールアドレスは大文字小文字を区別するキーとして扱う。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithDefaultPage はユーザー、初期ステータスページ、初期コンポーネント群を
	// 同一トランザクションで作成する。途中で失敗した場合は全体がロールバックされる。
	CreateWithDefaultPage(ctx context.Context, user *model.User, page *model.StatusPage, components []*model.Component) error
}

// SessionRepository はセッションレコードの永続化インターフェース。
// セッション行は失効管理の帳簿であり、トークン検証の条件ではない。
type SessionRepository interface {
	// Create はセッションレコードを作成する。
	Create(ctx context.Context, session *model.Session) error
	// DeleteExpired は期限切れの全セッションレコードを削除し、削除件数を返す。
	// ログイン時の遅延ガベージコレクションとして呼ばれる。
	DeleteExpired(ctx context.Context) (int64, error)
}

// StatusPageRepository はステータスページデータの永続化インターフェース。
type StatusPageRepository interface {
	// FindByID は指定IDのステータスページを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.StatusPage, error)

	// FindBySubdomain はサブドメインでステータスページを検索する。見つからない場合はnilを返す。
	FindBySubdomain(ctx context.Context, subdomain string) (*model.StatusPage, error)

	// ListByUserID はユーザーの所有するステータスページ一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.StatusPage, error)

	// CountByUserID はユーザーの所有するステータスページ数を返す。プラン上限の判定に使う。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// CreateWithComponents はステータスページと初期コンポーネント群を
	// 同一トランザクションで作成する。componentsは空でもよい。
	CreateWithComponents(ctx context.Context, page *model.StatusPage, components []*model.Component) error

	// Update はステータスページを更新し、updated_atを進める。
	Update(ctx context.Context, page *model.StatusPage) error

	// Delete は指定IDのステータスページを削除する。
	// 配下のコンポーネント・インシデント・購読者はCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// OwnerByID は指定ステータスページの所有者ユーザーIDを返す。
	// ページが存在しない場合は空文字列を返す。
	OwnerByID(ctx context.Context, id string) (string, error)
}

// ComponentRepository はコンポーネントデータの永続化インターフェース。
type ComponentRepository interface {
	// FindByID は指定IDのコンポーネントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Component, error)

	// ListByPageID はページのコンポーネント一覧を返す。
	// 表示順はposition昇順、name昇順、created_at昇順で確定的に並べる。
	ListByPageID(ctx context.Context, pageID string) ([]*model.Component, error)

	// CountByUserID はユーザーの全ページ配下のコンポーネント数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// Create はコンポーネントを作成する。
	Create(ctx context.Context, component *model.Component) error

	// Update はコンポーネントを更新し、updated_atを進める。
	Update(ctx context.Context, component *model.Component) error

	// Delete は指定IDのコンポーネントを削除する。
	Delete(ctx context.Context, id string) error

	// OwnerByID は親ステータスページを経由してコンポーネントの所有者ユーザーIDを返す。
	// コンポーネントが存在しない場合は空文字列を返す。
	OwnerByID(ctx context.Context, id string) (string, error)
}

// IncidentRepository はインシデントと更新履歴の永続化インターフェース。
// IncidentUpdateはインシデント集約の一部としてここで扱う。
type IncidentRepository interface {
	// FindByID は指定IDのインシデントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Incident, error)

	// ListByPageID はページのインシデント一覧を作成日時降順で返す。
	ListByPageID(ctx context.Context, pageID string) ([]*model.Incident, error)

	// ListRecentByPageID は指定日時以降に作成されたページのインシデントを
	// 作成日時降順で返す。公開ビューの30日窓で使用する。
	ListRecentByPageID(ctx context.Context, pageID string, since time.Time) ([]*model.Incident, error)

	// ListRecentByUserID はユーザーの全ページ配下のインシデントを
	// 作成日時降順で最大limit件返す。ダッシュボードのアクティビティで使用する。
	ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*model.Incident, error)

	// CountActiveByUserID はユーザーの全ページ配下の未解決インシデント数を返す。
	CountActiveByUserID(ctx context.Context, userID string) (int, error)

	// Create はインシデントを作成する。initialUpdateが非nilの場合は
	// 同一トランザクションで初期更新履歴も追加する。
	Create(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error

	// Update はインシデントを更新し、updated_atを進める。
	// ResolvedAtは渡された値をそのまま永続化する（導出はサービス層の責務）。
	Update(ctx context.Context, incident *model.Incident) error

	// Delete は指定IDのインシデントを削除する。更新履歴はCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// AppendUpdate はインシデントに更新履歴を追記する。
	AppendUpdate(ctx context.Context, update *model.IncidentUpdate) error

	// ListUpdatesByIncidentID はインシデントの更新履歴を作成日時降順で返す。
	ListUpdatesByIncidentID(ctx context.Context, incidentID string) ([]*model.IncidentUpdate, error)

	// ListUpdatesByIncidentIDs は複数インシデントの更新履歴をまとめて取得し、
	// インシデントIDをキーにしたマップで返す。各リストは作成日時降順。
	ListUpdatesByIncidentIDs(ctx context.Context, incidentIDs []string) (map[string][]*model.IncidentUpdate, error)

	// OwnerByID は親ステータスページを経由してインシデントの所有者ユーザーIDを返す。
	// インシデントが存在しない場合は空文字列を返す。
	OwnerByID(ctx context.Context, id string) (string, error)
}

// SubscriberRepository は購読者データの永続化インターフェース。
type SubscriberRepository interface {
	// FindByPageAndEmail はページIDとメールアドレスで購読者を検索する。見つからない場合はnilを返す。
	FindByPageAndEmail(ctx context.Context, pageID, email string) (*model.Subscriber, error)

	// FindByVerificationToken は検証トークンで購読者を検索する。見つからない場合はnilを返す。
	FindByVerificationToken(ctx context.Context, token string) (*model.Subscriber, error)

	// CountByUserID はユーザーの全ページ配下の購読者数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// Create は購読者を作成する。
	Create(ctx context.Context, subscriber *model.Subscriber) error

	// MarkVerified は購読者を検証済みにし、検証トークンをNULLにする。
	MarkVerified(ctx context.Context, id string) error
}
