package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/statusdeck/internal/model"
)

// PostgresSubscriberRepo はPostgreSQLを使用した購読者リポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

// FindByPageAndEmail はページIDとメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByPageAndEmail(ctx context.Context, pageID, email string) (*model.Subscriber, error) {
	sub := &model.Subscriber{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status_page_id, email, verified, verification_token, created_at
		 FROM subscribers WHERE status_page_id = $1 AND email = $2`,
		pageID, email,
	).Scan(&sub.ID, &sub.StatusPageID, &sub.Email, &sub.Verified, &sub.VerificationToken, &sub.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}

	return sub, nil
}

// FindByVerificationToken は検証トークンで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresSubscriberRepo) FindByVerificationToken(ctx context.Context, token string) (*model.Subscriber, error) {
	sub := &model.Subscriber{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status_page_id, email, verified, verification_token, created_at
		 FROM subscribers WHERE verification_token = $1`,
		token,
	).Scan(&sub.ID, &sub.StatusPageID, &sub.Email, &sub.Verified, &sub.VerificationToken, &sub.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("検証トークンによる購読者の検索に失敗しました: %w", err)
	}

	return sub, nil
}

// CountByUserID はユーザーの全ページ配下の購読者数を返す。
func (r *PostgresSubscriberRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers s
		 JOIN status_pages sp ON s.status_page_id = sp.id
		 WHERE sp.user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("購読者数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create は購読者を作成する。
func (r *PostgresSubscriberRepo) Create(ctx context.Context, sub *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, status_page_id, email, verified, verification_token, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.StatusPageID, sub.Email, sub.Verified, sub.VerificationToken, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}
	return nil
}

// MarkVerified は購読者を検証済みにし、検証トークンをNULLにする。
func (r *PostgresSubscriberRepo) MarkVerified(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET verified = true, verification_token = NULL WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("購読者の検証状態の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("購読者が見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
