package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/statusdeck/internal/model"
)

// PostgresComponentRepo はPostgreSQLを使用したコンポーネントリポジトリ。
type PostgresComponentRepo struct {
	db *sql.DB
}

// NewPostgresComponentRepo はPostgresComponentRepoを生成する。
func NewPostgresComponentRepo(db *sql.DB) *PostgresComponentRepo {
	return &PostgresComponentRepo{db: db}
}

// FindByID は指定IDのコンポーネントを取得する。見つからない場合はnilを返す。
func (r *PostgresComponentRepo) FindByID(ctx context.Context, id string) (*model.Component, error) {
	c := &model.Component{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status_page_id, name, description, status, position, created_at, updated_at
		 FROM components WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.StatusPageID, &c.Name, &c.Description, &c.Status, &c.Position, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コンポーネントの取得に失敗しました: %w", err)
	}

	return c, nil
}

// ListByPageID はページのコンポーネント一覧を返す。
// position昇順、name昇順、created_at昇順の確定的な並びで返す。
func (r *PostgresComponentRepo) ListByPageID(ctx context.Context, pageID string) ([]*model.Component, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status_page_id, name, description, status, position, created_at, updated_at
		 FROM components WHERE status_page_id = $1
		 ORDER BY position ASC, name ASC, created_at ASC`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("コンポーネント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var components []*model.Component
	for rows.Next() {
		c := &model.Component{}
		if err := rows.Scan(&c.ID, &c.StatusPageID, &c.Name, &c.Description, &c.Status, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("コンポーネント行の読み取りに失敗しました: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コンポーネント一覧の走査に失敗しました: %w", err)
	}
	return components, nil
}

// CountByUserID はユーザーの全ページ配下のコンポーネント数を返す。
func (r *PostgresComponentRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM components c
		 JOIN status_pages sp ON c.status_page_id = sp.id
		 WHERE sp.user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("コンポーネント数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create はコンポーネントを作成する。
func (r *PostgresComponentRepo) Create(ctx context.Context, c *model.Component) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO components (id, status_page_id, name, description, status, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.StatusPageID, c.Name, c.Description, c.Status, c.Position, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コンポーネントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はコンポーネントを更新し、updated_atを進める。
func (r *PostgresComponentRepo) Update(ctx context.Context, c *model.Component) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE components
		 SET name = $2, description = $3, status = $4, position = $5, updated_at = now()
		 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Status, c.Position,
	)
	if err != nil {
		return fmt.Errorf("コンポーネントの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("コンポーネントが見つかりません: %s", c.ID)
	}
	return nil
}

// Delete は指定IDのコンポーネントを削除する。
func (r *PostgresComponentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM components WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("コンポーネントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("コンポーネントが見つかりません: %s", id)
	}
	return nil
}

// OwnerByID は親ステータスページを経由してコンポーネントの所有者ユーザーIDを返す。
// コンポーネントが存在しない場合は空文字列を返す。
func (r *PostgresComponentRepo) OwnerByID(ctx context.Context, id string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT sp.user_id FROM components c
		 JOIN status_pages sp ON c.status_page_id = sp.id
		 WHERE c.id = $1`,
		id,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("コンポーネントの所有者の取得に失敗しました: %w", err)
	}
	return userID, nil
}

// compile-time interface check
var _ ComponentRepository = (*PostgresComponentRepo)(nil)
