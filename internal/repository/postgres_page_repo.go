package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/statusdeck/internal/model"
)

// pageColumns はstatus_pagesテーブルのSELECT対象カラム。
const pageColumns = `id, user_id, name, subdomain, custom_domain, description, logo_url, primary_color, is_public, created_at, updated_at`

// PostgresStatusPageRepo はPostgreSQLを使用したステータスページリポジトリ。
type PostgresStatusPageRepo struct {
	db *sql.DB
}

// NewPostgresStatusPageRepo はPostgresStatusPageRepoを生成する。
func NewPostgresStatusPageRepo(db *sql.DB) *PostgresStatusPageRepo {
	return &PostgresStatusPageRepo{db: db}
}

func scanPage(row *sql.Row) (*model.StatusPage, error) {
	page := &model.StatusPage{}
	err := row.Scan(&page.ID, &page.UserID, &page.Name, &page.Subdomain, &page.CustomDomain,
		&page.Description, &page.LogoURL, &page.PrimaryColor, &page.IsPublic, &page.CreatedAt, &page.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// FindByID は指定IDのステータスページを取得する。見つからない場合はnilを返す。
func (r *PostgresStatusPageRepo) FindByID(ctx context.Context, id string) (*model.StatusPage, error) {
	page, err := scanPage(r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM status_pages WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("ステータスページの取得に失敗しました: %w", err)
	}
	return page, nil
}

// FindBySubdomain はサブドメインでステータスページを検索する。見つからない場合はnilを返す。
func (r *PostgresStatusPageRepo) FindBySubdomain(ctx context.Context, subdomain string) (*model.StatusPage, error) {
	page, err := scanPage(r.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM status_pages WHERE subdomain = $1`,
		subdomain,
	))
	if err != nil {
		return nil, fmt.Errorf("サブドメインによるステータスページの検索に失敗しました: %w", err)
	}
	return page, nil
}

// ListByUserID はユーザーの所有するステータスページ一覧を作成日時降順で返す。
func (r *PostgresStatusPageRepo) ListByUserID(ctx context.Context, userID string) ([]*model.StatusPage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM status_pages WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ステータスページ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var pages []*model.StatusPage
	for rows.Next() {
		page := &model.StatusPage{}
		if err := rows.Scan(&page.ID, &page.UserID, &page.Name, &page.Subdomain, &page.CustomDomain,
			&page.Description, &page.LogoURL, &page.PrimaryColor, &page.IsPublic, &page.CreatedAt, &page.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ステータスページ行の読み取りに失敗しました: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ステータスページ一覧の走査に失敗しました: %w", err)
	}
	return pages, nil
}

// CountByUserID はユーザーの所有するステータスページ数を返す。
func (r *PostgresStatusPageRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM status_pages WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ステータスページ数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// CreateWithComponents はステータスページと初期コンポーネント群を
// 同一トランザクションで作成する。
func (r *PostgresStatusPageRepo) CreateWithComponents(ctx context.Context, page *model.StatusPage, components []*model.Component) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO status_pages (id, user_id, name, subdomain, custom_domain, description, logo_url, primary_color, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		page.ID, page.UserID, page.Name, page.Subdomain, page.CustomDomain, page.Description, page.LogoURL, page.PrimaryColor, page.IsPublic, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ステータスページの作成に失敗しました: %w", err)
	}

	for _, c := range components {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO components (id, status_page_id, name, description, status, position, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.StatusPageID, c.Name, c.Description, c.Status, c.Position, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("初期コンポーネントの作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// Update はステータスページを更新し、updated_atを進める。
func (r *PostgresStatusPageRepo) Update(ctx context.Context, page *model.StatusPage) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE status_pages
		 SET name = $2, subdomain = $3, custom_domain = $4, description = $5,
		     logo_url = $6, primary_color = $7, is_public = $8, updated_at = now()
		 WHERE id = $1`,
		page.ID, page.Name, page.Subdomain, page.CustomDomain, page.Description,
		page.LogoURL, page.PrimaryColor, page.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("ステータスページの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ステータスページが見つかりません: %s", page.ID)
	}
	return nil
}

// Delete は指定IDのステータスページを削除する。
func (r *PostgresStatusPageRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM status_pages WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ステータスページの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ステータスページが見つかりません: %s", id)
	}
	return nil
}

// OwnerByID は指定ステータスページの所有者ユーザーIDを返す。
// ページが存在しない場合は空文字列を返す。
func (r *PostgresStatusPageRepo) OwnerByID(ctx context.Context, id string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM status_pages WHERE id = $1`,
		id,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ステータスページの所有者の取得に失敗しました: %w", err)
	}
	return userID, nil
}

// compile-time interface check
var _ StatusPageRepository = (*PostgresStatusPageRepo)(nil)
