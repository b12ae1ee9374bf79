package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/statusdeck/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, company, plan, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Company, &user.Plan, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, company, plan, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Company, &user.Plan, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるユーザーの検索に失敗しました: %w", err)
	}

	return user, nil
}

// CreateWithDefaultPage はユーザー、初期ステータスページ、初期コンポーネント群を
// 同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithDefaultPage(ctx context.Context, user *model.User, page *model.StatusPage, components []*model.Component) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// ユーザーを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, company, plan, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Company, user.Plan, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	// 初期ステータスページを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO status_pages (id, user_id, name, subdomain, custom_domain, description, logo_url, primary_color, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		page.ID, page.UserID, page.Name, page.Subdomain, page.CustomDomain, page.Description, page.LogoURL, page.PrimaryColor, page.IsPublic, page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("初期ステータスページの作成に失敗しました: %w", err)
	}

	// 初期コンポーネントを作成
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

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
