package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/lib/pq"
)

// incidentColumns はincidentsテーブルのSELECT対象カラム。
const incidentColumns = `id, status_page_id, title, description, status, impact, started_at, resolved_at, created_at, updated_at`

// PostgresIncidentRepo はPostgreSQLを使用したインシデントリポジトリ。
// インシデント本体と追記専用の更新履歴の両方を扱う。
type PostgresIncidentRepo struct {
	db *sql.DB
}

// NewPostgresIncidentRepo はPostgresIncidentRepoを生成する。
func NewPostgresIncidentRepo(db *sql.DB) *PostgresIncidentRepo {
	return &PostgresIncidentRepo{db: db}
}

func scanIncident(scan func(dest ...any) error) (*model.Incident, error) {
	i := &model.Incident{}
	err := scan(&i.ID, &i.StatusPageID, &i.Title, &i.Description, &i.Status, &i.Impact,
		&i.StartedAt, &i.ResolvedAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// FindByID は指定IDのインシデントを取得する。見つからない場合はnilを返す。
func (r *PostgresIncidentRepo) FindByID(ctx context.Context, id string) (*model.Incident, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1`,
		id,
	)
	incident, err := scanIncident(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("インシデントの取得に失敗しました: %w", err)
	}
	return incident, nil
}

func (r *PostgresIncidentRepo) queryIncidents(ctx context.Context, query string, args ...any) ([]*model.Incident, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("インシデント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var incidents []*model.Incident
	for rows.Next() {
		incident, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("インシデント行の読み取りに失敗しました: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("インシデント一覧の走査に失敗しました: %w", err)
	}
	return incidents, nil
}

// ListByPageID はページのインシデント一覧を作成日時降順で返す。
func (r *PostgresIncidentRepo) ListByPageID(ctx context.Context, pageID string) ([]*model.Incident, error) {
	return r.queryIncidents(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE status_page_id = $1 ORDER BY created_at DESC`,
		pageID,
	)
}

// ListRecentByPageID は指定日時以降に作成されたページのインシデントを作成日時降順で返す。
func (r *PostgresIncidentRepo) ListRecentByPageID(ctx context.Context, pageID string, since time.Time) ([]*model.Incident, error) {
	return r.queryIncidents(ctx,
		`SELECT `+incidentColumns+` FROM incidents
		 WHERE status_page_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC`,
		pageID, since,
	)
}

// ListRecentByUserID はユーザーの全ページ配下のインシデントを作成日時降順で最大limit件返す。
func (r *PostgresIncidentRepo) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*model.Incident, error) {
	return r.queryIncidents(ctx,
		`SELECT i.id, i.status_page_id, i.title, i.description, i.status, i.impact, i.started_at, i.resolved_at, i.created_at, i.updated_at
		 FROM incidents i
		 JOIN status_pages sp ON i.status_page_id = sp.id
		 WHERE sp.user_id = $1
		 ORDER BY i.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
}

// CountActiveByUserID はユーザーの全ページ配下の未解決インシデント数を返す。
func (r *PostgresIncidentRepo) CountActiveByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents i
		 JOIN status_pages sp ON i.status_page_id = sp.id
		 WHERE sp.user_id = $1 AND i.status != $2`,
		userID, model.IncidentStatusResolved,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("未解決インシデント数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create はインシデントを作成する。initialUpdateが非nilの場合は
// 同一トランザクションで初期更新履歴も追加する。
func (r *PostgresIncidentRepo) Create(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO incidents (id, status_page_id, title, description, status, impact, started_at, resolved_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		incident.ID, incident.StatusPageID, incident.Title, incident.Description, incident.Status,
		incident.Impact, incident.StartedAt, incident.ResolvedAt, incident.CreatedAt, incident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("インシデントの作成に失敗しました: %w", err)
	}

	if initialUpdate != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO incident_updates (id, incident_id, status, message, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			initialUpdate.ID, initialUpdate.IncidentID, initialUpdate.Status, initialUpdate.Message, initialUpdate.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("初期更新履歴の追加に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// Update はインシデントを更新し、updated_atを進める。
func (r *PostgresIncidentRepo) Update(ctx context.Context, incident *model.Incident) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE incidents
		 SET title = $2, description = $3, status = $4, impact = $5,
		     started_at = $6, resolved_at = $7, updated_at = now()
		 WHERE id = $1`,
		incident.ID, incident.Title, incident.Description, incident.Status, incident.Impact,
		incident.StartedAt, incident.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("インシデントの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("インシデントが見つかりません: %s", incident.ID)
	}
	return nil
}

// Delete は指定IDのインシデントを削除する。更新履歴はCASCADE削除される。
func (r *PostgresIncidentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM incidents WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("インシデントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("インシデントが見つかりません: %s", id)
	}
	return nil
}

// AppendUpdate はインシデントに更新履歴を追記する。
func (r *PostgresIncidentRepo) AppendUpdate(ctx context.Context, update *model.IncidentUpdate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incident_updates (id, incident_id, status, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		update.ID, update.IncidentID, update.Status, update.Message, update.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新履歴の追記に失敗しました: %w", err)
	}
	return nil
}

// ListUpdatesByIncidentID はインシデントの更新履歴を作成日時降順で返す。
func (r *PostgresIncidentRepo) ListUpdatesByIncidentID(ctx context.Context, incidentID string) ([]*model.IncidentUpdate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, incident_id, status, message, created_at
		 FROM incident_updates WHERE incident_id = $1
		 ORDER BY created_at DESC`,
		incidentID,
	)
	if err != nil {
		return nil, fmt.Errorf("更新履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var updates []*model.IncidentUpdate
	for rows.Next() {
		u := &model.IncidentUpdate{}
		if err := rows.Scan(&u.ID, &u.IncidentID, &u.Status, &u.Message, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("更新履歴行の読み取りに失敗しました: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("更新履歴の走査に失敗しました: %w", err)
	}
	return updates, nil
}

// ListUpdatesByIncidentIDs は複数インシデントの更新履歴をまとめて取得し、
// インシデントIDをキーにしたマップで返す。各リストは作成日時降順。
func (r *PostgresIncidentRepo) ListUpdatesByIncidentIDs(ctx context.Context, incidentIDs []string) (map[string][]*model.IncidentUpdate, error) {
	result := make(map[string][]*model.IncidentUpdate)
	if len(incidentIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, incident_id, status, message, created_at
		 FROM incident_updates WHERE incident_id = ANY($1)
		 ORDER BY created_at DESC`,
		pq.Array(incidentIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("更新履歴の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u := &model.IncidentUpdate{}
		if err := rows.Scan(&u.ID, &u.IncidentID, &u.Status, &u.Message, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("更新履歴行の読み取りに失敗しました: %w", err)
		}
		result[u.IncidentID] = append(result[u.IncidentID], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("更新履歴の一括走査に失敗しました: %w", err)
	}
	return result, nil
}

// OwnerByID は親ステータスページを経由してインシデントの所有者ユーザーIDを返す。
// インシデントが存在しない場合は空文字列を返す。
func (r *PostgresIncidentRepo) OwnerByID(ctx context.Context, id string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT sp.user_id FROM incidents i
		 JOIN status_pages sp ON i.status_page_id = sp.id
		 WHERE i.id = $1`,
		id,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("インシデントの所有者の取得に失敗しました: %w", err)
	}
	return userID, nil
}

// compile-time interface check
var _ IncidentRepository = (*PostgresIncidentRepo)(nil)
