// Package incident はインシデントのライフサイクル管理機能を提供する。
//
// resolved_atの導出規則:
//   - resolvedへの遷移時、呼び出し側が明示的に指定しない限り現在時刻を設定する
//   - resolved以外への遷移では、明示的に指定されない限り既存の値に触れない
//
// 経過報告（IncidentUpdate）はステータス変更時に自動追記しない。
// タイムラインの管理は呼び出し側の責務とし、追記・一覧の操作を明示的に提供する。
package incident

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/statusdeck/internal/authz"
	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/repository"
	"github.com/hitoshi/statusdeck/internal/security"
)

// CreateInput はインシデント作成の入力。
// InitialMessageが非空の場合、同一トランザクションで初期経過報告を追記する。
type CreateInput struct {
	StatusPageID   string
	Title          string
	Description    string
	Status         string
	Impact         string
	StartedAt      *time.Time
	ResolvedAt     *time.Time
	InitialMessage string
}

// UpdateInput はインシデント更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Impact      *string
	StartedAt   *time.Time
	ResolvedAt  *time.Time
}

// AppendUpdateInput は経過報告追記の入力。
// Statusが空の場合はインシデントの現在のステータスを記録する。
type AppendUpdateInput struct {
	Status  string
	Message string
}

// Service はインシデントと経過報告の管理を提供する。
// すべての操作は親ステータスページの所有チェックを通る。
type Service struct {
	incidentRepo repository.IncidentRepository
	resolver     *authz.Resolver
	sanitizer    security.ContentSanitizerService
	logger       *slog.Logger
	now          func() time.Time
}

// NewService はincident.Serviceを生成する。
func NewService(incidentRepo repository.IncidentRepository, resolver *authz.Resolver, sanitizer security.ContentSanitizerService, logger *slog.Logger) *Service {
	return &Service{
		incidentRepo: incidentRepo,
		resolver:     resolver,
		sanitizer:    sanitizer,
		logger:       logger,
		now:          time.Now,
	}
}

// ListByPage はページのインシデント一覧を作成日時降順で返す。
func (s *Service) ListByPage(ctx context.Context, userID, pageID string) ([]*model.Incident, error) {
	if err := s.resolver.RequireOwner(ctx, authz.KindPage, pageID, userID); err != nil {
		return nil, err
	}
	incidents, err := s.incidentRepo.ListByPageID(ctx, pageID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return incidents, nil
}

// Get はユーザーの所有するインシデントを1件取得する。
func (s *Service) Get(ctx context.Context, userID, incidentID string) (*model.Incident, error) {
	if err := s.resolver.RequireOwner(ctx, authz.KindIncident, incidentID, userID); err != nil {
		return nil, err
	}
	incident, err := s.incidentRepo.FindByID(ctx, incidentID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if incident == nil {
		return nil, model.NewIncidentNotFoundError()
	}
	return incident, nil
}

// Create はインシデントを作成する。
// ステータス未指定時はinvestigating、影響度未指定時はminorとする。
// resolvedで作成された場合はresolved_atを現在時刻（または指定値）に設定する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Incident, error) {
	if input.StatusPageID == "" || input.Title == "" {
		return nil, model.NewInvalidInputError("ステータスページIDとタイトルは必須です")
	}
	if err := s.resolver.RequireOwner(ctx, authz.KindPage, input.StatusPageID, userID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.IncidentStatusInvestigating
	}
	impact := input.Impact
	if impact == "" {
		impact = model.IncidentImpactMinor
	}

	now := s.now()
	startedAt := now
	if input.StartedAt != nil {
		startedAt = *input.StartedAt
	}

	incident := &model.Incident{
		ID:           model.NewID(),
		StatusPageID: input.StatusPageID,
		Title:        input.Title,
		Description:  s.sanitizer.Sanitize(input.Description),
		Status:       status,
		Impact:       impact,
		StartedAt:    startedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if incident.Resolved() {
		resolvedAt := now
		if input.ResolvedAt != nil {
			resolvedAt = *input.ResolvedAt
		}
		incident.ResolvedAt = &resolvedAt
	} else if input.ResolvedAt != nil {
		incident.ResolvedAt = input.ResolvedAt
	}

	var initialUpdate *model.IncidentUpdate
	if input.InitialMessage != "" {
		initialUpdate = &model.IncidentUpdate{
			ID:         model.NewID(),
			IncidentID: incident.ID,
			Status:     incident.Status,
			Message:    s.sanitizer.Sanitize(input.InitialMessage),
			CreatedAt:  now,
		}
	}

	if err := s.incidentRepo.Create(ctx, incident, initialUpdate); err != nil {
		return nil, model.NewInternalError(err)
	}

	s.logger.Info("インシデントを作成しました",
		"incident_id", incident.ID, "page_id", incident.StatusPageID, "impact", incident.Impact)
	return incident, nil
}

// Update はインシデントを更新する。nilのフィールドは変更しない。
// ステータス変更では経過報告を自動追記しない。
func (s *Service) Update(ctx context.Context, userID, incidentID string, input UpdateInput) (*model.Incident, error) {
	incident, err := s.Get(ctx, userID, incidentID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, model.NewInvalidInputError("タイトルは必須です")
		}
		incident.Title = *input.Title
	}
	if input.Description != nil {
		incident.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Impact != nil {
		incident.Impact = *input.Impact
	}
	if input.StartedAt != nil {
		incident.StartedAt = *input.StartedAt
	}

	if input.Status != nil {
		wasResolved := incident.Resolved()
		incident.Status = *input.Status
		if incident.Resolved() && !wasResolved && input.ResolvedAt == nil {
			resolvedAt := s.now()
			incident.ResolvedAt = &resolvedAt
		}
	}
	if input.ResolvedAt != nil {
		incident.ResolvedAt = input.ResolvedAt
	}

	if err := s.incidentRepo.Update(ctx, incident); err != nil {
		return nil, model.NewInternalError(err)
	}

	if incident.Resolved() {
		s.logger.Info("インシデントを解決しました", "incident_id", incident.ID)
	}
	return incident, nil
}

// Delete はインシデントを削除する。経過報告もあわせて削除される。
func (s *Service) Delete(ctx context.Context, userID, incidentID string) error {
	if err := s.resolver.RequireOwner(ctx, authz.KindIncident, incidentID, userID); err != nil {
		return err
	}
	if err := s.incidentRepo.Delete(ctx, incidentID); err != nil {
		return model.NewInternalError(err)
	}
	s.logger.Info("インシデントを削除しました", "incident_id", incidentID)
	return nil
}

// AppendUpdate はインシデントに経過報告を追記する。
func (s *Service) AppendUpdate(ctx context.Context, userID, incidentID string, input AppendUpdateInput) (*model.IncidentUpdate, error) {
	if input.Message == "" {
		return nil, model.NewInvalidInputError("経過報告のメッセージは必須です")
	}

	incident, err := s.Get(ctx, userID, incidentID)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = incident.Status
	}

	update := &model.IncidentUpdate{
		ID:         model.NewID(),
		IncidentID: incident.ID,
		Status:     status,
		Message:    s.sanitizer.Sanitize(input.Message),
		CreatedAt:  s.now(),
	}
	if err := s.incidentRepo.AppendUpdate(ctx, update); err != nil {
		return nil, model.NewInternalError(err)
	}
	return update, nil
}

// ListUpdates はインシデントの経過報告一覧を作成日時降順で返す。
func (s *Service) ListUpdates(ctx context.Context, userID, incidentID string) ([]*model.IncidentUpdate, error) {
	if err := s.resolver.RequireOwner(ctx, authz.KindIncident, incidentID, userID); err != nil {
		return nil, err
	}
	updates, err := s.incidentRepo.ListUpdatesByIncidentID(ctx, incidentID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return updates, nil
}
