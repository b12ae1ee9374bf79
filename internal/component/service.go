// Package component はステータスページ上のコンポーネント管理機能を提供する。
package component

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/statusdeck/internal/authz"
	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/repository"
	"github.com/hitoshi/statusdeck/internal/security"
)

// CreateInput はコンポーネント作成の入力。
type CreateInput struct {
	StatusPageID string
	Name         string
	Description  string
	Status       string
	Position     int
}

// UpdateInput はコンポーネント更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *string
	Position    *int
}

// Service はコンポーネントのCRUDを提供する。
// すべての操作は親ステータスページの所有チェックを通る。
type Service struct {
	componentRepo repository.ComponentRepository
	resolver      *authz.Resolver
	sanitizer     security.ContentSanitizerService
	logger        *slog.Logger
}

// NewService はcomponent.Serviceを生成する。
func NewService(componentRepo repository.ComponentRepository, resolver *authz.Resolver, sanitizer security.ContentSanitizerService, logger *slog.Logger) *Service {
	return &Service{
		componentRepo: componentRepo,
		resolver:      resolver,
		sanitizer:     sanitizer,
		logger:        logger,
	}
}

// ListByPage はページのコンポーネント一覧を表示順で返す。
func (s *Service) ListByPage(ctx context.Context, userID, pageID string) ([]*model.Component, error) {
	if err := s.resolver.RequireOwner(ctx, authz.KindPage, pageID, userID); err != nil {
		return nil, err
	}
	components, err := s.componentRepo.ListByPageID(ctx, pageID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return components, nil
}

// Get はユーザーの所有するコンポーネントを1件取得する。
func (s *Service) Get(ctx context.Context, userID, componentID string) (*model.Component, error) {
	if err := s.resolver.RequireOwner(ctx, authz.KindComponent, componentID, userID); err != nil {
		return nil, err
	}
	c, err := s.componentRepo.FindByID(ctx, componentID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if c == nil {
		return nil, model.NewComponentNotFoundError()
	}
	return c, nil
}

// Create はコンポーネントを作成する。
// ステータスは任意の文字列を受け付け、未指定時はoperationalとする。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Component, error) {
	if input.StatusPageID == "" || input.Name == "" {
		return nil, model.NewInvalidInputError("ステータスページIDとコンポーネント名は必須です")
	}
	if err := s.resolver.RequireOwner(ctx, authz.KindPage, input.StatusPageID, userID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.ComponentStatusOperational
	}

	now := time.Now()
	c := &model.Component{
		ID:           model.NewID(),
		StatusPageID: input.StatusPageID,
		Name:         input.Name,
		Description:  s.sanitizer.Sanitize(input.Description),
		Status:       status,
		Position:     input.Position,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.componentRepo.Create(ctx, c); err != nil {
		return nil, model.NewInternalError(err)
	}

	s.logger.Info("コンポーネントを作成しました", "component_id", c.ID, "page_id", c.StatusPageID)
	return c, nil
}

// Update はコンポーネントを更新する。nilのフィールドは変更しない。
func (s *Service) Update(ctx context.Context, userID, componentID string, input UpdateInput) (*model.Component, error) {
	c, err := s.Get(ctx, userID, componentID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, model.NewInvalidInputError("コンポーネント名は必須です")
		}
		c.Name = *input.Name
	}
	if input.Description != nil {
		c.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Status != nil {
		c.Status = *input.Status
	}
	if input.Position != nil {
		c.Position = *input.Position
	}

	if err := s.componentRepo.Update(ctx, c); err != nil {
		return nil, model.NewInternalError(err)
	}
	return c, nil
}

// Delete はコンポーネントを削除する。
func (s *Service) Delete(ctx context.Context, userID, componentID string) error {
	if err := s.resolver.RequireOwner(ctx, authz.KindComponent, componentID, userID); err != nil {
		return err
	}
	if err := s.componentRepo.Delete(ctx, componentID); err != nil {
		return model.NewInternalError(err)
	}
	s.logger.Info("コンポーネントを削除しました", "component_id", componentID)
	return nil
}
