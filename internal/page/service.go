// Package page はステータスページの管理機能を提供する。
package page

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/statusdeck/internal/authz"
	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/repository"
	"github.com/hitoshi/statusdeck/internal/security"
)

// freePlanPageLimit は無料プランで所有できるステータスページ数の上限。
const freePlanPageLimit = 1

// defaultPrimaryColor は未指定時のブランドカラー。
const defaultPrimaryColor = "#3B82F6"

// CreateInput はステータスページ作成の入力。
type CreateInput struct {
	Name         string
	Subdomain    string
	Description  string
	LogoURL      string
	PrimaryColor string
	IsPublic     *bool
}

// UpdateInput はステータスページ更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name         *string
	Subdomain    *string
	Description  *string
	LogoURL      *string
	PrimaryColor *string
	IsPublic     *bool
}

// Service はステータスページのCRUDとプラン上限の判定を提供する。
type Service struct {
	pageRepo  repository.StatusPageRepository
	userRepo  repository.UserRepository
	resolver  *authz.Resolver
	sanitizer security.ContentSanitizerService
	logger    *slog.Logger
}

// NewService はpage.Serviceを生成する。
func NewService(pageRepo repository.StatusPageRepository, userRepo repository.UserRepository, resolver *authz.Resolver, sanitizer security.ContentSanitizerService, logger *slog.Logger) *Service {
	return &Service{
		pageRepo:  pageRepo,
		userRepo:  userRepo,
		resolver:  resolver,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// List はユーザーの所有するステータスページ一覧を作成日時降順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.StatusPage, error) {
	pages, err := s.pageRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return pages, nil
}

// Get はユーザーの所有するステータスページを1件取得する。
func (s *Service) Get(ctx context.Context, userID, pageID string) (*model.StatusPage, error) {
	if err := s.resolver.RequireOwner(ctx, authz.KindPage, pageID, userID); err != nil {
		return nil, err
	}
	page, err := s.pageRepo.FindByID(ctx, pageID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if page == nil {
		return nil, model.NewPageNotFoundError()
	}
	return page, nil
}

// Create はステータスページを作成する。
// プラン上限はここでのみ判定する。無料プランは1件まで。
// サブドメインの重複は所有者にかかわらず衝突として扱う。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.StatusPage, error) {
	if input.Name == "" || input.Subdomain == "" {
		return nil, model.NewInvalidInputError("ページ名とサブドメインは必須です")
	}
	subdomain := normalizeSubdomain(input.Subdomain)
	if subdomain == "" {
		return nil, model.NewInvalidInputError("サブドメインには英数字とハイフンを使用してください")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}

	if user.Plan == model.PlanFree {
		count, err := s.pageRepo.CountByUserID(ctx, userID)
		if err != nil {
			return nil, model.NewInternalError(err)
		}
		if count >= freePlanPageLimit {
			return nil, model.NewPlanLimitError()
		}
	}

	existing, err := s.pageRepo.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if existing != nil {
		return nil, model.NewSubdomainTakenError(subdomain)
	}

	primaryColor := input.PrimaryColor
	if primaryColor == "" {
		primaryColor = defaultPrimaryColor
	}
	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	now := time.Now()
	page := &model.StatusPage{
		ID:           model.NewID(),
		UserID:       userID,
		Name:         input.Name,
		Subdomain:    subdomain,
		Description:  s.sanitizer.Sanitize(input.Description),
		LogoURL:      input.LogoURL,
		PrimaryColor: primaryColor,
		IsPublic:     isPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.pageRepo.CreateWithComponents(ctx, page, nil); err != nil {
		// 事前チェックの後に同じサブドメインで作成された場合
		if repository.IsUniqueViolation(err) {
			return nil, model.NewSubdomainTakenError(subdomain)
		}
		return nil, model.NewInternalError(err)
	}

	s.logger.Info("ステータスページを作成しました", "page_id", page.ID, "subdomain", page.Subdomain)
	return page, nil
}

// Update はステータスページを更新する。nilのフィールドは変更しない。
func (s *Service) Update(ctx context.Context, userID, pageID string, input UpdateInput) (*model.StatusPage, error) {
	page, err := s.Get(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, model.NewInvalidInputError("ページ名は必須です")
		}
		page.Name = *input.Name
	}
	if input.Subdomain != nil {
		subdomain := normalizeSubdomain(*input.Subdomain)
		if subdomain == "" {
			return nil, model.NewInvalidInputError("サブドメインには英数字とハイフンを使用してください")
		}
		if subdomain != page.Subdomain {
			existing, err := s.pageRepo.FindBySubdomain(ctx, subdomain)
			if err != nil {
				return nil, model.NewInternalError(err)
			}
			if existing != nil {
				return nil, model.NewSubdomainTakenError(subdomain)
			}
			page.Subdomain = subdomain
		}
	}
	if input.Description != nil {
		page.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.LogoURL != nil {
		page.LogoURL = *input.LogoURL
	}
	if input.PrimaryColor != nil {
		page.PrimaryColor = *input.PrimaryColor
	}
	if input.IsPublic != nil {
		page.IsPublic = *input.IsPublic
	}

	if err := s.pageRepo.Update(ctx, page); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewSubdomainTakenError(page.Subdomain)
		}
		return nil, model.NewInternalError(err)
	}
	return page, nil
}

// Delete はステータスページを削除する。
// 配下のコンポーネント・インシデント・購読者もあわせて削除される。
func (s *Service) Delete(ctx context.Context, userID, pageID string) error {
	if err := s.resolver.RequireOwner(ctx, authz.KindPage, pageID, userID); err != nil {
		return err
	}
	if err := s.pageRepo.Delete(ctx, pageID); err != nil {
		return model.NewInternalError(err)
	}
	s.logger.Info("ステータスページを削除しました", "page_id", pageID)
	return nil
}

// normalizeSubdomain はサブドメインを小文字化し、英数字とハイフン以外を除去する。
func normalizeSubdomain(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
