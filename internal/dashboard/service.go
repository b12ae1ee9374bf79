// Package dashboard は管理画面トップの集計情報を提供する。
package dashboard

import (
	"context"

	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/repository"
)

// activityLimit はアクティビティに表示する直近インシデントの件数。
const activityLimit = 10

// Stats はユーザーの全ページを横断した集計値。
type Stats struct {
	Pages           int
	Components      int
	ActiveIncidents int
	Subscribers     int
}

// Service はダッシュボード用の集計とアクティビティ取得を提供する。
type Service struct {
	pageRepo       repository.StatusPageRepository
	componentRepo  repository.ComponentRepository
	incidentRepo   repository.IncidentRepository
	subscriberRepo repository.SubscriberRepository
}

// NewService はdashboard.Serviceを生成する。
func NewService(
	pageRepo repository.StatusPageRepository,
	componentRepo repository.ComponentRepository,
	incidentRepo repository.IncidentRepository,
	subscriberRepo repository.SubscriberRepository,
) *Service {
	return &Service{
		pageRepo:       pageRepo,
		componentRepo:  componentRepo,
		incidentRepo:   incidentRepo,
		subscriberRepo: subscriberRepo,
	}
}

// Stats はユーザーの所有リソースの件数を集計して返す。
// インシデントは未解決のものだけを数える。
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	pages, err := s.pageRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	components, err := s.componentRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	activeIncidents, err := s.incidentRepo.CountActiveByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	subscribers, err := s.subscriberRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	return &Stats{
		Pages:           pages,
		Components:      components,
		ActiveIncidents: activeIncidents,
		Subscribers:     subscribers,
	}, nil
}

// Activity はユーザーの全ページを横断した直近のインシデントを
// 作成日時降順で最大10件返す。
func (s *Service) Activity(ctx context.Context, userID string) ([]*model.Incident, error) {
	incidents, err := s.incidentRepo.ListRecentByUserID(ctx, userID, activityLimit)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	return incidents, nil
}
