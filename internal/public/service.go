// Package public は認証不要の公開読み取り面を提供する。
// 公開ステータスページの表示と、閲覧者による更新通知の購読を扱う。
package public

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/repository"
)

// recentIncidentWindow は公開ビューに表示するインシデントの遡及期間。
const recentIncidentWindow = 30 * 24 * time.Hour

// Notifier は購読確認メールの送信を担う外部コラボレータ。
// 配信基盤は未接続のため、稼働構成ではNopNotifierを配線する。
type Notifier interface {
	// SendVerification は確認用トークンを含むメールを送信する。
	SendVerification(ctx context.Context, email, token string) error
}

// NopNotifier は何も送信しないNotifier実装。
type NopNotifier struct{}

// SendVerification は何もせずnilを返す。
func (NopNotifier) SendVerification(ctx context.Context, email, token string) error {
	return nil
}

// IncidentView は公開ビュー上のインシデントと経過報告タイムライン。
type IncidentView struct {
	Incident *model.Incident
	Updates  []*model.IncidentUpdate
}

// PageView は公開ステータスページの表示に必要な全データ。
type PageView struct {
	Page       *model.StatusPage
	Components []*model.Component
	Incidents  []*IncidentView
}

// Service は公開ページの組み立てと購読登録を提供する。
type Service struct {
	pageRepo       repository.StatusPageRepository
	componentRepo  repository.ComponentRepository
	incidentRepo   repository.IncidentRepository
	subscriberRepo repository.SubscriberRepository
	notifier       Notifier
	logger         *slog.Logger
	now            func() time.Time
}

// NewService はpublic.Serviceを生成する。
func NewService(
	pageRepo repository.StatusPageRepository,
	componentRepo repository.ComponentRepository,
	incidentRepo repository.IncidentRepository,
	subscriberRepo repository.SubscriberRepository,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		pageRepo:       pageRepo,
		componentRepo:  componentRepo,
		incidentRepo:   incidentRepo,
		subscriberRepo: subscriberRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// RenderPublicPage はサブドメインから公開ページの表示データを組み立てる。
// 非公開ページは存在しないページと区別せず未検出として扱う。
// コンポーネントは表示順、インシデントは直近30日分を作成日時降順で、
// それぞれの経過報告タイムラインも作成日時降順で返す。
func (s *Service) RenderPublicPage(ctx context.Context, subdomain string) (*PageView, error) {
	page, err := s.pageRepo.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if page == nil || !page.IsPublic {
		return nil, model.NewPageNotFoundError()
	}

	components, err := s.componentRepo.ListByPageID(ctx, page.ID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	since := s.now().Add(-recentIncidentWindow)
	incidents, err := s.incidentRepo.ListRecentByPageID(ctx, page.ID, since)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	incidentIDs := make([]string, 0, len(incidents))
	for _, incident := range incidents {
		incidentIDs = append(incidentIDs, incident.ID)
	}
	updatesByIncident, err := s.incidentRepo.ListUpdatesByIncidentIDs(ctx, incidentIDs)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	views := make([]*IncidentView, 0, len(incidents))
	for _, incident := range incidents {
		views = append(views, &IncidentView{
			Incident: incident,
			Updates:  updatesByIncident[incident.ID],
		})
	}

	return &PageView{
		Page:       page,
		Components: components,
		Incidents:  views,
	}, nil
}

// Subscribe はページの更新通知の購読を登録する。
// 非公開・不在のページへの購読は未検出として扱う。
// 確認メールの配信基盤は未接続のため、登録と同時に検証済みへ昇格させる。
// Notifierの失敗は購読の成立を妨げない。
func (s *Service) Subscribe(ctx context.Context, pageID, email string) (*model.Subscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewInvalidInputError("有効なメールアドレスを入力してください")
	}

	page, err := s.pageRepo.FindByID(ctx, pageID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if page == nil || !page.IsPublic {
		return nil, model.NewPageNotFoundError()
	}

	existing, err := s.subscriberRepo.FindByPageAndEmail(ctx, page.ID, email)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if existing != nil {
		return nil, model.NewAlreadySubscribedError()
	}

	token := model.NewID()
	sub := &model.Subscriber{
		ID:                model.NewID(),
		StatusPageID:      page.ID,
		Email:             email,
		Verified:          false,
		VerificationToken: &token,
		CreatedAt:         s.now(),
	}
	if err := s.subscriberRepo.Create(ctx, sub); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, model.NewAlreadySubscribedError()
		}
		return nil, model.NewInternalError(err)
	}

	if err := s.notifier.SendVerification(ctx, email, token); err != nil {
		s.logger.Warn("購読確認メールの送信に失敗しました", "subscriber_id", sub.ID, "error", err)
	}

	if err := s.subscriberRepo.MarkVerified(ctx, sub.ID); err != nil {
		return nil, model.NewInternalError(err)
	}
	sub.Verified = true
	sub.VerificationToken = nil

	s.logger.Info("購読を登録しました", "subscriber_id", sub.ID, "page_id", page.ID)
	return sub, nil
}

// ConfirmSubscription は確認用トークンから購読を検証済みにする。
// 配信基盤を接続した場合の帯域外確認パス。トークンは一度きりで無効化される。
func (s *Service) ConfirmSubscription(ctx context.Context, token string) error {
	if token == "" {
		return model.NewInvalidInputError("確認用トークンは必須です")
	}

	sub, err := s.subscriberRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		return model.NewInternalError(err)
	}
	if sub == nil {
		return model.NewSubscriberNotFoundError()
	}

	if err := s.subscriberRepo.MarkVerified(ctx, sub.ID); err != nil {
		return model.NewInternalError(err)
	}
	s.logger.Info("購読を確認しました", "subscriber_id", sub.ID)
	return nil
}
