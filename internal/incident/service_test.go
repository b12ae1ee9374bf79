package incident

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/statusdeck/internal/authz"
	"github.com/hitoshi/statusdeck/internal/model"
)

type mockIncidentRepo struct {
	findByIDFunc                func(ctx context.Context, id string) (*model.Incident, error)
	listByPageIDFunc            func(ctx context.Context, pageID string) ([]*model.Incident, error)
	listRecentByPageIDFunc      func(ctx context.Context, pageID string, since time.Time) ([]*model.Incident, error)
	listRecentByUserIDFunc      func(ctx context.Context, userID string, limit int) ([]*model.Incident, error)
	countActiveByUserIDFunc     func(ctx context.Context, userID string) (int, error)
	createFunc                  func(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error
	updateFunc                  func(ctx context.Context, incident *model.Incident) error
	deleteFunc                  func(ctx context.Context, id string) error
	appendUpdateFunc            func(ctx context.Context, update *model.IncidentUpdate) error
	listUpdatesByIncidentIDFunc func(ctx context.Context, incidentID string) ([]*model.IncidentUpdate, error)
	listUpdatesByIncidentIDsFunc func(ctx context.Context, incidentIDs []string) (map[string][]*model.IncidentUpdate, error)
	ownerByIDFunc               func(ctx context.Context, id string) (string, error)
}

func (m *mockIncidentRepo) FindByID(ctx context.Context, id string) (*model.Incident, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockIncidentRepo) ListByPageID(ctx context.Context, pageID string) ([]*model.Incident, error) {
	return m.listByPageIDFunc(ctx, pageID)
}

func (m *mockIncidentRepo) ListRecentByPageID(ctx context.Context, pageID string, since time.Time) ([]*model.Incident, error) {
	return m.listRecentByPageIDFunc(ctx, pageID, since)
}

func (m *mockIncidentRepo) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*model.Incident, error) {
	return m.listRecentByUserIDFunc(ctx, userID, limit)
}

func (m *mockIncidentRepo) CountActiveByUserID(ctx context.Context, userID string) (int, error) {
	return m.countActiveByUserIDFunc(ctx, userID)
}

func (m *mockIncidentRepo) Create(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error {
	return m.createFunc(ctx, incident, initialUpdate)
}

func (m *mockIncidentRepo) Update(ctx context.Context, incident *model.Incident) error {
	return m.updateFunc(ctx, incident)
}

func (m *mockIncidentRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockIncidentRepo) AppendUpdate(ctx context.Context, update *model.IncidentUpdate) error {
	return m.appendUpdateFunc(ctx, update)
}

func (m *mockIncidentRepo) ListUpdatesByIncidentID(ctx context.Context, incidentID string) ([]*model.IncidentUpdate, error) {
	return m.listUpdatesByIncidentIDFunc(ctx, incidentID)
}

func (m *mockIncidentRepo) ListUpdatesByIncidentIDs(ctx context.Context, incidentIDs []string) (map[string][]*model.IncidentUpdate, error) {
	return m.listUpdatesByIncidentIDsFunc(ctx, incidentIDs)
}

func (m *mockIncidentRepo) OwnerByID(ctx context.Context, id string) (string, error) {
	return m.ownerByIDFunc(ctx, id)
}

type ownerFunc func(ctx context.Context, id string) (string, error)

func (f ownerFunc) OwnerByID(ctx context.Context, id string) (string, error) {
	return f(ctx, id)
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *mockIncidentRepo, pageOwner string) *Service {
	pages := ownerFunc(func(ctx context.Context, id string) (string, error) {
		return pageOwner, nil
	})
	resolver := authz.NewResolver(pages, nil, repo)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := NewService(repo, resolver, passthroughSanitizer{}, logger)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorを期待しましたが: %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %s, want %s", apiErr.Code, code)
	}
}

func TestService_Create_Defaults(t *testing.T) {
	repo := &mockIncidentRepo{
		createFunc: func(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error {
			if initialUpdate != nil {
				t.Error("初期経過報告は指定していないため作成されないはずです")
			}
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	incident, err := svc.Create(context.Background(), "user1", CreateInput{
		StatusPageID: "page1",
		Title:        "API遅延",
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if incident.Status != model.IncidentStatusInvestigating {
		t.Errorf("Status = %s, want investigating", incident.Status)
	}
	if incident.Impact != model.IncidentImpactMinor {
		t.Errorf("Impact = %s, want minor", incident.Impact)
	}
	if !incident.StartedAt.Equal(fixedNow) {
		t.Errorf("StartedAt = %v, want %v", incident.StartedAt, fixedNow)
	}
	if incident.ResolvedAt != nil {
		t.Error("未解決インシデントにresolved_atが設定されています")
	}
}

func TestService_Create_WithInitialUpdate(t *testing.T) {
	var captured *model.IncidentUpdate
	repo := &mockIncidentRepo{
		createFunc: func(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error {
			captured = initialUpdate
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	incident, err := svc.Create(context.Background(), "user1", CreateInput{
		StatusPageID:   "page1",
		Title:          "API遅延",
		InitialMessage: "調査を開始しました。",
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if captured == nil {
		t.Fatal("初期経過報告が作成されていません")
	}
	if captured.IncidentID != incident.ID {
		t.Errorf("IncidentID = %s, want %s", captured.IncidentID, incident.ID)
	}
	if captured.Status != model.IncidentStatusInvestigating {
		t.Errorf("Status = %s, want investigating", captured.Status)
	}
}

func TestService_Create_ResolvedSetsResolvedAt(t *testing.T) {
	repo := &mockIncidentRepo{
		createFunc: func(ctx context.Context, incident *model.Incident, initialUpdate *model.IncidentUpdate) error {
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	incident, err := svc.Create(context.Background(), "user1", CreateInput{
		StatusPageID: "page1",
		Title:        "過去の障害",
		Status:       model.IncidentStatusResolved,
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if incident.ResolvedAt == nil || !incident.ResolvedAt.Equal(fixedNow) {
		t.Errorf("ResolvedAt = %v, want %v", incident.ResolvedAt, fixedNow)
	}
}

func TestService_Update_TransitionToResolved(t *testing.T) {
	repo := &mockIncidentRepo{
		ownerByIDFunc: func(ctx context.Context, id string) (string, error) {
			return "user1", nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Incident, error) {
			return &model.Incident{
				ID:           id,
				StatusPageID: "page1",
				Title:        "API遅延",
				Status:       model.IncidentStatusMonitoring,
			}, nil
		},
		updateFunc: func(ctx context.Context, incident *model.Incident) error {
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	status := model.IncidentStatusResolved
	incident, err := svc.Update(context.Background(), "user1", "inc1", UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if incident.ResolvedAt == nil || !incident.ResolvedAt.Equal(fixedNow) {
		t.Errorf("ResolvedAt = %v, want %v", incident.ResolvedAt, fixedNow)
	}
}

func TestService_Update_ResolvedAtSuppliedWins(t *testing.T) {
	repo := &mockIncidentRepo{
		ownerByIDFunc: func(ctx context.Context, id string) (string, error) {
			return "user1", nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Incident, error) {
			return &model.Incident{ID: id, Status: model.IncidentStatusInvestigating}, nil
		},
		updateFunc: func(ctx context.Context, incident *model.Incident) error {
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	status := model.IncidentStatusResolved
	supplied := fixedNow.Add(-2 * time.Hour)
	incident, err := svc.Update(context.Background(), "user1", "inc1", UpdateInput{
		Status:     &status,
		ResolvedAt: &supplied,
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if incident.ResolvedAt == nil || !incident.ResolvedAt.Equal(supplied) {
		t.Errorf("ResolvedAt = %v, want %v", incident.ResolvedAt, supplied)
	}
}

func TestService_Update_NonResolvedPreservesResolvedAt(t *testing.T) {
	existing := fixedNow.Add(-24 * time.Hour)
	repo := &mockIncidentRepo{
		ownerByIDFunc: func(ctx context.Context, id string) (string, error) {
			return "user1", nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Incident, error) {
			return &model.Incident{
				ID:         id,
				Status:     model.IncidentStatusResolved,
				ResolvedAt: &existing,
			}, nil
		},
		updateFunc: func(ctx context.Context, incident *model.Incident) error {
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	// 再オープンしてもresolved_atには触れない
	status := model.IncidentStatusInvestigating
	incident, err := svc.Update(context.Background(), "user1", "inc1", UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if incident.ResolvedAt == nil || !incident.ResolvedAt.Equal(existing) {
		t.Errorf("ResolvedAt = %v, want %v（変更されないこと）", incident.ResolvedAt, existing)
	}
}

func TestService_Update_ResolvedToResolvedKeepsTimestamp(t *testing.T) {
	existing := fixedNow.Add(-24 * time.Hour)
	repo := &mockIncidentRepo{
		ownerByIDFunc: func(ctx context.Context, id string) (string, error) {
			return "user1", nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Incident, error) {
			return &model.Incident{
				ID:         id,
				Status:     model.IncidentStatusResolved,
				ResolvedAt: &existing,
			}, nil
		},
		updateFunc: func(ctx context.Context, incident *model.Incident) error {
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	status := model.IncidentStatusResolved
	incident, err := svc.Update(context.Background(), "user1", "inc1", UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if incident.ResolvedAt == nil || !incident.ResolvedAt.Equal(existing) {
		t.Errorf("ResolvedAt = %v, want %v（再解決で更新されないこと）", incident.ResolvedAt, existing)
	}
}

func TestService_Get_CrossTenant(t *testing.T) {
	repo := &mockIncidentRepo{
		ownerByIDFunc: func(ctx context.Context, id string) (string, error) {
			return "user2", nil
		},
	}
	svc := newTestService(repo, "user1")

	_, err := svc.Get(context.Background(), "user1", "inc1")
	assertCode(t, err, model.ErrCodeIncidentNotFound)
}

func TestService_AppendUpdate_DefaultsToIncidentStatus(t *testing.T) {
	repo := &mockIncidentRepo{
		ownerByIDFunc: func(ctx context.Context, id string) (string, error) {
			return "user1", nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Incident, error) {
			return &model.Incident{ID: id, Status: model.IncidentStatusMonitoring}, nil
		},
		appendUpdateFunc: func(ctx context.Context, update *model.IncidentUpdate) error {
			return nil
		},
	}
	svc := newTestService(repo, "user1")

	update, err := svc.AppendUpdate(context.Background(), "user1", "inc1", AppendUpdateInput{
		Message: "復旧を確認中です。",
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if update.Status != model.IncidentStatusMonitoring {
		t.Errorf("Status = %s, want monitoring", update.Status)
	}
}

func TestService_AppendUpdate_EmptyMessage(t *testing.T) {
	svc := newTestService(&mockIncidentRepo{}, "user1")

	_, err := svc.AppendUpdate(context.Background(), "user1", "inc1", AppendUpdateInput{})
	assertCode(t, err, model.ErrCodeInvalidInput)
}
