package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/public"
)

type mockPublicService struct {
	renderFunc    func(ctx context.Context, subdomain string) (*public.PageView, error)
	subscribeFunc func(ctx context.Context, pageID, email string) (*model.Subscriber, error)
	confirmFunc   func(ctx context.Context, token string) error
}

func (m *mockPublicService) RenderPublicPage(ctx context.Context, subdomain string) (*public.PageView, error) {
	return m.renderFunc(ctx, subdomain)
}

func (m *mockPublicService) Subscribe(ctx context.Context, pageID, email string) (*model.Subscriber, error) {
	return m.subscribeFunc(ctx, pageID, email)
}

func (m *mockPublicService) ConfirmSubscription(ctx context.Context, token string) error {
	return m.confirmFunc(ctx, token)
}

type countingPublicRecorder struct {
	renders       int
	subscriptions int
}

func (c *countingPublicRecorder) RecordPublicPageRender() { c.renders++ }
func (c *countingPublicRecorder) RecordSubscription()     { c.subscriptions++ }

func publicPageRouter(h *PublicHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/public/status/{subdomain}", h.ShowPublicPage)
	return r
}

func testPageView() *public.PageView {
	resolvedAt := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return &public.PageView{
		Page: &model.StatusPage{
			ID:        "page1",
			UserID:    "user1",
			Name:      "Acme Status",
			Subdomain: "acme",
			IsPublic:  true,
		},
		Components: []*model.Component{
			{ID: "comp1", StatusPageID: "page1", Name: "Website", Status: model.ComponentStatusOperational, Position: 1},
			{ID: "comp2", StatusPageID: "page1", Name: "API", Status: model.ComponentStatusDegraded, Position: 2},
		},
		Incidents: []*public.IncidentView{
			{
				Incident: &model.Incident{
					ID:           "inc1",
					StatusPageID: "page1",
					Title:        "API遅延",
					Status:       model.IncidentStatusResolved,
					Impact:       model.IncidentImpactMinor,
					ResolvedAt:   &resolvedAt,
				},
				Updates: []*model.IncidentUpdate{
					{ID: "upd2", IncidentID: "inc1", Status: model.IncidentStatusResolved, Message: "復旧しました"},
					{ID: "upd1", IncidentID: "inc1", Status: model.IncidentStatusInvestigating, Message: "調査中です"},
				},
			},
		},
	}
}

func TestPublicHandler_ShowPublicPage_Success(t *testing.T) {
	recorder := &countingPublicRecorder{}
	service := &mockPublicService{
		renderFunc: func(ctx context.Context, subdomain string) (*public.PageView, error) {
			if subdomain != "acme" {
				t.Errorf("subdomain = %s, want acme", subdomain)
			}
			return testPageView(), nil
		},
	}
	h := NewPublicHandler(service, recorder, 60)

	req := httptest.NewRequest(http.MethodGet, "/public/status/acme", nil)
	rec := httptest.NewRecorder()
	publicPageRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("Cache-Control = %q, want public, max-age=60", cc)
	}

	var resp publicPageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	if resp.Page.Subdomain != "acme" {
		t.Errorf("page.subdomain = %s, want acme", resp.Page.Subdomain)
	}
	if len(resp.Components) != 2 {
		t.Errorf("components件数 = %d, want 2", len(resp.Components))
	}
	if len(resp.Incidents) != 1 || len(resp.Incidents[0].Updates) != 2 {
		t.Errorf("incidents = %+v, インシデントとタイムラインが一致しません", resp.Incidents)
	}
	if recorder.renders != 1 {
		t.Errorf("renders = %d, want 1", recorder.renders)
	}
}

func TestPublicHandler_ShowPublicPage_NotFound(t *testing.T) {
	service := &mockPublicService{
		renderFunc: func(ctx context.Context, subdomain string) (*public.PageView, error) {
			return nil, model.NewPageNotFoundError()
		},
	}
	h := NewPublicHandler(service, nil, 60)

	req := httptest.NewRequest(http.MethodGet, "/public/status/unknown", nil)
	rec := httptest.NewRecorder()
	publicPageRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("エラーレスポンスにCache-Controlが付与されています: %q", cc)
	}
}

func TestPublicHandler_Subscribe_Success(t *testing.T) {
	recorder := &countingPublicRecorder{}
	service := &mockPublicService{
		subscribeFunc: func(ctx context.Context, pageID, email string) (*model.Subscriber, error) {
			return &model.Subscriber{
				ID:           "sub1",
				StatusPageID: pageID,
				Email:        email,
				Verified:     true,
			}, nil
		},
	}
	h := NewPublicHandler(service, recorder, 60)

	body := `{"status_page_id":"page1","email":"reader@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/public/subscribe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var resp subscriberResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	if !resp.Verified {
		t.Error("verified = false, want true")
	}
	if recorder.subscriptions != 1 {
		t.Errorf("subscriptions = %d, want 1", recorder.subscriptions)
	}
}

func TestPublicHandler_Subscribe_MissingPageID(t *testing.T) {
	h := NewPublicHandler(&mockPublicService{}, nil, 60)

	body := `{"email":"reader@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/public/subscribe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPublicHandler_Subscribe_Duplicate(t *testing.T) {
	service := &mockPublicService{
		subscribeFunc: func(ctx context.Context, pageID, email string) (*model.Subscriber, error) {
			return nil, model.NewAlreadySubscribedError()
		},
	}
	h := NewPublicHandler(service, nil, 60)

	body := `{"status_page_id":"page1","email":"reader@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/public/subscribe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestPublicHandler_ConfirmSubscription(t *testing.T) {
	service := &mockPublicService{
		confirmFunc: func(ctx context.Context, token string) error {
			if token != "verify-token" {
				t.Errorf("token = %s, want verify-token", token)
			}
			return nil
		},
	}
	h := NewPublicHandler(service, nil, 60)

	req := httptest.NewRequest(http.MethodGet, "/public/subscribe/confirm?token=verify-token", nil)
	rec := httptest.NewRecorder()
	h.ConfirmSubscription(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestPublicHandler_ConfirmSubscription_UnknownToken(t *testing.T) {
	service := &mockPublicService{
		confirmFunc: func(ctx context.Context, token string) error {
			return model.NewSubscriberNotFoundError()
		},
	}
	h := NewPublicHandler(service, nil, 60)

	req := httptest.NewRequest(http.MethodGet, "/public/subscribe/confirm?token=bad", nil)
	rec := httptest.NewRecorder()
	h.ConfirmSubscription(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
