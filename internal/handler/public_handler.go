package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/public"
)

// PublicServiceInterface は公開面ハンドラーが必要とするサービスインターフェース。
type PublicServiceInterface interface {
	RenderPublicPage(ctx context.Context, subdomain string) (*public.PageView, error)
	Subscribe(ctx context.Context, pageID, email string) (*model.Subscriber, error)
	ConfirmSubscription(ctx context.Context, token string) error
}

// PublicRecorder は公開面メトリクスの記録インターフェース。
type PublicRecorder interface {
	RecordPublicPageRender()
	RecordSubscription()
}

// PublicHandler は認証不要の公開面のHTTPハンドラー。
type PublicHandler struct {
	service     PublicServiceInterface
	recorder    PublicRecorder
	cacheMaxAge int // 秒
}

// NewPublicHandler はPublicHandlerを生成する。recorderはnilでもよい。
func NewPublicHandler(service PublicServiceInterface, recorder PublicRecorder, cacheMaxAge int) *PublicHandler {
	return &PublicHandler{
		service:     service,
		recorder:    recorder,
		cacheMaxAge: cacheMaxAge,
	}
}

// subscribeRequest は購読登録リクエストのボディ。
type subscribeRequest struct {
	StatusPageID string `json:"status_page_id"`
	Email        string `json:"email"`
}

// publicIncidentResponse は公開ビュー上のインシデントと経過報告タイムライン。
type publicIncidentResponse struct {
	incidentResponse
	Updates []incidentUpdateResponse `json:"updates"`
}

// publicPageResponse は公開ステータスページのAPIレスポンス。
type publicPageResponse struct {
	Page       pageResponse             `json:"page"`
	Components []componentResponse      `json:"components"`
	Incidents  []publicIncidentResponse `json:"incidents"`
}

// subscriberResponse は購読者のAPIレスポンス。
type subscriberResponse struct {
	ID           string    `json:"id"`
	StatusPageID string    `json:"status_page_id"`
	Email        string    `json:"email"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShowPublicPage は公開ステータスページの表示データを返す。
// 共有キャッシュでの短期キャッシュを許可するCache-Controlを付与する。
// GET /public/status/:subdomain
func (h *PublicHandler) ShowPublicPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RenderPublicPage(r.Context(), chi.URLParam(r, "subdomain"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordPublicPageRender()
	}

	components := make([]componentResponse, 0, len(view.Components))
	for _, c := range view.Components {
		components = append(components, toComponentResponse(c))
	}

	incidents := make([]publicIncidentResponse, 0, len(view.Incidents))
	for _, iv := range view.Incidents {
		updates := make([]incidentUpdateResponse, 0, len(iv.Updates))
		for _, u := range iv.Updates {
			updates = append(updates, toIncidentUpdateResponse(u))
		}
		incidents = append(incidents, publicIncidentResponse{
			incidentResponse: toIncidentResponse(iv.Incident),
			Updates:          updates,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.cacheMaxAge))
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(publicPageResponse{
		Page:       toPageResponse(view.Page),
		Components: components,
		Incidents:  incidents,
	})
}

// Subscribe はページの更新通知の購読を登録する。
// POST /public/subscribe
func (h *PublicHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.StatusPageID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidInputError("status_page_idは必須です"))
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.StatusPageID, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordSubscription()
	}
	writeJSON(w, http.StatusCreated, toSubscriberResponse(sub))
}

// ConfirmSubscription は確認用トークンから購読を検証済みにする。
// GET /public/subscribe/confirm?token=
func (h *PublicHandler) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.service.ConfirmSubscription(r.Context(), token); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toSubscriberResponse はmodel.SubscriberからAPIレスポンスに変換する。
// 検証トークンはレスポンスに含めない。
func toSubscriberResponse(sub *model.Subscriber) subscriberResponse {
	return subscriberResponse{
		ID:           sub.ID,
		StatusPageID: sub.StatusPageID,
		Email:        sub.Email,
		Verified:     sub.Verified,
		CreatedAt:    sub.CreatedAt,
	}
}
