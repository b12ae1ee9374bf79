package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/statusdeck/internal/dashboard"
	"github.com/hitoshi/statusdeck/internal/middleware"
	"github.com/hitoshi/statusdeck/internal/model"
)

// DashboardServiceInterface はダッシュボードハンドラーが必要とするサービスインターフェース。
type DashboardServiceInterface interface {
	Stats(ctx context.Context, userID string) (*dashboard.Stats, error)
	Activity(ctx context.Context, userID string) ([]*model.Incident, error)
}

// DashboardHandler はダッシュボードのHTTPハンドラー。
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// statsResponse は集計値のAPIレスポンス。
type statsResponse struct {
	Pages           int `json:"pages"`
	Components      int `json:"components"`
	ActiveIncidents int `json:"active_incidents"`
	Subscribers     int `json:"subscribers"`
}

// Stats はユーザーの所有リソースの集計値を返す。
// GET /dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Pages:           stats.Pages,
		Components:      stats.Components,
		ActiveIncidents: stats.ActiveIncidents,
		Subscribers:     stats.Subscribers,
	})
}

// Activity は直近のインシデントを作成日時降順で返す。
// GET /dashboard/activity
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	incidents, err := h.service.Activity(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]incidentResponse, 0, len(incidents))
	for _, i := range incidents {
		responses = append(responses, toIncidentResponse(i))
	}
	writeJSON(w, http.StatusOK, responses)
}
