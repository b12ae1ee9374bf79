package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/statusdeck/internal/incident"
	"github.com/hitoshi/statusdeck/internal/middleware"
	"github.com/hitoshi/statusdeck/internal/model"
)

// IncidentServiceInterface はインシデントハンドラーが必要とするサービスインターフェース。
type IncidentServiceInterface interface {
	ListByPage(ctx context.Context, userID, pageID string) ([]*model.Incident, error)
	Get(ctx context.Context, userID, incidentID string) (*model.Incident, error)
	Create(ctx context.Context, userID string, input incident.CreateInput) (*model.Incident, error)
	Update(ctx context.Context, userID, incidentID string, input incident.UpdateInput) (*model.Incident, error)
	Delete(ctx context.Context, userID, incidentID string) error
	AppendUpdate(ctx context.Context, userID, incidentID string, input incident.AppendUpdateInput) (*model.IncidentUpdate, error)
	ListUpdates(ctx context.Context, userID, incidentID string) ([]*model.IncidentUpdate, error)
}

// IncidentRecorder はインシデントメトリクスの記録インターフェース。
type IncidentRecorder interface {
	RecordIncidentOpened()
	RecordIncidentResolved()
}

// IncidentHandler はインシデント管理のHTTPハンドラー。
type IncidentHandler struct {
	service  IncidentServiceInterface
	recorder IncidentRecorder
}

// NewIncidentHandler はIncidentHandlerを生成する。recorderはnilでもよい。
func NewIncidentHandler(service IncidentServiceInterface, recorder IncidentRecorder) *IncidentHandler {
	return &IncidentHandler{
		service:  service,
		recorder: recorder,
	}
}

// createIncidentRequest はインシデント作成リクエストのボディ。
type createIncidentRequest struct {
	StatusPageID   string     `json:"status_page_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Impact         string     `json:"impact"`
	StartedAt      *time.Time `json:"started_at"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	InitialMessage string     `json:"initial_message"`
}

// updateIncidentRequest はインシデント更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateIncidentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Impact      *string    `json:"impact"`
	StartedAt   *time.Time `json:"started_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// appendUpdateRequest は経過報告追記リクエストのボディ。
type appendUpdateRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// incidentResponse はインシデントのAPIレスポンス。
type incidentResponse struct {
	ID           string     `json:"id"`
	StatusPageID string     `json:"status_page_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	Impact       string     `json:"impact"`
	StartedAt    time.Time  `json:"started_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// incidentUpdateResponse は経過報告のAPIレスポンス。
type incidentUpdateResponse struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListIncidents は指定ページのインシデント一覧を作成日時降順で返す。
// GET /incidents?status_page_id=
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	pageID := r.URL.Query().Get("status_page_id")
	if pageID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidInputError("status_page_idクエリパラメータは必須です"))
		return
	}

	incidents, err := h.service.ListByPage(r.Context(), userID, pageID)
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

// GetIncident はインシデントの詳細を返す。
// GET /incidents/:id
func (h *IncidentHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	i, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncidentResponse(i))
}

// CreateIncident はインシデントを作成する。
// POST /incidents
func (h *IncidentHandler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req createIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	i, err := h.service.Create(r.Context(), userID, incident.CreateInput{
		StatusPageID:   req.StatusPageID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Impact:         req.Impact,
		StartedAt:      req.StartedAt,
		ResolvedAt:     req.ResolvedAt,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordIncidentOpened()
	}
	writeJSON(w, http.StatusCreated, toIncidentResponse(i))
}

// UpdateIncident はインシデントを更新する。
// PUT /incidents/:id
func (h *IncidentHandler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req updateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	i, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), incident.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Impact:      req.Impact,
		StartedAt:   req.StartedAt,
		ResolvedAt:  req.ResolvedAt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.recorder != nil && req.Status != nil && *req.Status == model.IncidentStatusResolved {
		h.recorder.RecordIncidentResolved()
	}
	writeJSON(w, http.StatusOK, toIncidentResponse(i))
}

// DeleteIncident はインシデントを削除する。
// DELETE /incidents/:id
func (h *IncidentHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListIncidentUpdates はインシデントの経過報告一覧を作成日時降順で返す。
// GET /incidents/:id/updates
func (h *IncidentHandler) ListIncidentUpdates(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	updates, err := h.service.ListUpdates(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]incidentUpdateResponse, 0, len(updates))
	for _, u := range updates {
		responses = append(responses, toIncidentUpdateResponse(u))
	}
	writeJSON(w, http.StatusOK, responses)
}

// AppendIncidentUpdate はインシデントに経過報告を追記する。
// POST /incidents/:id/updates
func (h *IncidentHandler) AppendIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req appendUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	u, err := h.service.AppendUpdate(r.Context(), userID, chi.URLParam(r, "id"), incident.AppendUpdateInput{
		Status:  req.Status,
		Message: req.Message,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncidentUpdateResponse(u))
}

// toIncidentResponse はmodel.IncidentからAPIレスポンスに変換する。
func toIncidentResponse(i *model.Incident) incidentResponse {
	return incidentResponse{
		ID:           i.ID,
		StatusPageID: i.StatusPageID,
		Title:        i.Title,
		Description:  i.Description,
		Status:       i.Status,
		Impact:       i.Impact,
		StartedAt:    i.StartedAt,
		ResolvedAt:   i.ResolvedAt,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// toIncidentUpdateResponse はmodel.IncidentUpdateからAPIレスポンスに変換する。
func toIncidentUpdateResponse(u *model.IncidentUpdate) incidentUpdateResponse {
	return incidentUpdateResponse{
		ID:         u.ID,
		IncidentID: u.IncidentID,
		Status:     u.Status,
		Message:    u.Message,
		CreatedAt:  u.CreatedAt,
	}
}
