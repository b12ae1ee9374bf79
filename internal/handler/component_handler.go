package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/statusdeck/internal/component"
	"github.com/hitoshi/statusdeck/internal/middleware"
	"github.com/hitoshi/statusdeck/internal/model"
)

// ComponentServiceInterface はコンポーネントハンドラーが必要とするサービスインターフェース。
type ComponentServiceInterface interface {
	ListByPage(ctx context.Context, userID, pageID string) ([]*model.Component, error)
	Get(ctx context.Context, userID, componentID string) (*model.Component, error)
	Create(ctx context.Context, userID string, input component.CreateInput) (*model.Component, error)
	Update(ctx context.Context, userID, componentID string, input component.UpdateInput) (*model.Component, error)
	Delete(ctx context.Context, userID, componentID string) error
}

// ComponentHandler はコンポーネント管理のHTTPハンドラー。
type ComponentHandler struct {
	service ComponentServiceInterface
}

// NewComponentHandler はComponentHandlerを生成する。
func NewComponentHandler(service ComponentServiceInterface) *ComponentHandler {
	return &ComponentHandler{service: service}
}

// createComponentRequest はコンポーネント作成リクエストのボディ。
type createComponentRequest struct {
	StatusPageID string `json:"status_page_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Position     int    `json:"position"`
}

// updateComponentRequest はコンポーネント更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateComponentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Position    *int    `json:"position"`
}

// componentResponse はコンポーネントのAPIレスポンス。
type componentResponse struct {
	ID           string    `json:"id"`
	StatusPageID string    `json:"status_page_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListComponents は指定ページのコンポーネント一覧を表示順で返す。
// GET /components?status_page_id=
func (h *ComponentHandler) ListComponents(w http.ResponseWriter, r *http.Request) {
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

	components, err := h.service.ListByPage(r.Context(), userID, pageID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]componentResponse, 0, len(components))
	for _, c := range components {
		responses = append(responses, toComponentResponse(c))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetComponent はコンポーネントの詳細を返す。
// GET /components/:id
func (h *ComponentHandler) GetComponent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	c, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentResponse(c))
}

// CreateComponent はコンポーネントを作成する。
// POST /components
func (h *ComponentHandler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req createComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.Create(r.Context(), userID, component.CreateInput{
		StatusPageID: req.StatusPageID,
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		Position:     req.Position,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toComponentResponse(c))
}

// UpdateComponent はコンポーネントを更新する。
// PUT /components/:id
func (h *ComponentHandler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req updateComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), component.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Position:    req.Position,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toComponentResponse(c))
}

// DeleteComponent はコンポーネントを削除する。
// DELETE /components/:id
func (h *ComponentHandler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
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

// toComponentResponse はmodel.ComponentからAPIレスポンスに変換する。
func toComponentResponse(c *model.Component) componentResponse {
	return componentResponse{
		ID:           c.ID,
		StatusPageID: c.StatusPageID,
		Name:         c.Name,
		Description:  c.Description,
		Status:       c.Status,
		Position:     c.Position,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
