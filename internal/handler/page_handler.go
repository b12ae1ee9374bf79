package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/statusdeck/internal/middleware"
	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/page"
)

// PageServiceInterface はステータスページハンドラーが必要とするサービスインターフェース。
type PageServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.StatusPage, error)
	Get(ctx context.Context, userID, pageID string) (*model.StatusPage, error)
	Create(ctx context.Context, userID string, input page.CreateInput) (*model.StatusPage, error)
	Update(ctx context.Context, userID, pageID string, input page.UpdateInput) (*model.StatusPage, error)
	Delete(ctx context.Context, userID, pageID string) error
}

// PageHandler はステータスページ管理のHTTPハンドラー。
type PageHandler struct {
	service PageServiceInterface
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(service PageServiceInterface) *PageHandler {
	return &PageHandler{service: service}
}

// createPageRequest はステータスページ作成リクエストのボディ。
type createPageRequest struct {
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	Description  string `json:"description"`
	LogoURL      string `json:"logo_url"`
	PrimaryColor string `json:"primary_color"`
	IsPublic     *bool  `json:"is_public"`
}

// updatePageRequest はステータスページ更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updatePageRequest struct {
	Name         *string `json:"name"`
	Subdomain    *string `json:"subdomain"`
	Description  *string `json:"description"`
	LogoURL      *string `json:"logo_url"`
	PrimaryColor *string `json:"primary_color"`
	IsPublic     *bool   `json:"is_public"`
}

// pageResponse はステータスページのAPIレスポンス。
type pageResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	CustomDomain string    `json:"custom_domain,omitempty"`
	Description  string    `json:"description,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	PrimaryColor string    `json:"primary_color"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListPages はユーザーの所有するステータスページ一覧を返す。
// GET /status-pages
func (h *PageHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	pages, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		responses = append(responses, toPageResponse(p))
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetPage はステータスページの詳細を返す。
// GET /status-pages/:id
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	p, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(p))
}

// CreatePage はステータスページを作成する。
// POST /status-pages
func (h *PageHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.Create(r.Context(), userID, page.CreateInput{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		Description:  req.Description,
		LogoURL:      req.LogoURL,
		PrimaryColor: req.PrimaryColor,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPageResponse(p))
}

// UpdatePage はステータスページを更新する。
// PUT /status-pages/:id
func (h *PageHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req updatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), page.UpdateInput{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		Description:  req.Description,
		LogoURL:      req.LogoURL,
		PrimaryColor: req.PrimaryColor,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(p))
}

// DeletePage はステータスページを削除する。
// DELETE /status-pages/:id
func (h *PageHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
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

// toPageResponse はmodel.StatusPageからAPIレスポンスに変換する。
func toPageResponse(p *model.StatusPage) pageResponse {
	return pageResponse{
		ID:           p.ID,
		Name:         p.Name,
		Subdomain:    p.Subdomain,
		CustomDomain: p.CustomDomain,
		Description:  p.Description,
		LogoURL:      p.LogoURL,
		PrimaryColor: p.PrimaryColor,
		IsPublic:     p.IsPublic,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
