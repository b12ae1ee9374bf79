package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/statusdeck/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		apiErr *model.APIError
		want   int
	}{
		{"入力不正", model.NewInvalidInputError("test"), http.StatusBadRequest},
		{"パスワード不足", model.NewPasswordTooShortError(), http.StatusBadRequest},
		{"未認証", model.NewUnauthenticatedError(), http.StatusUnauthorized},
		{"プラン上限", model.NewPlanLimitError(), http.StatusForbidden},
		{"ページ不在", model.NewPageNotFoundError(), http.StatusNotFound},
		{"コンポーネント不在", model.NewComponentNotFoundError(), http.StatusNotFound},
		{"インシデント不在", model.NewIncidentNotFoundError(), http.StatusNotFound},
		{"購読者不在", model.NewSubscriberNotFoundError(), http.StatusNotFound},
		{"メール重複", model.NewEmailTakenError(), http.StatusConflict},
		{"サブドメイン重複", model.NewSubdomainTakenError("acme"), http.StatusConflict},
		{"購読重複", model.NewAlreadySubscribedError(), http.StatusConflict},
		{"内部エラー", model.NewInternalError(nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.apiErr); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_APIError(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, model.NewPageNotFoundError())

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
}

func TestHandleServiceError_UnknownError(t *testing.T) {
	// APIError以外は詳細を漏らさず500として扱う
	rec := httptest.NewRecorder()
	handleServiceError(rec, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("内部エラーの詳細がレスポンスに含まれています")
	}
}
