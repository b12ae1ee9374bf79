package model

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIError_ConstructorCodes(t *testing.T) {
	tests := []struct {
		name         string
		apiErr       *APIError
		wantCode     string
		wantCategory string
	}{
		{"入力不備", NewInvalidInputError("email"), ErrCodeInvalidInput, "validation"},
		{"パスワード不足", NewPasswordTooShortError(), ErrCodePasswordTooShort, "validation"},
		{"未認証", NewUnauthenticatedError(), ErrCodeUnauthenticated, "auth"},
		{"メール重複", NewEmailTakenError(), ErrCodeEmailTaken, "validation"},
		{"サブドメイン重複", NewSubdomainTakenError("acme"), ErrCodeSubdomainTaken, "validation"},
		{"購読重複", NewAlreadySubscribedError(), ErrCodeAlreadySubscribed, "validation"},
		{"ページ不在", NewPageNotFoundError(), ErrCodePageNotFound, "resource"},
		{"コンポーネント不在", NewComponentNotFoundError(), ErrCodeComponentNotFound, "resource"},
		{"インシデント不在", NewIncidentNotFoundError(), ErrCodeIncidentNotFound, "resource"},
		{"購読者不在", NewSubscriberNotFoundError(), ErrCodeSubscriberNotFound, "resource"},
		{"プラン上限", NewPlanLimitError(), ErrCodePlanLimit, "quota"},
		{"内部エラー", NewInternalError(nil), ErrCodeInternal, "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.apiErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.apiErr.Code, tt.wantCode)
			}
			if tt.apiErr.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", tt.apiErr.Category, tt.wantCategory)
			}
			if tt.apiErr.Message == "" || tt.apiErr.Action == "" {
				t.Error("MessageとActionは必須です")
			}
		})
	}
}

func TestAPIError_ErrorFormat(t *testing.T) {
	apiErr := NewPageNotFoundError()

	if got := apiErr.Error(); !strings.Contains(got, ErrCodePageNotFound) {
		t.Errorf("Error() = %s, エラーコードが含まれていません", got)
	}
}

func TestAPIError_UnwrapCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	apiErr := NewInternalError(cause)

	if got := apiErr.Unwrap(); !errors.Is(got, cause) {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
	// 内部原因をクライアント向けメッセージに漏らさない
	if strings.Contains(apiErr.Message, "connection refused") {
		t.Errorf("Messageに内部原因が含まれています: %s", apiErr.Message)
	}
}

func TestAPIError_ErrorsAs(t *testing.T) {
	var err error = NewPlanLimitError()

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.AsでAPIErrorを取り出せません")
	}
	if apiErr.Code != ErrCodePlanLimit {
		t.Errorf("Code = %s, want %s", apiErr.Code, ErrCodePlanLimit)
	}
}
