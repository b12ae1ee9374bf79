package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/statusdeck/internal/model"
)

type verifierFunc func(token string) (*model.Principal, error)

func (f verifierFunc) Verify(token string) (*model.Principal, error) {
	return f(token)
}

func okVerifier(t *testing.T, wantToken, userID string) verifierFunc {
	return func(token string) (*model.Principal, error) {
		if token != wantToken {
			return nil, model.NewUnauthenticatedError()
		}
		return &model.Principal{UserID: userID, Email: "a@example.com"}, nil
	}
}

func authedHandler(t *testing.T, gotUserID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("コンテキストにユーザーIDがありません: %v", err)
		}
		*gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	var gotUserID string
	mw := NewAuthMiddleware(okVerifier(t, "valid-token", "user1"))

	req := httptest.NewRequest(http.MethodGet, "/status-pages", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	mw(authedHandler(t, &gotUserID)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user1" {
		t.Errorf("userID = %s, want user1", gotUserID)
	}
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	var gotUserID string
	mw := NewAuthMiddleware(okVerifier(t, "cookie-token", "user1"))

	req := httptest.NewRequest(http.MethodGet, "/status-pages", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()

	mw(authedHandler(t, &gotUserID)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddleware_BearerWinsOverCookie(t *testing.T) {
	// Bearerヘッダーが存在する場合、Cookieの有効なトークンでも参照しない
	mw := NewAuthMiddleware(verifierFunc(func(token string) (*model.Principal, error) {
		if token == "cookie-token" {
			t.Error("Bearerヘッダーがある場合にCookieのトークンが使われました")
		}
		return nil, model.NewUnauthenticatedError()
	}))

	req := httptest.NewRequest(http.MethodGet, "/status-pages", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()

	mw(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	mw := NewAuthMiddleware(okVerifier(t, "valid-token", "user1"))

	req := httptest.NewRequest(http.MethodGet, "/status-pages", nil)
	rec := httptest.NewRecorder()

	mw(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	mw := NewAuthMiddleware(okVerifier(t, "valid-token", "user1"))

	req := httptest.NewRequest(http.MethodGet, "/status-pages", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	mw(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUserIDFromContext_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user1")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if userID != "user1" {
		t.Errorf("userID = %s, want user1", userID)
	}

	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("空のコンテキストではエラーになるべきです")
	}
}
