package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/statusdeck/internal/model"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 7*24*time.Hour)
	user := &model.User{ID: "user1", Email: "alice@example.com"}

	token, expiresAt, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if token == "" {
		t.Fatal("トークンが空です")
	}
	if remaining := time.Until(expiresAt); remaining < 6*24*time.Hour {
		t.Errorf("有効期限が短すぎます: %v", remaining)
	}

	principal, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if principal.UserID != "user1" {
		t.Errorf("UserID = %s, want user1", principal.UserID)
	}
	if principal.Email != "alice@example.com" {
		t.Errorf("Email = %s, want alice@example.com", principal.Email)
	}
}

func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := issuer.Issue(&model.User{ID: "user1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	_, err = other.Verify(token)
	assertUnauthenticated(t, err)
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Hour)

	token, _, err := issuer.Issue(&model.User{ID: "user1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	_, err = issuer.Verify(token)
	assertUnauthenticated(t, err)
}

func TestTokenIssuer_Verify_Malformed(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Verify("not-a-token")
	assertUnauthenticated(t, err)
}

func assertUnauthenticated(t *testing.T, err error) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorを期待しましたが: %v", err)
	}
	if apiErr.Code != model.ErrCodeUnauthenticated {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeUnauthenticated)
	}
}
