package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/statusdeck/internal/model"
)

type ownerFunc func(ctx context.Context, id string) (string, error)

func (f ownerFunc) OwnerByID(ctx context.Context, id string) (string, error) {
	return f(ctx, id)
}

func fixedOwner(owner string) ownerFunc {
	return func(ctx context.Context, id string) (string, error) {
		return owner, nil
	}
}

func TestResolver_RequireOwner(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		owner    string
		userID   string
		wantCode string
	}{
		{
			name:   "所有者本人はアクセスできる",
			kind:   KindPage,
			owner:  "user1",
			userID: "user1",
		},
		{
			name:     "他テナントのページは未検出",
			kind:     KindPage,
			owner:    "user2",
			userID:   "user1",
			wantCode: model.ErrCodePageNotFound,
		},
		{
			name:     "存在しないページは未検出",
			kind:     KindPage,
			owner:    "",
			userID:   "user1",
			wantCode: model.ErrCodePageNotFound,
		},
		{
			name:     "他テナントのコンポーネントは未検出",
			kind:     KindComponent,
			owner:    "user2",
			userID:   "user1",
			wantCode: model.ErrCodeComponentNotFound,
		},
		{
			name:     "他テナントのインシデントは未検出",
			kind:     KindIncident,
			owner:    "user2",
			userID:   "user1",
			wantCode: model.ErrCodeIncidentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(fixedOwner(tt.owner), fixedOwner(tt.owner), fixedOwner(tt.owner))
			err := r.RequireOwner(context.Background(), tt.kind, "res1", tt.userID)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("予期しないエラー: %v", err)
				}
				return
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("APIErrorを期待しましたが: %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestResolver_RequireOwner_SourceError(t *testing.T) {
	failing := ownerFunc(func(ctx context.Context, id string) (string, error) {
		return "", errors.New("db down")
	})
	r := NewResolver(failing, failing, failing)

	err := r.RequireOwner(context.Background(), KindPage, "res1", "user1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorを期待しましたが: %v", err)
	}
	if apiErr.Code != model.ErrCodeInternal {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeInternal)
	}
}
