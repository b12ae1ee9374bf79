// Package authz はテナント間のリソース所有チェックを提供する。
//
// 所有チェックは「リソースID→所有者ユーザーID」の解決に一本化する。
// 子リソースは親ステータスページを経由して所有者を辿るため、
// 呼び出し側が親子関係を個別に検証する必要はない。
// 不在と他テナント所有は区別せず、同じ未検出エラーを返す。
package authz

import (
	"context"

	"github.com/hitoshi/statusdeck/internal/model"
)

// Kind は所有チェック対象のリソース種別。
type Kind string

const (
	KindPage      Kind = "page"
	KindComponent Kind = "component"
	KindIncident  Kind = "incident"
)

// OwnerSource はリソースIDから所有者ユーザーIDを解決する。
// リソースが存在しない場合は空文字列を返す。
// 各リポジトリのOwnerByIDがこれを満たす。
type OwnerSource interface {
	OwnerByID(ctx context.Context, id string) (string, error)
}

// Resolver はリソース種別ごとの所有者解決を束ねる。
type Resolver struct {
	sources map[Kind]OwnerSource
}

// NewResolver はResolverを生成する。
func NewResolver(pages, components, incidents OwnerSource) *Resolver {
	return &Resolver{
		sources: map[Kind]OwnerSource{
			KindPage:      pages,
			KindComponent: components,
			KindIncident:  incidents,
		},
	}
}

// RequireOwner はリソースがuserIDの所有物であることを確認する。
// 不在・他テナント所有のいずれも種別に応じた未検出エラーを返す。
func (r *Resolver) RequireOwner(ctx context.Context, kind Kind, id, userID string) error {
	src, ok := r.sources[kind]
	if !ok {
		return model.NewInternalError(nil)
	}

	owner, err := src.OwnerByID(ctx, id)
	if err != nil {
		return model.NewInternalError(err)
	}
	if owner == "" || owner != userID {
		return notFoundFor(kind)
	}
	return nil
}

func notFoundFor(kind Kind) *model.APIError {
	switch kind {
	case KindComponent:
		return model.NewComponentNotFoundError()
	case KindIncident:
		return model.NewIncidentNotFoundError()
	default:
		return model.NewPageNotFoundError()
	}
}
