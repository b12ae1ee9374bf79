// Package auth は認証機能（トークン発行・検証、サインアップ、ログイン）を提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/statusdeck/internal/model"
)

// Claims はアクセストークンに埋め込むクレーム。
// user_idとemailのみを載せ、それ以外の個人情報は含めない。
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer はHMAC-SHA256署名付きトークンの発行と検証を行う。
// トークン自体が認証の根拠であり、検証にデータベース参照は不要。
type TokenIssuer struct {
	secret []byte
	maxAge time.Duration
}

// NewTokenIssuer はTokenIssuerを生成する。
// maxAgeは発行するトークンの有効期間（既定は7日間）。
func NewTokenIssuer(secret string, maxAge time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}

// Issue はユーザーのアクセストークンを発行する。
func (t *TokenIssuer) Issue(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.maxAge)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify はトークンを検証し、認証主体を返す。
// 署名不正・期限切れ・形式不正のいずれも区別せず認証エラーを返す。
// 失敗理由を呼び出し元に漏らさないことで、攻撃者への情報提供を避ける。
func (t *TokenIssuer) Verify(tokenString string) (*model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("予期しない署名方式です: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, model.NewUnauthenticatedError()
	}
	if claims.UserID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	return &model.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
