package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolationCode はPostgreSQLの一意制約違反のSQLSTATEコード。
const uniqueViolationCode = "23505"

// IsUniqueViolation はエラーが一意制約違反かどうかを判定する。
// 事前チェックをすり抜けた同時リクエストの競合を、呼び出し側で
// Conflictエラーに変換するために使う。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
