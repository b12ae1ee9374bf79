// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 内部障害の詳細はここに載せず、ログのみに記録する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, quota, system
	Action   string // ユーザー向け対処方法

	cause error // ログ専用の内部原因。レスポンスには含めない。
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は内部原因を返す。ハンドラのログ出力で使用する。
func (e *APIError) Unwrap() error {
	return e.cause
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeSubdomainTaken     = "SUBDOMAIN_TAKEN"
	ErrCodeAlreadySubscribed  = "ALREADY_SUBSCRIBED"
	ErrCodePageNotFound       = "PAGE_NOT_FOUND"
	ErrCodeComponentNotFound  = "COMPONENT_NOT_FOUND"
	ErrCodeIncidentNotFound   = "INCIDENT_NOT_FOUND"
	ErrCodeSubscriberNotFound = "SUBSCRIBER_NOT_FOUND"
	ErrCodePlanLimit          = "PLAN_LIMIT"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidInputError は入力不備エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", reason),
		Category: "validation",
		Action:   "必須項目を入力し、再度お試しください。",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  "パスワードは8文字以上で入力してください。",
		Category: "validation",
		Action:   "8文字以上のパスワードを設定してください。",
	}
}

// NewUnauthenticatedError は認証エラーを生成する。
// 資格情報の不一致・トークンの欠落・期限切れ・署名不正を区別せず同一のエラーを返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewSubdomainTakenError はサブドメイン重複エラーを生成する。
func NewSubdomainTakenError(subdomain string) *APIError {
	return &APIError{
		Code:     ErrCodeSubdomainTaken,
		Message:  fmt.Sprintf("このサブドメインは既に使用されています: %s", subdomain),
		Category: "validation",
		Action:   "別のサブドメインを指定してください。",
	}
}

// NewAlreadySubscribedError は購読重複エラーを生成する。
func NewAlreadySubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySubscribed,
		Message:  "このメールアドレスは既にこのページを購読しています。",
		Category: "validation",
		Action:   "登録済みのため、手続きは不要です。",
	}
}

// NewPageNotFoundError はステータスページ未検出エラーを生成する。
// 存在しない場合と他テナントの所有物である場合を区別しない。
func NewPageNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePageNotFound,
		Message:  "指定されたステータスページが見つかりません。",
		Category: "resource",
		Action:   "ページIDを確認してください。",
	}
}

// NewComponentNotFoundError はコンポーネント未検出エラーを生成する。
func NewComponentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeComponentNotFound,
		Message:  "指定されたコンポーネントが見つかりません。",
		Category: "resource",
		Action:   "コンポーネントIDを確認してください。",
	}
}

// NewIncidentNotFoundError はインシデント未検出エラーを生成する。
func NewIncidentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeIncidentNotFound,
		Message:  "指定されたインシデントが見つかりません。",
		Category: "resource",
		Action:   "インシデントIDを確認してください。",
	}
}

// NewSubscriberNotFoundError は購読者未検出エラーを生成する。
func NewSubscriberNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSubscriberNotFound,
		Message:  "指定された購読が見つかりません。",
		Category: "resource",
		Action:   "確認用リンクが有効か確認してください。",
	}
}

// NewPlanLimitError はプラン上限エラーを生成する。
func NewPlanLimitError() *APIError {
	return &APIError{
		Code:     ErrCodePlanLimit,
		Message:  "無料プランで作成できるステータスページは1件までです。",
		Category: "quota",
		Action:   "Proプランにアップグレードすると無制限に作成できます。",
	}
}

// NewInternalError は内部エラーを生成する。
// ストレージ到達不能などの内部障害をそのまま返さないための変換先。
// causeはレスポンスに含めず、ログ出力時にUnwrapで取り出す。
func NewInternalError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
		cause:    cause,
	}
}
