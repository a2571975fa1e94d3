package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount 金額が無効（数値でない、下限未満、上限超過）
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrProviderUnavailable 決済プロバイダーに到達できない（通信エラー、タイムアウト、5xx）
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderRejected 決済プロバイダーが要求を拒否した（4xx、署名不一致、業務ルール違反）
	ErrProviderRejected = errors.New("payment provider rejected the request")
	// ErrInvalidSignature 署名が一致しない
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrProviderRejected)
	// ErrUserCancelled ユーザーが決済をキャンセルした
	ErrUserCancelled = errors.New("payment cancelled by user")
	// ErrQuoteExpired 見積もりの有効期限切れ
	ErrQuoteExpired = errors.New("quote expired")
	// ErrPaymentInFlight 決済処理中のため操作できない
	ErrPaymentInFlight = errors.New("payment already in flight")
	// ErrInvalidMethod 無効な決済手段
	ErrInvalidMethod = errors.New("invalid payment method")
	// ErrInvalidCurrency 無効な通貨
	ErrInvalidCurrency = errors.New("invalid currency")
	// ErrInvalidRequest 必須項目の欠落など、リクエストが不正
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError 利用者に返すメッセージ付きの入力エラー
type ValidationError struct {
	Kind    error
	Message string
}

// NewValidationError 新しいValidationErrorを作成
func NewValidationError(kind error, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

// Error エラーメッセージを返す
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap errors.Is で種別を判定できるようにする
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// ProviderError 上流プロバイダー由来のエラー
// Kind は ErrProviderUnavailable か ErrProviderRejected のどちらか
type ProviderError struct {
	Kind       error
	Provider   string
	Message    string
	StatusCode int
}

// NewUnavailableError 到達不能エラーを作成
func NewUnavailableError(provider, message string, statusCode int) *ProviderError {
	return &ProviderError{
		Kind:       ErrProviderUnavailable,
		Provider:   provider,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewRejectedError 拒否エラーを作成
func NewRejectedError(provider, message string, statusCode int) *ProviderError {
	return &ProviderError{
		Kind:       ErrProviderRejected,
		Provider:   provider,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Error エラーメッセージを返す
func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap errors.Is で種別を判定できるようにする
func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// NewSignatureError 署名不一致エラーを作成
func NewSignatureError(provider, message string) *ProviderError {
	return &ProviderError{
		Kind:     ErrInvalidSignature,
		Provider: provider,
		Message:  message,
	}
}

// IsRejected 拒否エラーかどうかを返す
func (e *ProviderError) IsRejected() bool {
	return errors.Is(e.Kind, ErrProviderRejected)
}

// FailureMessage ユーザーに表示する失敗理由を返す
// ProviderError の場合は上流のメッセージをそのまま返す
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
