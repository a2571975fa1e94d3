package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/payment"
)

var (
	// ErrAttemptNotFound 決済試行が見つからない（期限切れ、処理済みを含む）
	ErrAttemptNotFound = errors.New("payment attempt not found")
	// ErrInvalidAttempt 無効な決済試行
	ErrInvalidAttempt = errors.New("invalid payment attempt")
)

// Attempt リダイレクトをまたいで保持する決済試行
// 戻り時の照合はこのレコードだけを信頼する
type Attempt struct {
	id          string
	method      payment.Method
	providerRef string
	amount      decimal.Decimal
	createdAt   time.Time
	expiresAt   time.Time
}

// NewAttempt 新しいAttemptを作成
func NewAttempt(method payment.Method, providerRef string, amount decimal.Decimal, ttl time.Duration) (*Attempt, error) {
	if providerRef == "" || !amount.IsPositive() || ttl <= 0 {
		return nil, ErrInvalidAttempt
	}
	now := time.Now()
	return &Attempt{
		id:          uuid.NewString(),
		method:      method,
		providerRef: providerRef,
		amount:      amount,
		createdAt:   now,
		expiresAt:   now.Add(ttl),
	}, nil
}

// RestoreAttempt 永続化された値からAttemptを復元する
func RestoreAttempt(id string, method payment.Method, providerRef string, amount decimal.Decimal, createdAt, expiresAt time.Time) *Attempt {
	return &Attempt{
		id:          id,
		method:      method,
		providerRef: providerRef,
		amount:      amount,
		createdAt:   createdAt,
		expiresAt:   expiresAt,
	}
}

// ID 試行IDを返す
func (a *Attempt) ID() string {
	return a.id
}

// Method 決済手段を返す
func (a *Attempt) Method() payment.Method {
	return a.method
}

// ProviderRef プロバイダー側のID（PayPal注文ID、Cryptomus UUID、Wise送金ID）を返す
func (a *Attempt) ProviderRef() string {
	return a.providerRef
}

// Amount チャージ金額（INR）を返す
func (a *Attempt) Amount() decimal.Decimal {
	return a.amount
}

// CreatedAt 作成日時を返す
func (a *Attempt) CreatedAt() time.Time {
	return a.createdAt
}

// ExpiresAt 有効期限を返す
func (a *Attempt) ExpiresAt() time.Time {
	return a.expiresAt
}

// TTL 残りの有効期間を返す
func (a *Attempt) TTL(now time.Time) time.Duration {
	return a.expiresAt.Sub(now)
}

// IsExpired 有効期限切れかどうかを返す
func (a *Attempt) IsExpired(now time.Time) bool {
	return !now.Before(a.expiresAt)
}
