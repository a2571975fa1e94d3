package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRazorpayOrderRequest Razorpay注文作成リクエスト
type CreateRazorpayOrderRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// VerifyRazorpayPaymentRequest Razorpay決済検証リクエスト
type VerifyRazorpayPaymentRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// RazorpayPaymentResult 検証済みのRazorpay決済
type RazorpayPaymentResult struct {
	ID        string
	Amount    decimal.Decimal
	Currency  string
	Status    string
	Method    string
	CreatedAt int64
}

// CreateCryptomusPaymentRequest Cryptomusインボイス作成リクエスト（USD建て）
type CreateCryptomusPaymentRequest struct {
	Amount      decimal.Decimal
	Description string
}

// CryptomusPaymentResult 作成したインボイス
type CryptomusPaymentResult struct {
	UUID     string
	URL      string
	OrderID  string
	Amount   string
	Currency string
}

// CryptomusPaymentStatus インボイスの状態
type CryptomusPaymentStatus struct {
	UUID         string
	Status       string
	Amount       string
	Currency     string
	FromAmount   string
	FromCurrency string
	OrderID      string
}

// CreatePayPalOrderRequest PayPal注文作成リクエスト（INR建て）
type CreatePayPalOrderRequest struct {
	Amount      decimal.Decimal
	Description string
}

// PayPalOrderResult PayPal注文
type PayPalOrderResult struct {
	ID         string
	Status     string
	ApproveURL string
	Amount     string
	Currency   string
}

// PayPalCaptureResult キャプチャ結果
type PayPalCaptureResult struct {
	ID         string
	Status     string
	CaptureID  string
	Amount     string
	Currency   string
	PayerEmail string
	PayerName  string
}

// CreateWiseQuoteRequest Wise見積もり作成リクエスト
type CreateWiseQuoteRequest struct {
	Amount         decimal.Decimal
	SourceCurrency string
	TargetCurrency string
}

// CreateWiseRecipientRequest Wise受取口座作成リクエスト
type CreateWiseRecipientRequest struct {
	AccountNumber string
	Currency      string
	Country       string
	Email         string
	FullName      string
}

// CreateWiseTransferRequest Wise送金作成リクエスト
type CreateWiseTransferRequest struct {
	QuoteID         string
	RecipientID     int64
	CustomReference string
}

// HealthStatus ヘルスチェック結果
type HealthStatus struct {
	Status      string
	Timestamp   time.Time
	Environment string
	Payments    map[string]bool
}
