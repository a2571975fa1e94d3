package handler

import "github.com/shopspring/decimal"

// SuccessResponse 成功レスポンス（ペイロードなし）
// @Description 成功レスポンス
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message,omitempty" example:"Invalid amount"`
}

// ---- Razorpay ----

// CreateRazorpayOrderRequest Razorpay注文作成リクエスト
// amount は数値でも文字列でも受け付ける
type CreateRazorpayOrderRequest struct {
	Amount      decimal.Decimal `json:"amount" example:"500"`
	Currency    string          `json:"currency" example:"INR"`
	Description string          `json:"description" example:"Add Money to Wallet"`
}

// RazorpayOrder Razorpay注文（金額はパイサ単位）
type RazorpayOrder struct {
	ID       string `json:"id" example:"order_N1"`
	Amount   int64  `json:"amount" example:"50000"`
	Currency string `json:"currency" example:"INR"`
	Receipt  string `json:"receipt" example:"receipt_1700000000000"`
	Status   string `json:"status" example:"created"`
}

// CreateRazorpayOrderResponse Razorpay注文作成レスポンス
type CreateRazorpayOrderResponse struct {
	Success bool          `json:"success"`
	KeyID   string        `json:"key_id" example:"rzp_test_xxx"`
	Order   RazorpayOrder `json:"order"`
}

// VerifyRazorpayPaymentRequest Razorpay決済検証リクエスト
type VerifyRazorpayPaymentRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// RazorpayPayment 検証済み決済（金額はルピー単位）
type RazorpayPayment struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount" example:"500"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status" example:"captured"`
	Method    string  `json:"method" example:"upi"`
	CreatedAt int64   `json:"created_at"`
}

// VerifyRazorpayPaymentResponse Razorpay決済検証レスポンス
type VerifyRazorpayPaymentResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Payment RazorpayPayment `json:"payment"`
}

// ---- Cryptomus ----

// CreateCryptomusPaymentRequest Cryptomusインボイス作成リクエスト（USD建て）
type CreateCryptomusPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" example:"5.95"`
	Description string          `json:"description"`
}

// CryptomusPayment 作成したインボイス
type CryptomusPayment struct {
	UUID     string `json:"uuid"`
	URL      string `json:"url"`
	OrderID  string `json:"order_id"`
	Amount   string `json:"amount" example:"5.95"`
	Currency string `json:"currency" example:"USD"`
}

// CreateCryptomusPaymentResponse Cryptomusインボイス作成レスポンス
type CreateCryptomusPaymentResponse struct {
	Success bool             `json:"success"`
	Payment CryptomusPayment `json:"payment"`
}

// CryptomusPaymentStatus インボイスの状態
type CryptomusPaymentStatus struct {
	UUID         string `json:"uuid"`
	Status       string `json:"status" example:"paid"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	FromAmount   string `json:"from_amount,omitempty"`
	FromCurrency string `json:"from_currency,omitempty"`
	OrderID      string `json:"order_id"`
}

// GetCryptomusPaymentResponse インボイス状態レスポンス
type GetCryptomusPaymentResponse struct {
	Success bool                   `json:"success"`
	Payment CryptomusPaymentStatus `json:"payment"`
}

// ---- PayPal ----

// CreatePayPalOrderRequest PayPal注文作成リクエスト（INR建て）
type CreatePayPalOrderRequest struct {
	Amount      decimal.Decimal `json:"amount" example:"500"`
	Description string          `json:"description"`
}

// CapturePayPalOrderRequest PayPalキャプチャリクエスト
type CapturePayPalOrderRequest struct {
	OrderID string `json:"orderId"`
}

// PayPalOrder PayPal注文
type PayPalOrder struct {
	ID         string  `json:"id"`
	Status     string  `json:"status" example:"CREATED"`
	ApproveURL *string `json:"approve_url,omitempty"`
	Amount     string  `json:"amount" example:"5.95"`
	Currency   string  `json:"currency" example:"USD"`
}

// PayPalOrderResponse PayPal注文レスポンス
type PayPalOrderResponse struct {
	Success bool        `json:"success"`
	Order   PayPalOrder `json:"order"`
}

// PayPalCapture キャプチャ結果
type PayPalCapture struct {
	ID         string `json:"id"`
	Status     string `json:"status" example:"COMPLETED"`
	CaptureID  string `json:"capture_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	PayerEmail string `json:"payer_email"`
	PayerName  string `json:"payer_name"`
}

// CapturePayPalOrderResponse キャプチャレスポンス
type CapturePayPalOrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Payment PayPalCapture `json:"payment"`
}

// ---- Wise ----

// CreateWiseQuoteRequest Wise見積もり作成リクエスト
type CreateWiseQuoteRequest struct {
	Amount         decimal.Decimal `json:"amount" example:"1000"`
	SourceCurrency string          `json:"sourceCurrency" example:"INR"`
	TargetCurrency string          `json:"targetCurrency" example:"USD"`
}

// WiseQuote Wise見積もり
type WiseQuote struct {
	ID             string  `json:"id"`
	SourceAmount   float64 `json:"sourceAmount"`
	SourceCurrency string  `json:"sourceCurrency"`
	TargetAmount   float64 `json:"targetAmount"`
	TargetCurrency string  `json:"targetCurrency"`
	Rate           float64 `json:"rate"`
	RateType       string  `json:"rateType,omitempty"`
	CreatedTime    string  `json:"createdTime"`
	ExpiresAt      string  `json:"expiresAt,omitempty"`
}

// CreateWiseQuoteResponse Wise見積もりレスポンス
type CreateWiseQuoteResponse struct {
	Success bool      `json:"success"`
	Quote   WiseQuote `json:"quote"`
}

// CreateWiseRecipientRequest Wise受取口座作成リクエスト
type CreateWiseRecipientRequest struct {
	AccountNumber string `json:"accountNumber"`
	Currency      string `json:"currency"`
	Country       string `json:"country"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
}

// WiseRecipient 受取口座
type WiseRecipient struct {
	ID                int64  `json:"id"`
	Currency          string `json:"currency"`
	Country           string `json:"country"`
	AccountHolderName string `json:"accountHolderName"`
	Type              string `json:"type"`
}

// CreateWiseRecipientResponse 受取口座作成レスポンス
type CreateWiseRecipientResponse struct {
	Success   bool          `json:"success"`
	Recipient WiseRecipient `json:"recipient"`
}

// CreateWiseTransferRequest Wise送金作成リクエスト
type CreateWiseTransferRequest struct {
	QuoteID         string `json:"quoteId"`
	RecipientID     int64  `json:"recipientId"`
	CustomReference string `json:"customReference"`
}

// WiseTransfer Wise送金
type WiseTransfer struct {
	ID             int64   `json:"id"`
	Status         string  `json:"status" example:"incoming_payment_waiting"`
	SourceAmount   float64 `json:"sourceAmount"`
	TargetAmount   float64 `json:"targetAmount"`
	SourceCurrency string  `json:"sourceCurrency,omitempty"`
	TargetCurrency string  `json:"targetCurrency,omitempty"`
	Rate           float64 `json:"rate"`
	PaymentURI     *string `json:"paymentUri"`
	Reference      string  `json:"reference"`
}

// WiseTransferResponse 送金レスポンス
type WiseTransferResponse struct {
	Success  bool         `json:"success"`
	Transfer WiseTransfer `json:"transfer"`
}

// WiseRate 為替レート
type WiseRate struct {
	Rate   float64 `json:"rate" example:"0.0119"`
	Source string  `json:"source" example:"INR"`
	Target string  `json:"target" example:"USD"`
	Time   string  `json:"time"`
}

// WiseRatesResponse 為替レートレスポンス
type WiseRatesResponse struct {
	Success bool       `json:"success"`
	Rates   []WiseRate `json:"rates"`
}

// ---- Health ----

// HealthResponse ヘルスチェックレスポンス
type HealthResponse struct {
	Status      string          `json:"status" example:"ok"`
	Timestamp   string          `json:"timestamp"`
	Environment string          `json:"environment" example:"development"`
	Payments    map[string]bool `json:"payments"`
}
