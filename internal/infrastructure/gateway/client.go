package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider"
	"wallet-server/internal/infrastructure/provider/wise"
)

// Name エラーに付けるプロバイダー名
const Name = "payment-api"

// Client 決済バックエンド（/api）のRESTクライアント
// 通信エラー、タイムアウト、5xxは ErrProviderUnavailable、4xxと success:false は ErrProviderRejected
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 新しいClientを作成
// timeout はリクエストごとの期限
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, provider.NewHTTPClient(timeout))
}

// NewClientWithHTTP HTTPクライアントを指定してClientを作成
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// RazorpayOrder Razorpay注文
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	KeyID    string `json:"-"`
}

// RazorpayPayment 検証済みのRazorpay決済
type RazorpayPayment struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Method    string          `json:"method"`
	CreatedAt int64           `json:"created_at"`
}

// CryptomusPayment 作成したインボイス
type CryptomusPayment struct {
	UUID     string `json:"uuid"`
	URL      string `json:"url"`
	OrderID  string `json:"order_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// CryptomusStatus インボイスの状態
type CryptomusStatus struct {
	UUID         string `json:"uuid"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	FromAmount   string `json:"from_amount"`
	FromCurrency string `json:"from_currency"`
	OrderID      string `json:"order_id"`
}

// PayPalOrder PayPal注文
type PayPalOrder struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

// PayPalCapture キャプチャ結果
type PayPalCapture struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CaptureID  string `json:"capture_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	PayerEmail string `json:"payer_email"`
	PayerName  string `json:"payer_name"`
}

// WiseTransfer Wise送金
type WiseTransfer struct {
	ID             int64           `json:"id"`
	Status         string          `json:"status"`
	SourceAmount   decimal.Decimal `json:"sourceAmount"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	SourceCurrency string          `json:"sourceCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	PaymentURI     string          `json:"paymentUri"`
	Reference      string          `json:"reference"`
}

// WiseRecipientInput 受取口座作成パラメータ
type WiseRecipientInput struct {
	AccountNumber string `json:"accountNumber"`
	Currency      string `json:"currency"`
	Country       string `json:"country"`
	FullName      string `json:"fullName"`
	Email         string `json:"email,omitempty"`
}

// HealthStatus バックエンドのヘルスチェック結果
type HealthStatus struct {
	Status      string          `json:"status"`
	Timestamp   string          `json:"timestamp"`
	Environment string          `json:"environment"`
	Payments    map[string]bool `json:"payments"`
}

// CreateRazorpayOrder Razorpay注文を作成
func (c *Client) CreateRazorpayOrder(ctx context.Context, amount decimal.Decimal, currency, description string) (*RazorpayOrder, error) {
	var out struct {
		KeyID string        `json:"key_id"`
		Order RazorpayOrder `json:"order"`
	}
	body := map[string]interface{}{
		"amount":      amount,
		"currency":    currency,
		"description": description,
	}
	if err := c.do(ctx, http.MethodPost, "/api/create-order", body, &out); err != nil {
		return nil, err
	}
	out.Order.KeyID = out.KeyID
	return &out.Order, nil
}

// VerifyRazorpayPayment Razorpay決済の署名を検証
func (c *Client) VerifyRazorpayPayment(ctx context.Context, orderID, paymentID, signature string) (*RazorpayPayment, error) {
	var out struct {
		Payment RazorpayPayment `json:"payment"`
	}
	body := map[string]string{
		"orderId":   orderID,
		"paymentId": paymentID,
		"signature": signature,
	}
	if err := c.do(ctx, http.MethodPost, "/api/verify-payment", body, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// CreateCryptomusPayment USD建てのインボイスを作成
func (c *Client) CreateCryptomusPayment(ctx context.Context, amountUSD decimal.Decimal, description string) (*CryptomusPayment, error) {
	var out struct {
		Payment CryptomusPayment `json:"payment"`
	}
	body := map[string]interface{}{
		"amount":      amountUSD,
		"description": description,
	}
	if err := c.do(ctx, http.MethodPost, "/api/cryptomus/create-payment", body, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// GetCryptomusPayment インボイスの状態を取得
func (c *Client) GetCryptomusPayment(ctx context.Context, uuid string) (*CryptomusStatus, error) {
	var out struct {
		Payment CryptomusStatus `json:"payment"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cryptomus/payment/"+url.PathEscape(uuid), nil, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// CreatePayPalOrder INR金額でPayPal注文を作成（USD換算はバックエンド側）
func (c *Client) CreatePayPalOrder(ctx context.Context, amount decimal.Decimal, description string) (*PayPalOrder, error) {
	var out struct {
		Order PayPalOrder `json:"order"`
	}
	body := map[string]interface{}{
		"amount":      amount,
		"description": description,
	}
	if err := c.do(ctx, http.MethodPost, "/api/paypal/create-order", body, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// CapturePayPalOrder PayPal注文をキャプチャ
func (c *Client) CapturePayPalOrder(ctx context.Context, orderID string) (*PayPalCapture, error) {
	var out struct {
		Payment PayPalCapture `json:"payment"`
	}
	body := map[string]string{"orderId": orderID}
	if err := c.do(ctx, http.MethodPost, "/api/paypal/capture-order", body, &out); err != nil {
		return nil, err
	}
	return &out.Payment, nil
}

// GetPayPalOrder PayPal注文を取得
func (c *Client) GetPayPalOrder(ctx context.Context, orderID string) (*PayPalOrder, error) {
	var out struct {
		Order PayPalOrder `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/paypal/order/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// CreateWiseQuote Wise見積もりを作成
func (c *Client) CreateWiseQuote(ctx context.Context, amount decimal.Decimal, source, target string) (*wise.Quote, error) {
	var out struct {
		Quote wise.Quote `json:"quote"`
	}
	body := map[string]interface{}{
		"amount":         amount,
		"sourceCurrency": source,
		"targetCurrency": target,
	}
	if err := c.do(ctx, http.MethodPost, "/api/wise/create-quote", body, &out); err != nil {
		return nil, err
	}
	return &out.Quote, nil
}

// CreateWiseRecipient 受取口座を作成
func (c *Client) CreateWiseRecipient(ctx context.Context, in WiseRecipientInput) (*wise.Recipient, error) {
	var out struct {
		Recipient wise.Recipient `json:"recipient"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/wise/create-recipient", in, &out); err != nil {
		return nil, err
	}
	return &out.Recipient, nil
}

// CreateWiseTransfer 送金を作成
func (c *Client) CreateWiseTransfer(ctx context.Context, quoteID string, recipientID int64, reference string) (*WiseTransfer, error) {
	var out struct {
		Transfer WiseTransfer `json:"transfer"`
	}
	body := map[string]interface{}{
		"quoteId":         quoteID,
		"recipientId":     recipientID,
		"customReference": reference,
	}
	if err := c.do(ctx, http.MethodPost, "/api/wise/create-transfer", body, &out); err != nil {
		return nil, err
	}
	return &out.Transfer, nil
}

// GetWiseTransfer 送金の状態を取得
func (c *Client) GetWiseTransfer(ctx context.Context, transferID int64) (*WiseTransfer, error) {
	var out struct {
		Transfer WiseTransfer `json:"transfer"`
	}
	path := "/api/wise/transfer/" + strconv.FormatInt(transferID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Transfer, nil
}

// GetRates 為替レートを取得（exchange.RateFetcher を満たす）
func (c *Client) GetRates(ctx context.Context, source, target string) ([]wise.Rate, error) {
	var out struct {
		Rates []wise.Rate `json:"rates"`
	}
	q := url.Values{}
	q.Set("source", source)
	q.Set("target", target)
	if err := c.do(ctx, http.MethodGet, "/api/wise/rates?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Rates, nil
}

// Health バックエンドのヘルスチェック
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := provider.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, err
	}
	var out HealthStatus
	if err := provider.Do(c.http, Name, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do {success, message, ...payload} 形式のレスポンスを処理する
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := provider.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if err := provider.Do(c.http, Name, req, &raw); err != nil {
		return err
	}

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return payment.NewUnavailableError(Name, "invalid response body: "+err.Error(), http.StatusOK)
	}
	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "request failed"
		}
		return payment.NewRejectedError(Name, msg, http.StatusOK)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return payment.NewUnavailableError(Name, "invalid response body: "+err.Error(), http.StatusOK)
	}
	return nil
}
