package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"wallet-server/internal/infrastructure/provider"
)

// Name プロバイダー名
const Name = "razorpay"

// Client Razorpay Orders/Payments APIクライアント
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewClient 新しいClientを作成
func NewClient(keyID, keySecret, baseURL string, hc *http.Client) *Client {
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      hc,
	}
}

// Configured 認証情報が設定されているか
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeyID 公開キーID（チェックアウトウィジェットに渡す）
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrderInput 注文作成パラメータ
type CreateOrderInput struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order Razorpay注文
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Notes      map[string]string `json:"notes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

// Payment Razorpay決済
type Payment struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	OrderID   string `json:"order_id"`
	CreatedAt int64  `json:"created_at"`
}

// CreateOrder 注文を作成
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	body := map[string]interface{}{
		"amount":   in.AmountMinor,
		"currency": in.Currency,
		"receipt":  in.Receipt,
	}
	if len(in.Notes) > 0 {
		body["notes"] = in.Notes
	}

	req, err := provider.NewJSONRequest(ctx, http.MethodPost, c.baseURL+"/v1/orders", body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	var order Order
	if err := provider.Do(c.http, Name, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchPayment 決済情報を取得
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	req, err := provider.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	var p Payment
	if err := provider.Do(c.http, Name, req, &p); err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}
	return &p, nil
}

// VerifySignature チェックアウトが返した署名を検証
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Sign(orderID, paymentID, c.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign HMAC-SHA256("orderID|paymentID", secret) の16進表現を返す
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
