package cryptomus

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider"
)

// Name プロバイダー名
const Name = "cryptomus"

// Client Cryptomus決済APIクライアント
type Client struct {
	merchantUUID string
	apiKey       string
	baseURL      string
	http         *http.Client
}

// NewClient 新しいClientを作成
func NewClient(merchantUUID, apiKey, baseURL string, hc *http.Client) *Client {
	return &Client{
		merchantUUID: merchantUUID,
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         hc,
	}
}

// Configured 認証情報が設定されているか
func (c *Client) Configured() bool {
	return c.merchantUUID != "" && c.apiKey != ""
}

// CreatePaymentInput インボイス作成パラメータ
type CreatePaymentInput struct {
	Amount      string
	Currency    string
	OrderID     string
	URLReturn   string
	URLCallback string
	Lifetime    int
	Description string
}

// createPaymentPayload 送信ボディ（フィールド順が署名対象になる）
type createPaymentPayload struct {
	Merchant          string `json:"merchant"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	OrderID           string `json:"order_id"`
	URLReturn         string `json:"url_return"`
	URLCallback       string `json:"url_callback"`
	Lifetime          int    `json:"lifetime"`
	Description       string `json:"description"`
	IsPaymentRequired int    `json:"is_payment_required"`
}

// Invoice Cryptomusインボイス
type Invoice struct {
	UUID          string `json:"uuid"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	FromAmount    string `json:"from_amount"`
	FromCurrency  string `json:"from_currency"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	IsFinal       bool   `json:"is_final"`
}

// CurrentStatus インボイスの状態を返す
func (i *Invoice) CurrentStatus() string {
	if i.Status != "" {
		return i.Status
	}
	return i.PaymentStatus
}

type envelope struct {
	State   int      `json:"state"`
	Result  *Invoice `json:"result"`
	Message string   `json:"message"`
}

// CreatePayment インボイスを作成
func (c *Client) CreatePayment(ctx context.Context, in CreatePaymentInput) (*Invoice, error) {
	payload := createPaymentPayload{
		Merchant:          c.merchantUUID,
		Amount:            in.Amount,
		Currency:          in.Currency,
		OrderID:           in.OrderID,
		URLReturn:         in.URLReturn,
		URLCallback:       in.URLCallback,
		Lifetime:          in.Lifetime,
		Description:       in.Description,
		IsPaymentRequired: 1,
	}

	inv, err := c.post(ctx, "/v1/payment", payload, "Failed to create payment")
	if err != nil {
		return nil, err
	}
	if inv.OrderID == "" {
		inv.OrderID = in.OrderID
	}
	return inv, nil
}

// PaymentInfo インボイスの状態を取得
func (c *Client) PaymentInfo(ctx context.Context, uuid string) (*Invoice, error) {
	payload := struct {
		Merchant string `json:"merchant"`
		UUID     string `json:"uuid"`
	}{
		Merchant: c.merchantUUID,
		UUID:     uuid,
	}
	return c.post(ctx, "/v1/payment/info", payload, "Payment not found")
}

// post 署名付きでPOSTし、result を取り出す
func (c *Client) post(ctx context.Context, path string, payload interface{}, fallback string) (*Invoice, error) {
	body, err := marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.merchantUUID)
	req.Header.Set("sign", Sign(body, c.apiKey))

	var env envelope
	if err := provider.Do(c.http, Name, req, &env); err != nil {
		return nil, err
	}
	if env.Result == nil {
		msg := env.Message
		if msg == "" {
			msg = fallback
		}
		return nil, payment.NewRejectedError(Name, msg, 0)
	}
	return env.Result, nil
}

// Sign MD5(body + apiKey) の16進表現を返す
func Sign(body []byte, apiKey string) string {
	sum := md5.Sum(append(append([]byte{}, body...), apiKey...))
	return hex.EncodeToString(sum[:])
}

// marshal HTMLエスケープなしでJSONを生成
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
