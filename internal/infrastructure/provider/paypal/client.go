package paypal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider"
)

// Name プロバイダー名
const Name = "paypal"

// StatusCompleted キャプチャ完了を表す注文ステータス
const StatusCompleted = "COMPLETED"

// Client PayPal Orders v2 APIクライアント
// アクセストークンはキャッシュせず呼び出しごとに取得する
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client
}

// NewClient 新しいClientを作成
func NewClient(clientID, clientSecret, baseURL string, hc *http.Client) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         hc,
	}
}

// Configured 認証情報が設定されているか
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// Amount 金額
type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// Link HATEOASリンク
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Capture キャプチャ結果
type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

// PurchaseUnit 購入単位
type PurchaseUnit struct {
	Amount      *Amount `json:"amount,omitempty"`
	Description string  `json:"description,omitempty"`
	Payments    *struct {
		Captures []Capture `json:"captures"`
	} `json:"payments,omitempty"`
}

// Payer 支払者
type Payer struct {
	EmailAddress string `json:"email_address"`
	Name         struct {
		GivenName string `json:"given_name"`
		Surname   string `json:"surname"`
	} `json:"name"`
}

// FullName 支払者の氏名
func (p *Payer) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Name.GivenName + " " + p.Name.Surname)
}

// Order PayPal注文
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Links         []Link         `json:"links,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
	Payer         *Payer         `json:"payer,omitempty"`
}

// ApproveURL 承認ページのURL（rel=approve）を返す
func (o *Order) ApproveURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

// FirstCapture 最初のキャプチャを返す
func (o *Order) FirstCapture() *Capture {
	if len(o.PurchaseUnits) == 0 || o.PurchaseUnits[0].Payments == nil || len(o.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil
	}
	return &o.PurchaseUnits[0].Payments.Captures[0]
}

// FirstAmount 最初の購入単位の金額を返す
func (o *Order) FirstAmount() Amount {
	if len(o.PurchaseUnits) == 0 || o.PurchaseUnits[0].Amount == nil {
		return Amount{}
	}
	return *o.PurchaseUnits[0].Amount
}

// CreateOrderInput 注文作成パラメータ
type CreateOrderInput struct {
	Amount      Amount
	Description string
	ReturnURL   string
	CancelURL   string
	BrandName   string
}

// CreateOrder 注文を作成
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	amount := in.Amount
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []PurchaseUnit{
			{Amount: &amount, Description: in.Description},
		},
		"application_context": map[string]string{
			"return_url":  in.ReturnURL,
			"cancel_url":  in.CancelURL,
			"user_action": "PAY_NOW",
			"brand_name":  in.BrandName,
		},
	}

	req, err := provider.NewJSONRequest(ctx, http.MethodPost, c.baseURL+"/v2/checkout/orders", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var order Order
	if err := provider.Do(c.http, Name, req, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, payment.NewRejectedError(Name, "Failed to create PayPal order", 0)
	}
	return &order, nil
}

// CaptureOrder 承認済みの注文をキャプチャ
// ステータスが COMPLETED 以外の場合は拒否エラー
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := provider.NewJSONRequest(ctx, http.MethodPost,
		c.baseURL+"/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var order Order
	if err := provider.Do(c.http, Name, req, &order); err != nil {
		return nil, err
	}
	if order.Status != StatusCompleted {
		return nil, payment.NewRejectedError(Name, "Payment not completed", 0)
	}
	return &order, nil
}

// GetOrder 注文を取得
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := provider.NewJSONRequest(ctx, http.MethodGet, c.baseURL+"/v2/checkout/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var order Order
	if err := provider.Do(c.http, Name, req, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, payment.NewRejectedError(Name, "Order not found", 0)
	}
	return &order, nil
}

// accessToken client_credentials でアクセストークンを取得
func (c *Client) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := provider.Do(c.http, Name, req, &token); err != nil {
		return "", fmt.Errorf("failed to get PayPal access token: %w", err)
	}
	if token.AccessToken == "" {
		return "", payment.NewRejectedError(Name, "empty access token", 0)
	}
	return token.AccessToken, nil
}
