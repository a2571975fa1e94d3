package wise

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider"
)

// Name プロバイダー名
const Name = "wise"

// Client Wise Platform APIクライアント
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient 新しいClientを作成
func NewClient(apiKey, baseURL string, hc *http.Client) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		now:     time.Now,
	}
}

// Configured APIキーが設定されているか
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Quote 為替見積もり
type Quote struct {
	ID             string          `json:"id"`
	SourceAmount   decimal.Decimal `json:"sourceAmount"`
	SourceCurrency string          `json:"sourceCurrency"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	RateType       string          `json:"rateType"`
	CreatedTime    string          `json:"createdTime"`
	ExpiresAt      string          `json:"expiresAt,omitempty"`
}

// Recipient 受取口座
type Recipient struct {
	ID                int64  `json:"id"`
	Currency          string `json:"currency"`
	Country           string `json:"country"`
	AccountHolderName string `json:"accountHolderName"`
	Type              string `json:"type"`
}

// Transfer 送金
type Transfer struct {
	ID             int64           `json:"id"`
	Status         string          `json:"status"`
	SourceAmount   decimal.Decimal `json:"sourceValue"`
	TargetAmount   decimal.Decimal `json:"targetValue"`
	SourceCurrency string          `json:"sourceCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	PaymentURI     string          `json:"paymentUri,omitempty"`
	Details        struct {
		Reference string `json:"reference"`
	} `json:"details"`
}

// Rate 為替レート
type Rate struct {
	Rate   decimal.Decimal `json:"rate"`
	Source string          `json:"source"`
	Target string          `json:"target"`
	Time   string          `json:"time"`
}

// CreateQuoteInput 見積もり作成パラメータ
type CreateQuoteInput struct {
	SourceCurrency string
	TargetCurrency string
	SourceAmount   decimal.Decimal
}

// CreateRecipientInput 受取口座作成パラメータ
type CreateRecipientInput struct {
	AccountNumber string
	Currency      string
	Country       string
	FullName      string
	Email         string
}

// CreateTransferInput 送金作成パラメータ
type CreateTransferInput struct {
	RecipientID           int64
	QuoteID               string
	CustomerTransactionID string
	Reference             string
}

// CreateQuote 見積もりを作成
func (c *Client) CreateQuote(ctx context.Context, in CreateQuoteInput) (*Quote, error) {
	body := map[string]interface{}{
		"sourceCurrency": in.SourceCurrency,
		"targetCurrency": in.TargetCurrency,
		"sourceAmount":   in.SourceAmount.InexactFloat64(),
	}

	var q Quote
	if err := c.do(ctx, http.MethodPost, "/v3/quotes", body, &q); err != nil {
		return nil, err
	}
	if q.ID == "" {
		return nil, payment.NewRejectedError(Name, "Failed to create quote - no ID returned", 0)
	}
	return &q, nil
}

// ExpiresAtOr 見積もりの有効期限
// 上流が期限を返さない場合は作成時刻に fallback を足した値
func (q *Quote) ExpiresAtOr(createdAt time.Time, fallback time.Duration) time.Time {
	if q.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, q.ExpiresAt); err == nil {
			return t
		}
	}
	return createdAt.Add(fallback)
}

// CreateRecipient 受取口座を作成
func (c *Client) CreateRecipient(ctx context.Context, in CreateRecipientInput) (*Recipient, error) {
	body := map[string]interface{}{
		"currency":          in.Currency,
		"country":           in.Country,
		"accountHolderName": in.FullName,
		"details":           accountDetails(in),
		"type":              "BANK_ACCOUNT",
	}

	var r Recipient
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", body, &r); err != nil {
		return nil, err
	}
	if r.ID == 0 {
		return nil, payment.NewRejectedError(Name, "No account ID returned", 0)
	}
	return &r, nil
}

// accountDetails 通貨ごとの口座詳細（サンドボックス用の固定値を含む）
func accountDetails(in CreateRecipientInput) map[string]string {
	switch in.Currency {
	case "USD":
		return map[string]string{
			"accountNumber": "1234567890",
			"routingNumber": "011000015",
			"accountType":   "CHECKING",
			"holderName":    in.FullName,
		}
	case "EUR":
		return map[string]string{"iban": in.AccountNumber}
	case "GBP":
		return map[string]string{
			"accountNumber": in.AccountNumber,
			"sortCode":      "200000",
		}
	default:
		return map[string]string{}
	}
}

// CreateTransfer 送金を作成（自動承認はされない）
func (c *Client) CreateTransfer(ctx context.Context, in CreateTransferInput) (*Transfer, error) {
	customerTxID := in.CustomerTransactionID
	if customerTxID == "" {
		customerTxID = "transfer_" + strconv.FormatInt(c.now().UnixMilli(), 10)
	}
	reference := in.Reference
	if reference == "" {
		reference = "Wallet Transfer"
	}

	body := map[string]interface{}{
		"targetAccount":         in.RecipientID,
		"quoteUuid":             in.QuoteID,
		"customerTransactionId": customerTxID,
		"details": map[string]string{
			"reference":                         reference,
			"transferPurpose":                   "personal",
			"transferPurposeSubTransferPurpose": "verification.transfers.purpose.pay_bills",
		},
	}

	var tr Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", body, &tr); err != nil {
		return nil, err
	}
	if tr.ID == 0 {
		return nil, payment.NewRejectedError(Name, "Failed to create transfer", 0)
	}
	return &tr, nil
}

// GetTransfer 送金状態を取得
func (c *Client) GetTransfer(ctx context.Context, transferID int64) (*Transfer, error) {
	var tr Transfer
	if err := c.do(ctx, http.MethodGet, "/v1/transfers/"+strconv.FormatInt(transferID, 10), nil, &tr); err != nil {
		return nil, err
	}
	if tr.ID == 0 {
		return nil, payment.NewRejectedError(Name, "Transfer not found", 0)
	}
	return &tr, nil
}

// GetRates 現在の為替レートを取得
func (c *Client) GetRates(ctx context.Context, source, target string) ([]Rate, error) {
	q := url.Values{"source": {source}, "target": {target}}

	var rates []Rate
	if err := c.do(ctx, http.MethodGet, "/v1/rates?"+q.Encode(), nil, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := provider.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return provider.Do(c.http, Name, req, out)
}
