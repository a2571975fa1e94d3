package handler

import (
	"bytes"
	"encoding/json"
)

// AmountInput 数値でも文字列でも受け付ける金額入力
// 検証は Orchestrator 側で行うため、ここでは生の文字列を保持する
type AmountInput string

// UnmarshalJSON JSONの数値と文字列の両方を受け付ける
func (a *AmountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
	default:
		*a = AmountInput(b)
	}
	return nil
}

// AddMoneyRequest チャージ開始リクエスト
type AddMoneyRequest struct {
	Amount AmountInput `json:"amount"`
	Method string      `json:"method"`
}

// RazorpayCallbackRequest ウィジェットの成功コールバック
type RazorpayCallbackRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// RazorpayDismissRequest ウィジェットの終了通知
type RazorpayDismissRequest struct {
	Reason string `json:"reason"`
}

// WithdrawRequest 出金リクエスト
type WithdrawRequest struct {
	Amount AmountInput `json:"amount"`
	Method string      `json:"method"`
}

// SuccessResponse 汎用成功レスポンス
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RazorpayWidget ウィジェットの起動パラメータ
type RazorpayWidget struct {
	Key         string `json:"key"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Quote Wise見積もりの確認画面
type Quote struct {
	ID             string  `json:"id"`
	SourceAmount   float64 `json:"sourceAmount"`
	SourceCurrency string  `json:"sourceCurrency"`
	TargetAmount   float64 `json:"targetAmount"`
	TargetCurrency string  `json:"targetCurrency"`
	Rate           float64 `json:"rate"`
	Fee            float64 `json:"fee"`
	NetAmount      float64 `json:"netAmount"`
	ExpiresAt      string  `json:"expiresAt"`
}

// Outcome 決済結果
type Outcome struct {
	Success               bool    `json:"success"`
	Amount                float64 `json:"amount"`
	Method                string  `json:"method"`
	ProviderTransactionID string  `json:"providerTransactionId,omitempty"`
	Message               string  `json:"message"`
}

// StepResponse チャージ操作のレスポンス
type StepResponse struct {
	Success     bool            `json:"success"`
	Step        string          `json:"step"`
	Message     string          `json:"message,omitempty"`
	Razorpay    *RazorpayWidget `json:"razorpay,omitempty"`
	RedirectURL string          `json:"redirectUrl,omitempty"`
	Quote       *Quote          `json:"quote,omitempty"`
	Outcome     *Outcome        `json:"outcome,omitempty"`
}

// Transaction 取引履歴
type Transaction struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Method      string  `json:"method"`
	Amount      float64 `json:"amount"`
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	Description string  `json:"description"`
}

// Notification トースト通知
type Notification struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// CheckoutState チャージ画面の状態
type CheckoutState struct {
	State   string   `json:"state"`
	Method  string   `json:"method,omitempty"`
	Amount  string   `json:"amount,omitempty"`
	Error   string   `json:"error,omitempty"`
	Quote   *Quote   `json:"quote,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// WalletResponse ウォレット画面のレスポンス
type WalletResponse struct {
	Success                bool           `json:"success"`
	Balance                float64        `json:"balance"`
	AvailableForWithdrawal float64        `json:"availableForWithdrawal"`
	Transactions           []Transaction  `json:"transactions"`
	Notifications          []Notification `json:"notifications"`
	Checkout               CheckoutState  `json:"checkout"`
	Returned               *Outcome       `json:"returned,omitempty"`
}

// WithdrawResponse 出金レスポンス
type WithdrawResponse struct {
	Success                bool    `json:"success"`
	Message                string  `json:"message"`
	TransactionID          string  `json:"transactionId"`
	Balance                float64 `json:"balance"`
	AvailableForWithdrawal float64 `json:"availableForWithdrawal"`
}

// HealthResponse ヘルスチェックレスポンス
type HealthResponse struct {
	Status      string          `json:"status"`
	Timestamp   string          `json:"timestamp"`
	Environment string          `json:"environment"`
	Backend     string          `json:"backend"`
	Payments    map[string]bool `json:"payments,omitempty"`
}
