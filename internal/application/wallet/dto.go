package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawRequest 出金リクエスト
type WithdrawRequest struct {
	Amount string
	Method string
}

// WithdrawResult 出金結果
type WithdrawResult struct {
	TransactionID string
	Amount        decimal.Decimal
	Balance       decimal.Decimal
	Available     decimal.Decimal
	Message       string
}

// NotificationKind 通知の種類
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification 画面に表示するトースト通知
type Notification struct {
	Kind      NotificationKind
	Message   string
	Timestamp time.Time
}

// TransactionView 描画用の取引
type TransactionView struct {
	ID          string
	Type        string
	Method      string
	Amount      decimal.Decimal
	Timestamp   time.Time
	Status      string
	Description string
}

// Snapshot 描画用のウォレット状態のコピー
type Snapshot struct {
	Balance      decimal.Decimal
	Available    decimal.Decimal
	Transactions []TransactionView
}
