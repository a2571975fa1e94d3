package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction 取引履歴エンティティ
// pending から success/failed への遷移以外は作成後に変更しない
type Transaction struct {
	id          string
	txType      TransactionType
	method      string
	amount      decimal.Decimal
	timestamp   time.Time
	status      TransactionStatus
	description string
	providerRef string
}

// NewTransaction 新しいTransactionエンティティを作成
func NewTransaction(
	txType TransactionType,
	method string,
	amount decimal.Decimal,
	status TransactionStatus,
	description string,
	providerRef string,
) (*Transaction, error) {
	if !txType.Valid() {
		return nil, ErrInvalidTransaction
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !status.Valid() {
		return nil, ErrInvalidTransaction
	}
	return &Transaction{
		id:          "txn_" + uuid.NewString(),
		txType:      txType,
		method:      method,
		amount:      amount,
		timestamp:   time.Now(),
		status:      status,
		description: description,
		providerRef: providerRef,
	}, nil
}

// RestoreTransaction 既存の値からTransactionを復元する（初期データ用）
func RestoreTransaction(
	id string,
	txType TransactionType,
	method string,
	amount decimal.Decimal,
	timestamp time.Time,
	status TransactionStatus,
	description string,
) *Transaction {
	return &Transaction{
		id:          id,
		txType:      txType,
		method:      method,
		amount:      amount,
		timestamp:   timestamp,
		status:      status,
		description: description,
	}
}

// ID 取引IDを返す
func (t *Transaction) ID() string {
	return t.id
}

// Type 取引種別を返す
func (t *Transaction) Type() TransactionType {
	return t.txType
}

// Method 決済手段名を返す
func (t *Transaction) Method() string {
	return t.method
}

// Amount 金額を返す
func (t *Transaction) Amount() decimal.Decimal {
	return t.amount
}

// Timestamp 作成日時を返す
func (t *Transaction) Timestamp() time.Time {
	return t.timestamp
}

// Status ステータスを返す
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// Description 説明を返す
func (t *Transaction) Description() string {
	return t.description
}

// ProviderRef プロバイダー側の取引IDを返す
func (t *Transaction) ProviderRef() string {
	return t.providerRef
}

// Resolve pending の取引を success/failed に確定する
func (t *Transaction) Resolve(status TransactionStatus) error {
	if t.status != TransactionStatusPending || !status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	t.status = status
	return nil
}
