package wallet

import (
	"fmt"
)

// TransactionType 取引種別を表す値オブジェクト
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit" // 入金
	TransactionTypeDebit  TransactionType = "debit"  // 出金
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "credit", "debit":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効な取引種別かどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeCredit, TransactionTypeDebit:
		return true
	default:
		return false
	}
}

// TransactionStatus 取引ステータスを表す値オブジェクト
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending" // 処理中
	TransactionStatusSuccess TransactionStatus = "success" // 成功
	TransactionStatusFailed  TransactionStatus = "failed"  // 失敗
)

// NewTransactionStatus 新しいTransactionStatusを作成
func NewTransactionStatus(s string) (TransactionStatus, error) {
	switch s {
	case "pending", "success", "failed":
		return TransactionStatus(s), nil
	default:
		return "", fmt.Errorf("invalid transaction status: %s", s)
	}
}

// String 文字列表現を返す
func (ts TransactionStatus) String() string {
	return string(ts)
}

// Valid 有効な取引ステータスかどうかを返す
func (ts TransactionStatus) Valid() bool {
	switch ts {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal 終端状態かどうかを返す
func (ts TransactionStatus) IsTerminal() bool {
	return ts == TransactionStatusSuccess || ts == TransactionStatusFailed
}
