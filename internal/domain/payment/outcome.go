package payment

import (
	"github.com/shopspring/decimal"
)

// Outcome 決済の最終結果
type Outcome struct {
	Success               bool
	Amount                decimal.Decimal
	Method                Method
	ProviderTransactionID string
	Message               string
	Err                   error
}

// Succeeded 成功結果を作成
func Succeeded(method Method, amount decimal.Decimal, providerTransactionID, message string) Outcome {
	return Outcome{
		Success:               true,
		Amount:                amount,
		Method:                method,
		ProviderTransactionID: providerTransactionID,
		Message:               message,
	}
}

// Failed 失敗結果を作成
func Failed(method Method, amount decimal.Decimal, err error) Outcome {
	return Outcome{
		Success: false,
		Amount:  amount,
		Method:  method,
		Message: FailureMessage(err),
		Err:     err,
	}
}

// FailureReason 失敗理由を返す（成功時は空文字列）
func (o Outcome) FailureReason() string {
	if o.Success {
		return ""
	}
	return o.Message
}
