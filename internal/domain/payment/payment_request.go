package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// DefaultMinAmount チャージ可能な最小金額（INR）
	DefaultMinAmount = decimal.NewFromInt(10)
	// DefaultMaxAmount チャージ可能な最大金額（INR）
	DefaultMaxAmount = decimal.NewFromInt(100_000)

	minorUnitScale = decimal.NewFromInt(100)
)

// AmountLimits 金額の上下限
type AmountLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultAmountLimits デフォルトの上下限を返す
func DefaultAmountLimits() AmountLimits {
	return AmountLimits{Min: DefaultMinAmount, Max: DefaultMaxAmount}
}

// Contains 金額が範囲内かどうかを返す
func (l AmountLimits) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(l.Min) && amount.LessThanOrEqual(l.Max)
}

// PaymentRequest チャージ要求エンティティ
type PaymentRequest struct {
	amountMinor int64
	currency    Currency
	method      Method
	description string
}

// ParseAmount 入力文字列を正の金額として解釈する
func ParseAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, input)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return amount, nil
}

// NewPaymentRequest 新しいPaymentRequestを作成
func NewPaymentRequest(
	amount decimal.Decimal,
	currency Currency,
	method Method,
	description string,
	limits AmountLimits,
) (*PaymentRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if amount.LessThan(limits.Min) {
		return nil, fmt.Errorf("%w: minimum amount is %s", ErrInvalidAmount, limits.Min.String())
	}
	if amount.GreaterThan(limits.Max) {
		return nil, fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, limits.Max.String())
	}
	if description == "" {
		description = "Add Money to Wallet"
	}

	return &PaymentRequest{
		amountMinor: ToMinor(amount),
		currency:    currency,
		method:      method,
		description: description,
	}, nil
}

// ToMinor 金額を最小通貨単位（パイサ、セント）に変換する
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitScale).Round(0).IntPart()
}

// FromMinor 最小通貨単位から金額に変換する
func FromMinor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorUnitScale)
}

// AmountMinor 最小通貨単位の金額を返す
func (r *PaymentRequest) AmountMinor() int64 {
	return r.amountMinor
}

// Amount 金額を返す
func (r *PaymentRequest) Amount() decimal.Decimal {
	return FromMinor(r.amountMinor)
}

// Currency 通貨を返す
func (r *PaymentRequest) Currency() Currency {
	return r.currency
}

// Method 決済手段を返す
func (r *PaymentRequest) Method() Method {
	return r.method
}

// Description 説明を返す
func (r *PaymentRequest) Description() string {
	return r.description
}
