package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable 為替レートを取得できない
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateProvider 為替レート提供インターフェース
// Rate は source 1単位あたりの target の量を返す
type RateProvider interface {
	Rate(ctx context.Context, source, target string) (decimal.Decimal, error)
}

// Convert 金額を source から target に換算し、小数点以下2桁に丸める
func Convert(ctx context.Context, rates RateProvider, amount decimal.Decimal, source, target string) (decimal.Decimal, error) {
	if source == target {
		return amount.Round(2), nil
	}
	rate, err := rates.Rate(ctx, source, target)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s/%s rate: %w", source, target, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive %s/%s rate", ErrRateUnavailable, source, target)
	}
	return amount.Mul(rate).Round(2), nil
}
