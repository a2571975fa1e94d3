package exchange

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/exchange"
)

// rateScale 逆数を取るときの小数点以下桁数
const rateScale = 12

// StaticProvider 固定レート（1 USD = inrPerUSD INR）で換算する
type StaticProvider struct {
	inrPerUSD decimal.Decimal
}

// NewStaticProvider 新しいStaticProviderを作成
func NewStaticProvider(inrPerUSD float64) *StaticProvider {
	return &StaticProvider{inrPerUSD: decimal.NewFromFloat(inrPerUSD)}
}

// Rate source 1単位あたりの target の量を返す
func (p *StaticProvider) Rate(_ context.Context, source, target string) (decimal.Decimal, error) {
	switch {
	case source == target:
		return decimal.NewFromInt(1), nil
	case source == "USD" && target == "INR":
		return p.inrPerUSD, nil
	case source == "INR" && target == "USD":
		if !p.inrPerUSD.IsPositive() {
			return decimal.Zero, exchange.ErrRateUnavailable
		}
		return decimal.NewFromInt(1).DivRound(p.inrPerUSD, rateScale), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %s/%s", exchange.ErrRateUnavailable, source, target)
	}
}
