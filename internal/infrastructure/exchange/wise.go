package exchange

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/infrastructure/provider/wise"
)

// RateFetcher Wiseのレート一覧を取得するインターフェース
// wise.Client と gateway.Client の両方が満たす
type RateFetcher interface {
	GetRates(ctx context.Context, source, target string) ([]wise.Rate, error)
}

// WiseProvider Wiseの現在レートで換算する
// 取得に失敗した場合は fallback があればそちらを使う
type WiseProvider struct {
	fetcher  RateFetcher
	fallback exchange.RateProvider
}

// NewWiseProvider 新しいWiseProviderを作成
func NewWiseProvider(fetcher RateFetcher, fallback exchange.RateProvider) *WiseProvider {
	return &WiseProvider{fetcher: fetcher, fallback: fallback}
}

// Rate source 1単位あたりの target の量を返す
func (p *WiseProvider) Rate(ctx context.Context, source, target string) (decimal.Decimal, error) {
	if source == target {
		return decimal.NewFromInt(1), nil
	}

	rate, err := p.fetch(ctx, source, target)
	if err == nil {
		return rate, nil
	}
	if p.fallback != nil {
		return p.fallback.Rate(ctx, source, target)
	}
	return decimal.Zero, err
}

func (p *WiseProvider) fetch(ctx context.Context, source, target string) (decimal.Decimal, error) {
	rates, err := p.fetcher.GetRates(ctx, source, target)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", exchange.ErrRateUnavailable, err)
	}
	for _, r := range rates {
		if r.Source == source && r.Target == target && r.Rate.IsPositive() {
			return r.Rate, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s/%s not quoted", exchange.ErrRateUnavailable, source, target)
}
