package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 決済プロバイダー呼び出し数
	ProviderCallCount metric.Int64Counter

	// 決済プロバイダー呼び出し時間
	ProviderCallDuration metric.Float64Histogram

	// 決済結果の件数
	PaymentOutcomeCount metric.Int64Counter

	// Webhook受信件数
	WebhookCount metric.Int64Counter

	// ウォレット残高
	WalletBalance metric.Float64Gauge

	// 出金件数
	WithdrawalCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	providerCallCount, err := meter.Int64Counter(
		"provider_calls_total",
		metric.WithDescription("Total number of payment provider calls"),
	)
	if err != nil {
		return nil, err
	}

	providerCallDuration, err := meter.Float64Histogram(
		"provider_call_duration_seconds",
		metric.WithDescription("Payment provider call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	paymentOutcomeCount, err := meter.Int64Counter(
		"payment_outcomes_total",
		metric.WithDescription("Total number of resolved payments"),
	)
	if err != nil {
		return nil, err
	}

	webhookCount, err := meter.Int64Counter(
		"webhooks_total",
		metric.WithDescription("Total number of received webhooks"),
	)
	if err != nil {
		return nil, err
	}

	walletBalance, err := meter.Float64Gauge(
		"wallet_balance",
		metric.WithDescription("Wallet balance"),
	)
	if err != nil {
		return nil, err
	}

	withdrawalCount, err := meter.Int64Counter(
		"withdrawals_total",
		metric.WithDescription("Total number of withdrawal requests"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ProviderCallCount:    providerCallCount,
		ProviderCallDuration: providerCallDuration,
		PaymentOutcomeCount:  paymentOutcomeCount,
		WebhookCount:         webhookCount,
		WalletBalance:        walletBalance,
		WithdrawalCount:      withdrawalCount,
		RequestCount:         requestCount,
		ResponseTime:         responseTime,
		ErrorCount:           errorCount,
	}, nil
}

// RecordProviderCall 決済プロバイダー呼び出しを記録
func (m *Metrics) RecordProviderCall(ctx context.Context, provider, operation, status string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.ProviderCallCount.Add(ctx, 1, attrs)
	m.ProviderCallDuration.Record(ctx, duration, attrs)
}

// RecordPaymentOutcome 決済結果を記録
func (m *Metrics) RecordPaymentOutcome(ctx context.Context, method, result string) {
	m.PaymentOutcomeCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("result", result),
		),
	)
}

// RecordWebhook Webhook受信を記録
func (m *Metrics) RecordWebhook(ctx context.Context, provider, result string) {
	m.WebhookCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("result", result),
		),
	)
}

// RecordWalletBalance ウォレット残高を記録
func (m *Metrics) RecordWalletBalance(ctx context.Context, balance float64) {
	m.WalletBalance.Record(ctx, balance)
}

// RecordWithdrawal 出金を記録
func (m *Metrics) RecordWithdrawal(ctx context.Context, result string) {
	m.WithdrawalCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("result", result),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
