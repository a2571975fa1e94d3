package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)
	assert.NotNil(t, metrics)

	assert.NotNil(t, metrics.ProviderCallCount)
	assert.NotNil(t, metrics.ProviderCallDuration)
	assert.NotNil(t, metrics.PaymentOutcomeCount)
	assert.NotNil(t, metrics.WebhookCount)
	assert.NotNil(t, metrics.WalletBalance)
	assert.NotNil(t, metrics.WithdrawalCount)
	assert.NotNil(t, metrics.RequestCount)
	assert.NotNil(t, metrics.ResponseTime)
	assert.NotNil(t, metrics.ErrorCount)
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	defer otel.SetMeterProvider(prev)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordProviderCall(ctx, "paypal", "create_order", "success", 0.12)
	metrics.RecordProviderCall(ctx, "paypal", "capture_order", "error", 0.3)
	metrics.RecordPaymentOutcome(ctx, "razorpay", "success")
	metrics.RecordWebhook(ctx, "cryptomus", "rejected")
	metrics.RecordWalletBalance(ctx, 45320.50)
	metrics.RecordWithdrawal(ctx, "insufficient_balance")
	metrics.RecordRequest(ctx, "POST", "/api/create-order")
	metrics.RecordResponseTime(ctx, "POST", "/api/create-order", 0.05)
	metrics.RecordError(ctx, "client_error")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]metricdata.Aggregation)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m.Data
	}
	for _, name := range []string{
		"provider_calls_total",
		"provider_call_duration_seconds",
		"payment_outcomes_total",
		"webhooks_total",
		"wallet_balance",
		"withdrawals_total",
		"requests_total",
		"response_time_seconds",
		"errors_total",
	} {
		assert.Contains(t, names, name)
	}

	calls, ok := names["provider_calls_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, calls.DataPoints, 2)
}
