package payment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/messaging/kafka"
	"wallet-server/internal/infrastructure/provider/cryptomus"
)

// CreateCryptomusPayment USD建てのCryptomusインボイスを作成する
func (s *PaymentApplicationService) CreateCryptomusPayment(ctx context.Context, req *CreateCryptomusPaymentRequest) (*CryptomusPaymentResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreateCryptomusPayment")
	defer span.End()

	span.SetAttributes(attribute.String("amount", req.Amount.String()))

	if req.Amount.LessThan(minProviderAmount) {
		return nil, s.fail(ctx, span, "Invalid Cryptomus payment amount", invalidAmount(), map[string]interface{}{
			"amount": req.Amount.String(),
		})
	}
	if !s.cryptomus.Configured() {
		return nil, s.fail(ctx, span, "Cryptomus is not configured", notConfigured(cryptomus.Name, "Cryptomus credentials not configured"), nil)
	}

	in := cryptomus.CreatePaymentInput{
		Amount:      req.Amount.String(),
		Currency:    payment.CurrencyUSD.String(),
		OrderID:     fmt.Sprintf("order_%d", s.now().UnixMilli()),
		URLReturn:   s.settings.FrontendURL + "/wallet",
		URLCallback: s.settings.PublicURL + "/api/cryptomus/webhook",
		Lifetime:    s.settings.CryptomusLifetime,
		Description: orDefault(req.Description, "Add Money to Wallet"),
	}

	var inv *cryptomus.Invoice
	err := s.call(ctx, cryptomus.Name, "create_payment", func(ctx context.Context) error {
		var err error
		inv, err = s.cryptomus.CreatePayment(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create Cryptomus payment", err, map[string]interface{}{
			"order_id": in.OrderID,
		})
	}

	s.logger.Info(ctx, "Cryptomus payment created", map[string]interface{}{
		"uuid":     inv.UUID,
		"order_id": in.OrderID,
		"amount":   in.Amount,
	})

	return &CryptomusPaymentResult{
		UUID:     inv.UUID,
		URL:      inv.URL,
		OrderID:  in.OrderID,
		Amount:   in.Amount,
		Currency: in.Currency,
	}, nil
}

// GetCryptomusPayment インボイスの状態を取得する
func (s *PaymentApplicationService) GetCryptomusPayment(ctx context.Context, uuid string) (*CryptomusPaymentStatus, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.GetCryptomusPayment")
	defer span.End()

	span.SetAttributes(attribute.String("uuid", uuid))

	if !s.cryptomus.Configured() {
		return nil, s.fail(ctx, span, "Cryptomus is not configured", notConfigured(cryptomus.Name, "Cryptomus credentials not configured"), nil)
	}

	var inv *cryptomus.Invoice
	err := s.call(ctx, cryptomus.Name, "payment_info", func(ctx context.Context) error {
		var err error
		inv, err = s.cryptomus.PaymentInfo(ctx, uuid)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch Cryptomus payment", err, map[string]interface{}{
			"uuid": uuid,
		})
	}

	return &CryptomusPaymentStatus{
		UUID:         inv.UUID,
		Status:       inv.CurrentStatus(),
		Amount:       inv.Amount,
		Currency:     inv.Currency,
		FromAmount:   inv.FromAmount,
		FromCurrency: inv.FromCurrency,
		OrderID:      inv.OrderID,
	}, nil
}

// HandleCryptomusWebhook Webhookの署名を検証し、ステータスイベントを発行する
// ウォレット残高は変更しない
func (s *PaymentApplicationService) HandleCryptomusWebhook(ctx context.Context, raw []byte) (*cryptomus.WebhookEvent, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.HandleCryptomusWebhook")
	defer span.End()

	event, err := s.cryptomus.VerifyWebhook(raw)
	if err != nil {
		s.metrics.RecordWebhook(ctx, cryptomus.Name, "rejected")
		return nil, s.fail(ctx, span, "Invalid Cryptomus webhook signature", err, nil)
	}

	span.SetAttributes(
		attribute.String("uuid", event.UUID),
		attribute.String("order_id", event.OrderID),
		attribute.String("status", event.Status),
	)

	result := "pending"
	switch {
	case event.Confirmed():
		result = "confirmed"
	case event.Failed():
		result = "failed"
	}
	s.metrics.RecordWebhook(ctx, cryptomus.Name, result)

	s.logger.Info(ctx, "Cryptomus webhook verified", map[string]interface{}{
		"uuid":     event.UUID,
		"order_id": event.OrderID,
		"status":   event.Status,
		"amount":   event.Amount,
		"result":   result,
	})

	// 発行の失敗はWebhookの応答に影響させない
	if err := s.publisher.Publish(ctx, kafka.StatusEvent{
		Provider:  cryptomus.Name,
		UUID:      event.UUID,
		OrderID:   event.OrderID,
		Status:    event.Status,
		Amount:    event.Amount,
		Currency:  event.Currency,
		IsFinal:   event.IsFinal,
		Timestamp: s.now(),
	}); err != nil {
		s.logger.Warn(ctx, "Failed to publish Cryptomus status event", map[string]interface{}{
			"uuid":  event.UUID,
			"error": err.Error(),
		})
	}

	return event, nil
}
