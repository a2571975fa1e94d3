package payment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider/paypal"
)

// CreatePayPalOrder INR金額をUSDに換算してPayPal注文を作成する
func (s *PaymentApplicationService) CreatePayPalOrder(ctx context.Context, req *CreatePayPalOrderRequest) (*PayPalOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreatePayPalOrder")
	defer span.End()

	span.SetAttributes(attribute.String("amount", req.Amount.String()))

	if req.Amount.LessThan(minProviderAmount) {
		return nil, s.fail(ctx, span, "Invalid PayPal order amount", invalidAmount(), map[string]interface{}{
			"amount": req.Amount.String(),
		})
	}
	if !s.paypal.Configured() {
		return nil, s.fail(ctx, span, "PayPal is not configured", notConfigured(paypal.Name, "PayPal credentials not configured"), nil)
	}

	usd, err := exchange.Convert(ctx, s.rates, req.Amount, payment.CurrencyINR.String(), payment.CurrencyUSD.String())
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to convert amount to USD", fmt.Errorf("failed to convert amount: %w", err), nil)
	}

	in := paypal.CreateOrderInput{
		Amount: paypal.Amount{
			CurrencyCode: payment.CurrencyUSD.String(),
			Value:        usd.StringFixed(2),
		},
		Description: orDefault(req.Description, "Add Money to Wallet"),
		ReturnURL:   s.settings.FrontendURL + "/wallet?payment_status=success",
		CancelURL:   s.settings.FrontendURL + "/wallet?payment_status=cancel",
		BrandName:   s.settings.PayPalBrandName,
	}

	var order *paypal.Order
	err = s.call(ctx, paypal.Name, "create_order", func(ctx context.Context) error {
		var err error
		order, err = s.paypal.CreateOrder(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create PayPal order", err, map[string]interface{}{
			"amount_usd": in.Amount.Value,
		})
	}

	s.logger.Info(ctx, "PayPal order created", map[string]interface{}{
		"order_id":   order.ID,
		"amount_usd": in.Amount.Value,
	})

	return &PayPalOrderResult{
		ID:         order.ID,
		Status:     order.Status,
		ApproveURL: order.ApproveURL(),
		Amount:     in.Amount.Value,
		Currency:   payment.CurrencyUSD.String(),
	}, nil
}

// CapturePayPalOrder 承認済みのPayPal注文をキャプチャする
func (s *PaymentApplicationService) CapturePayPalOrder(ctx context.Context, orderID string) (*PayPalCaptureResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CapturePayPalOrder")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	if orderID == "" {
		err := payment.NewValidationError(payment.ErrInvalidRequest, "Order ID is required")
		return nil, s.fail(ctx, span, "Missing PayPal order id", err, nil)
	}
	if !s.paypal.Configured() {
		return nil, s.fail(ctx, span, "PayPal is not configured", notConfigured(paypal.Name, "PayPal credentials not configured"), nil)
	}

	var order *paypal.Order
	err := s.call(ctx, paypal.Name, "capture_order", func(ctx context.Context) error {
		var err error
		order, err = s.paypal.CaptureOrder(ctx, orderID)
		return err
	})
	if err != nil {
		s.metrics.RecordPaymentOutcome(ctx, payment.MethodPayPal.String(), "failed")
		return nil, s.fail(ctx, span, "Failed to capture PayPal order", err, map[string]interface{}{
			"order_id": orderID,
		})
	}

	result := &PayPalCaptureResult{
		ID:        order.ID,
		Status:    order.Status,
		PayerName: order.Payer.FullName(),
	}
	if order.Payer != nil {
		result.PayerEmail = order.Payer.EmailAddress
	}
	if capture := order.FirstCapture(); capture != nil {
		result.CaptureID = capture.ID
		result.Amount = capture.Amount.Value
		result.Currency = capture.Amount.CurrencyCode
	}

	s.metrics.RecordPaymentOutcome(ctx, payment.MethodPayPal.String(), "captured")
	s.logger.Info(ctx, "PayPal order captured", map[string]interface{}{
		"order_id":   order.ID,
		"capture_id": result.CaptureID,
	})
	return result, nil
}

// GetPayPalOrder PayPal注文の状態を取得する
func (s *PaymentApplicationService) GetPayPalOrder(ctx context.Context, orderID string) (*PayPalOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.GetPayPalOrder")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	if !s.paypal.Configured() {
		return nil, s.fail(ctx, span, "PayPal is not configured", notConfigured(paypal.Name, "PayPal credentials not configured"), nil)
	}

	var order *paypal.Order
	err := s.call(ctx, paypal.Name, "get_order", func(ctx context.Context) error {
		var err error
		order, err = s.paypal.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch PayPal order", err, map[string]interface{}{
			"order_id": orderID,
		})
	}

	amount := order.FirstAmount()
	return &PayPalOrderResult{
		ID:       order.ID,
		Status:   order.Status,
		Amount:   amount.Value,
		Currency: amount.CurrencyCode,
	}, nil
}
