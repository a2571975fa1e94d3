package payment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider/razorpay"
)

// RazorpayKeyID チェックアウトウィジェットに渡す公開キーを返す
func (s *PaymentApplicationService) RazorpayKeyID() string {
	return s.razorpay.KeyID()
}

// CreateRazorpayOrder Razorpay注文を作成する（金額は最小通貨単位に変換）
func (s *PaymentApplicationService) CreateRazorpayOrder(ctx context.Context, req *CreateRazorpayOrderRequest) (*razorpay.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreateRazorpayOrder")
	defer span.End()

	span.SetAttributes(attribute.String("amount", req.Amount.String()))

	if req.Amount.LessThan(minProviderAmount) {
		return nil, s.fail(ctx, span, "Invalid Razorpay order amount", invalidAmount(), map[string]interface{}{
			"amount": req.Amount.String(),
		})
	}
	if !s.razorpay.Configured() {
		return nil, s.fail(ctx, span, "Razorpay is not configured", notConfigured(razorpay.Name, "Razorpay credentials not configured"), nil)
	}

	in := razorpay.CreateOrderInput{
		AmountMinor: payment.ToMinor(req.Amount),
		Currency:    orDefault(req.Currency, payment.CurrencyINR.String()),
		Receipt:     fmt.Sprintf("receipt_%d", s.now().UnixMilli()),
		Notes: map[string]string{
			"description": orDefault(req.Description, "Add Money to Wallet"),
		},
	}

	var order *razorpay.Order
	err := s.call(ctx, razorpay.Name, "create_order", func(ctx context.Context) error {
		var err error
		order, err = s.razorpay.CreateOrder(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create Razorpay order", err, map[string]interface{}{
			"receipt": in.Receipt,
		})
	}

	s.logger.Info(ctx, "Razorpay order created", map[string]interface{}{
		"order_id":     order.ID,
		"amount_minor": order.Amount,
		"currency":     order.Currency,
	})
	return order, nil
}

// VerifyRazorpayPayment 署名を検証してから決済情報を取得する
func (s *PaymentApplicationService) VerifyRazorpayPayment(ctx context.Context, req *VerifyRazorpayPaymentRequest) (*RazorpayPaymentResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.VerifyRazorpayPayment")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
		attribute.String("payment_id", req.PaymentID),
	)

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		err := payment.NewValidationError(payment.ErrInvalidRequest, "Missing required fields")
		return nil, s.fail(ctx, span, "Missing Razorpay verification fields", err, nil)
	}
	if !s.razorpay.Configured() {
		return nil, s.fail(ctx, span, "Razorpay is not configured", notConfigured(razorpay.Name, "Razorpay credentials not configured"), nil)
	}

	// 署名が一致するまで上流のデータは一切参照しない
	if !s.razorpay.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.metrics.RecordPaymentOutcome(ctx, payment.MethodRazorpay.String(), "rejected")
		err := payment.NewSignatureError(razorpay.Name, "Payment verification failed - Invalid signature")
		return nil, s.fail(ctx, span, "Invalid Razorpay signature", err, map[string]interface{}{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
		})
	}

	var p *razorpay.Payment
	err := s.call(ctx, razorpay.Name, "fetch_payment", func(ctx context.Context) error {
		var err error
		p, err = s.razorpay.FetchPayment(ctx, req.PaymentID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch Razorpay payment", err, map[string]interface{}{
			"payment_id": req.PaymentID,
		})
	}

	s.metrics.RecordPaymentOutcome(ctx, payment.MethodRazorpay.String(), "verified")
	s.logger.Info(ctx, "Razorpay payment verified", map[string]interface{}{
		"payment_id": p.ID,
		"status":     p.Status,
	})

	return &RazorpayPaymentResult{
		ID:        p.ID,
		Amount:    payment.FromMinor(p.Amount),
		Currency:  p.Currency,
		Status:    p.Status,
		Method:    p.Method,
		CreatedAt: p.CreatedAt,
	}, nil
}
