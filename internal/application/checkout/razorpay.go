package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/gateway"
)

const razorpayProvider = "razorpay"

// razorpayPaid 入金済みとみなす決済ステータス
var razorpayPaid = map[string]bool{
	"captured":   true,
	"authorized": true,
}

func (o *Orchestrator) startRazorpay(ctx context.Context, amount decimal.Decimal) (*Step, error) {
	order, err := o.gateway.CreateRazorpayOrder(ctx, amount, payment.CurrencyINR.String(), o.settings.Description)
	if err != nil {
		return o.fail(ctx, payment.MethodRazorpay, amount, "Failed to create Razorpay order", err), nil
	}

	o.mu.Lock()
	o.order = order
	o.awaitingUntil = o.now().Add(o.settings.AttemptTTL)
	o.mu.Unlock()

	o.logger.Info(ctx, "Razorpay order created", map[string]interface{}{
		"order_id":     order.ID,
		"amount_minor": order.Amount,
	})

	return &Step{
		Kind: StepOpenWidget,
		Widget: &RazorpayWidget{
			KeyID:       order.KeyID,
			OrderID:     order.ID,
			AmountMinor: order.Amount,
			Currency:    order.Currency,
			Description: o.settings.Description,
		},
	}, nil
}

// CompleteRazorpay ウィジェットの成功コールバックを受けてサーバー側で検証する
func (o *Orchestrator) CompleteRazorpay(ctx context.Context, res RazorpayResult) (*Step, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.CompleteRazorpay")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", res.OrderID),
		attribute.String("payment_id", res.PaymentID),
	)

	order, amount, err := o.takeRazorpay(checkout.StateReconciling)
	if err != nil {
		return nil, err
	}

	// 開いた注文以外のコールバックは検証に進めない
	if res.OrderID != order.ID {
		err := payment.NewRejectedError(razorpayProvider, "Order mismatch", 0)
		return o.fail(ctx, payment.MethodRazorpay, amount, "Razorpay callback for another order", err), nil
	}

	p, err := o.gateway.VerifyRazorpayPayment(ctx, res.OrderID, res.PaymentID, res.Signature)
	if err != nil {
		return o.fail(ctx, payment.MethodRazorpay, amount, "Razorpay payment verification failed", err), nil
	}
	if !razorpayPaid[p.Status] {
		err := payment.NewRejectedError(razorpayProvider, fmt.Sprintf("Payment not completed (status: %s)", p.Status), 0)
		return o.fail(ctx, payment.MethodRazorpay, amount, "Razorpay payment not captured", err), nil
	}
	if !p.Amount.Equal(amount) {
		err := payment.NewRejectedError(razorpayProvider, "Payment amount mismatch", 0)
		o.logger.Warn(ctx, "Razorpay amount mismatch", map[string]interface{}{
			"order_id":    order.ID,
			"expected":    amount.String(),
			"paid_amount": p.Amount.String(),
		})
		return o.fail(ctx, payment.MethodRazorpay, amount, "Razorpay payment amount mismatch", err), nil
	}

	return o.succeed(ctx, payment.Succeeded(payment.MethodRazorpay, amount, p.ID, addedMessage(amount, payment.MethodRazorpay))), nil
}

// DismissRazorpay ウィジェットが閉じられた、または決済失敗を通知された
// reason が空ならユーザーによるキャンセル、そうでなければ payment.failed の理由
func (o *Orchestrator) DismissRazorpay(ctx context.Context, reason string) (*Step, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.DismissRazorpay")
	defer span.End()

	_, amount, err := o.takeRazorpay(checkout.StateDispatched)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return o.fail(ctx, payment.MethodRazorpay, amount, "Razorpay checkout dismissed", cancelled("Payment cancelled by user")), nil
	}
	span.SetAttributes(attribute.String("reason", reason))
	return o.fail(ctx, payment.MethodRazorpay, amount, "Razorpay payment failed", payment.NewRejectedError(razorpayProvider, reason, 0)), nil
}

// takeRazorpay ウィジェット表示中の注文を確認し、次の状態に進める
func (o *Orchestrator) takeRazorpay(next checkout.State) (*gateway.RazorpayOrder, decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != checkout.StateDispatched || o.method != payment.MethodRazorpay || o.order == nil {
		return nil, decimal.Zero, ErrNothingPending
	}
	order := o.order
	o.state = next
	o.order = nil
	return order, o.amount, nil
}
