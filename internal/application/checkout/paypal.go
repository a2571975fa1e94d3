package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/payment"
)

const paypalProvider = "paypal"

func (o *Orchestrator) startPayPal(ctx context.Context, amount decimal.Decimal) (*Step, error) {
	order, err := o.gateway.CreatePayPalOrder(ctx, amount, o.settings.Description)
	if err != nil {
		return o.fail(ctx, payment.MethodPayPal, amount, "Failed to create PayPal order", err), nil
	}
	if order.ApproveURL == "" {
		err := payment.NewRejectedError(paypalProvider, "PayPal approval URL not found", 0)
		return o.fail(ctx, payment.MethodPayPal, amount, "PayPal order has no approval link", err), nil
	}

	o.logger.Info(ctx, "PayPal order created", map[string]interface{}{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	})
	return o.awaitRedirect(ctx, payment.MethodPayPal, order.ID, amount, order.ApproveURL)
}

// reconcilePayPal 承認後の復帰でキャプチャする
// 保存した注文IDと戻ってきた token が一致しない場合はキャプチャしない
func (o *Orchestrator) reconcilePayPal(ctx context.Context, attempt *checkout.Attempt, ret ReturnParams) (*Step, error) {
	amount := attempt.Amount()

	if ret.PaymentStatus != "success" {
		err := payment.NewRejectedError(paypalProvider, "Payment not completed", 0)
		return o.fail(ctx, payment.MethodPayPal, amount, "PayPal payment not approved", err), nil
	}
	if ret.Token != attempt.ProviderRef() {
		err := payment.NewRejectedError(paypalProvider, "PayPal order mismatch", 0)
		return o.fail(ctx, payment.MethodPayPal, amount, "PayPal return token does not match the order", err), nil
	}

	capture, err := o.gateway.CapturePayPalOrder(ctx, attempt.ProviderRef())
	if err != nil {
		return o.fail(ctx, payment.MethodPayPal, amount, "PayPal capture failed", err), nil
	}

	ref := capture.CaptureID
	if ref == "" {
		ref = capture.ID
	}
	return o.succeed(ctx, payment.Succeeded(payment.MethodPayPal, amount, ref, addedMessage(amount, payment.MethodPayPal))), nil
}
