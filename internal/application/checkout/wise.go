package checkout

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider/wise"
)

const wiseProvider = "wise"

// wiseFeeRate 見積もり画面に表示する手数料率（受取額に対して）
var wiseFeeRate = decimal.RequireFromString("0.015")

// wiseCompleted 入金済みとみなす送金ステータス
var wiseCompleted = map[string]bool{
	"processing":            true,
	"funds_converted":       true,
	"outgoing_payment_sent": true,
}

func (o *Orchestrator) startWise(ctx context.Context, amount decimal.Decimal) (*Step, error) {
	quote, err := o.gateway.CreateWiseQuote(ctx, amount, payment.CurrencyINR.String(), payment.CurrencyUSD.String())
	if err != nil {
		return o.fail(ctx, payment.MethodWise, amount, "Failed to create Wise quote", err), nil
	}
	if quote.ID == "" {
		err := payment.NewRejectedError(wiseProvider, "Failed to get valid quote", 0)
		return o.fail(ctx, payment.MethodWise, amount, "Wise quote has no id", err), nil
	}

	breakdown := o.breakdown(quote)

	o.mu.Lock()
	o.quote = breakdown
	o.awaitingUntil = breakdown.ExpiresAt
	o.mu.Unlock()

	o.logger.Info(ctx, "Wise quote awaiting confirmation", map[string]interface{}{
		"quote_id":      breakdown.QuoteID,
		"target_amount": breakdown.TargetAmount.String(),
		"fee":           breakdown.Fee.String(),
		"expires_at":    breakdown.ExpiresAt,
	})

	q := *breakdown
	return &Step{Kind: StepConfirmQuote, Quote: &q}, nil
}

// breakdown 手数料と受取額を計算する。プロバイダーの expiresAt があればそれを期限とする
func (o *Orchestrator) breakdown(quote *wise.Quote) *QuoteBreakdown {
	expiresAt := quote.ExpiresAtOr(o.now(), o.settings.QuoteTTL)
	fee := quote.TargetAmount.Mul(wiseFeeRate).Round(2)
	return &QuoteBreakdown{
		QuoteID:        quote.ID,
		SourceAmount:   quote.SourceAmount,
		SourceCurrency: quote.SourceCurrency,
		TargetAmount:   quote.TargetAmount,
		TargetCurrency: quote.TargetCurrency,
		Rate:           quote.Rate,
		Fee:            fee,
		NetAmount:      quote.TargetAmount.Sub(fee),
		ExpiresAt:      expiresAt,
	}
}

// ConfirmQuote 見積もりを確定し、受取口座と送金を作成する
// paymentUri があれば外部ページへ遷移し、なければその場で成功とする
func (o *Orchestrator) ConfirmQuote(ctx context.Context) (*Step, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.ConfirmQuote")
	defer span.End()

	quote, amount, err := o.takeQuote()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("quote_id", quote.QuoteID))

	if !o.now().Before(quote.ExpiresAt) {
		err := payment.NewValidationError(payment.ErrQuoteExpired, "Quote expired. Please request a new quote")
		return o.fail(ctx, payment.MethodWise, amount, "Wise quote expired", err), nil
	}

	recipient, err := o.gateway.CreateWiseRecipient(ctx, o.settings.WiseRecipient)
	if err != nil {
		return o.fail(ctx, payment.MethodWise, amount, "Failed to create Wise recipient", err), nil
	}

	reference := fmt.Sprintf("Wallet Transfer %d", o.now().UnixMilli())
	transfer, err := o.gateway.CreateWiseTransfer(ctx, quote.QuoteID, recipient.ID, reference)
	if err != nil {
		return o.fail(ctx, payment.MethodWise, amount, "Failed to create Wise transfer", err), nil
	}

	transferID := strconv.FormatInt(transfer.ID, 10)
	o.logger.Info(ctx, "Wise transfer created", map[string]interface{}{
		"transfer_id": transferID,
		"status":      transfer.Status,
		"redirect":    transfer.PaymentURI != "",
	})

	if transfer.PaymentURI != "" {
		return o.awaitRedirect(ctx, payment.MethodWise, transferID, amount, transfer.PaymentURI)
	}
	msg := fmt.Sprintf("Wise transfer initiated for %s!", payment.FormatINR(amount))
	return o.succeed(ctx, payment.Succeeded(payment.MethodWise, amount, transferID, msg)), nil
}

// CancelQuote 見積もり確認をキャンセルする
func (o *Orchestrator) CancelQuote(ctx context.Context) (*Step, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.CancelQuote")
	defer span.End()

	_, amount, err := o.takeQuote()
	if err != nil {
		return nil, err
	}
	return o.fail(ctx, payment.MethodWise, amount, "Wise quote cancelled", cancelled("Wise transfer cancelled")), nil
}

func (o *Orchestrator) takeQuote() (*QuoteBreakdown, decimal.Decimal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != checkout.StateDispatched || o.method != payment.MethodWise || o.quote == nil {
		return nil, decimal.Zero, ErrNothingPending
	}
	q := o.quote
	o.quote = nil
	return q, o.amount, nil
}

// reconcileWise 送金ステータスを確認する
func (o *Orchestrator) reconcileWise(ctx context.Context, attempt *checkout.Attempt) (*Step, error) {
	amount := attempt.Amount()

	id, err := strconv.ParseInt(attempt.ProviderRef(), 10, 64)
	if err != nil {
		rerr := payment.NewRejectedError(wiseProvider, "Invalid transfer ID", 0)
		return o.fail(ctx, payment.MethodWise, amount, "Stored Wise transfer id is invalid", rerr), nil
	}

	transfer, err := o.gateway.GetWiseTransfer(ctx, id)
	if err != nil {
		return o.fail(ctx, payment.MethodWise, amount, "Failed to fetch Wise transfer", err), nil
	}

	switch {
	case wiseCompleted[transfer.Status]:
		return o.succeed(ctx, payment.Succeeded(payment.MethodWise, amount, attempt.ProviderRef(), addedMessage(amount, payment.MethodWise))), nil
	case transfer.Status == "cancelled":
		return o.fail(ctx, payment.MethodWise, amount, "Wise transfer cancelled", cancelled("Wise transfer cancelled")), nil
	default:
		err := payment.NewRejectedError(wiseProvider, fmt.Sprintf("Wise transfer not completed (status: %s)", transfer.Status), 0)
		return o.fail(ctx, payment.MethodWise, amount, "Wise transfer not completed", err), nil
	}
}
