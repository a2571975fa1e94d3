package checkout

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/gateway"
	"wallet-server/internal/infrastructure/provider/cryptomus"
)

const cryptomusProvider = "cryptomus"

var errNotConfirmed = errors.New("cryptomus payment not confirmed yet")

func (o *Orchestrator) startCryptomus(ctx context.Context, amount decimal.Decimal) (*Step, error) {
	usd, err := exchange.Convert(ctx, o.rates, amount, payment.CurrencyINR.String(), payment.CurrencyUSD.String())
	if err != nil {
		return o.fail(ctx, payment.MethodCryptomus, amount, "Failed to convert amount to USD", err), nil
	}

	inv, err := o.gateway.CreateCryptomusPayment(ctx, usd, o.settings.Description)
	if err != nil {
		return o.fail(ctx, payment.MethodCryptomus, amount, "Failed to create Cryptomus payment", err), nil
	}
	if inv.URL == "" || inv.UUID == "" {
		err := payment.NewRejectedError(cryptomusProvider, "Cryptomus payment URL not found", 0)
		return o.fail(ctx, payment.MethodCryptomus, amount, "Cryptomus invoice has no payment page", err), nil
	}

	o.logger.Info(ctx, "Cryptomus invoice created", map[string]interface{}{
		"uuid":       inv.UUID,
		"order_id":   inv.OrderID,
		"amount_usd": usd.String(),
	})
	return o.awaitRedirect(ctx, payment.MethodCryptomus, inv.UUID, amount, inv.URL)
}

// reconcileCryptomus インボイスの状態が確定するまでポーリングする
func (o *Orchestrator) reconcileCryptomus(ctx context.Context, attempt *checkout.Attempt) (*Step, error) {
	amount := attempt.Amount()

	status, err := o.pollCryptomus(ctx, attempt.ProviderRef())
	switch {
	case errors.Is(err, errNotConfirmed):
		rerr := payment.NewRejectedError(cryptomusProvider, "Payment not confirmed yet", 0)
		return o.fail(ctx, payment.MethodCryptomus, amount, "Cryptomus payment still pending", rerr), nil
	case err != nil:
		return o.fail(ctx, payment.MethodCryptomus, amount, "Failed to fetch Cryptomus payment", err), nil
	case cryptomus.IsPaidStatus(status.Status):
		return o.succeed(ctx, payment.Succeeded(payment.MethodCryptomus, amount, status.UUID, addedMessage(amount, payment.MethodCryptomus))), nil
	default:
		rerr := payment.NewRejectedError(cryptomusProvider, "Cryptomus payment "+status.Status, 0)
		return o.fail(ctx, payment.MethodCryptomus, amount, "Cryptomus payment failed", rerr), nil
	}
}

// pollCryptomus StatusPollLimit の範囲で指数バックオフしながら確定ステータスを待つ
// 拒否エラーは再試行しない
func (o *Orchestrator) pollCryptomus(ctx context.Context, uuid string) (*gateway.CryptomusStatus, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.settings.PollInterval
	b.MaxInterval = 4 * o.settings.PollInterval
	b.MaxElapsedTime = o.settings.StatusPollLimit

	var last *gateway.CryptomusStatus
	attempts := 0
	op := func() error {
		attempts++
		st, err := o.gateway.GetCryptomusPayment(ctx, uuid)
		if err != nil {
			if errors.Is(err, payment.ErrProviderRejected) {
				return backoff.Permanent(err)
			}
			return err
		}
		last = st
		if cryptomus.IsPaidStatus(st.Status) || cryptomus.IsFailedStatus(st.Status) {
			return nil
		}
		return errNotConfirmed
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	o.logger.Debug(ctx, "Cryptomus status polling finished", map[string]interface{}{
		"uuid":     uuid,
		"attempts": attempts,
		"status":   statusOf(last),
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

func statusOf(st *gateway.CryptomusStatus) string {
	if st == nil {
		return ""
	}
	return st.Status
}
