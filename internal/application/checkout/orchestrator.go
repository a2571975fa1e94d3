package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/gateway"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

const (
	defaultDescription  = "Add Money to Wallet"
	defaultPollInterval = 500 * time.Millisecond
	defaultPollLimit    = 20 * time.Second
	defaultTTL          = 30 * time.Minute
)

// ErrNothingPending 操作対象の決済がない
var ErrNothingPending = errors.New("no payment awaiting this action")

// Orchestrator チャージ決済のステートマシン
// 同時に進行する決済は常に1件まで
type Orchestrator struct {
	mu            sync.Mutex
	state         checkout.State
	method        payment.Method
	input         string
	amount        decimal.Decimal
	lastErr       error
	outcome       *payment.Outcome
	order         *gateway.RazorpayOrder
	quote         *QuoteBreakdown
	attemptID     string
	awaitingUntil time.Time

	gateway   Gateway
	attempts  checkout.AttemptStore
	rates     exchange.RateProvider
	onOutcome OutcomeHandler
	settings  Settings
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrchestrator 新しいOrchestratorを作成
func NewOrchestrator(
	gw Gateway,
	attempts checkout.AttemptStore,
	rates exchange.RateProvider,
	settings Settings,
	onOutcome OutcomeHandler,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Orchestrator {
	if settings.Limits.Min.IsZero() && settings.Limits.Max.IsZero() {
		settings.Limits = payment.DefaultAmountLimits()
	}
	if settings.PollInterval <= 0 {
		settings.PollInterval = defaultPollInterval
	}
	if settings.StatusPollLimit <= 0 {
		settings.StatusPollLimit = defaultPollLimit
	}
	if settings.AttemptTTL <= 0 {
		settings.AttemptTTL = defaultTTL
	}
	if settings.QuoteTTL <= 0 {
		settings.QuoteTTL = defaultTTL
	}
	if settings.Description == "" {
		settings.Description = defaultDescription
	}
	if settings.WiseRecipient.AccountNumber == "" {
		settings.WiseRecipient = DefaultWiseRecipient()
	}
	return &Orchestrator{
		state:     checkout.StateIdle,
		gateway:   gw,
		attempts:  attempts,
		rates:     rates,
		onOutcome: onOutcome,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("checkout-orchestrator"),
		now:       time.Now,
	}
}

// State 現在の状態を返す
func (o *Orchestrator) State() checkout.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// View 画面描画用の状態を返す
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		State:  o.state.String(),
		Method: o.method,
		Amount: o.input,
	}
	if o.lastErr != nil {
		v.Error = payment.FailureMessage(o.lastErr)
	}
	if o.quote != nil {
		q := *o.quote
		v.Quote = &q
	}
	if o.outcome != nil {
		out := *o.outcome
		v.Outcome = &out
	}
	return v
}

// Select 金額と決済手段を選択する（副作用なし）
func (o *Orchestrator) Select(amountInput string, method payment.Method) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.CanSelect() {
		return payment.ErrPaymentInFlight
	}
	o.selectLocked(amountInput, method)
	return nil
}

// Continue 金額を検証し、選択された決済手段で決済を開始する
// 入力エラーと処理中の拒否はエラーで返し、それ以外の失敗は Done ステップの Outcome で返す
func (o *Orchestrator) Continue(ctx context.Context, amountInput string, method payment.Method) (*Step, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Continue")
	defer span.End()

	span.SetAttributes(
		attribute.String("method", method.String()),
		attribute.String("amount_input", amountInput),
	)

	o.mu.Lock()
	o.releaseExpiredLocked(ctx)
	if o.state.InFlight() {
		state := o.state
		o.mu.Unlock()
		o.logger.Warn(ctx, "Payment already in flight", map[string]interface{}{
			"state":  state.String(),
			"method": method.String(),
		})
		return nil, payment.ErrPaymentInFlight
	}

	o.selectLocked(amountInput, method)
	o.state = checkout.StateValidating
	amount, err := o.validate(amountInput, method)
	if err != nil {
		o.state = checkout.StateMethodSelected
		o.lastErr = err
		o.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		o.logger.Warn(ctx, "Invalid payment amount", map[string]interface{}{
			"amount_input": amountInput,
			"reason":       payment.FailureMessage(err),
		})
		return nil, err
	}
	o.amount = amount
	o.state = checkout.StateDispatched
	o.mu.Unlock()

	o.logger.Info(ctx, "Payment dispatched", map[string]interface{}{
		"method": method.String(),
		"amount": amount.String(),
	})

	switch method {
	case payment.MethodRazorpay:
		return o.startRazorpay(ctx, amount)
	case payment.MethodPayPal:
		return o.startPayPal(ctx, amount)
	case payment.MethodWise:
		return o.startWise(ctx, amount)
	case payment.MethodCryptomus:
		return o.startCryptomus(ctx, amount)
	default:
		return o.runDemo(ctx, amount)
	}
}

// HandleReturn 外部ページからの復帰を処理する
// 試行が見つからない場合は何もせず nil を返す。見つかった試行は必ず削除される
func (o *Orchestrator) HandleReturn(ctx context.Context, ret ReturnParams) (*Step, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.HandleReturn")
	defer span.End()

	span.SetAttributes(
		attribute.String("attempt_id", ret.AttemptID),
		attribute.String("payment_status", ret.PaymentStatus),
	)

	if ret.AttemptID == "" {
		return nil, nil
	}

	o.mu.Lock()
	o.releaseExpiredLocked(ctx)
	switch o.state {
	case checkout.StateValidating, checkout.StateDispatched, checkout.StateReconciling:
		o.mu.Unlock()
		return nil, payment.ErrPaymentInFlight
	}
	prev := o.state
	o.state = checkout.StateReconciling
	o.mu.Unlock()

	attempt, err := o.attempts.Take(ctx, ret.AttemptID)
	if err != nil {
		o.restoreAfterMiss(prev, ret.AttemptID)
		if errors.Is(err, checkout.ErrAttemptNotFound) {
			o.logger.Debug(ctx, "No payment attempt for return", map[string]interface{}{
				"attempt_id": ret.AttemptID,
			})
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		o.logger.Error(ctx, "Failed to load payment attempt", err, map[string]interface{}{
			"attempt_id": ret.AttemptID,
		})
		return nil, fmt.Errorf("failed to load payment attempt: %w", err)
	}

	method, amount := attempt.Method(), attempt.Amount()
	o.mu.Lock()
	o.method = method
	o.amount = amount
	o.input = amount.String()
	o.attemptID = ""
	o.mu.Unlock()

	span.SetAttributes(
		attribute.String("method", method.String()),
		attribute.String("provider_ref", attempt.ProviderRef()),
	)
	o.logger.Info(ctx, "Reconciling payment return", map[string]interface{}{
		"attempt_id":     attempt.ID(),
		"method":         method.String(),
		"provider_ref":   attempt.ProviderRef(),
		"payment_status": ret.PaymentStatus,
	})

	if ret.PaymentStatus == "cancel" {
		return o.fail(ctx, method, amount, "Payment cancelled on provider page", cancelled("Payment cancelled by user")), nil
	}

	if !method.IsRedirect() {
		err := payment.NewRejectedError(method.String(), "Unsupported payment return", 0)
		return o.fail(ctx, method, amount, "Unsupported payment return", err), nil
	}
	switch method {
	case payment.MethodWise:
		return o.reconcileWise(ctx, attempt)
	case payment.MethodCryptomus:
		return o.reconcileCryptomus(ctx, attempt)
	}
	return o.reconcilePayPal(ctx, attempt, ret)
}

// Close 選択状態を破棄して Idle に戻す。処理中は拒否する
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.releaseExpiredLocked(ctx)
	if o.state.InFlight() {
		return payment.ErrPaymentInFlight
	}
	o.state = checkout.StateIdle
	o.method = ""
	o.input = ""
	o.amount = decimal.Zero
	o.lastErr = nil
	o.outcome = nil
	o.order = nil
	o.quote = nil
	return nil
}

func (o *Orchestrator) selectLocked(amountInput string, method payment.Method) {
	o.state = checkout.StateMethodSelected
	o.input = amountInput
	o.method = method
	o.lastErr = nil
	o.outcome = nil
	o.order = nil
	o.quote = nil
}

// validate 金額を検証する。ネットワーク呼び出しは行わない
func (o *Orchestrator) validate(amountInput string, method payment.Method) (decimal.Decimal, error) {
	if strings.TrimSpace(amountInput) == "" || method == "" {
		return decimal.Zero, payment.NewValidationError(payment.ErrInvalidAmount, "Please enter amount and select payment method")
	}
	amount, err := payment.ParseAmount(amountInput)
	if err != nil {
		return decimal.Zero, payment.NewValidationError(payment.ErrInvalidAmount, "Please enter a valid amount")
	}
	limits := o.settings.Limits
	if !limits.Contains(amount) {
		msg := "Maximum amount is " + payment.FormatINR(limits.Max)
		if amount.LessThan(limits.Min) {
			msg = "Minimum amount is " + payment.FormatINR(limits.Min)
		}
		return decimal.Zero, payment.NewValidationError(payment.ErrInvalidAmount, msg)
	}
	req, err := payment.NewPaymentRequest(amount, payment.CurrencyINR, method, o.settings.Description, limits)
	if err != nil {
		return decimal.Zero, payment.NewValidationError(payment.ErrInvalidAmount, "Please enter a valid amount")
	}
	return req.Amount(), nil
}

// awaitRedirect 試行を保存して外部ページへの遷移を返す
func (o *Orchestrator) awaitRedirect(ctx context.Context, method payment.Method, providerRef string, amount decimal.Decimal, url string) (*Step, error) {
	attempt, err := checkout.NewAttempt(method, providerRef, amount, o.settings.AttemptTTL)
	if err != nil {
		return o.fail(ctx, method, amount, "Failed to create payment attempt", err), nil
	}
	if err := o.attempts.Save(ctx, attempt); err != nil {
		return o.fail(ctx, method, amount, "Failed to save payment attempt", err), nil
	}

	o.mu.Lock()
	o.state = checkout.StateAwaitingExternalAction
	o.attemptID = attempt.ID()
	o.awaitingUntil = attempt.ExpiresAt()
	o.mu.Unlock()

	o.logger.Info(ctx, "Awaiting external payment action", map[string]interface{}{
		"attempt_id":   attempt.ID(),
		"method":       method.String(),
		"provider_ref": providerRef,
		"expires_at":   attempt.ExpiresAt(),
	})

	return &Step{
		Kind:             StepRedirect,
		RedirectURL:      url,
		AttemptID:        attempt.ID(),
		AttemptExpiresAt: attempt.ExpiresAt(),
	}, nil
}

// releaseExpiredLocked 復帰しないまま試行の期限が切れたら待機を解除する
// 開いたままのウィジェットや確定されない見積もりも期限で破棄する
func (o *Orchestrator) releaseExpiredLocked(ctx context.Context) {
	if o.now().Before(o.awaitingUntil) {
		return
	}
	switch {
	case o.state == checkout.StateAwaitingExternalAction:
		o.logger.Warn(ctx, "Payment attempt expired without return", map[string]interface{}{
			"attempt_id": o.attemptID,
			"method":     o.method.String(),
		})
	case o.state == checkout.StateDispatched && (o.order != nil || o.quote != nil):
		o.logger.Warn(ctx, "Payment step abandoned", map[string]interface{}{
			"method": o.method.String(),
		})
	default:
		return
	}
	o.state = checkout.StateIdle
	o.attemptID = ""
	o.order = nil
	o.quote = nil
}

// restoreAfterMiss 試行が見つからなかったときに状態を戻す
func (o *Orchestrator) restoreAfterMiss(prev checkout.State, attemptID string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev == checkout.StateAwaitingExternalAction && o.attemptID == attemptID {
		o.state = checkout.StateIdle
		o.attemptID = ""
		return
	}
	o.state = prev
}

// succeed 成功で確定する
func (o *Orchestrator) succeed(ctx context.Context, outcome payment.Outcome) *Step {
	return o.resolve(ctx, outcome)
}

// fail 失敗で確定する
func (o *Orchestrator) fail(ctx context.Context, method payment.Method, amount decimal.Decimal, message string, err error) *Step {
	o.logger.Error(ctx, message, err, map[string]interface{}{
		"method": method.String(),
		"amount": amount.String(),
	})
	return o.resolve(ctx, payment.Failed(method, amount, err))
}

// resolve 終端に遷移し、outcome ハンドラーを一度だけ呼ぶ
func (o *Orchestrator) resolve(ctx context.Context, outcome payment.Outcome) *Step {
	o.mu.Lock()
	if o.state == checkout.StateResolved && o.outcome != nil {
		prev := *o.outcome
		o.mu.Unlock()
		return &Step{Kind: StepDone, Outcome: &prev}
	}
	o.state = checkout.StateResolved
	o.outcome = &outcome
	o.lastErr = outcome.Err
	o.order = nil
	o.quote = nil
	o.attemptID = ""
	o.mu.Unlock()

	result := "success"
	switch {
	case outcome.Success:
	case errors.Is(outcome.Err, payment.ErrUserCancelled):
		result = "cancelled"
	default:
		result = "failure"
	}
	o.metrics.RecordPaymentOutcome(ctx, outcome.Method.String(), result)
	o.logger.Info(ctx, "Payment resolved", map[string]interface{}{
		"method":                  outcome.Method.String(),
		"amount":                  outcome.Amount.String(),
		"result":                  result,
		"provider_transaction_id": outcome.ProviderTransactionID,
		"message":                 outcome.Message,
	})

	if o.onOutcome != nil {
		o.onOutcome(ctx, outcome)
	}
	return &Step{Kind: StepDone, Outcome: &outcome}
}

// runDemo ネットワークを使わずに一定時間待って成功させる
func (o *Orchestrator) runDemo(ctx context.Context, amount decimal.Decimal) (*Step, error) {
	if err := sleepContext(ctx, o.settings.DemoDelay); err != nil {
		return o.fail(ctx, payment.MethodDemo, amount, "Demo payment interrupted", err), nil
	}
	return o.succeed(ctx, payment.Succeeded(payment.MethodDemo, amount, "", addedMessage(amount, payment.MethodDemo))), nil
}

func addedMessage(amount decimal.Decimal, method payment.Method) string {
	return fmt.Sprintf("Successfully added %s via %s!", payment.FormatINR(amount), method.DisplayName())
}

func cancelled(message string) error {
	return payment.NewValidationError(payment.ErrUserCancelled, message)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
