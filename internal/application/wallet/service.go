package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/domain/wallet"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// maxNotifications 保持する通知の上限
const maxNotifications = 50

// PayoutProcessor 出金処理インターフェース
type PayoutProcessor interface {
	Payout(ctx context.Context, amount decimal.Decimal, method string) (string, error)
}

// DemoPayout 一定時間待って成功する出金処理
type DemoPayout struct {
	Delay time.Duration
}

// Payout 出金を処理し、参照IDを返す
func (p DemoPayout) Payout(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	if p.Delay > 0 {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "wd_" + uuid.NewString(), nil
}

// WalletApplicationService ウォレット状態を管理するアプリケーションサービス
type WalletApplicationService struct {
	mu            sync.Mutex
	payoutMu      sync.Mutex
	wallet        *wallet.Wallet
	notifications []Notification
	payout        PayoutProcessor
	minWithdrawal decimal.Decimal
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
	now           func() time.Time
}

// NewWalletApplicationService 新しいWalletApplicationServiceを作成
func NewWalletApplicationService(
	w *wallet.Wallet,
	payout PayoutProcessor,
	minWithdrawal decimal.Decimal,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *WalletApplicationService {
	if w == nil {
		w = wallet.NewSeededWallet()
	}
	if !minWithdrawal.IsPositive() {
		minWithdrawal = wallet.DefaultMinWithdrawal
	}
	return &WalletApplicationService{
		wallet:        w,
		payout:        payout,
		minWithdrawal: minWithdrawal,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("wallet-service"),
		now:           time.Now,
	}
}

// ApplyOutcome 決済結果を残高に反映し、通知を追加する
// 失敗時は残高を変更しない
func (s *WalletApplicationService) ApplyOutcome(ctx context.Context, outcome payment.Outcome) {
	ctx, span := s.tracer.Start(ctx, "WalletApplicationService.ApplyOutcome")
	defer span.End()

	span.SetAttributes(
		attribute.String("method", outcome.Method.String()),
		attribute.String("amount", outcome.Amount.String()),
		attribute.Bool("success", outcome.Success),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !outcome.Success {
		msg := outcome.Message
		if msg == "" {
			msg = "Payment failed. Please try again."
		}
		s.notifyLocked(NotificationError, msg)
		s.logger.Warn(ctx, "Payment outcome not applied", map[string]interface{}{
			"method": outcome.Method.String(),
			"reason": msg,
		})
		return
	}

	txn, err := s.wallet.ApplyOutcome(outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to apply payment outcome", err, map[string]interface{}{
			"method": outcome.Method.String(),
			"amount": outcome.Amount.String(),
		})
		s.notifyLocked(NotificationError, "Payment failed. Please try again.")
		return
	}

	msg := outcome.Message
	if msg == "" {
		msg = fmt.Sprintf("Successfully added %s via %s!", payment.FormatINR(outcome.Amount), outcome.Method.DisplayName())
	}
	s.notifyLocked(NotificationSuccess, msg)
	s.metrics.RecordWalletBalance(ctx, s.wallet.Balance().InexactFloat64())

	s.logger.Info(ctx, "Wallet credited", map[string]interface{}{
		"transaction_id": txn.ID(),
		"method":         txn.Method(),
		"amount":         txn.Amount().String(),
		"balance":        s.wallet.Balance().String(),
	})
}

// Withdraw 出金する
// 最低額と出金可能残高の検証は出金処理の前に行う
func (s *WalletApplicationService) Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResult, error) {
	ctx, span := s.tracer.Start(ctx, "WalletApplicationService.Withdraw")
	defer span.End()

	span.SetAttributes(
		attribute.String("amount", req.Amount),
		attribute.String("method", req.Method),
	)

	s.payoutMu.Lock()
	defer s.payoutMu.Unlock()

	amount, err := s.validateWithdrawal(req)
	if err != nil {
		return nil, s.rejectWithdrawal(ctx, span, err)
	}

	ref, err := s.payout.Payout(ctx, amount, req.Method)
	if err != nil {
		s.metrics.RecordWithdrawal(ctx, "failure")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Payout failed", err, map[string]interface{}{
			"amount": amount.String(),
			"method": req.Method,
		})
		s.mu.Lock()
		s.notifyLocked(NotificationError, "Withdrawal failed. Please try again.")
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to process payout: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn, err := s.wallet.Debit(amount, s.minWithdrawal, req.Method, ref)
	if err != nil {
		s.metrics.RecordWithdrawal(ctx, "failure")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to debit wallet", err, map[string]interface{}{
			"amount": amount.String(),
		})
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	msg := fmt.Sprintf("Withdrawal of %s initiated successfully!", payment.FormatINR(amount))
	s.notifyLocked(NotificationSuccess, msg)
	s.metrics.RecordWithdrawal(ctx, "success")
	s.metrics.RecordWalletBalance(ctx, s.wallet.Balance().InexactFloat64())

	s.logger.Info(ctx, "Withdrawal completed", map[string]interface{}{
		"transaction_id": txn.ID(),
		"amount":         amount.String(),
		"method":         req.Method,
		"payout_ref":     ref,
	})

	return &WithdrawResult{
		TransactionID: txn.ID(),
		Amount:        amount,
		Balance:       s.wallet.Balance(),
		Available:     s.wallet.Available(),
		Message:       msg,
	}, nil
}

// validateWithdrawal 入力を検証し、画面表示用のメッセージ付きエラーを返す
func (s *WalletApplicationService) validateWithdrawal(req *WithdrawRequest) (decimal.Decimal, error) {
	if strings.TrimSpace(req.Amount) == "" || strings.TrimSpace(req.Method) == "" {
		return decimal.Zero, payment.NewValidationError(wallet.ErrInvalidAmount, "Please enter amount and select withdrawal method")
	}
	amount, err := payment.ParseAmount(req.Amount)
	if err != nil {
		return decimal.Zero, payment.NewValidationError(wallet.ErrInvalidAmount, "Please enter a valid amount")
	}

	s.mu.Lock()
	err = s.wallet.CheckWithdrawal(amount, s.minWithdrawal)
	s.mu.Unlock()

	switch {
	case err == nil:
		return amount, nil
	case errors.Is(err, wallet.ErrBelowMinimum):
		return decimal.Zero, payment.NewValidationError(wallet.ErrBelowMinimum, "Minimum withdrawal amount is "+payment.FormatINR(s.minWithdrawal))
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return decimal.Zero, payment.NewValidationError(wallet.ErrInsufficientBalance, "Insufficient balance for withdrawal")
	default:
		return decimal.Zero, payment.NewValidationError(wallet.ErrInvalidAmount, "Please enter a valid amount")
	}
}

func (s *WalletApplicationService) rejectWithdrawal(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.metrics.RecordWithdrawal(ctx, "rejected")
	s.logger.Warn(ctx, "Withdrawal rejected", map[string]interface{}{
		"reason": payment.FailureMessage(err),
	})
	s.mu.Lock()
	s.notifyLocked(NotificationError, payment.FailureMessage(err))
	s.mu.Unlock()
	return err
}

// Snapshot 描画用に状態のコピーを返す
func (s *WalletApplicationService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := s.wallet.Transactions()
	views := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, TransactionView{
			ID:          t.ID(),
			Type:        t.Type().String(),
			Method:      t.Method(),
			Amount:      t.Amount(),
			Timestamp:   t.Timestamp(),
			Status:      t.Status().String(),
			Description: t.Description(),
		})
	}
	return Snapshot{
		Balance:      s.wallet.Balance(),
		Available:    s.wallet.Available(),
		Transactions: views,
	}
}

// Notifications 通知を古い順で返す
func (s *WalletApplicationService) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *WalletApplicationService) notifyLocked(kind NotificationKind, message string) {
	s.notifications = append(s.notifications, Notification{
		Kind:      kind,
		Message:   message,
		Timestamp: s.now(),
	})
	if n := len(s.notifications); n > maxNotifications {
		s.notifications = s.notifications[n-maxNotifications:]
	}
}
