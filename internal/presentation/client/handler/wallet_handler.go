package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	checkoutapp "wallet-server/internal/application/checkout"
	walletapp "wallet-server/internal/application/wallet"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/gateway"
	"wallet-server/internal/infrastructure/security"
)

// AttemptCookie 外部ページ遷移中の試行トークンを保持するクッキー名
const AttemptCookie = "wallet_attempt"

const widgetName = "Premium Wallet"

// BackendHealth 決済バックエンドのヘルスチェック
type BackendHealth interface {
	Health(ctx context.Context) (*gateway.HealthStatus, error)
}

// Options ハンドラーの動作設定
type Options struct {
	Environment  string
	SecureCookie bool
}

// WalletHandler ウォレット画面のハンドラー
type WalletHandler struct {
	orchestrator *checkoutapp.Orchestrator
	wallet       *walletapp.WalletApplicationService
	signer       *security.AttemptTokenSigner
	backend      BackendHealth
	opts         Options
	now          func() time.Time
}

// NewWalletHandler 新しいWalletHandlerを作成
func NewWalletHandler(
	orchestrator *checkoutapp.Orchestrator,
	wallet *walletapp.WalletApplicationService,
	signer *security.AttemptTokenSigner,
	backend BackendHealth,
	opts Options,
) *WalletHandler {
	return &WalletHandler{
		orchestrator: orchestrator,
		wallet:       wallet,
		signer:       signer,
		backend:      backend,
		opts:         opts,
		now:          time.Now,
	}
}

// GetWallet ウォレットの状態を返す
// 試行クッキーがあれば外部ページからの復帰として照合し、クッキーを削除する
// 照合中の決済がある場合はクッキーを残して409を返す
func (h *WalletHandler) GetWallet(c echo.Context) error {
	ctx := c.Request().Context()

	var returned *Outcome
	if cookie, err := c.Cookie(AttemptCookie); err == nil && cookie.Value != "" {
		attemptID, err := h.signer.Parse(cookie.Value)
		if err == nil {
			step, err := h.orchestrator.HandleReturn(ctx, checkoutapp.ReturnParams{
				AttemptID:     attemptID,
				Token:         c.QueryParam("token"),
				PaymentStatus: c.QueryParam("payment_status"),
			})
			if err != nil {
				return err
			}
			if step != nil && step.Outcome != nil {
				returned = toOutcome(step.Outcome)
			}
		}
		h.clearAttemptCookie(c)
	}

	resp := h.walletResponse()
	resp.Returned = returned
	return c.JSON(http.StatusOK, resp)
}

// AddMoney チャージを開始する
func (h *WalletHandler) AddMoney(c echo.Context) error {
	var req AddMoneyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	method := payment.ParseMethod(req.Method)
	if strings.TrimSpace(req.Method) == "" {
		method = ""
	}
	step, err := h.orchestrator.Continue(c.Request().Context(), string(req.Amount), method)
	if err != nil {
		return err
	}
	return h.respondStep(c, step)
}

// RazorpayCallback ウィジェットの成功コールバックを検証する
func (h *WalletHandler) RazorpayCallback(c echo.Context) error {
	var req RazorpayCallbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields: razorpay_order_id, razorpay_payment_id, razorpay_signature")
	}

	step, err := h.orchestrator.CompleteRazorpay(c.Request().Context(), checkoutapp.RazorpayResult{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return pending(err)
	}
	return h.respondStep(c, step)
}

// RazorpayDismiss ウィジェットの終了を通知する
func (h *WalletHandler) RazorpayDismiss(c echo.Context) error {
	var req RazorpayDismissRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	step, err := h.orchestrator.DismissRazorpay(c.Request().Context(), req.Reason)
	if err != nil {
		return pending(err)
	}
	return h.respondStep(c, step)
}

// ConfirmWiseQuote 見積もりを確定する
func (h *WalletHandler) ConfirmWiseQuote(c echo.Context) error {
	step, err := h.orchestrator.ConfirmQuote(c.Request().Context())
	if err != nil {
		return pending(err)
	}
	return h.respondStep(c, step)
}

// CancelWiseQuote 見積もりをキャンセルする
func (h *WalletHandler) CancelWiseQuote(c echo.Context) error {
	step, err := h.orchestrator.CancelQuote(c.Request().Context())
	if err != nil {
		return pending(err)
	}
	return h.respondStep(c, step)
}

// Close チャージ画面を閉じる
func (h *WalletHandler) Close(c echo.Context) error {
	if err := h.orchestrator.Close(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Withdraw 出金する
func (h *WalletHandler) Withdraw(c echo.Context) error {
	var req WithdrawRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.wallet.Withdraw(c.Request().Context(), &walletapp.WithdrawRequest{
		Amount: string(req.Amount),
		Method: req.Method,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, WithdrawResponse{
		Success:                true,
		Message:                result.Message,
		TransactionID:          result.TransactionID,
		Balance:                toFloat(result.Balance),
		AvailableForWithdrawal: toFloat(result.Available),
	})
}

// Health ヘルスチェック
// バックエンドに到達できなくても200を返し、backend に状態を載せる
func (h *WalletHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:      "ok",
		Timestamp:   h.now().UTC().Format(time.RFC3339Nano),
		Environment: h.opts.Environment,
		Backend:     "ok",
	}
	if h.backend != nil {
		status, err := h.backend.Health(c.Request().Context())
		if err != nil {
			resp.Backend = "unavailable"
		} else {
			resp.Payments = status.Payments
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// respondStep ステップをレスポンスに変換する。遷移時は試行トークンをクッキーに保存する
func (h *WalletHandler) respondStep(c echo.Context, step *checkoutapp.Step) error {
	resp := StepResponse{
		Success: true,
		Step:    string(step.Kind),
	}

	switch step.Kind {
	case checkoutapp.StepOpenWidget:
		w := step.Widget
		resp.Razorpay = &RazorpayWidget{
			Key:         w.KeyID,
			OrderID:     w.OrderID,
			Amount:      w.AmountMinor,
			Currency:    w.Currency,
			Name:        widgetName,
			Description: w.Description,
		}
	case checkoutapp.StepRedirect:
		ttl := step.AttemptExpiresAt.Sub(h.now())
		token, err := h.signer.Issue(step.AttemptID, ttl)
		if err != nil {
			return err
		}
		h.setAttemptCookie(c, token, step.AttemptExpiresAt)
		resp.RedirectURL = step.RedirectURL
	case checkoutapp.StepConfirmQuote:
		resp.Quote = toQuote(step.Quote)
	case checkoutapp.StepDone:
		resp.Outcome = toOutcome(step.Outcome)
		resp.Success = step.Outcome.Success
		resp.Message = step.Outcome.Message
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) walletResponse() WalletResponse {
	snap := h.wallet.Snapshot()
	view := h.orchestrator.View()

	txs := make([]Transaction, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		txs = append(txs, Transaction{
			ID:          t.ID,
			Type:        t.Type,
			Method:      t.Method,
			Amount:      toFloat(t.Amount),
			Timestamp:   t.Timestamp.UTC().Format(time.RFC3339),
			Status:      t.Status,
			Description: t.Description,
		})
	}

	notes := h.wallet.Notifications()
	notifications := make([]Notification, 0, len(notes))
	for _, n := range notes {
		notifications = append(notifications, Notification{
			Type:      string(n.Kind),
			Message:   n.Message,
			Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	return WalletResponse{
		Success:                true,
		Balance:                toFloat(snap.Balance),
		AvailableForWithdrawal: toFloat(snap.Available),
		Transactions:           txs,
		Notifications:          notifications,
		Checkout: CheckoutState{
			State:   view.State,
			Method:  view.Method.String(),
			Amount:  view.Amount,
			Error:   view.Error,
			Quote:   toQuote(view.Quote),
			Outcome: toOutcome(view.Outcome),
		},
	}
}

func (h *WalletHandler) setAttemptCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     AttemptCookie,
		Value:    token,
		Path:     "/wallet",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *WalletHandler) clearAttemptCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     AttemptCookie,
		Value:    "",
		Path:     "/wallet",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// pending 操作対象の決済がない場合は409にする
func pending(err error) error {
	if errors.Is(err, checkoutapp.ErrNothingPending) {
		return echo.NewHTTPError(http.StatusConflict, "No payment awaiting this action")
	}
	return err
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toQuote(q *checkoutapp.QuoteBreakdown) *Quote {
	if q == nil {
		return nil
	}
	return &Quote{
		ID:             q.QuoteID,
		SourceAmount:   toFloat(q.SourceAmount),
		SourceCurrency: q.SourceCurrency,
		TargetAmount:   toFloat(q.TargetAmount),
		TargetCurrency: q.TargetCurrency,
		Rate:           toFloat(q.Rate),
		Fee:            toFloat(q.Fee),
		NetAmount:      toFloat(q.NetAmount),
		ExpiresAt:      q.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func toOutcome(o *payment.Outcome) *Outcome {
	if o == nil {
		return nil
	}
	return &Outcome{
		Success:               o.Success,
		Amount:                toFloat(o.Amount),
		Method:                o.Method.DisplayName(),
		ProviderTransactionID: o.ProviderTransactionID,
		Message:               o.Message,
	}
}
