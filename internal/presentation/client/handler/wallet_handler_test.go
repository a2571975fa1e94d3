package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	checkoutapp "wallet-server/internal/application/checkout"
	walletapp "wallet-server/internal/application/wallet"
	"wallet-server/internal/domain/wallet"
	infraexchange "wallet-server/internal/infrastructure/exchange"
	"wallet-server/internal/infrastructure/gateway"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/persistence/memory"
	"wallet-server/internal/infrastructure/security"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"
)

type handlerDeps struct {
	gateway  *MockGateway
	payout   *MockPayout
	attempts *memory.AttemptStore
	signer   *security.AttemptTokenSigner
}

// setupHandler ルートとエラーハンドリングミドルウェアを登録したEchoを用意する
func setupHandler(t *testing.T) (*echo.Echo, *handlerDeps) {
	t.Helper()
	deps := &handlerDeps{
		gateway:  new(MockGateway),
		payout:   new(MockPayout),
		attempts: memory.NewAttemptStore(),
	}

	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	signer, err := security.NewAttemptTokenSigner("test-secret", "wallet-test")
	require.NoError(t, err)
	deps.signer = signer

	walletSvc := walletapp.NewWalletApplicationService(wallet.NewSeededWallet(), deps.payout, wallet.DefaultMinWithdrawal, logger, metrics)
	orchestrator := checkoutapp.NewOrchestrator(
		deps.gateway,
		deps.attempts,
		infraexchange.NewStaticProvider(84),
		checkoutapp.Settings{
			AttemptTTL:      30 * time.Minute,
			QuoteTTL:        30 * time.Minute,
			StatusPollLimit: 100 * time.Millisecond,
			PollInterval:    time.Millisecond,
		},
		walletSvc.ApplyOutcome,
		logger,
		metrics,
	)

	h := NewWalletHandler(orchestrator, walletSvc, signer, deps.gateway, Options{Environment: "test"})

	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
	e.GET("/wallet", h.GetWallet)
	e.POST("/wallet/add-money", h.AddMoney)
	e.POST("/wallet/razorpay/callback", h.RazorpayCallback)
	e.POST("/wallet/razorpay/dismiss", h.RazorpayDismiss)
	e.POST("/wallet/wise/confirm", h.ConfirmWiseQuote)
	e.POST("/wallet/wise/cancel", h.CancelWiseQuote)
	e.POST("/wallet/close", h.Close)
	e.POST("/wallet/withdraw", h.Withdraw)
	e.GET("/health", h.Health)
	return e, deps
}

func doRequest(e *echo.Echo, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func attemptCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == AttemptCookie {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestWalletHandler_GetWallet(t *testing.T) {
	e, _ := setupHandler(t)

	rec := doRequest(e, http.MethodGet, "/wallet", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[WalletResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 45320.50, resp.Balance)
	assert.Equal(t, 44500.00, resp.AvailableForWithdrawal)
	assert.Empty(t, resp.Transactions)
	assert.Equal(t, "idle", resp.Checkout.State)
	assert.Nil(t, resp.Returned)
	assert.Nil(t, attemptCookie(rec))
}

func TestWalletHandler_AddMoney_InvalidAmount(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{name: "異常系: 下限未満", body: `{"amount":"5","method":"razorpay"}`, wantMessage: "Minimum amount is ₹10"},
		{name: "異常系: 数値で上限超過", body: `{"amount":100001,"method":"paypal"}`, wantMessage: "Maximum amount is ₹1,00,000"},
		{name: "異常系: 決済手段なし", body: `{"amount":"500","method":""}`, wantMessage: "Please enter amount and select payment method"},
		{name: "異常系: 数値でない", body: `{"amount":"abc","method":"wise"}`, wantMessage: "Please enter a valid amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, deps := setupHandler(t)

			rec := doRequest(e, http.MethodPost, "/wallet/add-money", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decode[restmiddleware.ErrorResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Empty(t, deps.gateway.Calls)

			state := decode[WalletResponse](t, doRequest(e, http.MethodGet, "/wallet", ""))
			assert.Equal(t, "method_selected", state.Checkout.State)
			assert.Equal(t, tt.wantMessage, state.Checkout.Error)
		})
	}
}

func TestWalletHandler_AddMoney_InvalidBody(t *testing.T) {
	e, _ := setupHandler(t)

	rec := doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[restmiddleware.ErrorResponse](t, rec).Message)
}

func TestWalletHandler_AddMoney_Demo(t *testing.T) {
	e, deps := setupHandler(t)

	rec := doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":500,"method":"demo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	step := decode[StepResponse](t, rec)
	assert.True(t, step.Success)
	assert.Equal(t, "done", step.Step)
	require.NotNil(t, step.Outcome)
	assert.Equal(t, "Demo", step.Outcome.Method)
	assert.Equal(t, "Successfully added ₹500 via Demo!", step.Message)
	assert.Empty(t, deps.gateway.Calls)

	state := decode[WalletResponse](t, doRequest(e, http.MethodGet, "/wallet", ""))
	assert.Equal(t, 45820.50, state.Balance)
	assert.Equal(t, 45000.00, state.AvailableForWithdrawal)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, "Added via Demo", state.Transactions[0].Description)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, "success", state.Notifications[0].Type)
	assert.Equal(t, "resolved", state.Checkout.State)
}

func TestWalletHandler_PayPalRoundTrip(t *testing.T) {
	e, deps := setupHandler(t)

	deps.gateway.On("CreatePayPalOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.PayPalOrder{ID: "ORDER123", ApproveURL: "https://paypal.test/approve"}, nil).Once()
	deps.gateway.On("CapturePayPalOrder", mock.Anything, "ORDER123").
		Return(&gateway.PayPalCapture{ID: "ORDER123", Status: "COMPLETED", CaptureID: "CAP-1"}, nil).Once()

	rec := doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"500","method":"paypal"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	step := decode[StepResponse](t, rec)
	assert.Equal(t, "redirect", step.Step)
	assert.Equal(t, "https://paypal.test/approve", step.RedirectURL)

	cookie := attemptCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/wallet", cookie.Path)
	assert.Equal(t, 1, deps.attempts.Len())

	// 遷移中は新しい決済を開始できない
	busy := doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"700","method":"demo"}`)
	assert.Equal(t, http.StatusConflict, busy.Code)

	ret := doRequest(e, http.MethodGet, "/wallet?token=ORDER123&payment_status=success", "", cookie)
	require.Equal(t, http.StatusOK, ret.Code)
	resp := decode[WalletResponse](t, ret)
	require.NotNil(t, resp.Returned)
	assert.True(t, resp.Returned.Success)
	assert.Equal(t, "CAP-1", resp.Returned.ProviderTransactionID)
	assert.Equal(t, 45820.50, resp.Balance)

	cleared := attemptCookie(ret)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, 0, deps.attempts.Len())

	// 同じクッキーで再度戻っても二重に加算しない
	again := doRequest(e, http.MethodGet, "/wallet?token=ORDER123&payment_status=success", "", cookie)
	require.Equal(t, http.StatusOK, again.Code)
	againResp := decode[WalletResponse](t, again)
	assert.Nil(t, againResp.Returned)
	assert.Equal(t, 45820.50, againResp.Balance)
	require.Len(t, againResp.Transactions, 1)

	deps.gateway.AssertNumberOfCalls(t, "CapturePayPalOrder", 1)
}

func TestWalletHandler_GetWallet_TamperedCookie(t *testing.T) {
	e, deps := setupHandler(t)

	deps.gateway.On("CreatePayPalOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.PayPalOrder{ID: "ORDER123", ApproveURL: "https://paypal.test/approve"}, nil).Once()

	rec := doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"500","method":"paypal"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	forged := &http.Cookie{Name: AttemptCookie, Value: attemptCookie(rec).Value + "x"}
	ret := doRequest(e, http.MethodGet, "/wallet?token=ORDER123&payment_status=success", "", forged)
	require.Equal(t, http.StatusOK, ret.Code)

	resp := decode[WalletResponse](t, ret)
	assert.Nil(t, resp.Returned)
	assert.Equal(t, "awaiting_external_action", resp.Checkout.State)
	assert.Equal(t, 45320.50, resp.Balance)
	assert.Equal(t, 1, deps.attempts.Len())
	deps.gateway.AssertNotCalled(t, "CapturePayPalOrder", mock.Anything, mock.Anything)
}

func TestWalletHandler_Razorpay(t *testing.T) {
	t.Run("正常系: ウィジェット起動後に検証", func(t *testing.T) {
		e, deps := setupHandler(t)

		deps.gateway.On("CreateRazorpayOrder", mock.Anything, mock.Anything, "INR", "Add Money to Wallet").
			Return(&gateway.RazorpayOrder{ID: "order_1", Amount: 50000, Currency: "INR", KeyID: "rzp_test"}, nil).Once()
		deps.gateway.On("VerifyRazorpayPayment", mock.Anything, "order_1", "pay_1", "sig").
			Return(&gateway.RazorpayPayment{ID: "pay_1", Amount: decimal.NewFromInt(500), Status: "captured"}, nil).Once()

		rec := doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"500","method":"razorpay"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		step := decode[StepResponse](t, rec)
		assert.Equal(t, "open_widget", step.Step)
		require.NotNil(t, step.Razorpay)
		assert.Equal(t, "rzp_test", step.Razorpay.Key)
		assert.Equal(t, int64(50000), step.Razorpay.Amount)
		assert.Equal(t, "Premium Wallet", step.Razorpay.Name)

		cb := doRequest(e, http.MethodPost, "/wallet/razorpay/callback",
			`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`)
		require.Equal(t, http.StatusOK, cb.Code)
		done := decode[StepResponse](t, cb)
		assert.True(t, done.Success)
		assert.Equal(t, "Successfully added ₹500 via Razorpay!", done.Message)
	})

	t.Run("正常系: 閉じるとキャンセル", func(t *testing.T) {
		e, deps := setupHandler(t)

		deps.gateway.On("CreateRazorpayOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&gateway.RazorpayOrder{ID: "order_1", Amount: 50000, Currency: "INR"}, nil).Once()

		doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"500","method":"razorpay"}`)
		rec := doRequest(e, http.MethodPost, "/wallet/razorpay/dismiss", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)

		step := decode[StepResponse](t, rec)
		assert.False(t, step.Success)
		assert.Equal(t, "Payment cancelled by user", step.Message)
		deps.gateway.AssertNotCalled(t, "VerifyRazorpayPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: 対象の決済がない", func(t *testing.T) {
		e, _ := setupHandler(t)

		rec := doRequest(e, http.MethodPost, "/wallet/razorpay/callback",
			`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "No payment awaiting this action", decode[restmiddleware.ErrorResponse](t, rec).Message)
	})

	t.Run("異常系: 必須項目なし", func(t *testing.T) {
		e, _ := setupHandler(t)

		rec := doRequest(e, http.MethodPost, "/wallet/razorpay/callback", `{"razorpay_order_id":"order_1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWalletHandler_WiseQuote_NothingPending(t *testing.T) {
	e, _ := setupHandler(t)

	for _, target := range []string{"/wallet/wise/confirm", "/wallet/wise/cancel"} {
		rec := doRequest(e, http.MethodPost, target, "")
		assert.Equal(t, http.StatusConflict, rec.Code, target)
	}
}

func TestWalletHandler_Withdraw(t *testing.T) {
	t.Run("正常系: 出金", func(t *testing.T) {
		e, deps := setupHandler(t)
		deps.payout.On("Payout", mock.Anything, mock.Anything, "Bank Account").Return("wd_1", nil).Once()

		rec := doRequest(e, http.MethodPost, "/wallet/withdraw", `{"amount":"1500","method":"Bank Account"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[WithdrawResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "Withdrawal of ₹1,500 initiated successfully!", resp.Message)
		assert.Equal(t, 43820.50, resp.Balance)
		assert.Equal(t, 43000.00, resp.AvailableForWithdrawal)
		assert.NotEmpty(t, resp.TransactionID)
	})

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{name: "異常系: 最低出金額未満", body: `{"amount":50,"method":"Bank Account"}`, wantMessage: "Minimum withdrawal amount is ₹100"},
		{name: "異常系: 出金可能残高超過", body: `{"amount":"44500.01","method":"UPI"}`, wantMessage: "Insufficient balance for withdrawal"},
		{name: "異常系: 出金方法なし", body: `{"amount":"500"}`, wantMessage: "Please enter amount and select withdrawal method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, deps := setupHandler(t)

			rec := doRequest(e, http.MethodPost, "/wallet/withdraw", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMessage, decode[restmiddleware.ErrorResponse](t, rec).Message)
			deps.payout.AssertNotCalled(t, "Payout", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestWalletHandler_Close(t *testing.T) {
	e, deps := setupHandler(t)

	doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"5","method":"demo"}`)
	rec := doRequest(e, http.MethodPost, "/wallet/close", "")
	require.Equal(t, http.StatusOK, rec.Code)

	state := decode[WalletResponse](t, doRequest(e, http.MethodGet, "/wallet", ""))
	assert.Equal(t, "idle", state.Checkout.State)
	assert.Empty(t, state.Checkout.Error)

	deps.gateway.On("CreatePayPalOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.PayPalOrder{ID: "ORDER123", ApproveURL: "https://paypal.test/approve"}, nil).Once()
	doRequest(e, http.MethodPost, "/wallet/add-money", `{"amount":"500","method":"paypal"}`)

	busy := doRequest(e, http.MethodPost, "/wallet/close", "")
	assert.Equal(t, http.StatusConflict, busy.Code)
}

func TestWalletHandler_Health(t *testing.T) {
	t.Run("正常系: バックエンドの状態を含む", func(t *testing.T) {
		e, deps := setupHandler(t)
		deps.gateway.On("Health", mock.Anything).
			Return(&gateway.HealthStatus{Status: "ok", Payments: map[string]bool{"razorpay": true, "paypal": false}}, nil).Once()

		rec := doRequest(e, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[HealthResponse](t, rec)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Backend)
		assert.Equal(t, "test", resp.Environment)
		assert.True(t, resp.Payments["razorpay"])
	})

	t.Run("異常系: バックエンドに到達できない", func(t *testing.T) {
		e, deps := setupHandler(t)
		deps.gateway.On("Health", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		rec := doRequest(e, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "unavailable", decode[HealthResponse](t, rec).Backend)
	})
}
