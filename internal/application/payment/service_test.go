package payment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"wallet-server/internal/domain/payment"
	infraexchange "wallet-server/internal/infrastructure/exchange"
	"wallet-server/internal/infrastructure/messaging/kafka"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/provider/cryptomus"
	"wallet-server/internal/infrastructure/provider/paypal"
	"wallet-server/internal/infrastructure/provider/razorpay"
	"wallet-server/internal/infrastructure/provider/wise"
)

// MockRazorpay モックRazorpayクライアント
type MockRazorpay struct {
	mock.Mock
}

func (m *MockRazorpay) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockRazorpay) KeyID() string {
	return m.Called().String(0)
}

func (m *MockRazorpay) CreateOrder(ctx context.Context, in razorpay.CreateOrderInput) (*razorpay.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Order), args.Error(1)
}

func (m *MockRazorpay) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Payment), args.Error(1)
}

func (m *MockRazorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

// MockPayPal モックPayPalクライアント
type MockPayPal struct {
	mock.Mock
}

func (m *MockPayPal) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockPayPal) CreateOrder(ctx context.Context, in paypal.CreateOrderInput) (*paypal.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

func (m *MockPayPal) CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

func (m *MockPayPal) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

// MockCryptomus モックCryptomusクライアント
type MockCryptomus struct {
	mock.Mock
}

func (m *MockCryptomus) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockCryptomus) CreatePayment(ctx context.Context, in cryptomus.CreatePaymentInput) (*cryptomus.Invoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.Invoice), args.Error(1)
}

func (m *MockCryptomus) PaymentInfo(ctx context.Context, uuid string) (*cryptomus.Invoice, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.Invoice), args.Error(1)
}

func (m *MockCryptomus) VerifyWebhook(raw []byte) (*cryptomus.WebhookEvent, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.WebhookEvent), args.Error(1)
}

// MockWise モックWiseクライアント
type MockWise struct {
	mock.Mock
}

func (m *MockWise) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockWise) CreateQuote(ctx context.Context, in wise.CreateQuoteInput) (*wise.Quote, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Quote), args.Error(1)
}

func (m *MockWise) CreateRecipient(ctx context.Context, in wise.CreateRecipientInput) (*wise.Recipient, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Recipient), args.Error(1)
}

func (m *MockWise) CreateTransfer(ctx context.Context, in wise.CreateTransferInput) (*wise.Transfer, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Transfer), args.Error(1)
}

func (m *MockWise) GetTransfer(ctx context.Context, transferID int64) (*wise.Transfer, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Transfer), args.Error(1)
}

func (m *MockWise) GetRates(ctx context.Context, source, target string) ([]wise.Rate, error) {
	args := m.Called(ctx, source, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wise.Rate), args.Error(1)
}

// MockPublisher モックステータスイベント発行
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event kafka.StatusEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type testDeps struct {
	razorpay  *MockRazorpay
	paypal    *MockPayPal
	cryptomus *MockCryptomus
	wise      *MockWise
	publisher *MockPublisher
}

func setupService(t *testing.T) (*PaymentApplicationService, *testDeps) {
	t.Helper()
	deps := &testDeps{
		razorpay:  new(MockRazorpay),
		paypal:    new(MockPayPal),
		cryptomus: new(MockCryptomus),
		wise:      new(MockWise),
		publisher: new(MockPublisher),
	}

	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	svc := NewPaymentApplicationService(
		Providers{
			Razorpay:  deps.razorpay,
			PayPal:    deps.paypal,
			Cryptomus: deps.cryptomus,
			Wise:      deps.wise,
		},
		infraexchange.NewStaticProvider(84),
		deps.publisher,
		Settings{
			FrontendURL:       "http://localhost:5173",
			PublicURL:         "https://api.example.com",
			Environment:       "test",
			CryptomusLifetime: 3600,
			PayPalBrandName:   "Premium Wallet",
		},
		logger,
		metrics,
	)
	return svc, deps
}

func TestPaymentApplicationService_CreateRazorpayOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 最小通貨単位に変換して注文作成", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.razorpay.On("Configured").Return(true)
		deps.razorpay.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in razorpay.CreateOrderInput) bool {
			return in.AmountMinor == 50050 &&
				in.Currency == "INR" &&
				strings.HasPrefix(in.Receipt, "receipt_") &&
				in.Notes["description"] == "Add Money to Wallet"
		})).Return(&razorpay.Order{ID: "order_1", Amount: 50050, Currency: "INR"}, nil)

		order, err := svc.CreateRazorpayOrder(ctx, &CreateRazorpayOrderRequest{Amount: decimal.RequireFromString("500.50")})
		require.NoError(t, err)
		assert.Equal(t, "order_1", order.ID)
		deps.razorpay.AssertExpectations(t)
	})

	t.Run("異常系: 1未満の金額は上流を呼ばない", func(t *testing.T) {
		svc, deps := setupService(t)

		_, err := svc.CreateRazorpayOrder(ctx, &CreateRazorpayOrderRequest{Amount: decimal.RequireFromString("0.5")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, payment.ErrInvalidAmount))
		assert.Equal(t, "Invalid amount", payment.FailureMessage(err))
		deps.razorpay.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 未設定", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.razorpay.On("Configured").Return(false)

		_, err := svc.CreateRazorpayOrder(ctx, &CreateRazorpayOrderRequest{Amount: decimal.NewFromInt(500)})
		assert.True(t, errors.Is(err, payment.ErrProviderUnavailable))
	})

	t.Run("異常系: 上流エラーはそのまま返す", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.razorpay.On("Configured").Return(true)
		deps.razorpay.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, payment.NewRejectedError(razorpay.Name, "The amount must be atleast INR 1.00", 400))

		_, err := svc.CreateRazorpayOrder(ctx, &CreateRazorpayOrderRequest{Amount: decimal.NewFromInt(500)})
		assert.True(t, errors.Is(err, payment.ErrProviderRejected))
		assert.Equal(t, "The amount must be atleast INR 1.00", payment.FailureMessage(err))
	})
}

func TestPaymentApplicationService_VerifyRazorpayPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 署名一致後に決済情報を取得", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.razorpay.On("Configured").Return(true)
		deps.razorpay.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
		deps.razorpay.On("FetchPayment", mock.Anything, "pay_1").Return(&razorpay.Payment{
			ID: "pay_1", Amount: 50000, Currency: "INR", Status: "captured", Method: "upi", CreatedAt: 1700000000,
		}, nil)

		result, err := svc.VerifyRazorpayPayment(ctx, &VerifyRazorpayPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(500).Equal(result.Amount))
		assert.Equal(t, "captured", result.Status)
		assert.Equal(t, "upi", result.Method)
	})

	t.Run("異常系: 署名不一致なら決済情報を取得しない", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.razorpay.On("Configured").Return(true)
		deps.razorpay.On("VerifySignature", "order_1", "pay_1", "bad").Return(false)

		_, err := svc.VerifyRazorpayPayment(ctx, &VerifyRazorpayPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: "bad"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, payment.ErrInvalidSignature))
		assert.Equal(t, "Payment verification failed - Invalid signature", payment.FailureMessage(err))
		deps.razorpay.AssertNotCalled(t, "FetchPayment", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 必須項目不足", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.VerifyRazorpayPayment(ctx, &VerifyRazorpayPaymentRequest{OrderID: "order_1"})
		assert.True(t, errors.Is(err, payment.ErrInvalidRequest))
		assert.Equal(t, "Missing required fields", payment.FailureMessage(err))
	})
}

func TestPaymentApplicationService_CreatePayPalOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: USDに換算して注文作成", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.paypal.On("Configured").Return(true)
		deps.paypal.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in paypal.CreateOrderInput) bool {
			return in.Amount.Value == "5.95" &&
				in.Amount.CurrencyCode == "USD" &&
				in.ReturnURL == "http://localhost:5173/wallet?payment_status=success" &&
				in.CancelURL == "http://localhost:5173/wallet?payment_status=cancel" &&
				in.BrandName == "Premium Wallet"
		})).Return(&paypal.Order{
			ID:     "ORDER123",
			Status: "CREATED",
			Links:  []paypal.Link{{Rel: "approve", Href: "https://www.sandbox.paypal.com/checkoutnow?token=ORDER123"}},
		}, nil)

		result, err := svc.CreatePayPalOrder(ctx, &CreatePayPalOrderRequest{Amount: decimal.NewFromInt(500)})
		require.NoError(t, err)
		assert.Equal(t, "ORDER123", result.ID)
		assert.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=ORDER123", result.ApproveURL)
		assert.Equal(t, "5.95", result.Amount)
		assert.Equal(t, "USD", result.Currency)
	})

	t.Run("異常系: 金額不正", func(t *testing.T) {
		svc, deps := setupService(t)

		_, err := svc.CreatePayPalOrder(ctx, &CreatePayPalOrderRequest{Amount: decimal.Zero})
		assert.True(t, errors.Is(err, payment.ErrInvalidAmount))
		deps.paypal.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})
}

func TestPaymentApplicationService_CapturePayPalOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: キャプチャ結果を返す", func(t *testing.T) {
		svc, deps := setupService(t)
		order := &paypal.Order{
			ID:     "ORDER123",
			Status: paypal.StatusCompleted,
			PurchaseUnits: []paypal.PurchaseUnit{{
				Payments: &struct {
					Captures []paypal.Capture `json:"captures"`
				}{Captures: []paypal.Capture{{ID: "CAP-1", Status: "COMPLETED", Amount: paypal.Amount{CurrencyCode: "USD", Value: "5.95"}}}},
			}},
			Payer: &paypal.Payer{EmailAddress: "buyer@example.com"},
		}
		order.Payer.Name.GivenName = "John"
		order.Payer.Name.Surname = "Doe"

		deps.paypal.On("Configured").Return(true)
		deps.paypal.On("CaptureOrder", mock.Anything, "ORDER123").Return(order, nil)

		result, err := svc.CapturePayPalOrder(ctx, "ORDER123")
		require.NoError(t, err)
		assert.Equal(t, "CAP-1", result.CaptureID)
		assert.Equal(t, "5.95", result.Amount)
		assert.Equal(t, "USD", result.Currency)
		assert.Equal(t, "buyer@example.com", result.PayerEmail)
		assert.Equal(t, "John Doe", result.PayerName)
	})

	t.Run("異常系: 注文IDなし", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.CapturePayPalOrder(ctx, "")
		assert.Equal(t, "Order ID is required", payment.FailureMessage(err))
	})

	t.Run("異常系: 未完了", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.paypal.On("Configured").Return(true)
		deps.paypal.On("CaptureOrder", mock.Anything, "ORDER123").
			Return(nil, payment.NewRejectedError(paypal.Name, "Payment not completed", 0))

		_, err := svc.CapturePayPalOrder(ctx, "ORDER123")
		assert.True(t, errors.Is(err, payment.ErrProviderRejected))
	})
}

func TestPaymentApplicationService_CreateCryptomusPayment(t *testing.T) {
	ctx := context.Background()
	svc, deps := setupService(t)

	deps.cryptomus.On("Configured").Return(true)
	deps.cryptomus.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in cryptomus.CreatePaymentInput) bool {
		return in.Amount == "5.95" &&
			in.Currency == "USD" &&
			strings.HasPrefix(in.OrderID, "order_") &&
			in.URLReturn == "http://localhost:5173/wallet" &&
			in.URLCallback == "https://api.example.com/api/cryptomus/webhook" &&
			in.Lifetime == 3600
	})).Return(&cryptomus.Invoice{UUID: "u-1", URL: "https://pay.cryptomus.com/pay/u-1"}, nil)

	result, err := svc.CreateCryptomusPayment(ctx, &CreateCryptomusPaymentRequest{Amount: decimal.RequireFromString("5.95")})
	require.NoError(t, err)
	assert.Equal(t, "u-1", result.UUID)
	assert.Equal(t, "https://pay.cryptomus.com/pay/u-1", result.URL)
	assert.True(t, strings.HasPrefix(result.OrderID, "order_"))
	assert.Equal(t, "USD", result.Currency)
}

func TestPaymentApplicationService_HandleCryptomusWebhook(t *testing.T) {
	ctx := context.Background()
	raw := []byte(`{"uuid":"u-1","order_id":"order_1","status":"paid","sign":"x"}`)

	t.Run("異常系: 署名不一致ならイベントを発行しない", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.cryptomus.On("VerifyWebhook", raw).Return(nil, payment.ErrInvalidSignature)

		_, err := svc.HandleCryptomusWebhook(ctx, raw)
		assert.True(t, errors.Is(err, payment.ErrInvalidSignature))
		deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("正常系: 検証後にイベントを発行", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.cryptomus.On("VerifyWebhook", raw).Return(&cryptomus.WebhookEvent{UUID: "u-1", OrderID: "order_1", Status: "paid", IsFinal: true}, nil)
		deps.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e kafka.StatusEvent) bool {
			return e.Provider == "cryptomus" && e.OrderID == "order_1" && e.Status == "paid" && e.IsFinal
		})).Return(nil)

		event, err := svc.HandleCryptomusWebhook(ctx, raw)
		require.NoError(t, err)
		assert.True(t, event.Confirmed())
		deps.publisher.AssertExpectations(t)
	})

	t.Run("正常系: 発行失敗でも成功を返す", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.cryptomus.On("VerifyWebhook", raw).Return(&cryptomus.WebhookEvent{UUID: "u-1", Status: "check"}, nil)
		deps.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		_, err := svc.HandleCryptomusWebhook(ctx, raw)
		assert.NoError(t, err)
	})
}

func TestPaymentApplicationService_Wise(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 見積もりの既定通貨はINR→USD", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.wise.On("Configured").Return(true)
		deps.wise.On("CreateQuote", mock.Anything, mock.MatchedBy(func(in wise.CreateQuoteInput) bool {
			return in.SourceCurrency == "INR" && in.TargetCurrency == "USD" && in.SourceAmount.Equal(decimal.NewFromInt(1000))
		})).Return(&wise.Quote{ID: "q-1", TargetAmount: decimal.RequireFromString("11.9")}, nil)

		quote, err := svc.CreateWiseQuote(ctx, &CreateWiseQuoteRequest{Amount: decimal.NewFromInt(1000)})
		require.NoError(t, err)
		assert.Equal(t, "q-1", quote.ID)
	})

	t.Run("異常系: 受取口座の必須項目不足", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.CreateWiseRecipient(ctx, &CreateWiseRecipientRequest{Currency: "USD"})
		assert.Equal(t, "Missing required fields: accountNumber, currency, country, fullName", payment.FailureMessage(err))
	})

	t.Run("異常系: 送金の必須項目不足", func(t *testing.T) {
		svc, _ := setupService(t)

		_, err := svc.CreateWiseTransfer(ctx, &CreateWiseTransferRequest{QuoteID: "q-1"})
		assert.Equal(t, "Quote ID and Recipient ID required", payment.FailureMessage(err))
	})

	t.Run("正常系: 送金作成", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.wise.On("Configured").Return(true)
		deps.wise.On("CreateTransfer", mock.Anything, mock.MatchedBy(func(in wise.CreateTransferInput) bool {
			return in.QuoteID == "q-1" && in.RecipientID == 42 && strings.HasPrefix(in.CustomerTransactionID, "transfer_")
		})).Return(&wise.Transfer{ID: 7, Status: "incoming_payment_waiting", PaymentURI: "https://wise.com/pay/7"}, nil)

		transfer, err := svc.CreateWiseTransfer(ctx, &CreateWiseTransferRequest{QuoteID: "q-1", RecipientID: 42})
		require.NoError(t, err)
		assert.Equal(t, int64(7), transfer.ID)
		assert.Equal(t, "https://wise.com/pay/7", transfer.PaymentURI)
	})

	t.Run("異常系: 送金IDが数値でない", func(t *testing.T) {
		svc, deps := setupService(t)

		_, err := svc.GetWiseTransfer(ctx, "abc")
		assert.True(t, errors.Is(err, payment.ErrInvalidRequest))
		deps.wise.AssertNotCalled(t, "GetTransfer", mock.Anything, mock.Anything)
	})

	t.Run("正常系: レートの既定通貨", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.wise.On("Configured").Return(true)
		deps.wise.On("GetRates", mock.Anything, "INR", "USD").Return([]wise.Rate{{Rate: decimal.RequireFromString("0.0119"), Source: "INR", Target: "USD"}}, nil)

		rates, err := svc.GetWiseRates(ctx, "", "")
		require.NoError(t, err)
		require.Len(t, rates, 1)
	})

	t.Run("異常系: 未設定", func(t *testing.T) {
		svc, deps := setupService(t)
		deps.wise.On("Configured").Return(false)

		_, err := svc.GetWiseRates(ctx, "INR", "USD")
		assert.True(t, errors.Is(err, payment.ErrProviderUnavailable))
		assert.Equal(t, "Wise API key not configured", payment.FailureMessage(err))
	})
}

func TestPaymentApplicationService_Health(t *testing.T) {
	svc, deps := setupService(t)
	deps.razorpay.On("Configured").Return(true)
	deps.cryptomus.On("Configured").Return(false)
	deps.paypal.On("Configured").Return(true)
	deps.wise.On("Configured").Return(false)

	health := svc.Health(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Environment)
	assert.Equal(t, map[string]bool{"razorpay": true, "cryptomus": false, "paypal": true, "wise": false}, health.Payments)
}
