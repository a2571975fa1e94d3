package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/exchange"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/messaging/kafka"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/provider/cryptomus"
	"wallet-server/internal/infrastructure/provider/paypal"
	"wallet-server/internal/infrastructure/provider/razorpay"
	"wallet-server/internal/infrastructure/provider/wise"
)

// minProviderAmount 上流に渡せる最小金額
var minProviderAmount = decimal.NewFromInt(1)

// RazorpayProvider Razorpayクライアント
type RazorpayProvider interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, in razorpay.CreateOrderInput) (*razorpay.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// PayPalProvider PayPalクライアント
type PayPalProvider interface {
	Configured() bool
	CreateOrder(ctx context.Context, in paypal.CreateOrderInput) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// CryptomusProvider Cryptomusクライアント
type CryptomusProvider interface {
	Configured() bool
	CreatePayment(ctx context.Context, in cryptomus.CreatePaymentInput) (*cryptomus.Invoice, error)
	PaymentInfo(ctx context.Context, uuid string) (*cryptomus.Invoice, error)
	VerifyWebhook(raw []byte) (*cryptomus.WebhookEvent, error)
}

// WiseProvider Wiseクライアント
type WiseProvider interface {
	Configured() bool
	CreateQuote(ctx context.Context, in wise.CreateQuoteInput) (*wise.Quote, error)
	CreateRecipient(ctx context.Context, in wise.CreateRecipientInput) (*wise.Recipient, error)
	CreateTransfer(ctx context.Context, in wise.CreateTransferInput) (*wise.Transfer, error)
	GetTransfer(ctx context.Context, transferID int64) (*wise.Transfer, error)
	GetRates(ctx context.Context, source, target string) ([]wise.Rate, error)
}

// Providers 上流プロバイダーのクライアント一式
type Providers struct {
	Razorpay  RazorpayProvider
	PayPal    PayPalProvider
	Cryptomus CryptomusProvider
	Wise      WiseProvider
}

// Settings サービスの動作設定
type Settings struct {
	FrontendURL       string
	PublicURL         string
	Environment       string
	CryptomusLifetime int
	PayPalBrandName   string
}

// PaymentApplicationService 決済プロバイダーを仲介するアプリケーションサービス
type PaymentApplicationService struct {
	razorpay  RazorpayProvider
	paypal    PayPalProvider
	cryptomus CryptomusProvider
	wise      WiseProvider
	rates     exchange.RateProvider
	publisher kafka.StatusPublisher
	settings  Settings
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewPaymentApplicationService 新しいPaymentApplicationServiceを作成
func NewPaymentApplicationService(
	providers Providers,
	rates exchange.RateProvider,
	publisher kafka.StatusPublisher,
	settings Settings,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PaymentApplicationService {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &PaymentApplicationService{
		razorpay:  providers.Razorpay,
		paypal:    providers.PayPal,
		cryptomus: providers.Cryptomus,
		wise:      providers.Wise,
		rates:     rates,
		publisher: publisher,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("payment-service"),
		now:       time.Now,
	}
}

// Health 各プロバイダーの設定状況を返す
func (s *PaymentApplicationService) Health(ctx context.Context) *HealthStatus {
	return &HealthStatus{
		Status:      "ok",
		Timestamp:   s.now().UTC(),
		Environment: s.settings.Environment,
		Payments: map[string]bool{
			razorpay.Name:  s.razorpay.Configured(),
			cryptomus.Name: s.cryptomus.Configured(),
			paypal.Name:    s.paypal.Configured(),
			wise.Name:      s.wise.Configured(),
		},
	}
}

// call プロバイダー呼び出しを計測する
func (s *PaymentApplicationService) call(ctx context.Context, provider, operation string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, provider+"."+operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	s.metrics.RecordProviderCall(ctx, provider, operation, status, time.Since(start).Seconds())
	return err
}

// fail エラーをスパンとログに記録して返す
func (s *PaymentApplicationService) fail(ctx context.Context, span trace.Span, message string, err error, fields map[string]interface{}) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Error(ctx, message, err, fields)
	return err
}

func invalidAmount() error {
	return payment.NewValidationError(payment.ErrInvalidAmount, "Invalid amount")
}

func notConfigured(provider, message string) error {
	return payment.NewUnavailableError(provider, message, 0)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
