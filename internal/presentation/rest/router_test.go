package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	paymentapp "wallet-server/internal/application/payment"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/config"
	infraexchange "wallet-server/internal/infrastructure/exchange"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/provider/cryptomus"
	"wallet-server/internal/infrastructure/provider/paypal"
	"wallet-server/internal/infrastructure/provider/razorpay"
	"wallet-server/internal/infrastructure/provider/wise"
)

// unconfigured 認証情報が未設定のプロバイダー
type unconfigured struct{}

func (unconfigured) Configured() bool { return false }
func (unconfigured) KeyID() string    { return "" }
func (unconfigured) CreateOrder(context.Context, razorpay.CreateOrderInput) (*razorpay.Order, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfigured) FetchPayment(context.Context, string) (*razorpay.Payment, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfigured) VerifySignature(string, string, string) bool { return false }

type unconfiguredPayPal struct{ unconfigured }

func (unconfiguredPayPal) CreateOrder(context.Context, paypal.CreateOrderInput) (*paypal.Order, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredPayPal) CaptureOrder(context.Context, string) (*paypal.Order, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredPayPal) GetOrder(context.Context, string) (*paypal.Order, error) {
	return nil, payment.ErrProviderUnavailable
}

type unconfiguredCryptomus struct{ unconfigured }

func (unconfiguredCryptomus) CreatePayment(context.Context, cryptomus.CreatePaymentInput) (*cryptomus.Invoice, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredCryptomus) PaymentInfo(context.Context, string) (*cryptomus.Invoice, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredCryptomus) VerifyWebhook([]byte) (*cryptomus.WebhookEvent, error) {
	return nil, payment.NewSignatureError(cryptomus.Name, "invalid webhook signature")
}

type unconfiguredWise struct{ unconfigured }

func (unconfiguredWise) CreateQuote(context.Context, wise.CreateQuoteInput) (*wise.Quote, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredWise) CreateRecipient(context.Context, wise.CreateRecipientInput) (*wise.Recipient, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredWise) CreateTransfer(context.Context, wise.CreateTransferInput) (*wise.Transfer, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredWise) GetTransfer(context.Context, int64) (*wise.Transfer, error) {
	return nil, payment.ErrProviderUnavailable
}
func (unconfiguredWise) GetRates(context.Context, string, string) ([]wise.Rate, error) {
	return nil, payment.ErrProviderUnavailable
}

func setupRouter(t *testing.T) *Router {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	svc := paymentapp.NewPaymentApplicationService(
		paymentapp.Providers{
			Razorpay:  unconfigured{},
			PayPal:    unconfiguredPayPal{},
			Cryptomus: unconfiguredCryptomus{},
			Wise:      unconfiguredWise{},
		},
		infraexchange.NewStaticProvider(84),
		nil,
		paymentapp.Settings{FrontendURL: "http://localhost:5173", Environment: "test"},
		logger,
		metrics,
	)

	cfg := &config.Config{FrontendURL: "http://localhost:5173", Environment: "test"}
	router, err := NewRouter(cfg, logger, metrics, svc)
	require.NoError(t, err)
	return router
}

func TestRouter_Routes(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "正常系: ヘルスチェック", method: http.MethodGet, path: "/api/health", expectedStatus: http.StatusOK},
		{name: "正常系: OpenAPI定義", method: http.MethodGet, path: "/openapi.yaml", expectedStatus: http.StatusOK},
		{name: "正常系: ReDoc", method: http.MethodGet, path: "/redoc", expectedStatus: http.StatusOK},
		{name: "正常系: メトリクス", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "異常系: 未設定のRazorpay", method: http.MethodPost, path: "/api/create-order", body: `{"amount":500}`, expectedStatus: http.StatusInternalServerError},
		{name: "異常系: 金額不正は上流設定より先に判定", method: http.MethodPost, path: "/api/paypal/create-order", body: `{"amount":0}`, expectedStatus: http.StatusBadRequest},
		{name: "異常系: 署名不一致のWebhook", method: http.MethodPost, path: "/api/cryptomus/webhook", body: `{"status":"paid"}`, expectedStatus: http.StatusBadRequest},
		{name: "異常系: 存在しないルート", method: http.MethodGet, path: "/api/unknown", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			if tt.body != "" {
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestRouter_Health(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]interface{}{
		"razorpay": false, "cryptomus": false, "paypal": false, "wise": false,
	}, body["payments"])
}

func TestRouter_NotFoundBody(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Not Found", body["message"])
}

func TestRouter_CORS(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name        string
		origin      string
		allowOrigin string
	}{
		{name: "正常系: フロントエンドのオリジン", origin: "http://localhost:5173", allowOrigin: "http://localhost:5173"},
		{name: "異常系: 他のオリジン", origin: "https://evil.example.com", allowOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/create-order", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.allowOrigin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		})
	}
}
