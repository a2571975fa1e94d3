package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	paymentapp "wallet-server/internal/application/payment"
	"wallet-server/internal/infrastructure/config"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/presentation/rest/handler"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"
)

// Router 決済APIのルーター
type Router struct {
	echo           *echo.Echo
	paymentHandler *handler.PaymentHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	paymentService *paymentapp.PaymentApplicationService,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// エラーはErrorHandlerMiddlewareでレスポンスに変換する
	e.HTTPErrorHandler = func(err error, c echo.Context) {}

	setupMiddleware(e, cfg, logger, metrics)

	paymentHandler := handler.NewPaymentHandler(paymentService)
	setupRoutes(e, paymentHandler)

	SetupSwagger(e)

	return &Router{
		echo:           e,
		paymentHandler: paymentHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// フロントエンドのオリジンのみ許可する
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, h *handler.PaymentHandler) {
	api := e.Group("/api")

	// Razorpay
	api.POST("/create-order", h.CreateRazorpayOrder)
	api.POST("/verify-payment", h.VerifyRazorpayPayment)

	// Cryptomus
	api.POST("/cryptomus/create-payment", h.CreateCryptomusPayment)
	api.POST("/cryptomus/webhook", h.CryptomusWebhook)
	api.GET("/cryptomus/payment/:uuid", h.GetCryptomusPayment)

	// PayPal
	api.POST("/paypal/create-order", h.CreatePayPalOrder)
	api.POST("/paypal/capture-order", h.CapturePayPalOrder)
	api.GET("/paypal/order/:orderId", h.GetPayPalOrder)

	// Wise
	api.POST("/wise/create-quote", h.CreateWiseQuote)
	api.POST("/wise/create-recipient", h.CreateWiseRecipient)
	api.POST("/wise/create-transfer", h.CreateWiseTransfer)
	api.GET("/wise/transfer/:transferId", h.GetWiseTransfer)
	api.GET("/wise/rates", h.GetWiseRates)

	api.GET("/health", h.Health)

	// Prometheusエクスポーターが登録したメトリクス
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// ServeHTTP http.Handler を満たす
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.echo.ServeHTTP(w, req)
}

// Start サーバーを起動
// Shutdown による停止はエラーとして返さない
func (r *Router) Start(address string) error {
	if err := r.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
