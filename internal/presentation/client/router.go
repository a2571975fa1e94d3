package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallet-server/internal/infrastructure/config"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/presentation/client/handler"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"
)

// Router ウォレット画面のルーター
type Router struct {
	echo          *echo.Echo
	walletHandler *handler.WalletHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.ClientConfig,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	walletHandler *handler.WalletHandler,
) *Router {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = func(err error, c echo.Context) {}

	e.Use(middleware.Recover())
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(middleware.RequestID())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))

	setupRoutes(e, walletHandler)

	return &Router{
		echo:          e,
		walletHandler: walletHandler,
	}
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, h *handler.WalletHandler) {
	w := e.Group("/wallet")
	w.GET("", h.GetWallet)
	w.POST("/add-money", h.AddMoney)
	w.POST("/close", h.Close)
	w.POST("/withdraw", h.Withdraw)

	// Razorpayウィジェット
	w.POST("/razorpay/callback", h.RazorpayCallback)
	w.POST("/razorpay/dismiss", h.RazorpayDismiss)

	// Wise見積もり
	w.POST("/wise/confirm", h.ConfirmWiseQuote)
	w.POST("/wise/cancel", h.CancelWiseQuote)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// ServeHTTP http.Handler を満たす
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.echo.ServeHTTP(w, req)
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	if err := r.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown サーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
