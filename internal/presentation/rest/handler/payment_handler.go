package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	paymentapp "wallet-server/internal/application/payment"
)

// PaymentHandler 決済プロバイダーAPIのハンドラー
type PaymentHandler struct {
	paymentService *paymentapp.PaymentApplicationService
}

// NewPaymentHandler 新しいPaymentHandlerを作成
func NewPaymentHandler(paymentService *paymentapp.PaymentApplicationService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Health ヘルスチェックハンドラー
// @Summary ヘルスチェック
// @Description 各決済プロバイダーの設定状況を返します
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *PaymentHandler) Health(c echo.Context) error {
	status := h.paymentService.Health(c.Request().Context())
	return c.JSON(http.StatusOK, HealthResponse{
		Status:      status.Status,
		Timestamp:   status.Timestamp.Format(time.RFC3339Nano),
		Environment: status.Environment,
		Payments:    status.Payments,
	})
}

// bind リクエストボディを読み込む
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// toFloat レスポンス用に金額を数値へ変換する
func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// nullable 空文字列を null として出力する
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
