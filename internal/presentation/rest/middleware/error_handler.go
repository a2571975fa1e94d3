package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"wallet-server/internal/domain/checkout"
	"wallet-server/internal/domain/payment"
	"wallet-server/internal/domain/wallet"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/security"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
// 上流のメッセージはそのまま message に載せる
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// 入力エラー
	var verr *payment.ValidationError
	if errors.As(err, &verr) {
		logger.Warn(ctx, "Invalid request", map[string]interface{}{
			"error": err.Error(),
		})
		return respond(c, http.StatusBadRequest, verr.Message)
	}

	if errors.Is(err, payment.ErrInvalidAmount) ||
		errors.Is(err, wallet.ErrBelowMinimum) ||
		errors.Is(err, wallet.ErrInsufficientBalance) ||
		errors.Is(err, wallet.ErrInvalidAmount) {
		logger.Warn(ctx, "Invalid amount", map[string]interface{}{
			"error": err.Error(),
		})
		return respond(c, http.StatusBadRequest, payment.FailureMessage(err))
	}

	if errors.Is(err, payment.ErrPaymentInFlight) {
		logger.Warn(ctx, "Payment already in flight", nil)
		return respond(c, http.StatusConflict, err.Error())
	}

	if errors.Is(err, checkout.ErrAttemptNotFound) || errors.Is(err, security.ErrInvalidToken) {
		logger.Warn(ctx, "Payment attempt not found", map[string]interface{}{
			"error": err.Error(),
		})
		return respond(c, http.StatusNotFound, checkout.ErrAttemptNotFound.Error())
	}

	// 上流プロバイダー由来のエラー（署名不一致を含む）
	var perr *payment.ProviderError
	if errors.As(err, &perr) {
		status := http.StatusInternalServerError
		if perr.IsRejected() {
			status = http.StatusBadRequest
		}
		logger.Warn(ctx, "Provider error", map[string]interface{}{
			"provider":    perr.Provider,
			"status_code": perr.StatusCode,
			"error":       err.Error(),
		})
		return respond(c, status, payment.FailureMessage(err))
	}

	if errors.Is(err, payment.ErrProviderRejected) || errors.Is(err, payment.ErrUserCancelled) || errors.Is(err, payment.ErrQuoteExpired) {
		logger.Warn(ctx, "Payment rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return respond(c, http.StatusBadRequest, err.Error())
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return respond(c, httpErr.Code, message)
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return respond(c, http.StatusInternalServerError, "Internal server error")
}

func respond(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{
		Success: false,
		Message: message,
	})
}
