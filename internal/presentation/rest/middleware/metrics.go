package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// MetricsMiddleware リクエスト数、応答時間、エラー数を記録するミドルウェア
// エラーはステータスコードで判定する（ErrorHandlerMiddleware がエラーをレスポンスに変換した後でも数えられる）
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method

			err := next(c)

			// ルートが決まるのはハンドラー実行後
			route := routeOf(c)
			metrics.RecordRequest(ctx, method, route)
			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			if errorType := errorTypeOf(c.Response().Status, err); errorType != "" {
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}

func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// errorTypeOf 4xx は client_error、5xx は server_error
// ステータス未設定のままエラーが返った場合は server_error とみなす
func errorTypeOf(status int, err error) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	case err != nil && status < 300:
		return "server_error"
	default:
		return ""
	}
}
