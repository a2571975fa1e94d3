package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// quietPaths 監視用のパス。Debugレベルで記録する
var quietPaths = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// LoggingMiddleware リクエストごとにアクセスログを出力するミドルウェア
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"remote_addr": c.RealIP(),
				"user_agent":  req.UserAgent(),
				"status_code": c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				fields["request_id"] = id
			}

			switch {
			case err != nil:
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			case c.Response().Status >= 500:
				logger.Warn(req.Context(), "HTTP request completed with server error", fields)
			case quietPaths[req.URL.Path]:
				logger.Debug(req.Context(), "HTTP request completed", fields)
			default:
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
