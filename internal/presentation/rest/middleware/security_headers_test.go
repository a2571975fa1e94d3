package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCSP  string
		wantHSTS bool
	}{
		{name: "正常系: API", target: "/api/health", wantCSP: apiCSP},
		{name: "正常系: Swagger UI", target: "/swagger/index.html", wantCSP: docsCSP},
		{name: "正常系: ReDoc", target: "/redoc", wantCSP: docsCSP},
		{name: "正常系: OpenAPI定義", target: "/openapi.yaml", wantCSP: docsCSP},
		{name: "正常系: HTTPSではHSTSを付与", target: "https://wallet.example.com/api/health", wantCSP: apiCSP, wantHSTS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := SecurityHeadersMiddleware()(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})(c)
			require.NoError(t, err)

			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
			assert.Equal(t, tt.wantCSP, rec.Header().Get("Content-Security-Policy"))
			if tt.wantHSTS {
				assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
			} else {
				assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
			}
		})
	}
}

func TestSecurityHeadersMiddleware_HeadersOnError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/verify-payment", nil), rec)

	err := SecurityHeadersMiddleware()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest)
	})(c)
	assert.Error(t, err)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
