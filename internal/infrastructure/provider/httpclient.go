package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"wallet-server/internal/domain/payment"
)

// maxErrorBodyLength エラーメッセージとして保持する上流レスポンスの最大長
const maxErrorBodyLength = 512

// NewHTTPClient トレース伝播付きのHTTPクライアントを作成
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// NewJSONRequest JSONボディ付きのリクエストを作成
// body が nil の場合はボディなし
func NewJSONRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do リクエストを送信し、成功時はレスポンスを out にデコードする
// 通信エラーと5xxは ErrProviderUnavailable、4xxは ErrProviderRejected として返す
func Do(hc *http.Client, name string, req *http.Request, out interface{}) error {
	resp, err := hc.Do(req)
	if err != nil {
		return payment.NewUnavailableError(name, err.Error(), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return payment.NewUnavailableError(name, fmt.Sprintf("failed to read response: %v", err), resp.StatusCode)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return payment.NewUnavailableError(name, ExtractMessage(body, resp.StatusCode), resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return payment.NewRejectedError(name, ExtractMessage(body, resp.StatusCode), resp.StatusCode)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return payment.NewUnavailableError(name, fmt.Sprintf("invalid response body: %v", err), resp.StatusCode)
	}
	return nil
}

// ExtractMessage 上流のエラーレスポンスから人が読めるメッセージを取り出す
// 既知の形式に一致しない場合はボディをそのまま返す
func ExtractMessage(body []byte, statusCode int) string {
	var envelope struct {
		Message          string          `json:"message"`
		ErrorDescription string          `json:"error_description"`
		Error            json.RawMessage `json:"error"`
		Errors           []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.ErrorDescription != "":
			return envelope.ErrorDescription
		case len(envelope.Errors) > 0 && envelope.Errors[0].Message != "":
			return envelope.Errors[0].Message
		}
		if len(envelope.Error) > 0 {
			// Razorpay: {"error":{"description":"..."}}
			var nested struct {
				Description string `json:"description"`
			}
			if json.Unmarshal(envelope.Error, &nested) == nil && nested.Description != "" {
				return nested.Description
			}
			var plain string
			if json.Unmarshal(envelope.Error, &plain) == nil && plain != "" {
				return plain
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(statusCode)
	}
	if len(text) > maxErrorBodyLength {
		// マルチバイト文字の途中で切らない
		cut := maxErrorBodyLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
