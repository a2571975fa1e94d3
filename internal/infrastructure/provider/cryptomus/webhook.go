package cryptomus

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"

	"wallet-server/internal/domain/payment"
)

// signatureField Webhookボディ内の署名フィールド名
const signatureField = "signature"

// WebhookEvent 署名検証済みのWebhook通知
type WebhookEvent struct {
	Type     string
	UUID     string
	OrderID  string
	Amount   string
	Currency string
	Status   string
	IsFinal  bool
}

// Confirmed 入金確定を表すステータスか
func (e *WebhookEvent) Confirmed() bool {
	return IsPaidStatus(e.Status) || e.Status == "completed"
}

// Failed 失敗を表すステータスか
func (e *WebhookEvent) Failed() bool {
	return IsFailedStatus(e.Status)
}

// IsPaidStatus インボイスが支払い済みか
func IsPaidStatus(status string) bool {
	return status == "paid" || status == "paid_over"
}

// IsFailedStatus インボイスが失敗で確定したか
// これ以外の未確定ステータス（check, process など）は待ち続ける
func IsFailedStatus(status string) bool {
	switch status {
	case "fail", "failed", "cancel", "cancelled", "system_fail", "wrong_amount",
		"refund_process", "refund_fail", "refund_paid":
		return true
	}
	return false
}

// VerifyWebhook Webhookボディの署名を検証し、イベントを返す
// 署名は signature を除いたメンバーを受信順のまま再シリアライズして計算する
func (c *Client) VerifyWebhook(raw []byte) (*WebhookEvent, error) {
	canonical, signature, err := stripSignature(raw)
	if err != nil {
		return nil, payment.NewRejectedError(Name, err.Error(), 0)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", payment.ErrInvalidSignature)
	}

	expected := Sign(canonical, c.apiKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, payment.ErrInvalidSignature
	}

	var body map[string]interface{}
	if err := json.Unmarshal(canonical, &body); err != nil {
		return nil, payment.NewRejectedError(Name, err.Error(), 0)
	}

	return &WebhookEvent{
		Type:     stringField(body, "type"),
		UUID:     stringField(body, "uuid"),
		OrderID:  stringField(body, "order_id"),
		Amount:   stringField(body, "amount"),
		Currency: stringField(body, "currency"),
		Status:   stringField(body, "status"),
		IsFinal:  body["is_final"] == true,
	}, nil
}

// stripSignature トップレベルの signature を取り除いたJSONと署名値を返す
func stripSignature(raw []byte) ([]byte, string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, "", fmt.Errorf("invalid webhook body: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, "", fmt.Errorf("invalid webhook body: expected object")
	}

	var buf bytes.Buffer
	var signature string
	buf.WriteByte('{')
	first := true
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, "", fmt.Errorf("invalid webhook body: %w", err)
		}
		key, _ := keyTok.(string)

		if key == signatureField {
			if err := dec.Decode(&signature); err != nil {
				return nil, "", fmt.Errorf("invalid signature field: %w", err)
			}
			continue
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeString(&buf, key); err != nil {
			return nil, "", err
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, dec); err != nil {
			return nil, "", fmt.Errorf("invalid webhook body: %w", err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, "", fmt.Errorf("invalid webhook body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, "", fmt.Errorf("invalid webhook body: trailing data")
	}
	buf.WriteByte('}')

	return buf.Bytes(), signature, nil
}

// writeValue 次の値をメンバー順を保ったまま書き出す
func writeValue(buf *bytes.Buffer, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		open, closing := byte('{'), json.Delim('}')
		if v == '[' {
			open, closing = '[', ']'
		}
		buf.WriteByte(open)
		first := true
		for dec.More() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if open == '{' {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				if err := writeString(buf, key); err != nil {
					return err
				}
				buf.WriteByte(':')
			}
			if err := writeValue(buf, dec); err != nil {
				return err
			}
		}
		end, err := dec.Token()
		if err != nil {
			return err
		}
		if end != closing {
			return fmt.Errorf("unexpected delimiter %v", end)
		}
		buf.WriteByte(byte(closing))
	case string:
		return writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
	return nil
}

// writeString スラッシュやHTML文字をエスケープせずに文字列を書き出す
func writeString(buf *bytes.Buffer, s string) error {
	b, err := marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func stringField(body map[string]interface{}, key string) string {
	switch v := body[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
