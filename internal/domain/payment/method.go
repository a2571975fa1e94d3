package payment

import (
	"fmt"
	"strings"
)

// Method 決済手段を表す値オブジェクト
type Method string

const (
	MethodRazorpay  Method = "razorpay"  // SDKチェックアウト
	MethodPayPal    Method = "paypal"    // リダイレクト
	MethodWise      Method = "wise"      // 見積もり確認後に送金
	MethodCryptomus Method = "cryptomus" // 暗号資産インボイス
	MethodDemo      Method = "demo"      // ネットワーク呼び出しなし
)

// ParseMethod UIから渡された決済手段名をMethodに変換する
// 未知の名前はデモ決済として扱う
func ParseMethod(s string) Method {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "razorpay":
		return MethodRazorpay
	case "paypal":
		return MethodPayPal
	case "wise":
		return MethodWise
	case "cryptomus":
		return MethodCryptomus
	default:
		return MethodDemo
	}
}

// NewMethod 厳密にMethodを作成
func NewMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodRazorpay, MethodPayPal, MethodWise, MethodCryptomus, MethodDemo:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidMethod, s)
	}
}

// String 文字列表現を返す
func (m Method) String() string {
	return string(m)
}

// DisplayName 取引履歴に表示する名前を返す
func (m Method) DisplayName() string {
	switch m {
	case MethodRazorpay:
		return "Razorpay"
	case MethodPayPal:
		return "PayPal"
	case MethodWise:
		return "Wise"
	case MethodCryptomus:
		return "Cryptomus"
	default:
		return "Demo"
	}
}

// IsRedirect ページ遷移を伴う決済手段かどうかを返す
func (m Method) IsRedirect() bool {
	return m == MethodPayPal || m == MethodWise || m == MethodCryptomus
}

// Currency 通貨コード
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

// NewCurrency 新しいCurrencyを作成
func NewCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToUpper(s)); c {
	case CurrencyINR, CurrencyUSD:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCurrency, s)
	}
}

// String 文字列表現を返す
func (c Currency) String() string {
	return string(c)
}
