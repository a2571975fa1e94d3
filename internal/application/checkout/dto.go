package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/gateway"
	"wallet-server/internal/infrastructure/provider/wise"
)

// Gateway 決済バックエンドのクライアント
// gateway.Client が満たす
type Gateway interface {
	CreateRazorpayOrder(ctx context.Context, amount decimal.Decimal, currency, description string) (*gateway.RazorpayOrder, error)
	VerifyRazorpayPayment(ctx context.Context, orderID, paymentID, signature string) (*gateway.RazorpayPayment, error)
	CreatePayPalOrder(ctx context.Context, amount decimal.Decimal, description string) (*gateway.PayPalOrder, error)
	CapturePayPalOrder(ctx context.Context, orderID string) (*gateway.PayPalCapture, error)
	CreateCryptomusPayment(ctx context.Context, amountUSD decimal.Decimal, description string) (*gateway.CryptomusPayment, error)
	GetCryptomusPayment(ctx context.Context, uuid string) (*gateway.CryptomusStatus, error)
	CreateWiseQuote(ctx context.Context, amount decimal.Decimal, source, target string) (*wise.Quote, error)
	CreateWiseRecipient(ctx context.Context, in gateway.WiseRecipientInput) (*wise.Recipient, error)
	CreateWiseTransfer(ctx context.Context, quoteID string, recipientID int64, reference string) (*gateway.WiseTransfer, error)
	GetWiseTransfer(ctx context.Context, transferID int64) (*gateway.WiseTransfer, error)
}

// OutcomeHandler 決済の終端で一度だけ呼ばれるコールバック
type OutcomeHandler func(ctx context.Context, outcome payment.Outcome)

// Settings オーケストレーターの動作設定
type Settings struct {
	Limits          payment.AmountLimits
	AttemptTTL      time.Duration
	QuoteTTL        time.Duration
	DemoDelay       time.Duration
	StatusPollLimit time.Duration
	PollInterval    time.Duration
	Description     string
	WiseRecipient   gateway.WiseRecipientInput
}

// DefaultWiseRecipient デモ用の受取口座
func DefaultWiseRecipient() gateway.WiseRecipientInput {
	return gateway.WiseRecipientInput{
		AccountNumber: "1234567890",
		Currency:      payment.CurrencyUSD.String(),
		Country:       "US",
		FullName:      "Wallet User",
		Email:         "user@wallet.com",
	}
}

// StepKind UIが次に行う操作の種類
type StepKind string

const (
	StepOpenWidget   StepKind = "open_widget"   // Razorpayウィジェットを開く
	StepRedirect     StepKind = "redirect"      // 外部ページへ遷移する
	StepConfirmQuote StepKind = "confirm_quote" // Wise見積もりの確認を求める
	StepDone         StepKind = "done"          // 結果が確定した
)

// Step Continue などが返す次の操作
type Step struct {
	Kind             StepKind
	Widget           *RazorpayWidget
	RedirectURL      string
	AttemptID        string
	AttemptExpiresAt time.Time
	Quote            *QuoteBreakdown
	Outcome          *payment.Outcome
}

// RazorpayWidget チェックアウトウィジェットに渡す注文情報
type RazorpayWidget struct {
	KeyID       string
	OrderID     string
	AmountMinor int64
	Currency    string
	Description string
}

// RazorpayResult ウィジェットの成功コールバックの値
type RazorpayResult struct {
	OrderID   string
	PaymentID string
	Signature string
}

// QuoteBreakdown Wise見積もりの内訳
type QuoteBreakdown struct {
	QuoteID        string
	SourceAmount   decimal.Decimal
	SourceCurrency string
	TargetAmount   decimal.Decimal
	TargetCurrency string
	Rate           decimal.Decimal
	Fee            decimal.Decimal
	NetAmount      decimal.Decimal
	ExpiresAt      time.Time
}

// ReturnParams 外部ページから戻ったときのパラメータ
type ReturnParams struct {
	AttemptID     string
	Token         string
	PaymentStatus string
}

// View 画面描画用の状態
type View struct {
	State   string
	Method  payment.Method
	Amount  string
	Error   string
	Quote   *QuoteBreakdown
	Outcome *payment.Outcome
}
