package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wallet-server/internal/infrastructure/messaging/kafka"
	"wallet-server/internal/infrastructure/provider/cryptomus"
	"wallet-server/internal/infrastructure/provider/paypal"
	"wallet-server/internal/infrastructure/provider/razorpay"
	"wallet-server/internal/infrastructure/provider/wise"
)

// MockRazorpay モックRazorpayクライアント
type MockRazorpay struct {
	mock.Mock
}

func (m *MockRazorpay) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockRazorpay) KeyID() string {
	return m.Called().String(0)
}

func (m *MockRazorpay) CreateOrder(ctx context.Context, in razorpay.CreateOrderInput) (*razorpay.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Order), args.Error(1)
}

func (m *MockRazorpay) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Payment), args.Error(1)
}

func (m *MockRazorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

// MockPayPal モックPayPalクライアント
type MockPayPal struct {
	mock.Mock
}

func (m *MockPayPal) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockPayPal) CreateOrder(ctx context.Context, in paypal.CreateOrderInput) (*paypal.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

func (m *MockPayPal) CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

func (m *MockPayPal) GetOrder(ctx context.Context, orderID string) (*paypal.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.Order), args.Error(1)
}

// MockCryptomus モックCryptomusクライアント
type MockCryptomus struct {
	mock.Mock
}

func (m *MockCryptomus) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockCryptomus) CreatePayment(ctx context.Context, in cryptomus.CreatePaymentInput) (*cryptomus.Invoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.Invoice), args.Error(1)
}

func (m *MockCryptomus) PaymentInfo(ctx context.Context, uuid string) (*cryptomus.Invoice, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.Invoice), args.Error(1)
}

func (m *MockCryptomus) VerifyWebhook(raw []byte) (*cryptomus.WebhookEvent, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptomus.WebhookEvent), args.Error(1)
}

// MockWise モックWiseクライアント
type MockWise struct {
	mock.Mock
}

func (m *MockWise) Configured() bool {
	return m.Called().Bool(0)
}

func (m *MockWise) CreateQuote(ctx context.Context, in wise.CreateQuoteInput) (*wise.Quote, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Quote), args.Error(1)
}

func (m *MockWise) CreateRecipient(ctx context.Context, in wise.CreateRecipientInput) (*wise.Recipient, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Recipient), args.Error(1)
}

func (m *MockWise) CreateTransfer(ctx context.Context, in wise.CreateTransferInput) (*wise.Transfer, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Transfer), args.Error(1)
}

func (m *MockWise) GetTransfer(ctx context.Context, transferID int64) (*wise.Transfer, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Transfer), args.Error(1)
}

func (m *MockWise) GetRates(ctx context.Context, source, target string) ([]wise.Rate, error) {
	args := m.Called(ctx, source, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wise.Rate), args.Error(1)
}

// MockPublisher モックステータスイベント発行
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event kafka.StatusEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
