package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"wallet-server/internal/infrastructure/gateway"
	"wallet-server/internal/infrastructure/provider/wise"
)

// MockGateway モック決済バックエンド
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateRazorpayOrder(ctx context.Context, amount decimal.Decimal, currency, description string) (*gateway.RazorpayOrder, error) {
	args := m.Called(ctx, amount, currency, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RazorpayOrder), args.Error(1)
}

func (m *MockGateway) VerifyRazorpayPayment(ctx context.Context, orderID, paymentID, signature string) (*gateway.RazorpayPayment, error) {
	args := m.Called(ctx, orderID, paymentID, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RazorpayPayment), args.Error(1)
}

func (m *MockGateway) CreatePayPalOrder(ctx context.Context, amount decimal.Decimal, description string) (*gateway.PayPalOrder, error) {
	args := m.Called(ctx, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PayPalOrder), args.Error(1)
}

func (m *MockGateway) CapturePayPalOrder(ctx context.Context, orderID string) (*gateway.PayPalCapture, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PayPalCapture), args.Error(1)
}

func (m *MockGateway) CreateCryptomusPayment(ctx context.Context, amountUSD decimal.Decimal, description string) (*gateway.CryptomusPayment, error) {
	args := m.Called(ctx, amountUSD, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CryptomusPayment), args.Error(1)
}

func (m *MockGateway) GetCryptomusPayment(ctx context.Context, uuid string) (*gateway.CryptomusStatus, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CryptomusStatus), args.Error(1)
}

func (m *MockGateway) CreateWiseQuote(ctx context.Context, amount decimal.Decimal, source, target string) (*wise.Quote, error) {
	args := m.Called(ctx, amount, source, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Quote), args.Error(1)
}

func (m *MockGateway) CreateWiseRecipient(ctx context.Context, in gateway.WiseRecipientInput) (*wise.Recipient, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wise.Recipient), args.Error(1)
}

func (m *MockGateway) CreateWiseTransfer(ctx context.Context, quoteID string, recipientID int64, reference string) (*gateway.WiseTransfer, error) {
	args := m.Called(ctx, quoteID, recipientID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.WiseTransfer), args.Error(1)
}

func (m *MockGateway) GetWiseTransfer(ctx context.Context, transferID int64) (*gateway.WiseTransfer, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.WiseTransfer), args.Error(1)
}

func (m *MockGateway) Health(ctx context.Context) (*gateway.HealthStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.HealthStatus), args.Error(1)
}

// MockPayout モック出金処理
type MockPayout struct {
	mock.Mock
}

func (m *MockPayout) Payout(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	args := m.Called(ctx, amount, method)
	return args.String(0), args.Error(1)
}
