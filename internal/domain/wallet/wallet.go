package wallet

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wallet-server/internal/domain/payment"
)

var (
	// DefaultMinWithdrawal 最低出金額（INR）
	DefaultMinWithdrawal = decimal.NewFromInt(100)
	// SeedBalance 初期残高
	SeedBalance = decimal.RequireFromString("45320.50")
	// SeedAvailable 初期の出金可能残高
	SeedAvailable = decimal.RequireFromString("44500.00")
)

// Wallet ウォレット集約
// 残高の変更は ApplyOutcome と Debit のみで行う
type Wallet struct {
	balance      decimal.Decimal
	available    decimal.Decimal
	transactions []*Transaction // 新しい順
}

// NewWallet 新しいWalletを作成
func NewWallet(balance, available decimal.Decimal, transactions []*Transaction) (*Wallet, error) {
	if balance.IsNegative() || available.IsNegative() {
		return nil, fmt.Errorf("%w: balance must not be negative", ErrInvalidAmount)
	}
	if available.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: available exceeds balance", ErrInvalidAmount)
	}
	txs := make([]*Transaction, len(transactions))
	copy(txs, transactions)
	return &Wallet{
		balance:      balance,
		available:    available,
		transactions: txs,
	}, nil
}

// NewSeededWallet 初期残高を持つWalletを作成
func NewSeededWallet() *Wallet {
	return &Wallet{
		balance:   SeedBalance,
		available: SeedAvailable,
	}
}

// Balance 残高を返す
func (w *Wallet) Balance() decimal.Decimal {
	return w.balance
}

// Available 出金可能残高を返す
func (w *Wallet) Available() decimal.Decimal {
	return w.available
}

// Transactions 取引履歴のコピーを新しい順で返す
func (w *Wallet) Transactions() []*Transaction {
	txs := make([]*Transaction, len(w.transactions))
	copy(txs, w.transactions)
	return txs
}

// ApplyOutcome 決済結果を反映する
// 成功時のみ残高と出金可能残高を増やし、入金取引を先頭に追加する
// outcome.Message は通知用で取引の説明には使わない
func (w *Wallet) ApplyOutcome(outcome payment.Outcome) (*Transaction, error) {
	if !outcome.Success {
		return nil, nil
	}

	txn, err := NewTransaction(
		TransactionTypeCredit,
		outcome.Method.DisplayName(),
		outcome.Amount,
		TransactionStatusSuccess,
		fmt.Sprintf("Added via %s", outcome.Method.DisplayName()),
		outcome.ProviderTransactionID,
	)
	if err != nil {
		return nil, err
	}

	w.balance = w.balance.Add(outcome.Amount)
	w.available = w.available.Add(outcome.Amount)
	w.prepend(txn)
	return txn, nil
}

// CheckWithdrawal 出金可能かどうかを検証する
func (w *Wallet) CheckWithdrawal(amount, minimum decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.LessThan(minimum) {
		return fmt.Errorf("%w: minimum withdrawal is %s", ErrBelowMinimum, minimum.String())
	}
	if amount.GreaterThan(w.available) {
		return fmt.Errorf("%w: available %s", ErrInsufficientBalance, w.available.StringFixed(2))
	}
	return nil
}

// Debit 出金を反映する
func (w *Wallet) Debit(amount, minimum decimal.Decimal, method, providerRef string) (*Transaction, error) {
	if err := w.CheckWithdrawal(amount, minimum); err != nil {
		return nil, err
	}

	txn, err := NewTransaction(
		TransactionTypeDebit,
		method,
		amount,
		TransactionStatusSuccess,
		fmt.Sprintf("Withdrawn to %s", method),
		providerRef,
	)
	if err != nil {
		return nil, err
	}

	w.balance = w.balance.Sub(amount)
	w.available = w.available.Sub(amount)
	w.prepend(txn)
	return txn, nil
}

func (w *Wallet) prepend(txn *Transaction) {
	w.transactions = append([]*Transaction{txn}, w.transactions...)
}
