package wallet

import "errors"

var (
	// ErrInsufficientBalance 出金可能残高不足エラー
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBelowMinimum 最低出金額未満エラー
	ErrBelowMinimum = errors.New("amount below minimum withdrawal")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidTransaction 無効な取引エラー
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidStatusTransition 無効なステータス遷移エラー
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")
)
