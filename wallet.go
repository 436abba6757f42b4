package fxhub

import (
	"github.com/shopspring/decimal"
)

// Wallet is the balance of a single currency in a portfolio.
// The balance is never negative.
type Wallet struct {
	code    string
	balance decimal.Decimal
}

// NewWallet returns a wallet for code with an initial balance.
func NewWallet(code string, balance decimal.Decimal) (*Wallet, error) {
	c, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	if balance.IsNegative() {
		return nil, invalidf("wallet %s: balance must not be negative, got %s", c, balance)
	}
	return &Wallet{code: c, balance: balance}, nil
}

func (w *Wallet) Code() string             { return w.code }
func (w *Wallet) Balance() decimal.Decimal { return w.balance }

// Deposit adds a positive amount to the balance.
func (w *Wallet) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalidf("deposit amount must be positive, got %s", amount)
	}
	w.balance = w.balance.Add(amount)
	return nil
}

// Withdraw removes a positive amount from the balance, or fails with an
// *InsufficientFundsError leaving the balance unchanged.
func (w *Wallet) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalidf("withdraw amount must be positive, got %s", amount)
	}
	if w.balance.LessThan(amount) {
		return &InsufficientFundsError{Available: w.balance, Required: amount, Code: w.code}
	}
	w.balance = w.balance.Sub(amount)
	return nil
}

// SetBalance overwrites the balance. Negative values are rejected.
func (w *Wallet) SetBalance(v decimal.Decimal) error {
	if v.IsNegative() {
		return invalidf("wallet %s: balance must not be negative, got %s", w.code, v)
	}
	w.balance = v
	return nil
}

// clone returns an independent copy of w.
func (w *Wallet) clone() *Wallet {
	c := *w
	return &c
}
