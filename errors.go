package fxhub

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is the class of errors caused by a malformed code, amount or
// name given by the caller. They are always recoverable by asking again.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrWrongPassword     = errors.New("wrong password")
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// invalidf returns an error of class ErrInvalidInput.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// CurrencyNotFoundError is returned when a currency code is unknown to the
// registry, to the rates cache, or to a portfolio.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// InsufficientFundsError is returned when a withdrawal exceeds a wallet
// balance. Amounts are expressed in Code.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
	Code      string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s %s, required %s %s",
		e.Available.StringFixed(8), e.Code, e.Required.StringFixed(8), e.Code)
}

// RateUnavailableError is returned when the rates cache has no entry for Code,
// even after a refresh.
type RateUnavailableError struct {
	Code string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no exchange rate available for %q", e.Code)
}

// PersistenceError reports an I/O failure while reading or writing a data
// file. The previous content of the file is left untouched.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cannot %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProviderError reports the failure of a single rate source during an update.
// It is collected by the updater and never returned by the Ledger.
type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
