// Package fxhub provides the types and functions to manage a personal
// multi-currency ledger. It is designed to be local-first: every piece of
// state lives in human-readable JSON files the user owns.
//
// The core functionalities include:
//   - Currency Registry: validating and resolving currency codes into fiat or
//     crypto currency descriptors.
//   - Wallets and Portfolios: the balance model of a user, one wallet per
//     currency, that can never hold a negative balance.
//   - Ledger: the buy and sell state transitions that move value between a
//     currency wallet and the base currency wallet, priced with the exchange
//     rates cache.
//   - Accounts: user registration and login with salted password hashes.
//
// Exchange rates are fetched by the provider package, persisted by the
// ratestore package and cached by the rates package. The storage package
// persists users and portfolios. This package serves as the foundational logic
// for the `fxh` command-line tool.
package fxhub
