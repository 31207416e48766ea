package wallet

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletFrozen        = errors.New("wallet is frozen or suspended")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrAlreadyReversed     = errors.New("transaction already reversed")
)
