package validation

import (
	"regexp"

	"tiffin/internal/errors"
	"tiffin/internal/models"
)

const (
	// Amount limits
	MinTransactionAmount = 0.01
	MaxTransactionAmount = 100000.00

	// Password requirements
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// HasSpecialChar checks if a string contains at least one special character
func HasSpecialChar(s string) bool {
	specialChars := regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	return specialChars.MatchString(s)
}

// ValidateAmount checks a ledger amount against the configured bounds.
func ValidateAmount(amount float64) error {
	if amount < MinTransactionAmount || amount > MaxTransactionAmount {
		return errors.ErrInvalidAmount
	}
	return nil
}

// ValidateBankDetails requires every payout field to be present.
func ValidateBankDetails(bank models.BankDetails) error {
	if !bank.Complete() {
		return &errors.DomainError{
			Code:    "INCOMPLETE_BANK_DETAILS",
			Message: "account holder, account number, routing code and bank name are all required",
		}
	}
	return nil
}
