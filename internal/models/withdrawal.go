package models

import "time"

// Withdrawal statuses
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusRejected  = "rejected"
	WithdrawalStatusProcessed = "processed"
	WithdrawalStatusFailed    = "failed"
	WithdrawalStatusCancelled = "cancelled"
)

// BankDetails is the payout destination snapshot taken at request time.
// Every field is required for a request to be accepted.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	RoutingCode   string `json:"routing_code"`
	BankName      string `json:"bank_name"`
}

// Complete reports whether all bank fields are filled in.
func (b BankDetails) Complete() bool {
	return b.AccountHolder != "" && b.AccountNumber != "" && b.RoutingCode != "" && b.BankName != ""
}

// WithdrawalRequest gates debits from a wallet behind admin review.
// Transitions only ever leave "pending", and at most once.
type WithdrawalRequest struct {
	ID             uint    `gorm:"primarykey"`
	RequestID      string  `gorm:"uniqueIndex;not null"`
	RequesterID    uint    `gorm:"index;not null"`
	RequesterType  string  `gorm:"not null"`
	WalletID       uint    `gorm:"index;not null"`
	Amount         float64 `gorm:"not null"`
	BalanceAtReq   float64 `gorm:"not null"`
	AccountHolder  string  `gorm:"not null"`
	AccountNumber  string  `gorm:"not null"`
	RoutingCode    string  `gorm:"not null"`
	BankName       string  `gorm:"not null"`
	Status         string  `gorm:"not null;default:'pending'"`
	ReviewedBy     *uint
	ReviewNotes    string
	ProcessingRef  string
	TransactionRef string // ledger transaction id written on approval
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Bank returns the payout destination recorded on the request.
func (w *WithdrawalRequest) Bank() BankDetails {
	return BankDetails{
		AccountHolder: w.AccountHolder,
		AccountNumber: w.AccountNumber,
		RoutingCode:   w.RoutingCode,
		BankName:      w.BankName,
	}
}
