package wallet

import (
	"context"
	"time"

	"tiffin/internal/models"
)

// Operation carries the ledger context of a balance mutation: what category
// of entry to append, what entity it references and who triggered it.
type Operation struct {
	Category      string
	Source        string
	ReferenceType string
	ReferenceID   *uint
	Description   string
	ActorID       *uint
}

// CacheOperator is the subset of the cache service the wallet service needs.
type CacheOperator interface {
	GetWallet(ctx context.Context, ownerID uint) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, ownerID uint) error
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordTransaction(txType string, amount float64)
	RecordError(operation, errType string)
	RecordOperationDuration(operation string, duration time.Duration)
}
