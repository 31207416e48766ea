/*
Package wallet manages per-owner balances and the append-only ledger behind
them.

Every balance mutation appends exactly one WalletTransaction carrying a
BalanceAfter snapshot, written in the same database transaction as the
balance update. Ledger rows are immutable once completed; the only later
mutation is the status flip to "reversed".

Usage:

	svc := wallet.NewService(repo, cache, nil)

	// Lazily create and fetch a wallet
	w, err := svc.GetWallet(ctx, ownerID, models.OwnerTypeProvider)

	// Credit settlement earnings
	entry, err := svc.CreditEarnings(ctx, ownerID, amount, wallet.Operation{
	    Category:      models.CategoryDeliverySettlement,
	    ReferenceType: "delivery_order",
	    ReferenceID:   &deliveryID,
	})

	// Debit an order payment; fails with ErrInsufficientBalance rather
	// than overdrawing
	entry, err = svc.DebitSpending(ctx, ownerID, amount, wallet.Operation{
	    Category: models.CategoryOrderPayment,
	})

Wallets in status "frozen" or "suspended" reject every mutation until an
admin unfreezes them.
*/
package wallet
