// Package ledger keeps account balances consistent with the transaction
// history and owns the transaction lifecycle: creation with installment
// expansion and credit-card cycle shifting, balance-reconciling updates,
// cohort deletion, goal transfers, and the recurring-confirmation
// workflow. Analytics live in internal/analysis; this package is the only
// writer of account balances.
package ledger

import (
	"context"
	"time"

	"contas/internal/core"
)

// Store is the slice of the record store the ledger engine needs.
// *storage.SQLiteRepository satisfies it.
type Store interface {
	GetAccount(ctx context.Context, userID, id string) (core.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	SetAccountBalance(ctx context.Context, userID, id string, cents int64) error

	GetCard(ctx context.Context, userID, id string) (core.CreditCard, error)

	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	ListByAccount(ctx context.Context, userID, accountID string) ([]core.Transaction, error)
	ListInstallmentGroup(ctx context.Context, userID, installmentID string) ([]core.Transaction, error)
	DeleteInstallmentGroup(ctx context.Context, userID, installmentID string) error

	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
}

// nowUTC is the default clock; tests swap it per engine/manager.
func nowUTC() time.Time { return time.Now().UTC() }
