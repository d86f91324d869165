// Package analysis holds the read-side derivations: spending-pattern
// volatility, the daily safe-to-spend budget, the composite financial
// health score, and the prioritized insight list. Everything here is
// recomputed on demand from the record store and degrades to zero-valued
// results on empty history; nothing writes back to the ledger.
package analysis

import (
	"context"
	"time"

	"contas/internal/core"
)

// Reader is the read-only slice of the record store the analytics need.
// *storage.SQLiteRepository satisfies it.
type Reader interface {
	ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
}

// Service computes all derived metrics for one user on demand.
type Service struct {
	store Reader
	now   func() time.Time
}

func NewService(store Reader) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// trailingWindow returns the transactions of the trailing three calendar
// months up to now, oldest first.
func (s *Service) trailingWindow(ctx context.Context, userID string, now time.Time) ([]core.Transaction, error) {
	start := core.AddMonths(core.MonthStart(now), -2)
	return s.store.ListTransactionsBetween(ctx, userID, start, now.Add(time.Millisecond))
}

// isVariableExpense selects the expenses that count as day-to-day
// spending: non-fixed expenses that are either settled or card-backed
// (a card purchase is spending the moment it happens, even though the
// account balance only moves when the bill settles).
func isVariableExpense(t core.Transaction) bool {
	return t.Type == core.Expense &&
		t.ExpenseType != core.ExpenseFixed &&
		(t.IsPaid || t.CardID != "")
}

// monthKey collapses a date to a sortable year-month ordinal.
func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
