package analysis

import (
	"context"
	"time"

	"contas/internal/core"
)

// fakeReader serves canned data for service-level tests.
type fakeReader struct {
	txs      []core.Transaction
	accounts []core.Account
	goals    []core.Goal
}

func (f *fakeReader) ListTransactionsBetween(_ context.Context, _ string, from, to time.Time) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txs {
		if !t.Date.Before(from) && t.Date.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeReader) ListAccounts(context.Context, string) ([]core.Account, error) {
	return f.accounts, nil
}

func (f *fakeReader) ListGoals(context.Context, string) ([]core.Goal, error) {
	return f.goals, nil
}

func newFixedService(reader *fakeReader, now time.Time) *Service {
	s := NewService(reader)
	s.now = func() time.Time { return now }
	return s
}

func variableExpense(day time.Time, cents int64, category string) core.Transaction {
	return core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Cents: cents},
		CategoryID: category,
		Date:       day,
		IsPaid:     true,
	}
}

func settledIncome(day time.Time, cents int64) core.Transaction {
	return core.Transaction{
		Type:       core.Income,
		Amount:     core.Money{Cents: cents},
		CategoryID: "salary",
		Date:       day,
		IsPaid:     true,
	}
}
