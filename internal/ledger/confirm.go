package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/core"
)

// Confirm settles a pending recurring or fixed transaction with the
// amount the user actually paid or received. The confirmed amount joins
// the row's value history, the balance moves through the normal
// settlement path, and for recurring rows the next month's occurrence is
// spawned: with the locked amount when lockFuture is set, otherwise with
// the forecast probable value (falling back to the confirmed amount when
// the history is too short to forecast).
func (m *Manager) Confirm(ctx context.Context, userID, transactionID string, amount core.Money, lockFuture bool) (core.Transaction, error) {
	if amount.Cents <= 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	t, err := m.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return core.Transaction{}, err
	}

	history := append(t.ValueHistory, amount.Cents)
	if len(history) > core.ValueHistoryLimit {
		history = history[len(history)-core.ValueHistoryLimit:]
	}

	t.ValueHistory = history
	t.Amount = amount
	t.IsPaid = true
	t.UpdatedAt = m.now()
	if err := m.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("confirm transaction: %w", err)
	}
	m.settleBestEffort(ctx, t)

	if t.IsRecurring || t.ExpenseType == core.ExpenseFixed {
		nextAmount := amount
		if !lockFuture {
			if pv, ok := ProbableValue(history); ok {
				nextAmount = core.Money{Cents: pv}
			}
		}
		next := m.nextOccurrence(t, nextAmount)
		next.ValueHistory = history
		if err := m.store.CreateTransaction(ctx, next); err != nil {
			slog.ErrorContext(ctx, "Failed to spawn next occurrence",
				"transaction_id", t.ID, "error", err)
		} else {
			slog.InfoContext(ctx, "Next occurrence spawned",
				"transaction_id", next.ID,
				"amount_cents", next.Amount.Cents,
				"locked", lockFuture)
		}
	}

	slog.InfoContext(ctx, "Transaction confirmed",
		"transaction_id", t.ID,
		"amount_cents", amount.Cents)
	return t, nil
}
