// Package worker hosts the repair worker: it consumes ledger events and
// replays account balances with the idempotent recalculation primitive.
// Multi-row writes in this system have no transactional boundary, so
// convergence after a partial failure is this worker's job.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ledger"
)

type RepairWorker struct {
	engine *ledger.Engine
	client *amqp.Client
}

func NewRepairWorker(engine *ledger.Engine, client *amqp.Client) *RepairWorker {
	return &RepairWorker{engine: engine, client: client}
}

// Run blocks consuming ledger events until ctx is cancelled.
func (w *RepairWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Repair worker started")
	return w.client.ConsumeLedgerEvents(ctx, func(event *amqp.LedgerEvent) error {
		return w.handle(ctx, event)
	})
}

func (w *RepairWorker) handle(ctx context.Context, event *amqp.LedgerEvent) error {
	if event.AccountID != "" {
		_, err := w.engine.RecalculateBalance(ctx, event.UserID, event.AccountID)
		if errors.Is(err, core.ErrAccountNotFound) {
			// The account went away between the write and the repair;
			// nothing left to converge.
			slog.WarnContext(ctx, "Repair skipped, account missing",
				"user_id", event.UserID, "account_id", event.AccountID)
			return nil
		}
		return err
	}
	return w.engine.RecalculateAll(ctx, event.UserID)
}
