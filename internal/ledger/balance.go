package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contas/internal/core"
)

// Direction says which way AdjustBalance moves an account.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// recalcConcurrency bounds the per-account fan-out of RecalculateAll.
const recalcConcurrency = 4

// Engine maintains the invariant that every account's current balance
// equals its initial balance plus the net effect of all settled,
// non-card transactions referencing it.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: nowUTC}
}

// AdjustBalance applies a signed delta to the account's cached balance.
// Returns core.ErrAccountNotFound when the account record is absent;
// callers on secondary paths log that and move on.
func (e *Engine) AdjustBalance(ctx context.Context, userID, accountID string, amount core.Money, dir Direction) error {
	delta := amount.Cents
	if dir == Debit {
		delta = -delta
	}
	return e.adjust(ctx, userID, accountID, delta)
}

func (e *Engine) adjust(ctx context.Context, userID, accountID string, deltaCents int64) error {
	acct, err := e.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}
	newBalance := acct.CurrentBalance.Cents + deltaCents
	if err := e.store.SetAccountBalance(ctx, userID, accountID, newBalance); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	slog.DebugContext(ctx, "Balance adjusted",
		"account_id", accountID,
		"delta_cents", deltaCents,
		"balance_cents", newBalance)
	return nil
}

// settle applies a settled transaction's effect to its account, once.
// This is the single path through which transactions move balances.
func (e *Engine) settle(ctx context.Context, t core.Transaction) error {
	if !t.AffectsBalance() {
		return nil
	}
	return e.adjust(ctx, t.UserID, t.AccountID, t.BalanceDelta())
}

// unsettle reverses a previously applied transaction effect.
func (e *Engine) unsettle(ctx context.Context, t core.Transaction) error {
	if !t.AffectsBalance() {
		return nil
	}
	return e.adjust(ctx, t.UserID, t.AccountID, -t.BalanceDelta())
}

// TransferToGoal reserves money from an account into a goal. It creates
// one settled expense transaction tagged with the goal-transfer category;
// that transaction's settlement is the only balance mutation. The goal
// gains a positive contribution row.
func (e *Engine) TransferToGoal(ctx context.Context, userID, accountID, goalID string, amount core.Money) (core.Transaction, error) {
	if amount.Cents <= 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	acct, err := e.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return core.Transaction{}, err
	}
	goal, err := e.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Transaction{}, err
	}
	if amount.Cents > acct.CurrentBalance.Cents {
		return core.Transaction{}, core.ErrInsufficientBalance
	}

	now := e.now()
	t := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        core.Expense,
		Amount:      amount,
		Description: "Transfer to goal: " + goal.Name,
		CategoryID:  core.GoalTransferCategory,
		AccountID:   accountID,
		Date:        now,
		IsPaid:      true,
		ExpenseType: core.ExpenseCash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create goal transfer transaction: %w", err)
	}
	if err := e.settle(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("settle goal transfer: %w", err)
	}

	goal.CurrentAmount.Cents += amount.Cents
	goal.Contributions = append(goal.Contributions, core.Contribution{
		Amount: amount,
		Date:   now,
		Note:   "from account " + acct.Name,
	})
	if goal.Status == core.GoalActive && goal.CurrentAmount.Cents >= goal.TargetAmount.Cents {
		goal.Status = core.GoalCompleted
	}
	if err := e.store.UpdateGoal(ctx, goal); err != nil {
		// The transaction already settled; a recalculation will not undo
		// it, so surface the error instead of swallowing it.
		return core.Transaction{}, fmt.Errorf("update goal: %w", err)
	}

	slog.InfoContext(ctx, "Transferred to goal",
		"goal_id", goalID,
		"account_id", accountID,
		"amount_cents", amount.Cents)
	return t, nil
}

// WithdrawFromGoal is the mirror operation: one settled income
// transaction credits the account and the goal gains a negative
// contribution row.
func (e *Engine) WithdrawFromGoal(ctx context.Context, userID, accountID, goalID string, amount core.Money) (core.Transaction, error) {
	if amount.Cents <= 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	acct, err := e.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return core.Transaction{}, err
	}
	goal, err := e.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Transaction{}, err
	}
	if amount.Cents > goal.CurrentAmount.Cents {
		return core.Transaction{}, core.ErrInsufficientReserve
	}

	now := e.now()
	t := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        core.Income,
		Amount:      amount,
		Description: "Withdrawal from goal: " + goal.Name,
		CategoryID:  core.GoalTransferCategory,
		AccountID:   accountID,
		Date:        now,
		IsPaid:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create goal withdrawal transaction: %w", err)
	}
	if err := e.settle(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("settle goal withdrawal: %w", err)
	}

	goal.CurrentAmount.Cents -= amount.Cents
	goal.Contributions = append(goal.Contributions, core.Contribution{
		Amount: core.Money{Cents: -amount.Cents},
		Date:   now,
		Note:   "to account " + acct.Name,
	})
	if goal.Status == core.GoalCompleted && goal.CurrentAmount.Cents < goal.TargetAmount.Cents {
		goal.Status = core.GoalActive
	}
	if err := e.store.UpdateGoal(ctx, goal); err != nil {
		return core.Transaction{}, fmt.Errorf("update goal: %w", err)
	}

	slog.InfoContext(ctx, "Withdrew from goal",
		"goal_id", goalID,
		"account_id", accountID,
		"amount_cents", amount.Cents)
	return t, nil
}

// RecalculateBalance replays the account's full transaction history:
// initial balance plus the signed sum of every settled, non-card
// transaction. Idempotent; safe to call any number of times to repair
// drift from partial failures.
func (e *Engine) RecalculateBalance(ctx context.Context, userID, accountID string) (core.Money, error) {
	acct, err := e.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return core.Money{}, err
	}
	txs, err := e.store.ListByAccount(ctx, userID, accountID)
	if err != nil {
		return core.Money{}, fmt.Errorf("list account transactions: %w", err)
	}

	balance := acct.InitialBalance.Cents
	for _, t := range txs {
		if t.AffectsBalance() {
			balance += t.BalanceDelta()
		}
	}
	if err := e.store.SetAccountBalance(ctx, userID, accountID, balance); err != nil {
		return core.Money{}, fmt.Errorf("write balance: %w", err)
	}

	slog.InfoContext(ctx, "Balance recalculated",
		"account_id", accountID,
		"balance_cents", balance,
		"transactions", len(txs))
	return core.Money{Cents: balance}, nil
}

// RecalculateAll replays every account of the user.
func (e *Engine) RecalculateAll(ctx context.Context, userID string) error {
	accounts, err := e.store.ListAccounts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recalcConcurrency)
	for _, acct := range accounts {
		g.Go(func() error {
			_, err := e.RecalculateBalance(ctx, userID, acct.ID)
			return err
		})
	}
	return g.Wait()
}
