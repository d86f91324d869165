// Package services wires the ledger engines, the record store, and the
// event bus into the command/query surface the presentation layer calls.
// Writes follow one policy throughout: the store write is required, the
// event publish is best effort.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contas/internal/amqp"
	"contas/internal/analysis"
	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/storage"
)

// LedgerService orchestrates ledger operations across SQLite and AMQP.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	engine     *ledger.Engine
	manager    *ledger.Manager
	analytics  *analysis.Service
	amqpClient *amqp.Client
}

func NewLedgerService(store *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	engine := ledger.NewEngine(store)
	return &LedgerService{
		storage:    store,
		engine:     engine,
		manager:    ledger.NewManager(store, engine),
		analytics:  analysis.NewService(store),
		amqpClient: amqpClient,
	}
}

// --- accounts ---

func (s *LedgerService) CreateAccount(ctx context.Context, userID string, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = uuid.NewString()
	a.UserID = userID
	a.CurrentBalance = a.InitialBalance
	a.CreatedAt = time.Now().UTC()
	if err := s.storage.CreateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, userID string, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	old, err := s.storage.GetAccount(ctx, userID, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	a.UserID = userID
	if err := s.storage.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}
	// Changing the initial balance shifts the derived balance; replay.
	if old.InitialBalance != a.InitialBalance {
		if _, err := s.engine.RecalculateBalance(ctx, userID, a.ID); err != nil {
			return core.Account{}, err
		}
	}
	return s.storage.GetAccount(ctx, userID, a.ID)
}

func (s *LedgerService) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.storage.DeleteAccount(ctx, userID, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, userID)
}

// --- credit cards ---

func (s *LedgerService) CreateCard(ctx context.Context, userID string, c core.CreditCard) (core.CreditCard, error) {
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	c.ID = uuid.NewString()
	c.UserID = userID
	if err := s.storage.CreateCard(ctx, c); err != nil {
		return core.CreditCard{}, err
	}
	return c, nil
}

func (s *LedgerService) UpdateCard(ctx context.Context, userID string, c core.CreditCard) (core.CreditCard, error) {
	if err := c.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	c.UserID = userID
	if err := s.storage.UpdateCard(ctx, c); err != nil {
		return core.CreditCard{}, err
	}
	return c, nil
}

func (s *LedgerService) DeleteCard(ctx context.Context, userID, id string) error {
	return s.storage.DeleteCard(ctx, userID, id)
}

func (s *LedgerService) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	return s.storage.ListCards(ctx, userID)
}

// --- transactions ---

func (s *LedgerService) CreateTransaction(ctx context.Context, userID string, in ledger.CreateInput) ([]core.Transaction, error) {
	created, err := s.manager.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, userID, in.AccountID, amqp.ReasonTransactionWrite)
	return created, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	updated, err := s.manager.Update(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishEvent(ctx, userID, "", amqp.ReasonTransactionWrite)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.manager.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publishEvent(ctx, userID, "", amqp.ReasonTransactionWrite)
	return nil
}

func (s *LedgerService) ConfirmTransaction(ctx context.Context, userID, id string, amount core.Money, lockFuture bool) (core.Transaction, error) {
	confirmed, err := s.manager.Confirm(ctx, userID, id, amount, lockFuture)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishEvent(ctx, userID, confirmed.AccountID, amqp.ReasonTransactionWrite)
	return confirmed, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID string, f storage.TransactionFilters) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, f)
}

func (s *LedgerService) ListPendingConfirmation(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.storage.ListPendingConfirmation(ctx, userID)
}

// --- goals ---

func (s *LedgerService) CreateGoal(ctx context.Context, userID string, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.ID = uuid.NewString()
	g.UserID = userID
	g.Status = core.GoalActive
	g.CreatedAt = time.Now().UTC()
	if err := s.storage.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *LedgerService) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, userID)
}

func (s *LedgerService) TransferToGoal(ctx context.Context, userID, accountID, goalID string, amount core.Money) (core.Transaction, error) {
	t, err := s.engine.TransferToGoal(ctx, userID, accountID, goalID, amount)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishEvent(ctx, userID, accountID, amqp.ReasonGoalTransfer)
	return t, nil
}

func (s *LedgerService) WithdrawFromGoal(ctx context.Context, userID, accountID, goalID string, amount core.Money) (core.Transaction, error) {
	t, err := s.engine.WithdrawFromGoal(ctx, userID, accountID, goalID, amount)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishEvent(ctx, userID, accountID, amqp.ReasonGoalTransfer)
	return t, nil
}

// --- repair ---

func (s *LedgerService) RecalculateBalances(ctx context.Context, userID string) error {
	return s.engine.RecalculateAll(ctx, userID)
}

// --- queries ---

func (s *LedgerService) SpendingPattern(ctx context.Context, userID string) (analysis.PatternAnalysis, error) {
	return s.analytics.SpendingPattern(ctx, userID)
}

func (s *LedgerService) DailyBudget(ctx context.Context, userID string) (analysis.DailyBudget, error) {
	return s.analytics.DailyBudget(ctx, userID)
}

func (s *LedgerService) HealthScore(ctx context.Context, userID string) (analysis.HealthScore, error) {
	return s.analytics.HealthScore(ctx, userID)
}

func (s *LedgerService) Insights(ctx context.Context, userID string) ([]analysis.Insight, error) {
	return s.analytics.Insights(ctx, userID)
}

// publishEvent is always best effort: the write already happened and a
// broker outage must not fail it. The repair worker converges later.
func (s *LedgerService) publishEvent(ctx context.Context, userID, accountID, reason string) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event")
		return
	}
	event := amqp.NewLedgerEvent(userID, accountID, reason)
	if err := s.amqpClient.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"user_id", userID, "reason", reason, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
