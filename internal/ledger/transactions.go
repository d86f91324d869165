package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
)

// Manager owns the transaction lifecycle. Writes to transaction rows are
// the primary path; the balance adjustments around them are best-effort
// secondaries — a concurrently deleted account must never block a
// transaction write, and the recalculation primitive repairs any drift.
type Manager struct {
	store   Store
	balance *Engine
	now     func() time.Time

	// FixedPaidAtCreation preserves the historical policy that a new
	// fixed expense is marked settled immediately while its generated
	// next occurrence is not. Asymmetric on purpose.
	FixedPaidAtCreation bool
}

func NewManager(store Store, balance *Engine) *Manager {
	return &Manager{
		store:               store,
		balance:             balance,
		now:                 nowUTC,
		FixedPaidAtCreation: true,
	}
}

// CreateInput is one user-entered purchase or income before expansion.
type CreateInput struct {
	Type        core.TransactionType
	Amount      core.Money
	Description string
	CategoryID  string
	AccountID   string
	CardID      string
	Date        time.Time
	DueDate     time.Time
	IsPaid      bool // incomes and plain expenses; overridden by type policy
	ExpenseType core.ExpenseType

	IsRecurring    bool
	RecurringDay   int
	RecurrenceType string

	Installments int
	FirstDueDate time.Time
	DownPayment  core.Money

	AssignedTo string
}

// Create expands one user action into the full set of ledger rows:
// a single entry, an installment cohort, or an entry plus its recurring
// successor. It returns every row it persisted.
func (m *Manager) Create(ctx context.Context, userID string, in CreateInput) ([]core.Transaction, error) {
	probe := core.Transaction{Type: in.Type, Amount: in.Amount, CategoryID: in.CategoryID, Description: in.Description}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	if in.Type == core.Expense && in.ExpenseType == core.ExpenseInstallment && in.Installments > 1 {
		return m.createInstallments(ctx, userID, in)
	}
	return m.createSingle(ctx, userID, in)
}

func (m *Manager) createSingle(ctx context.Context, userID string, in CreateInput) ([]core.Transaction, error) {
	now := m.now()
	t := core.Transaction{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           in.Type,
		Amount:         in.Amount,
		Description:    in.Description,
		CategoryID:     in.CategoryID,
		AccountID:      in.AccountID,
		CardID:         in.CardID,
		Date:           in.Date,
		DueDate:        in.DueDate,
		IsPaid:         in.IsPaid,
		ExpenseType:    in.ExpenseType,
		IsRecurring:    in.IsRecurring,
		RecurringDay:   in.RecurringDay,
		RecurrenceType: in.RecurrenceType,
		AssignedTo:     in.AssignedTo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Date.IsZero() {
		t.Date = now
	}

	if t.Type == core.Expense {
		switch t.ExpenseType {
		case core.ExpenseCash:
			t.IsPaid = true
		case core.ExpenseFixed:
			t.IsPaid = m.FixedPaidAtCreation
		}
	}

	if t.CardID != "" {
		if err := m.applyCardCycleShift(ctx, &t); err != nil {
			return nil, err
		}
	}

	if err := m.store.CreateTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	m.settleBestEffort(ctx, t)

	created := []core.Transaction{t}

	if autoContinues(t) {
		next := m.nextOccurrence(t, t.Amount)
		if err := m.store.CreateTransaction(ctx, next); err != nil {
			// Secondary write: the principal row exists, keep it.
			slog.ErrorContext(ctx, "Failed to create next occurrence",
				"transaction_id", t.ID, "error", err)
		} else {
			created = append(created, next)
		}
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"type", string(t.Type),
		"amount_cents", t.Amount.Cents,
		"rows", len(created))
	return created, nil
}

// createInstallments persists an optional immediately-settled down
// payment plus one child row per installment. The children are unsettled;
// only the confirmation workflow settles them one at a time.
func (m *Manager) createInstallments(ctx context.Context, userID string, in CreateInput) ([]core.Transaction, error) {
	now := m.now()
	purchaseDate := in.Date
	if purchaseDate.IsZero() {
		purchaseDate = now
	}

	firstDue, err := m.firstPaymentDate(ctx, userID, in, purchaseDate)
	if err != nil {
		return nil, err
	}

	n := int64(in.Installments)
	financed := in.Amount.Cents - in.DownPayment.Cents
	if financed <= 0 {
		return nil, core.ErrInvalidAmount
	}
	perInstallment := (financed + n/2) / n // half-up split in cents

	cohortID := uuid.NewString()
	var created []core.Transaction

	if in.DownPayment.Cents > 0 {
		down := core.Transaction{
			ID:            uuid.NewString(),
			UserID:        userID,
			Type:          core.Expense,
			Amount:        in.DownPayment,
			Description:   in.Description + " (down payment)",
			CategoryID:    in.CategoryID,
			AccountID:     in.AccountID,
			Date:          now,
			IsPaid:        true,
			ExpenseType:   core.ExpenseCash,
			InstallmentID: cohortID,
			PurchaseDate:  purchaseDate,
			AssignedTo:    in.AssignedTo,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := m.store.CreateTransaction(ctx, down); err != nil {
			return nil, fmt.Errorf("create down payment: %w", err)
		}
		m.settleBestEffort(ctx, down)
		created = append(created, down)
	}

	for i := 0; i < in.Installments; i++ {
		child := core.Transaction{
			ID:                 uuid.NewString(),
			UserID:             userID,
			Type:               core.Expense,
			Amount:             core.Money{Cents: perInstallment},
			Description:        fmt.Sprintf("%s (%d/%d)", in.Description, i+1, in.Installments),
			CategoryID:         in.CategoryID,
			AccountID:          in.AccountID,
			CardID:             in.CardID,
			Date:               purchaseDate,
			DueDate:            core.AddMonths(firstDue, i),
			IsPaid:             false,
			ExpenseType:        core.ExpenseInstallment,
			InstallmentID:      cohortID,
			Installments:       in.Installments,
			CurrentInstallment: i + 1,
			PurchaseDate:       purchaseDate,
			FirstDueDate:       firstDue,
			DownPayment:        in.DownPayment,
			AssignedTo:         in.AssignedTo,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := m.store.CreateTransaction(ctx, child); err != nil {
			// Partial cohort: keep what exists, recalculation stays
			// correct because children are unsettled.
			return created, fmt.Errorf("create installment %d/%d: %w", i+1, in.Installments, err)
		}
		created = append(created, child)
	}

	slog.InfoContext(ctx, "Installment purchase created",
		"installment_id", cohortID,
		"installments", in.Installments,
		"per_installment_cents", perInstallment,
		"down_payment_cents", in.DownPayment.Cents)
	return created, nil
}

// firstPaymentDate resolves when the first installment falls due: for
// card-backed purchases the purchase date shifted by the closing-day
// rule, otherwise the caller-supplied first due date.
func (m *Manager) firstPaymentDate(ctx context.Context, userID string, in CreateInput, purchaseDate time.Time) (time.Time, error) {
	if in.CardID == "" {
		if in.FirstDueDate.IsZero() {
			return purchaseDate, nil
		}
		return in.FirstDueDate, nil
	}
	card, err := m.store.GetCard(ctx, userID, in.CardID)
	if err != nil {
		return time.Time{}, err
	}
	if purchaseDate.Day() > card.ClosingDay {
		return core.AddMonths(purchaseDate, 1), nil
	}
	return purchaseDate, nil
}

// applyCardCycleShift rolls a card purchase made after the card's closing
// day into the next month's bill: the ledger date moves one month, or the
// due date for fixed expenses.
func (m *Manager) applyCardCycleShift(ctx context.Context, t *core.Transaction) error {
	card, err := m.store.GetCard(ctx, t.UserID, t.CardID)
	if err != nil {
		return err
	}
	if t.Date.Day() <= card.ClosingDay {
		return nil
	}
	if t.ExpenseType == core.ExpenseFixed && !t.DueDate.IsZero() {
		t.DueDate = core.AddMonths(t.DueDate, 1)
	} else {
		t.Date = core.AddMonths(t.Date, 1)
	}
	return nil
}

// autoContinues reports whether creating t also creates its next
// occurrence: fixed expenses and recurring incomes. This guarantees the
// pending-confirmation list always has a next entry without a scheduler.
func autoContinues(t core.Transaction) bool {
	fixedExpense := t.Type == core.Expense && t.ExpenseType == core.ExpenseFixed
	recurringIncome := t.Type == core.Income && t.IsRecurring
	return fixedExpense || recurringIncome
}

// nextOccurrence builds the unpaid sibling one calendar month out.
func (m *Manager) nextOccurrence(t core.Transaction, amount core.Money) core.Transaction {
	now := m.now()
	next := t
	next.ID = uuid.NewString()
	next.Amount = amount
	next.Date = core.AddMonths(t.Date, 1)
	if !t.DueDate.IsZero() {
		next.DueDate = core.AddMonths(t.DueDate, 1)
	}
	next.IsPaid = false
	next.CreatedAt = now
	next.UpdatedAt = now
	return next
}

// Update persists the changed row, then issues the minimal set of
// balance adjustments to move the account(s) from the old state to the
// new one. An account move reverses the effect on the old account before
// applying it to the new one.
func (m *Manager) Update(ctx context.Context, userID string, updated core.Transaction) (core.Transaction, error) {
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	old, err := m.store.GetTransaction(ctx, userID, updated.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	updated.UserID = userID
	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = m.now()
	if err := m.store.UpdateTransaction(ctx, updated); err != nil {
		return core.Transaction{}, err
	}

	// Settlement toggles, card linkage changes, and cleared accounts all
	// show up as an AffectsBalance flip, so the flip decides which side
	// needs reversing.
	switch oldAffects, newAffects := old.AffectsBalance(), updated.AffectsBalance(); {
	case oldAffects && newAffects:
		if old.AccountID != updated.AccountID {
			m.unsettleBestEffort(ctx, old)
			m.settleBestEffort(ctx, updated)
		} else if diff := updated.BalanceDelta() - old.BalanceDelta(); diff != 0 {
			if err := m.balance.adjust(ctx, userID, updated.AccountID, diff); err != nil {
				m.warnAdjustFailure(ctx, updated.AccountID, updated.ID, err)
			}
		}
	case oldAffects:
		m.unsettleBestEffort(ctx, old)
	case newAffects:
		m.settleBestEffort(ctx, updated)
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", updated.ID)
	return updated, nil
}

// Delete removes the row after reversing its balance effect. A row that
// belongs to an installment cohort takes the whole cohort with it; a
// partially deleted cohort is not a valid end state.
func (m *Manager) Delete(ctx context.Context, userID, id string) error {
	t, err := m.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	if t.InstallmentID != "" {
		group, err := m.store.ListInstallmentGroup(ctx, userID, t.InstallmentID)
		if err != nil {
			return fmt.Errorf("list installment group: %w", err)
		}
		for _, row := range group {
			m.unsettleBestEffort(ctx, row)
		}
		if err := m.store.DeleteInstallmentGroup(ctx, userID, t.InstallmentID); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Installment cohort deleted",
			"installment_id", t.InstallmentID, "rows", len(group))
		return nil
	}

	m.unsettleBestEffort(ctx, t)
	if err := m.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// settleBestEffort applies a transaction's balance effect, logging and
// swallowing a missing account: the transaction write is the primary
// operation and must stand.
func (m *Manager) settleBestEffort(ctx context.Context, t core.Transaction) {
	if err := m.balance.settle(ctx, t); err != nil {
		m.warnAdjustFailure(ctx, t.AccountID, t.ID, err)
	}
}

func (m *Manager) unsettleBestEffort(ctx context.Context, t core.Transaction) {
	if err := m.balance.unsettle(ctx, t); err != nil {
		m.warnAdjustFailure(ctx, t.AccountID, t.ID, err)
	}
}

func (m *Manager) warnAdjustFailure(ctx context.Context, accountID, transactionID string, err error) {
	if errors.Is(err, core.ErrAccountNotFound) {
		slog.WarnContext(ctx, "Balance adjustment skipped, account missing",
			"account_id", accountID, "transaction_id", transactionID)
		return
	}
	slog.ErrorContext(ctx, "Balance adjustment failed",
		"account_id", accountID, "transaction_id", transactionID, "error", err)
}
