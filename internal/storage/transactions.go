package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"contas/internal/core"
)

// TransactionFilters narrows ListTransactions. Zero values mean no filter.
type TransactionFilters struct {
	Year      int
	Month     time.Month
	AccountID string
	CardID    string
	Type      core.TransactionType
	Unpaid    bool // only unsettled rows
}

const transactionColumns = `id, user_id, type, amount, description, category_id,
 account_id, card_id, date, due_date, is_paid, expense_type,
 is_recurring, recurring_day, recurrence_type,
 installment_id, installments, current_installment, purchase_date, first_due_date, down_payment,
 assigned_to, value_history, created_at, updated_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	history, err := json.Marshal(t.ValueHistory)
	if err != nil {
		return fmt.Errorf("marshal value history: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO transactions(`+transactionColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Description, t.CategoryID,
		t.AccountID, t.CardID, toMillis(t.Date), toMillis(t.DueDate), t.IsPaid, string(t.ExpenseType),
		t.IsRecurring, t.RecurringDay, t.RecurrenceType,
		t.InstallmentID, t.Installments, t.CurrentInstallment, toMillis(t.PurchaseDate), toMillis(t.FirstDueDate), t.DownPayment.Cents,
		t.AssignedTo, string(history), toMillis(t.CreatedAt), toMillis(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f TransactionFilters) ([]core.Transaction, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Year != 0 && f.Month != 0 {
		start := time.Date(f.Year, f.Month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, toMillis(start), toMillis(end))
	}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.CardID != "" {
		where = append(where, "card_id = ?")
		args = append(args, f.CardID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Unpaid {
		where = append(where, "is_paid = 0")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC, created_at DESC`

	return r.queryTransactions(ctx, query, args...)
}

// ListTransactionsBetween returns transactions with a ledger date in
// [from, to), oldest first. The analytics components read through this.
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date`
	return r.queryTransactions(ctx, query, userID, toMillis(from), toMillis(to))
}

// ListByAccount returns every transaction referencing the account,
// used by the full-replay balance recalculation.
func (r *SQLiteRepository) ListByAccount(ctx context.Context, userID, accountID string) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	WHERE user_id = ? AND account_id = ? ORDER BY date`
	return r.queryTransactions(ctx, query, userID, accountID)
}

// ListInstallmentGroup returns all rows of one installment cohort.
func (r *SQLiteRepository) ListInstallmentGroup(ctx context.Context, userID, installmentID string) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	WHERE user_id = ? AND installment_id = ? ORDER BY current_installment`
	return r.queryTransactions(ctx, query, userID, installmentID)
}

// ListPendingConfirmation returns unsettled recurring and fixed rows due
// for the confirmation workflow, oldest due date first.
func (r *SQLiteRepository) ListPendingConfirmation(ctx context.Context, userID string) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	WHERE user_id = ? AND is_paid = 0 AND (is_recurring = 1 OR expense_type = 'fixed' OR expense_type = 'installment')
	ORDER BY CASE WHEN due_date > 0 THEN due_date ELSE date END`
	return r.queryTransactions(ctx, query, userID)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	history, err := json.Marshal(t.ValueHistory)
	if err != nil {
		return fmt.Errorf("marshal value history: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET type = ?, amount = ?, description = ?, category_id = ?,
	 account_id = ?, card_id = ?, date = ?, due_date = ?, is_paid = ?, expense_type = ?,
	 is_recurring = ?, recurring_day = ?, recurrence_type = ?,
	 installment_id = ?, installments = ?, current_installment = ?,
	 purchase_date = ?, first_due_date = ?, down_payment = ?,
	 assigned_to = ?, value_history = ?, updated_at = ?
	WHERE user_id = ? AND id = ?`,
		string(t.Type), t.Amount.Cents, t.Description, t.CategoryID,
		t.AccountID, t.CardID, toMillis(t.Date), toMillis(t.DueDate), t.IsPaid, string(t.ExpenseType),
		t.IsRecurring, t.RecurringDay, t.RecurrenceType,
		t.InstallmentID, t.Installments, t.CurrentInstallment,
		toMillis(t.PurchaseDate), toMillis(t.FirstDueDate), t.DownPayment.Cents,
		t.AssignedTo, string(history), toMillis(t.UpdatedAt),
		t.UserID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, core.ErrTransactionNotFound)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, core.ErrTransactionNotFound)
}

// DeleteInstallmentGroup removes every row sharing the installment id.
func (r *SQLiteRepository) DeleteInstallmentGroup(ctx context.Context, userID, installmentID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND installment_id = ?`, userID, installmentID)
	if err != nil {
		return fmt.Errorf("delete installment group: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, expenseType, history string
	var amount, date, dueDate, purchaseDate, firstDueDate, downPayment, createdAt, updatedAt int64
	err := row.Scan(&t.ID, &t.UserID, &typ, &amount, &t.Description, &t.CategoryID,
		&t.AccountID, &t.CardID, &date, &dueDate, &t.IsPaid, &expenseType,
		&t.IsRecurring, &t.RecurringDay, &t.RecurrenceType,
		&t.InstallmentID, &t.Installments, &t.CurrentInstallment, &purchaseDate, &firstDueDate, &downPayment,
		&t.AssignedTo, &history, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.ExpenseType = core.ExpenseType(expenseType)
	t.Amount = core.Money{Cents: amount}
	t.DownPayment = core.Money{Cents: downPayment}
	t.Date = fromMillis(date)
	t.DueDate = fromMillis(dueDate)
	t.PurchaseDate = fromMillis(purchaseDate)
	t.FirstDueDate = fromMillis(firstDueDate)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(history), &t.ValueHistory); err != nil {
		return core.Transaction{}, fmt.Errorf("unmarshal value history: %w", err)
	}
	return t, nil
}
