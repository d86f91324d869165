package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, user_id, name, type, initial_balance, current_balance,
	 is_active, include_in_total, color, icon, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.InitialBalance.Cents, a.CurrentBalance.Cents,
		a.IsActive, a.IncludeInTotal, a.Color, a.Icon, toMillis(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, type, initial_balance, current_balance,
	 is_active, include_in_total, color, icon, created_at
	FROM accounts WHERE user_id = ? AND id = ?`, userID, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, name, type, initial_balance, current_balance,
	 is_active, include_in_total, color, icon, created_at
	FROM accounts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE accounts SET name = ?, type = ?, initial_balance = ?, is_active = ?,
	 include_in_total = ?, color = ?, icon = ?
	WHERE user_id = ? AND id = ?`,
		a.Name, string(a.Type), a.InitialBalance.Cents, a.IsActive,
		a.IncludeInTotal, a.Color, a.Icon, a.UserID, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, core.ErrAccountNotFound)
}

// SetAccountBalance overwrites the cached current balance. Only the
// balance engine calls this.
func (r *SQLiteRepository) SetAccountBalance(ctx context.Context, userID, id string, cents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET current_balance = ? WHERE user_id = ? AND id = ?`,
		cents, userID, id)
	if err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	return requireRow(res, core.ErrAccountNotFound)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res, core.ErrAccountNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var typ string
	var initial, current, createdAt int64
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &typ, &initial, &current,
		&a.IsActive, &a.IncludeInTotal, &a.Color, &a.Icon, &createdAt)
	if err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.InitialBalance = core.Money{Cents: initial}
	a.CurrentBalance = core.Money{Cents: current}
	a.CreatedAt = fromMillis(createdAt)
	return a, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
