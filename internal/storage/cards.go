package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO credit_cards(id, user_id, card_brand, nickname, closing_day, due_day, credit_limit, is_active)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.CardBrand, c.Nickname, c.ClosingDay, c.DueDay, c.CreditLimit.Cents, c.IsActive)
	if err != nil {
		return fmt.Errorf("create credit card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, userID, id string) (core.CreditCard, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, card_brand, nickname, closing_day, due_day, credit_limit, is_active
	FROM credit_cards WHERE user_id = ? AND id = ?`, userID, id)

	var c core.CreditCard
	var limit int64
	err := row.Scan(&c.ID, &c.UserID, &c.CardBrand, &c.Nickname, &c.ClosingDay, &c.DueDay, &limit, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCard{}, core.ErrCardNotFound
	}
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get credit card: %w", err)
	}
	c.CreditLimit = core.Money{Cents: limit}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context, userID string) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, card_brand, nickname, closing_day, due_day, credit_limit, is_active
	FROM credit_cards WHERE user_id = ? ORDER BY card_brand`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		var limit int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.CardBrand, &c.Nickname, &c.ClosingDay, &c.DueDay, &limit, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		c.CreditLimit = core.Money{Cents: limit}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.CreditCard) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE credit_cards SET card_brand = ?, nickname = ?, closing_day = ?, due_day = ?,
	 credit_limit = ?, is_active = ?
	WHERE user_id = ? AND id = ?`,
		c.CardBrand, c.Nickname, c.ClosingDay, c.DueDay, c.CreditLimit.Cents, c.IsActive,
		c.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("update credit card: %w", err)
	}
	return requireRow(res, core.ErrCardNotFound)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM credit_cards WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	return requireRow(res, core.ErrCardNotFound)
}
