package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contas/internal/core"
)

// contributionRow is the JSON shape of one contribution inside the
// goals.contributions column.
type contributionRow struct {
	AmountCents int64  `json:"amountCents"`
	DateMillis  int64  `json:"date"`
	Note        string `json:"note,omitempty"`
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	contribs, err := marshalContributions(g.Contributions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO goals(id, user_id, name, target_amount, current_amount, status, contributions, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		string(g.Status), contribs, toMillis(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, target_amount, current_amount, status, contributions, created_at
	FROM goals WHERE user_id = ? AND id = ?`, userID, id)

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, name, target_amount, current_amount, status, contributions, created_at
	FROM goals WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	contribs, err := marshalContributions(g.Contributions)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
	UPDATE goals SET name = ?, target_amount = ?, current_amount = ?, status = ?, contributions = ?
	WHERE user_id = ? AND id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, string(g.Status), contribs,
		g.UserID, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res, core.ErrGoalNotFound)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res, core.ErrGoalNotFound)
}

func marshalContributions(contribs []core.Contribution) (string, error) {
	rows := make([]contributionRow, len(contribs))
	for i, c := range contribs {
		rows[i] = contributionRow{
			AmountCents: c.Amount.Cents,
			DateMillis:  toMillis(c.Date),
			Note:        c.Note,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal contributions: %w", err)
	}
	return string(b), nil
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var g core.Goal
	var status, contribs string
	var target, current, createdAt int64
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &target, &current, &status, &contribs, &createdAt)
	if err != nil {
		return core.Goal{}, err
	}
	g.TargetAmount = core.Money{Cents: target}
	g.CurrentAmount = core.Money{Cents: current}
	g.Status = core.GoalStatus(status)
	g.CreatedAt = fromMillis(createdAt)

	var rows []contributionRow
	if err := json.Unmarshal([]byte(contribs), &rows); err != nil {
		return core.Goal{}, fmt.Errorf("unmarshal contributions: %w", err)
	}
	for _, c := range rows {
		g.Contributions = append(g.Contributions, core.Contribution{
			Amount: core.Money{Cents: c.AmountCents},
			Date:   time.UnixMilli(c.DateMillis).UTC(),
			Note:   c.Note,
		})
	}
	return g, nil
}
