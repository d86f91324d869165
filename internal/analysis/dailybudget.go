package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"contas/internal/core"
)

const (
	StatusInControl     = "in_control"
	StatusWatchSpending = "watch_spending"
	StatusTight         = "tight"
	StatusExceeded      = "exceeded"
)

// DailyBudget is today's spendable allowance derived from the month's
// net budget, the carry-over of previous days, and the safety buffer
// from the pattern analysis. Amounts are in currency units.
type DailyBudget struct {
	MonthlyBudget       float64 `json:"monthlyBudget"`
	AverageDailyBudget  float64 `json:"averageDailyBudget"`
	AccumulatedBalance  float64 `json:"accumulatedBalance"`
	CanSpendToday       float64 `json:"canSpendToday"`
	SafeToSpendToday    float64 `json:"safeToSpendToday"`
	SpentToday          float64 `json:"spentToday"`
	RemainingToday      float64 `json:"remainingToday"`
	SafeBudgetRemaining float64 `json:"safeBudgetRemaining"`
	ProjectedEndOfMonth float64 `json:"projectedEndOfMonth"`
	BufferPercentage    int     `json:"bufferPercentage"`
	DaysRemaining       int     `json:"daysRemaining"`
	HealthPercentage    float64 `json:"healthPercentage"`
	Status              string  `json:"status"`
}

// DailyBudget derives today's allowance for the user.
func (s *Service) DailyBudget(ctx context.Context, userID string) (DailyBudget, error) {
	now := s.now()

	windowTxs, err := s.trailingWindow(ctx, userID, now)
	if err != nil {
		return DailyBudget{}, fmt.Errorf("load analysis window: %w", err)
	}
	pattern := analyzePattern(windowTxs)

	start := core.MonthStart(now)
	monthTxs, err := s.store.ListTransactionsBetween(ctx, userID, start, start.AddDate(0, 1, 0))
	if err != nil {
		return DailyBudget{}, fmt.Errorf("load month transactions: %w", err)
	}

	return computeDailyBudget(monthTxs, pattern.BufferPercentage, now), nil
}

func computeDailyBudget(monthTxs []core.Transaction, bufferPct int, now time.Time) DailyBudget {
	var income, fixed float64
	spentByDay := map[int]float64{}
	for _, t := range monthTxs {
		switch {
		case t.Type == core.Income && t.IsPaid:
			income += t.Amount.Units()
		case t.Type == core.Expense && t.ExpenseType == core.ExpenseFixed && t.IsPaid:
			fixed += t.Amount.Units()
		case isVariableExpense(t):
			spentByDay[t.Date.Day()] += t.Amount.Units()
		}
	}

	days := core.DaysInMonth(now)
	today := now.Day()

	b := DailyBudget{
		MonthlyBudget:    income - fixed,
		BufferPercentage: bufferPct,
		DaysRemaining:    days - today + 1,
	}
	b.AverageDailyBudget = b.MonthlyBudget / float64(days)

	for day := 1; day < today; day++ {
		b.AccumulatedBalance += b.AverageDailyBudget - spentByDay[day]
	}

	b.CanSpendToday = math.Max(0, b.AverageDailyBudget+b.AccumulatedBalance)
	b.SafeToSpendToday = b.CanSpendToday * (1 - float64(bufferPct)/100)
	b.SpentToday = spentByDay[today]
	b.RemainingToday = b.CanSpendToday - b.SpentToday
	b.SafeBudgetRemaining = math.Max(0, b.SafeToSpendToday-b.SpentToday)
	b.ProjectedEndOfMonth = b.SafeBudgetRemaining * float64(b.DaysRemaining)

	if b.SafeToSpendToday > 0 {
		b.HealthPercentage = b.SafeBudgetRemaining / b.SafeToSpendToday * 100
	}

	switch {
	case b.HealthPercentage >= 80:
		b.Status = StatusInControl
	case b.HealthPercentage >= 50:
		b.Status = StatusWatchSpending
	case b.HealthPercentage > 0:
		b.Status = StatusTight
	default:
		b.Status = StatusExceeded
	}
	return b
}
