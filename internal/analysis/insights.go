package analysis

import (
	"context"
	"fmt"
	"sort"

	"contas/internal/core"
)

const (
	InsightWarning     = "warning"
	InsightOpportunity = "opportunity"
	InsightAchievement = "achievement"
	InsightTip         = "tip"

	maxInsights = 5

	// surplusThreshold is the monthly surplus, in currency units, above
	// which a contribution opportunity is suggested.
	surplusThreshold = 100
)

// Insight is one actionable message with a 1-5 priority.
type Insight struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Priority int    `json:"priority"`
}

// Insights runs the five analyzers, merges their output, and returns the
// top five by priority. Ties keep rule order (the sort is stable).
func (s *Service) Insights(ctx context.Context, userID string) ([]Insight, error) {
	now := s.now()

	txs, err := s.trailingWindow(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("load analysis window: %w", err)
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var balance float64
	for _, a := range accounts {
		if a.IsActive && a.IncludeInTotal {
			balance += a.CurrentBalance.Units()
		}
	}

	pattern := analyzePattern(txs)
	currentKey := monthKey(now)

	var out []Insight
	out = append(out, emergencyFundInsights(balance, pattern)...)
	out = append(out, categoryShiftInsights(txs, currentKey)...)
	out = append(out, goalInsights(goals)...)
	out = append(out, surplusInsights(txs, currentKey)...)
	out = append(out, unexpectedRateInsights(pattern)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out, nil
}

func emergencyFundInsights(balance float64, pattern PatternAnalysis) []Insight {
	if pattern.AverageMonthlyExpenses <= 0 {
		return nil
	}
	coverage := balance / pattern.AverageMonthlyExpenses
	switch {
	case coverage < 1:
		return []Insight{{
			ID:       "emergency-fund-critical",
			Type:     InsightWarning,
			Title:    "Reserve below one month",
			Message:  "Your accounts cover less than one month of typical spending",
			Priority: 5,
		}}
	case coverage < 3:
		return []Insight{{
			ID:       "emergency-fund-low",
			Type:     InsightWarning,
			Title:    "Reserve below three months",
			Message:  "Your accounts cover less than three months of typical spending",
			Priority: 4,
		}}
	}
	return nil
}

// categoryShiftInsights compares this month's spend per category against
// the previous month: a spike above 30% warns, a drop beyond 15% is an
// achievement.
func categoryShiftInsights(txs []core.Transaction, currentKey int) []Insight {
	current := map[string]float64{}
	previous := map[string]float64{}
	for _, t := range txs {
		if !isVariableExpense(t) {
			continue
		}
		switch monthKey(t.Date) {
		case currentKey:
			current[t.CategoryID] += t.Amount.Units()
		case currentKey - 1:
			previous[t.CategoryID] += t.Amount.Units()
		}
	}

	categories := make([]string, 0, len(previous))
	for cat := range previous {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var out []Insight
	for _, cat := range categories {
		prev := previous[cat]
		cur := current[cat]
		if prev <= 0 {
			continue
		}
		change := (cur - prev) / prev
		if change > 0.30 {
			out = append(out, Insight{
				ID:       "category-spike-" + cat,
				Type:     InsightWarning,
				Title:    "Spending spike",
				Message:  fmt.Sprintf("Spending on %s is up %.0f%% versus last month", cat, change*100),
				Category: cat,
				Priority: 4,
			})
		} else if change < -0.15 {
			out = append(out, Insight{
				ID:       "category-drop-" + cat,
				Type:     InsightAchievement,
				Title:    "Spending down",
				Message:  fmt.Sprintf("Spending on %s is down %.0f%% versus last month", cat, -change*100),
				Category: cat,
				Priority: 2,
			})
		}
	}
	return out
}

func goalInsights(goals []core.Goal) []Insight {
	var out []Insight
	for _, g := range goals {
		if g.Status != core.GoalActive {
			continue
		}
		p := g.Progress()
		if p >= 0.85 && p < 1.0 {
			out = append(out, Insight{
				ID:       "goal-near-" + g.ID,
				Type:     InsightAchievement,
				Title:    "Goal almost complete",
				Message:  fmt.Sprintf("%s is at %.0f%% of its target", g.Name, p*100),
				Priority: 3,
			})
		}
	}
	return out
}

func surplusInsights(txs []core.Transaction, currentKey int) []Insight {
	var income, expenses float64
	for _, t := range txs {
		if monthKey(t.Date) != currentKey || !t.IsPaid {
			continue
		}
		switch t.Type {
		case core.Income:
			income += t.Amount.Units()
		case core.Expense:
			expenses += t.Amount.Units()
		}
	}
	surplus := income - expenses
	if surplus > surplusThreshold {
		return []Insight{{
			ID:       "monthly-surplus",
			Type:     InsightOpportunity,
			Title:    "Monthly surplus",
			Message:  fmt.Sprintf("You have %.2f left this month; consider moving some into a goal", surplus),
			Priority: 3,
		}}
	}
	return nil
}

func unexpectedRateInsights(pattern PatternAnalysis) []Insight {
	if pattern.UnexpectedExpensesRate > 0.2 {
		return []Insight{{
			ID:       "unexpected-expenses",
			Type:     InsightTip,
			Title:    "Frequent unexpected expenses",
			Message:  "A large share of your spending is unusually sized; keep a wider daily buffer",
			Priority: 2,
		}}
	}
	return nil
}
