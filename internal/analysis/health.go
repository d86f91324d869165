package analysis

import (
	"context"
	"fmt"
	"math"

	"contas/internal/core"
)

const (
	ClassExcellent = "excellent"
	ClassGood      = "good"
	ClassRegular   = "regular"
	ClassCritical  = "critical"

	// emergencyTargetMonths is the reserve size that scores a full 100.
	emergencyTargetMonths = 6

	maxRecommendations = 3
)

// HealthComponents are the five weighted sub-scores, each 0-100.
type HealthComponents struct {
	EmergencyFund   float64 `json:"emergencyFund"`
	SpendingControl float64 `json:"spendingControl"`
	Consistency     float64 `json:"consistency"`
	GoalsProgress   float64 `json:"goalsProgress"`
	DebtRatio       float64 `json:"debtRatio"`
}

// Recommendation is one actionable suggestion tied to a weak sub-score.
type Recommendation struct {
	Priority string `json:"priority"` // high | medium | low
	Message  string `json:"message"`
}

// HealthScore is the composite 0-100 financial health assessment.
type HealthScore struct {
	Score           int              `json:"score"`
	Classification  string           `json:"classification"`
	Components      HealthComponents `json:"components"`
	Recommendations []Recommendation `json:"recommendations"`
	Alerts          []string         `json:"alerts"`
}

// HealthScore combines the five weighted sub-scores: emergency fund 30%,
// spending control 25%, consistency 20%, goals progress 15%, debt ratio
// 10%. The debt sub-score is a constant 100 until a debt model exists.
func (s *Service) HealthScore(ctx context.Context, userID string) (HealthScore, error) {
	now := s.now()

	txs, err := s.trailingWindow(ctx, userID, now)
	if err != nil {
		return HealthScore{}, fmt.Errorf("load analysis window: %w", err)
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return HealthScore{}, fmt.Errorf("list accounts: %w", err)
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return HealthScore{}, fmt.Errorf("list goals: %w", err)
	}

	var balance float64
	for _, a := range accounts {
		if a.IsActive && a.IncludeInTotal {
			balance += a.CurrentBalance.Units()
		}
	}

	var income, expenses float64
	for _, t := range txs {
		if !t.IsPaid {
			continue
		}
		switch t.Type {
		case core.Income:
			income += t.Amount.Units()
		case core.Expense:
			expenses += t.Amount.Units()
		}
	}

	pattern := analyzePattern(txs)
	return computeHealthScore(balance, income, expenses, pattern, goals), nil
}

func computeHealthScore(balance, income, expenses float64, pattern PatternAnalysis, goals []core.Goal) HealthScore {
	c := HealthComponents{
		EmergencyFund:   emergencyFundScore(balance, expenses/3),
		SpendingControl: spendingControlScore(income, expenses),
		Consistency:     consistencyScore(pattern),
		GoalsProgress:   goalsProgressScore(goals),
		DebtRatio:       100, // documented stub, no debt model yet
	}

	weighted := 0.30*c.EmergencyFund +
		0.25*c.SpendingControl +
		0.20*c.Consistency +
		0.15*c.GoalsProgress +
		0.10*c.DebtRatio

	h := HealthScore{
		Score:      int(math.Round(weighted)),
		Components: c,
	}

	switch {
	case h.Score >= 90:
		h.Classification = ClassExcellent
	case h.Score >= 70:
		h.Classification = ClassGood
	case h.Score >= 50:
		h.Classification = ClassRegular
	default:
		h.Classification = ClassCritical
	}

	// Rule order is the presentation order; not re-sorted by severity.
	if c.EmergencyFund < 50 {
		h.Recommendations = append(h.Recommendations, Recommendation{
			Priority: "high",
			Message:  "Build an emergency reserve covering at least six months of expenses",
		})
	}
	if c.SpendingControl < 60 {
		h.Recommendations = append(h.Recommendations, Recommendation{
			Priority: "high",
			Message:  "Expenses are close to or above income; review recurring spending",
		})
	}
	if c.Consistency < 60 {
		h.Recommendations = append(h.Recommendations, Recommendation{
			Priority: "medium",
			Message:  "Spending varies a lot month to month; plan ahead for irregular expenses",
		})
	}
	if c.GoalsProgress < 40 {
		h.Recommendations = append(h.Recommendations, Recommendation{
			Priority: "low",
			Message:  "Set up or fund savings goals to build momentum",
		})
	}
	if len(h.Recommendations) > maxRecommendations {
		h.Recommendations = h.Recommendations[:maxRecommendations]
	}

	if income > 0 && expenses > income {
		h.Alerts = append(h.Alerts, "Spending exceeded income over the last three months")
	}
	if c.EmergencyFund < 25 {
		h.Alerts = append(h.Alerts, "Emergency reserve is critically low")
	}

	return h
}

// emergencyFundScore maps reserve coverage (balance over average monthly
// expenses) to 0-100, with six months of coverage scoring full marks.
func emergencyFundScore(balance, monthlyExpenses float64) float64 {
	if monthlyExpenses <= 0 {
		return 100
	}
	months := balance / monthlyExpenses
	return math.Min(100, months/emergencyTargetMonths*100)
}

// spendingControlScore maps the expense/income ratio through a breakpoint
// table. Zero income is undefined and treated neutrally.
func spendingControlScore(income, expenses float64) float64 {
	if income <= 0 {
		return 50
	}
	ratio := expenses / income
	switch {
	case ratio <= 0.70:
		return 100
	case ratio <= 0.85:
		return 80
	case ratio <= 0.95:
		return 60
	case ratio <= 1.00:
		return 40
	default:
		return math.Max(0, 40-(ratio-1)*100)
	}
}

// consistencyScore averages a volatility-derived score and an
// unexpected-rate-derived score, both floored at zero.
func consistencyScore(pattern PatternAnalysis) float64 {
	volScore := math.Max(0, 100-pattern.Volatility/20)
	rateScore := math.Max(0, 100-pattern.UnexpectedExpensesRate*100)
	return (volScore + rateScore) / 2
}

// goalsProgressScore averages completion across non-cancelled goals;
// a user with no goals sits at the neutral midpoint.
func goalsProgressScore(goals []core.Goal) float64 {
	var sum float64
	n := 0
	for _, g := range goals {
		if g.Status == core.GoalCancelled {
			continue
		}
		sum += math.Min(100, g.Progress()*100)
		n++
	}
	if n == 0 {
		return 50
	}
	return sum / float64(n)
}
