package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"contas/internal/core"
)

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"

	// trendDeadZone is the relative band within which month-over-month
	// movement is considered noise.
	trendDeadZone = 0.10

	// windowDays is the nominal length of the trailing analysis window.
	windowDays = 90
)

// PatternAnalysis describes the user's variable-spending behavior over
// the trailing three months. Amounts are in currency units.
type PatternAnalysis struct {
	AverageMonthlyExpenses float64 `json:"averageMonthlyExpenses"`
	Volatility             float64 `json:"volatility"`
	UnexpectedExpensesRate float64 `json:"unexpectedExpensesRate"`
	Trend                  string  `json:"trend"`
	BufferPercentage       int     `json:"bufferPercentage"`
	MonthsAnalyzed         int     `json:"monthsAnalyzed"`
}

// SpendingPattern computes the trailing-window pattern analysis.
func (s *Service) SpendingPattern(ctx context.Context, userID string) (PatternAnalysis, error) {
	now := s.now()
	txs, err := s.trailingWindow(ctx, userID, now)
	if err != nil {
		return PatternAnalysis{}, fmt.Errorf("load analysis window: %w", err)
	}
	return analyzePattern(txs), nil
}

func analyzePattern(txs []core.Transaction) PatternAnalysis {
	byMonth := map[int]float64{}
	var amounts []float64
	var total float64
	for _, t := range txs {
		if !isVariableExpense(t) {
			continue
		}
		v := t.Amount.Units()
		byMonth[monthKey(t.Date)] += v
		amounts = append(amounts, v)
		total += v
	}

	months := make([]int, 0, len(byMonth))
	for k := range byMonth {
		months = append(months, k)
	}
	sort.Ints(months)

	var totals []float64
	for _, k := range months {
		totals = append(totals, byMonth[k])
	}

	a := PatternAnalysis{
		Trend:          TrendStable,
		MonthsAnalyzed: len(totals),
	}
	if len(totals) > 0 {
		a.AverageMonthlyExpenses = total / float64(len(totals))
		a.Volatility = populationStdDev(totals, a.AverageMonthlyExpenses)
	}

	if len(amounts) > 0 {
		meanDaily := total / windowDays
		unexpected := 0
		for _, v := range amounts {
			if v > 2*meanDaily {
				unexpected++
			}
		}
		a.UnexpectedExpensesRate = float64(unexpected) / float64(len(amounts))
	}

	if len(totals) >= 2 {
		first, last := totals[0], totals[len(totals)-1]
		switch {
		case last > first*(1+trendDeadZone):
			a.Trend = TrendIncreasing
		case last < first*(1-trendDeadZone):
			a.Trend = TrendDecreasing
		}
	}

	a.BufferPercentage = bufferPercentage(a)
	return a
}

// bufferPercentage starts at 10 and widens with unpredictability,
// clamped to [10, 20]. Sparse data gets a conservative bump.
func bufferPercentage(a PatternAnalysis) int {
	buffer := 10
	if a.UnexpectedExpensesRate > 0.3 {
		buffer += 5
	}
	if a.UnexpectedExpensesRate > 0.5 {
		buffer += 5
	}
	if a.Volatility > 500 {
		buffer += 3
	}
	if a.Volatility > 1000 {
		buffer += 2
	}
	if a.MonthsAnalyzed < 3 {
		buffer += 5
	}
	if buffer < 10 {
		buffer = 10
	}
	if buffer > 20 {
		buffer = 20
	}
	return buffer
}

func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
