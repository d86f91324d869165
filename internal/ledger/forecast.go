package ledger

import "contas/internal/core"

// ProbableValue forecasts the next recurring amount from the trailing
// confirmed history: it averages the period-over-period percentage deltas
// and applies that average rate once more to the last value, rounded to
// cent precision. With fewer than two usable points no forecast exists.
func ProbableValue(history []int64) (int64, bool) {
	if len(history) < 2 {
		return 0, false
	}

	var sum float64
	pairs := 0
	for i := 1; i < len(history); i++ {
		prev := history[i-1]
		if prev == 0 {
			continue
		}
		sum += float64(history[i]-prev) / float64(prev)
		pairs++
	}
	if pairs == 0 {
		return 0, false
	}

	avgRate := sum / float64(pairs)
	last := float64(history[len(history)-1])
	return core.RoundCents(last * (1 + avgRate)), true
}
