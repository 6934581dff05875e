// Package policy decides, per category, which signal to trust: plain
// history, the trained ensemble, peers, or a blend of them.
package policy

import (
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

// Input is everything the policy knows about one category. Amounts are in
// cents.
type Input struct {
	// Peers loads the peer recommendation on demand. It is nil when the
	// user belongs to no cluster and may return nil when peers lack data.
	Peers func() *model.PeerRecommendation

	CategoryName string
	Behavior     model.Behavior
	Seasonal     model.SeasonalPattern

	// Predictions holds the valid outputs of the trained models, if any.
	Predictions []float64
	// PlannedAmounts are the category's planned amounts in the window.
	PlannedAmounts []float64

	BudgetAvg       float64
	SpendingAvg     float64
	Accuracy        float64
	DataPoints      int
	HistoricalCount int
}

// HasModels reports whether any model produced a usable prediction.
func (in Input) HasModels() bool {
	return len(in.Predictions) > 0
}

// MLAmount is the mean model prediction, or the budget baseline without models.
func (in Input) MLAmount() float64 {
	if !in.HasModels() {
		return in.BudgetAvg
	}
	return stats.Mean(in.Predictions)
}

// MLChange is how far the models stray from the budget baseline.
func (in Input) MLChange() float64 {
	if !in.HasModels() {
		return 0
	}
	d := in.MLAmount() - in.BudgetAvg
	if d < 0 {
		return -d
	}
	return d
}

// MaxReasonableChange is the largest model deviation trusted without damping.
func (in Input) MaxReasonableChange() float64 {
	return 0.5 * in.BudgetAvg
}

// Agreement measures how closely the models agree: one minus their
// coefficient of variation, floored at 0.3. A single model scores 0.7.
func (in Input) Agreement() float64 {
	switch len(in.Predictions) {
	case 0, 1:
		return 0.7
	}
	mean := stats.Mean(in.Predictions)
	if mean <= 0 {
		return 0.5
	}
	return max(0.3, 1-stats.PopStd(in.Predictions)/mean)
}

// BaseConfidence grows with the number of data points, up to 0.9.
func (in Input) BaseConfidence() float64 {
	return min(0.9, 0.3+float64(in.DataPoints)*0.08)
}

// AccuracyFactor rewards accurate budgeters and penalizes inaccurate ones.
func (in Input) AccuracyFactor() float64 {
	switch {
	case in.Accuracy > 0.7:
		return 1.2
	case in.Accuracy < 0.3:
		return 0.8
	default:
		return 1.0
	}
}

// SpendingRatio is spending over budget baseline. It is +Inf when there is
// spending but no budget baseline, and 0 without spending.
func (in Input) SpendingRatio() float64 {
	if in.SpendingAvg <= 0 {
		return 0
	}
	if in.BudgetAvg <= 0 {
		return inf
	}
	return in.SpendingAvg / in.BudgetAvg
}
