// Package ensemble trains the request-scoped linear and tree models that
// suggest a budget amount from engineered feature vectors.
package ensemble

import (
	"github.com/GitLars0/budget-forecast/internal/features"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

// FeatureNames lists the model inputs in column order.
var FeatureNames = []string{
	"month_sin", "month_cos", "quarter_sin", "quarter_cos",
	"historical_mean", "historical_spent_mean", "historical_std", "historical_trend", "historical_count",
	"recent_mean", "recent_trend", "actual_spent", "spending_frequency",
	"avg_transaction_size", "spending_volatility", "budget_accuracy",
	"account_diversity", "primary_account_usage",
}

// fillDefaults replaces non-finite inputs. Anything not listed falls back to 0.
var fillDefaults = map[string]float64{
	"month_cos":             1.0,
	"quarter_cos":           1.0,
	"budget_accuracy":       1.0,
	"account_diversity":     1.0,
	"primary_account_usage": 1.0,
}

// Row flattens a feature vector into model inputs.
func Row(v model.FeatureVector) []float64 {
	raw := []float64{
		v.MonthSin, v.MonthCos, v.QuarterSin, v.QuarterCos,
		v.HistoricalMean, v.HistoricalSpentMean, v.HistoricalStd, v.HistoricalTrend, float64(v.HistoricalCount),
		v.RecentMean, v.RecentTrend, v.ActualSpent, v.SpendingFrequency,
		v.AvgTransactionSize, v.SpendingVolatility, v.BudgetAccuracy,
		v.AccountDiversity, v.PrimaryAccountUsage,
	}
	for i, name := range FeatureNames {
		raw[i] = stats.Finite(raw[i], fillDefaults[name])
	}
	return raw
}

// Target is the amount a model learns for one vector: what was actually
// needed when spending exceeded the plan, the plan otherwise.
func Target(v model.FeatureVector) float64 {
	target := v.TargetAmount
	if v.ActualSpent > 0 {
		target = max(v.TargetAmount, v.ActualSpent)
	}
	return stats.Finite(target, 0)
}

// ForTarget moves a vector's calendar features to the month being predicted.
// Every other feature carries forward unchanged.
func ForTarget(v model.FeatureVector, month int) model.FeatureVector {
	v.Month = month
	v.Quarter = model.QuarterOf(month)
	v.MonthSin, v.MonthCos = features.Cyclical(month, 12)
	v.QuarterSin, v.QuarterCos = features.Cyclical(v.Quarter, 4)
	return v
}
