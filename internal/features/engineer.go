// Package features turns raw budget, spending and account rows into one
// feature vector per (category, budget period).
package features

import (
	"math"
	"sort"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

const (
	// recentWindow is how many of the latest earlier periods feed the recent stats.
	recentWindow = 3
	// spentWeight is the share of actual spending in the combined historical mean.
	spentWeight = 0.7
)

// Build engineers feature vectors for every category present in budgets.
// Categories are emitted in ascending id order and each category's periods in
// chronological order. Historical statistics of a period only ever use periods
// that started strictly before it. Empty budgets yield an empty result.
func Build(budgets []model.BudgetPeriod, spending []model.SpendingRecord, accounts []model.AccountUsage) []model.FeatureVector {
	if len(budgets) == 0 {
		return nil
	}

	byCategory := make(map[int64][]model.BudgetPeriod)
	for _, b := range budgets {
		byCategory[b.CategoryID] = append(byCategory[b.CategoryID], b)
	}
	spendByCategory := make(map[int64][]model.SpendingRecord)
	for _, s := range spending {
		spendByCategory[s.CategoryID] = append(spendByCategory[s.CategoryID], s)
	}
	accountsByCategory := make(map[int64][]model.AccountUsage)
	for _, a := range accounts {
		accountsByCategory[a.CategoryID] = append(accountsByCategory[a.CategoryID], a)
	}

	ids := make([]int64, 0, len(byCategory))
	for id := range byCategory {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	vectors := make([]model.FeatureVector, 0, len(budgets))
	for _, id := range ids {
		periods := byCategory[id]
		sort.SliceStable(periods, func(i, j int) bool {
			return periods[i].PeriodStart.Before(periods[j].PeriodStart)
		})
		vectors = append(vectors, buildCategory(periods, spendByCategory[id], accountsByCategory[id])...)
	}
	return vectors
}

func buildCategory(periods []model.BudgetPeriod, spending []model.SpendingRecord, accounts []model.AccountUsage) []model.FeatureVector {
	var totalSpent int64
	for _, s := range spending {
		totalSpent += s.AmountCents
	}

	diversity, primaryUsage := accountSignals(accounts)

	out := make([]model.FeatureVector, 0, len(periods))
	for _, p := range periods {
		fv := model.FeatureVector{
			CategoryID:          p.CategoryID,
			CategoryName:        p.CategoryName,
			PeriodStart:         p.PeriodStart,
			PeriodEnd:           p.PeriodEnd,
			TargetAmount:        float64(p.PlannedCents),
			Month:               p.Month(),
			Quarter:             p.Quarter(),
			Year:                p.Year(),
			AccountDiversity:    diversity,
			PrimaryAccountUsage: primaryUsage,
		}
		fv.MonthSin, fv.MonthCos = Cyclical(fv.Month, 12)
		fv.QuarterSin, fv.QuarterCos = Cyclical(fv.Quarter, 4)

		applyHistory(&fv, priorPeriods(periods, p), spending)
		applyPeriodSpending(&fv, p, spending, totalSpent)

		out = append(out, fv)
	}
	return out
}

// Cyclical encodes value on a circle of the given period so that the last
// and first values are adjacent.
func Cyclical(value, period int) (sin, cos float64) {
	angle := 2 * math.Pi * float64(value) / float64(period)
	return math.Sin(angle), math.Cos(angle)
}

// priorPeriods returns the periods that started strictly before p.
func priorPeriods(periods []model.BudgetPeriod, p model.BudgetPeriod) []model.BudgetPeriod {
	var prior []model.BudgetPeriod
	for _, q := range periods {
		if q.PeriodStart.Before(p.PeriodStart) {
			prior = append(prior, q)
		}
	}
	return prior
}

func applyHistory(fv *model.FeatureVector, prior []model.BudgetPeriod, spending []model.SpendingRecord) {
	if len(prior) == 0 {
		fv.HistoricalMean = fv.TargetAmount
		fv.HistoricalMin = fv.TargetAmount
		fv.HistoricalMax = fv.TargetAmount
		fv.RecentMean = fv.TargetAmount
		fv.HistoricalCombinedMean = fv.TargetAmount
		return
	}

	planned := make([]float64, len(prior))
	for i, q := range prior {
		planned[i] = float64(q.PlannedCents)
	}

	fv.HistoricalMean = stats.Mean(planned)
	fv.HistoricalStd = stats.SampleStd(planned)
	fv.HistoricalMin = stats.Min(planned)
	fv.HistoricalMax = stats.Max(planned)
	fv.HistoricalTrend = stats.Slope(planned)
	fv.HistoricalCount = len(prior)

	var spentPerPeriod []float64
	for _, q := range prior {
		if sum, n := periodSpend(q, spending); n > 0 {
			spentPerPeriod = append(spentPerPeriod, float64(sum))
		}
	}
	fv.HistoricalSpentCount = len(spentPerPeriod)
	fv.HistoricalSpentMean = stats.Mean(spentPerPeriod)
	if fv.HistoricalSpentCount > 0 {
		fv.HistoricalCombinedMean = spentWeight*fv.HistoricalSpentMean + (1-spentWeight)*fv.HistoricalMean
	} else {
		fv.HistoricalCombinedMean = fv.HistoricalMean
	}

	recent := planned
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	fv.RecentMean = stats.Mean(recent)
	fv.RecentTrend = stats.Slope(recent)
}

func applyPeriodSpending(fv *model.FeatureVector, p model.BudgetPeriod, spending []model.SpendingRecord, totalSpent int64) {
	var amounts []float64
	for _, s := range spending {
		if p.Contains(s.Date) {
			amounts = append(amounts, float64(s.AmountCents))
		}
	}

	fv.ActualSpent = stats.Sum(amounts)
	fv.SpendingFrequency = float64(len(amounts))
	fv.AvgTransactionSize = stats.Mean(amounts)
	fv.SpendingVolatility = stats.SampleStd(amounts)
	fv.BudgetAccuracy = BudgetAccuracy(fv.TargetAmount, fv.ActualSpent, totalSpent > 0)
}

// BudgetAccuracy scores how close actual spending came to the plan, in [0,1].
// With no spending in the period it returns the partial-evidence value when
// the category has spending elsewhere, and the neutral value otherwise.
func BudgetAccuracy(planned, actual float64, categoryHasSpending bool) float64 {
	if actual <= 0 {
		if categoryHasSpending {
			return model.AccuracyPartialEvidence
		}
		return model.AccuracyNoEvidence
	}
	acc := 1 - math.Abs(planned-actual)/math.Max(planned, actual)
	return math.Max(0, math.Min(1, acc))
}

func periodSpend(p model.BudgetPeriod, spending []model.SpendingRecord) (int64, int) {
	var sum int64
	var n int
	for _, s := range spending {
		if p.Contains(s.Date) {
			sum += s.AmountCents
			n++
		}
	}
	return sum, n
}

func accountSignals(accounts []model.AccountUsage) (diversity, primaryUsage float64) {
	if len(accounts) == 0 {
		return 1, 1
	}
	var top int64
	for _, a := range accounts {
		if a.TransactionCount > top {
			top = a.TransactionCount
		}
	}
	return float64(len(accounts)), float64(top)
}
