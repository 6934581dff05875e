package model

import "time"

// FeatureVector is the engineered view of one (category, budget period).
// Historical fields only ever describe periods strictly before PeriodStart.
type FeatureVector struct {
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CategoryName string

	CategoryID   int64
	TargetAmount float64
	Month        int
	Quarter      int
	Year         int

	MonthSin   float64
	MonthCos   float64
	QuarterSin float64
	QuarterCos float64

	HistoricalMean         float64
	HistoricalStd          float64
	HistoricalMin          float64
	HistoricalMax          float64
	HistoricalTrend        float64
	HistoricalCount        int
	HistoricalSpentMean    float64
	HistoricalSpentCount   int
	HistoricalCombinedMean float64

	RecentMean  float64
	RecentTrend float64

	ActualSpent        float64
	SpendingFrequency  float64
	AvgTransactionSize float64
	SpendingVolatility float64
	BudgetAccuracy     float64

	AccountDiversity    float64
	PrimaryAccountUsage float64
}

// Neutral budget accuracy values.
const (
	// AccuracyNoEvidence is used when a category has no spending at all.
	AccuracyNoEvidence = 0.5
	// AccuracyPartialEvidence is used when a category has spending, but not
	// inside the period being scored.
	AccuracyPartialEvidence = 0.7
)

// GroupByCategory splits vectors by category, preserving input order inside
// each group. The returned ids are in order of first appearance.
func GroupByCategory(vectors []FeatureVector) ([]int64, map[int64][]FeatureVector) {
	groups := make(map[int64][]FeatureVector)
	var order []int64
	for _, v := range vectors {
		if _, ok := groups[v.CategoryID]; !ok {
			order = append(order, v.CategoryID)
		}
		groups[v.CategoryID] = append(groups[v.CategoryID], v)
	}
	return order, groups
}
