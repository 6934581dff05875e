package engine

import (
	"context"

	"github.com/GitLars0/budget-forecast/internal/clustering"
	"github.com/GitLars0/budget-forecast/internal/features"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/seasonal"
	"github.com/GitLars0/budget-forecast/internal/service"
)

// AnalyzePatterns reports behavior clusters and seasonal patterns for the
// user's categories, with a summary of the data they were derived from.
func (e *PredictionEngine) AnalyzePatterns(ctx context.Context, userID int64, historicalMonths int) (*service.PatternAnalysis, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validateMonths(historicalMonths); err != nil {
		return nil, err
	}
	ctx, logger := withRequest(ctx, "analyze_patterns", userID)

	h, err := e.loadHistory(ctx, userID, Cutoff(e.now(), historicalMonths))
	if err != nil {
		return nil, err
	}

	analysis := &service.PatternAnalysis{
		UserID:           userID,
		BehaviorClusters: map[int64]model.Behavior{},
		SeasonalPatterns: map[int64]model.SeasonalPattern{},
		DataQuality: service.DataQuality{
			TotalBudgetRecords:   len(h.budgets),
			TotalSpendingRecords: len(h.spending),
			TimeSpanMonths:       historicalMonths,
		},
	}
	if len(h.budgets) == 0 {
		analysis.Message = "No historical data available"
		return analysis, nil
	}

	vectors := features.Build(h.budgets, h.spending, h.accounts)
	order, _ := model.GroupByCategory(vectors)

	analysis.BehaviorClusters = clustering.CategoryBehaviors(vectors)
	analysis.SeasonalPatterns = seasonal.Detect(vectors)
	analysis.DataQuality.CategoriesAnalyzed = len(order)

	logger.Info("Pattern analysis complete",
		"categories", len(order),
		"clustered", len(analysis.BehaviorClusters))
	return analysis, nil
}
