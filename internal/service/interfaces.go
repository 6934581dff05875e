// Package service defines the interfaces the prediction core consumes.
package service

import (
	"context"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// DataProvider supplies the tabular inputs of a prediction request. Every
// method is scoped to a lookback cutoff and returns rows, never connections.
type DataProvider interface {
	// BudgetPeriods returns the user's budget line items whose period
	// starts on or after since.
	BudgetPeriods(ctx context.Context, userID int64, since time.Time) ([]model.BudgetPeriod, error)
	// SpendingRecords returns the user's expenses on or after since, merged
	// from direct transactions and split lines.
	SpendingRecords(ctx context.Context, userID int64, since time.Time) ([]model.SpendingRecord, error)
	// AccountUsage returns per (account, category) expense aggregates.
	AccountUsage(ctx context.Context, userID int64, since time.Time) ([]model.AccountUsage, error)
	// UserProfileRows returns cross-user (user, category) aggregates.
	// asOf anchors account age.
	UserProfileRows(ctx context.Context, since, asOf time.Time) ([]model.UserProfileRow, error)
	// PeerSamples returns budget lines of the given users for one category,
	// each matched with that user's spending in the same month.
	PeerSamples(ctx context.Context, userIDs []int64, categoryID int64, since time.Time) ([]model.PeerSample, error)
}

// PredictionService is the surface the orchestration layer exposes.
type PredictionService interface {
	Predict(ctx context.Context, req PredictRequest) (*PredictionReport, error)
	AnalyzePatterns(ctx context.Context, userID int64, historicalMonths int) (*PatternAnalysis, error)
	UserInsights(ctx context.Context, userID int64, historicalMonths int) (*UserInsights, error)
}

// PredictRequest asks for a budget forecast for one target month.
type PredictRequest struct {
	UserID           int64
	TargetMonth      int
	TargetYear       int
	HistoricalMonths int
}

// PredictionReport is the ordered result of a prediction request.
type PredictionReport struct {
	Message     string                  `json:"message"`
	Predictions model.PredictionResults `json:"predictions"`
	UserID      int64                   `json:"user_id"`
	TargetMonth int                     `json:"target_month"`
	TargetYear  int                     `json:"target_year"`
	MLEnabled   bool                    `json:"ml_enabled"`
}

// DataQuality summarizes the inputs of a pattern analysis.
type DataQuality struct {
	TotalBudgetRecords   int `json:"total_budget_records"`
	TotalSpendingRecords int `json:"total_spending_records"`
	CategoriesAnalyzed   int `json:"categories_analyzed"`
	TimeSpanMonths       int `json:"time_span_months"`
}

// PatternAnalysis is the behavior and seasonality view of a user's budgets.
type PatternAnalysis struct {
	BehaviorClusters map[int64]model.Behavior        `json:"spending_behavior_clusters"`
	SeasonalPatterns map[int64]model.SeasonalPattern `json:"seasonal_patterns"`
	Message          string                          `json:"message,omitempty"`
	DataQuality      DataQuality                     `json:"data_quality"`
	UserID           int64                           `json:"user_id"`
}

// UserInsights describes a user's cohort and what peers budget.
type UserInsights struct {
	ClusterID           *int                                `json:"cluster_id"`
	ClusterProfile      *model.ClusterProfile               `json:"cluster_profile,omitempty"`
	PeerRecommendations map[int64]model.PeerRecommendation `json:"peer_recommendations"`
	Message             string                              `json:"message,omitempty"`
	Insights            []string                            `json:"insights,omitempty"`
	UserID              int64                               `json:"user_id"`
	SimilarUsersCount   int                                 `json:"similar_users_count"`
}
