package model

import (
	"fmt"
	"sort"
)

// PredictionResult is the final budget recommendation for one category.
// It is built once per category per request and never mutated afterwards.
type PredictionResult struct {
	FeatureImportance          map[string]float64 `json:"feature_importance"`
	CategoryName               string             `json:"category_name"`
	Trend                      Trend              `json:"trend_direction"`
	Strategy                   string             `json:"ml_model_used"`
	BehaviorCluster            Behavior           `json:"spending_cluster"`
	SeasonalPattern            SeasonalPattern    `json:"seasonal_pattern"`
	Reasoning                  string             `json:"reasoning"`
	CategoryID                 int64              `json:"category_id"`
	PredictedCents             int64              `json:"predicted_amount_cents"`
	HistoricalBudgetAvgCents   int64              `json:"historical_avg_cents"`
	HistoricalSpendingAvgCents int64              `json:"historical_spending_avg_cents"`
	Confidence                 float64            `json:"confidence_score"`
}

// Confidence bounds applied to every prediction.
const (
	MinConfidence = 0.1
	MaxConfidence = 0.95
)

// Validate ensures the PredictionResult has valid data.
func (p *PredictionResult) Validate() error {
	if p.Strategy == "" {
		return fmt.Errorf("strategy label is required")
	}
	if p.Confidence < MinConfidence || p.Confidence > MaxConfidence {
		return fmt.Errorf("confidence must be between %.2f and %.2f, got %.4f", MinConfidence, MaxConfidence, p.Confidence)
	}
	if p.PredictedCents < 0 {
		return fmt.Errorf("predicted amount must not be negative, got %d", p.PredictedCents)
	}
	return nil
}

// PredictionResults is a slice of PredictionResult that supports sorting.
type PredictionResults []PredictionResult

// Len implements sort.Interface.
func (r PredictionResults) Len() int {
	return len(r)
}

// Less implements sort.Interface - higher confidence comes first.
func (r PredictionResults) Less(i, j int) bool {
	if r[i].Confidence != r[j].Confidence {
		return r[i].Confidence > r[j].Confidence
	}
	// Equal confidence falls back to category id for a stable order
	return r[i].CategoryID < r[j].CategoryID
}

// Swap implements sort.Interface.
func (r PredictionResults) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

// Sort orders the results by descending confidence.
func (r PredictionResults) Sort() {
	sort.Sort(r)
}

// Find returns the prediction for a category, or nil.
func (r PredictionResults) Find(categoryID int64) *PredictionResult {
	for i := range r {
		if r[i].CategoryID == categoryID {
			return &r[i]
		}
	}
	return nil
}

// TotalCents sums the predicted amounts.
func (r PredictionResults) TotalCents() int64 {
	var total int64
	for _, p := range r {
		total += p.PredictedCents
	}
	return total
}
