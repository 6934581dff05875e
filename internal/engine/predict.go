package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GitLars0/budget-forecast/internal/clustering"
	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/ensemble"
	"github.com/GitLars0/budget-forecast/internal/features"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/policy"
	"github.com/GitLars0/budget-forecast/internal/seasonal"
	"github.com/GitLars0/budget-forecast/internal/service"
)

// NoHistoryMessage is reported when a user has no budgets in the window.
const NoHistoryMessage = "No historical data available for ML predictions"

// categoryContext is everything shared by the categories of one request.
type categoryContext struct {
	models     *ensemble.Ensemble
	behaviors  map[int64]model.Behavior
	patterns   map[int64]model.SeasonalPattern
	assignment *model.UserClusterAssignment
	peerSince  time.Time
	month      int
}

// Predict forecasts next budgets for every category the user has budgeted in
// the lookback window. Results are ordered by descending confidence.
func (e *PredictionEngine) Predict(ctx context.Context, req service.PredictRequest) (*service.PredictionReport, error) {
	if err := validatePredictRequest(req); err != nil {
		return nil, err
	}
	ctx, logger := withRequest(ctx, "predict", req.UserID)
	logger.Info("Starting prediction",
		"target_month", req.TargetMonth,
		"target_year", req.TargetYear,
		"historical_months", req.HistoricalMonths)

	report := &service.PredictionReport{
		UserID:      req.UserID,
		TargetMonth: req.TargetMonth,
		TargetYear:  req.TargetYear,
		Predictions: model.PredictionResults{},
	}

	since := Cutoff(e.now(), req.HistoricalMonths)
	h, err := e.loadHistory(ctx, req.UserID, since)
	if err != nil {
		return nil, err
	}

	vectors := features.Build(h.budgets, h.spending, h.accounts)
	if len(vectors) == 0 {
		logger.Info("No budget history in window")
		report.Message = NoHistoryMessage
		return report, nil
	}

	clusters, err := e.clusterUsers(ctx, since)
	if err != nil {
		return nil, err
	}

	cc := categoryContext{
		models:    e.train(ctx, vectors),
		behaviors: clustering.CategoryBehaviors(vectors),
		patterns:  seasonal.Detect(vectors),
		peerSince: e.peerSince(),
		month:     req.TargetMonth,
	}
	if a, ok := clusters[req.UserID]; ok {
		cc.assignment = &a
		logger.Debug("User clustered", "cluster_id", a.ClusterID, "peers", len(a.Peers))
	}

	order, groups := model.GroupByCategory(vectors)
	for _, id := range order {
		result, err := e.safePredictCategory(ctx, cc, groups[id])
		if err != nil {
			common.LogWarn(ctx, "Skipping category", common.Fields{"category_id": id, "error": err.Error()})
			continue
		}
		report.Predictions = append(report.Predictions, result)
	}

	report.Predictions.Sort()
	report.MLEnabled = cc.models != nil
	report.Message = fmt.Sprintf("Generated %d ML-based budget predictions", len(report.Predictions))

	logger.Info("Prediction complete",
		"predictions", len(report.Predictions),
		"ml_enabled", report.MLEnabled)
	return report, nil
}

// train fits the ensemble under the configured timeout. Running out of time
// leaves the request without models rather than failing it.
func (e *PredictionEngine) train(ctx context.Context, vectors []model.FeatureVector) *ensemble.Ensemble {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	models := ensemble.Train(ctx, vectors)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		common.LogWarn(ctx, "Model training timed out, continuing without models", common.Fields{"timeout": e.config.Timeout.String()})
		return nil
	}
	return models
}

// safePredictCategory turns a panic in one category into an error so the
// remaining categories still get a prediction.
func (e *PredictionEngine) safePredictCategory(ctx context.Context, cc categoryContext, vectors []model.FeatureVector) (result model.PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while predicting: %v", r)
		}
	}()
	return e.predictCategory(ctx, cc, vectors)
}

func (e *PredictionEngine) predictCategory(ctx context.Context, cc categoryContext, vectors []model.FeatureVector) (model.PredictionResult, error) {
	if len(vectors) == 0 {
		return model.PredictionResult{}, common.ErrNoData
	}
	latest := vectors[len(vectors)-1]

	planned := make([]float64, len(vectors))
	for i, v := range vectors {
		planned[i] = v.TargetAmount
	}

	var predictions []float64
	for _, p := range cc.models.Predict(ctx, latest, cc.month) {
		predictions = append(predictions, p.Value)
	}

	behavior, ok := cc.behaviors[latest.CategoryID]
	if !ok {
		behavior = model.BehaviorUnknown
	}
	pattern, ok := cc.patterns[latest.CategoryID]
	if !ok {
		pattern = model.SeasonalUnknown
	}

	in := policy.Input{
		CategoryName:    latest.CategoryName,
		Behavior:        behavior,
		Seasonal:        pattern,
		Predictions:     predictions,
		PlannedAmounts:  planned,
		BudgetAvg:       latest.HistoricalMean,
		SpendingAvg:     latest.HistoricalSpentMean,
		Accuracy:        latest.BudgetAccuracy,
		DataPoints:      len(vectors),
		HistoricalCount: latest.HistoricalCount,
	}
	if cc.assignment != nil {
		in.Peers = e.peerLookup(ctx, cc.assignment.Peers, latest.CategoryID, cc.peerSince)
	}

	d := e.policy.Decide(in)
	common.Logger(ctx).Debug("Category decided",
		"category_id", latest.CategoryID,
		"data_points", in.DataPoints,
		"accuracy", in.Accuracy,
		"strategy", d.Label,
		"amount", d.Amount)

	result := model.PredictionResult{
		CategoryID:                 latest.CategoryID,
		CategoryName:               latest.CategoryName,
		PredictedCents:             model.FloatCents(d.Amount),
		Confidence:                 d.Confidence,
		HistoricalBudgetAvgCents:   model.FloatCents(in.BudgetAvg),
		HistoricalSpendingAvgCents: model.FloatCents(in.SpendingAvg),
		Trend:                      model.ClassifyTrend(latest.HistoricalTrend),
		Strategy:                   d.Label,
		FeatureImportance:          cc.models.FeatureImportance(),
		BehaviorCluster:            behavior,
		SeasonalPattern:            pattern,
		Reasoning:                  policy.Reasoning(in, d),
	}
	if err := result.Validate(); err != nil {
		return model.PredictionResult{}, fmt.Errorf("invalid prediction for category %d: %w", latest.CategoryID, err)
	}
	return result, nil
}

// peerLookup defers the peer query until the policy asks for it. Lookup
// failures are logged and treated as missing peer data.
func (e *PredictionEngine) peerLookup(ctx context.Context, peers []int64, categoryID int64, since time.Time) func() *model.PeerRecommendation {
	return func() *model.PeerRecommendation {
		rec, err := e.peers.Recommend(ctx, peers, categoryID, since)
		if err != nil {
			common.LogWarn(ctx, "Peer lookup failed", common.Fields{"category_id": categoryID, "error": err.Error()})
			return nil
		}
		return rec
	}
}
