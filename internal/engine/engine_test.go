package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/policy"
	"github.com/GitLars0/budget-forecast/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.September, 15, 12, 0, 0, 0, time.UTC)

type peerQuery struct {
	userIDs    []int64
	categoryID int64
}

type fakeProvider struct {
	err         error
	budgets     []model.BudgetPeriod
	spending    []model.SpendingRecord
	accounts    []model.AccountUsage
	profiles    []model.UserProfileRow
	peerSamples []model.PeerSample
	peerQueries []peerQuery
}

func (f *fakeProvider) BudgetPeriods(_ context.Context, _ int64, _ time.Time) ([]model.BudgetPeriod, error) {
	return f.budgets, f.err
}

func (f *fakeProvider) SpendingRecords(_ context.Context, _ int64, _ time.Time) ([]model.SpendingRecord, error) {
	return f.spending, nil
}

func (f *fakeProvider) AccountUsage(_ context.Context, _ int64, _ time.Time) ([]model.AccountUsage, error) {
	return f.accounts, nil
}

func (f *fakeProvider) UserProfileRows(_ context.Context, _, _ time.Time) ([]model.UserProfileRow, error) {
	return f.profiles, nil
}

func (f *fakeProvider) PeerSamples(_ context.Context, userIDs []int64, categoryID int64, _ time.Time) ([]model.PeerSample, error) {
	f.peerQueries = append(f.peerQueries, peerQuery{userIDs: userIDs, categoryID: categoryID})
	return f.peerSamples, nil
}

func newTestEngine(p service.DataProvider) *PredictionEngine {
	e := New(p)
	e.now = func() time.Time { return testNow }
	return e
}

func budgetLine(categoryID int64, name string, m time.Month, planned int64) model.BudgetPeriod {
	start := time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC)
	return model.BudgetPeriod{
		BudgetID:     int64(m),
		UserID:       1,
		CategoryID:   categoryID,
		CategoryName: name,
		CategoryKind: model.CategoryKindExpense,
		PeriodStart:  start,
		PeriodEnd:    start.AddDate(0, 1, -1),
		PlannedCents: planned,
	}
}

func expense(categoryID int64, m time.Month, cents int64) model.SpendingRecord {
	return model.SpendingRecord{
		CategoryID:  categoryID,
		Date:        time.Date(2024, m, 10, 0, 0, 0, 0, time.UTC),
		AmountCents: cents,
	}
}

// accurateBudgeterHistory has eight months of groceries budgeted at $100.00
// with $99.80 spent each month, plus two months of travel.
func accurateBudgeterHistory() *fakeProvider {
	p := &fakeProvider{}
	for m := time.January; m <= time.August; m++ {
		p.budgets = append(p.budgets, budgetLine(1, "Groceries", m, 10000))
		p.spending = append(p.spending, expense(1, m, 9980))
	}
	p.budgets = append(p.budgets,
		budgetLine(2, "Travel", time.July, 20000),
		budgetLine(2, "Travel", time.August, 30000),
	)
	return p
}

func predictRequest() service.PredictRequest {
	return service.PredictRequest{UserID: 1, TargetMonth: 9, TargetYear: 2024, HistoricalMonths: 18}
}

func TestPredict_EmptyHistory(t *testing.T) {
	report, err := newTestEngine(&fakeProvider{}).Predict(context.Background(), predictRequest())
	require.NoError(t, err)

	assert.Empty(t, report.Predictions)
	assert.NotNil(t, report.Predictions)
	assert.Equal(t, NoHistoryMessage, report.Message)
	assert.Equal(t, int64(1), report.UserID)
}

func TestPredict_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*service.PredictRequest)
	}{
		{name: "month too small", mutate: func(r *service.PredictRequest) { r.TargetMonth = 0 }},
		{name: "month too large", mutate: func(r *service.PredictRequest) { r.TargetMonth = 13 }},
		{name: "year too early", mutate: func(r *service.PredictRequest) { r.TargetYear = 2019 }},
		{name: "year too late", mutate: func(r *service.PredictRequest) { r.TargetYear = 2031 }},
		{name: "no history window", mutate: func(r *service.PredictRequest) { r.HistoricalMonths = 0 }},
		{name: "history window too long", mutate: func(r *service.PredictRequest) { r.HistoricalMonths = 61 }},
		{name: "missing user", mutate: func(r *service.PredictRequest) { r.UserID = 0 }},
	}

	e := newTestEngine(&fakeProvider{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := predictRequest()
			tt.mutate(&req)
			_, err := e.Predict(context.Background(), req)
			assert.ErrorIs(t, err, common.ErrInvalidRequest)
		})
	}
}

func TestPredict_ProviderError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := newTestEngine(&fakeProvider{err: boom}).Predict(context.Background(), predictRequest())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to load budgets")
}

func TestPredict_AccurateBudgeter(t *testing.T) {
	report, err := newTestEngine(accurateBudgeterHistory()).Predict(context.Background(), predictRequest())
	require.NoError(t, err)
	require.Len(t, report.Predictions, 2)

	assert.True(t, report.MLEnabled)
	assert.Equal(t, "Generated 2 ML-based budget predictions", report.Message)

	groceries := report.Predictions[0]
	assert.Equal(t, int64(1), groceries.CategoryID)
	assert.Contains(t, groceries.Strategy, "Accurate Budgeter")
	assert.Equal(t, int64(10180), groceries.PredictedCents)
	assert.Equal(t, int64(10000), groceries.HistoricalBudgetAvgCents)
	assert.Equal(t, int64(9980), groceries.HistoricalSpendingAvgCents)
	assert.Equal(t, model.TrendStable, groceries.Trend)
	assert.Len(t, groceries.FeatureImportance, 18)
	assert.Contains(t, groceries.Reasoning, "Maintaining budget $100.00 (accurate budgeter)")

	travel := report.Predictions[1]
	assert.Equal(t, int64(2), travel.CategoryID)
	assert.Equal(t, "Historical Average (insufficient data)", travel.Strategy)
	assert.Equal(t, int64(20000), travel.PredictedCents)
	assert.Equal(t, model.SeasonalInsufficient, travel.SeasonalPattern)
	assert.Contains(t, travel.Reasoning, "(limited historical data)")

	for _, p := range report.Predictions {
		assert.NoError(t, p.Validate())
	}
	assert.GreaterOrEqual(t, groceries.Confidence, travel.Confidence)
}

func TestPredict_ExpiredDeadlineFallsBackToHistory(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	report, err := newTestEngine(accurateBudgeterHistory()).Predict(ctx, predictRequest())
	require.NoError(t, err)
	require.Len(t, report.Predictions, 2)

	assert.False(t, report.MLEnabled)
	groceries := report.Predictions.Find(1)
	require.NotNil(t, groceries)
	assert.Equal(t, "Historical Average", groceries.Strategy)
	assert.Equal(t, int64(10000), groceries.PredictedCents)
	assert.Empty(t, groceries.FeatureImportance)
}

func clusteredProfiles() []model.UserProfileRow {
	row := func(userID int64, expenses float64, categories float64) model.UserProfileRow {
		return model.UserProfileRow{
			UserID: userID, CategoryID: 3, TotalSpent: expenses, AvgBudget: expenses,
			TotalExpenses: expenses, TotalIncome: 2 * expenses, ActiveMonths: 4,
			UniqueCategories: categories, AccountAgeMonths: 6,
		}
	}
	return []model.UserProfileRow{
		row(1, 40000, 3), row(2, 40000, 3),
		row(3, 900000, 12), row(4, 900000, 12),
	}
}

func TestPredict_PeerInformed(t *testing.T) {
	p := &fakeProvider{profiles: clusteredProfiles()}
	for m := time.January; m <= time.April; m++ {
		p.budgets = append(p.budgets, budgetLine(3, "Dining", m, 10000))
	}
	p.peerSamples = []model.PeerSample{
		{UserID: 2, CategoryID: 3, PlannedCents: 20000, ActualSpentCents: 18000},
		{UserID: 2, CategoryID: 3, PlannedCents: 20000, ActualSpentCents: 21000},
		{UserID: 2, CategoryID: 3, PlannedCents: 20000},
	}

	report, err := newTestEngine(p).Predict(context.Background(), predictRequest())
	require.NoError(t, err)
	require.Len(t, report.Predictions, 1)

	dining := report.Predictions[0]
	assert.Equal(t, "Peer-Informed Prediction (1 similar users)", dining.Strategy)
	assert.Equal(t, int64(13000), dining.PredictedCents)
	assert.InDelta(t, 0.55, dining.Confidence, 1e-9)
	assert.Contains(t, dining.Reasoning, "Based on similar users: $130.00")

	require.Len(t, p.peerQueries, 1)
	assert.Equal(t, []int64{2}, p.peerQueries[0].userIDs)
	assert.Equal(t, int64(3), p.peerQueries[0].categoryID)
}

type panicOn struct{ category string }

func (panicOn) Name() string  { return "panic" }
func (panicOn) Priority() int { return 0 }

func (s panicOn) Decide(in policy.Input) (policy.Decision, bool) {
	if in.CategoryName == s.category {
		panic("boom")
	}
	return policy.Decision{}, false
}

func TestPredict_FailedCategoryIsSkipped(t *testing.T) {
	e := newTestEngine(accurateBudgeterHistory())
	e.policy = policy.New(panicOn{category: "Travel"}, policy.StatisticalFallback{})

	report, err := e.Predict(context.Background(), predictRequest())
	require.NoError(t, err)
	require.Len(t, report.Predictions, 1)
	assert.Equal(t, "Groceries", report.Predictions[0].CategoryName)
}

func TestAnalyzePatterns(t *testing.T) {
	ctx := context.Background()

	t.Run("no history", func(t *testing.T) {
		analysis, err := newTestEngine(&fakeProvider{}).AnalyzePatterns(ctx, 1, 12)
		require.NoError(t, err)
		assert.Equal(t, "No historical data available", analysis.Message)
		assert.Empty(t, analysis.BehaviorClusters)
		assert.Equal(t, 12, analysis.DataQuality.TimeSpanMonths)
	})

	t.Run("summarizes categories", func(t *testing.T) {
		analysis, err := newTestEngine(accurateBudgeterHistory()).AnalyzePatterns(ctx, 1, 12)
		require.NoError(t, err)

		assert.Equal(t, service.DataQuality{
			TotalBudgetRecords:   10,
			TotalSpendingRecords: 8,
			CategoriesAnalyzed:   2,
			TimeSpanMonths:       12,
		}, analysis.DataQuality)
		assert.Equal(t, model.SeasonalStable, analysis.SeasonalPatterns[1])
		assert.Equal(t, model.SeasonalInsufficient, analysis.SeasonalPatterns[2])
		assert.Len(t, analysis.BehaviorClusters, 2)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := newTestEngine(&fakeProvider{}).AnalyzePatterns(ctx, 1, 0)
		assert.ErrorIs(t, err, common.ErrInvalidRequest)
	})
}

func TestUserInsights(t *testing.T) {
	ctx := context.Background()

	t.Run("not clustered", func(t *testing.T) {
		insights, err := newTestEngine(&fakeProvider{}).UserInsights(ctx, 1, 18)
		require.NoError(t, err)
		assert.Nil(t, insights.ClusterID)
		assert.Equal(t, "Insufficient data for user clustering", insights.Message)
		assert.Empty(t, insights.PeerRecommendations)
	})

	t.Run("clustered", func(t *testing.T) {
		p := &fakeProvider{profiles: clusteredProfiles()}
		p.budgets = []model.BudgetPeriod{
			budgetLine(3, "Dining", time.January, 10000),
			budgetLine(3, "Dining", time.February, 10000),
		}
		p.peerSamples = []model.PeerSample{
			{UserID: 2, PlannedCents: 12000}, {UserID: 2, PlannedCents: 14000}, {UserID: 2, PlannedCents: 16000},
		}

		insights, err := newTestEngine(p).UserInsights(ctx, 1, 18)
		require.NoError(t, err)

		require.NotNil(t, insights.ClusterID)
		assert.Equal(t, 0, *insights.ClusterID)
		assert.Equal(t, 1, insights.SimilarUsersCount)
		require.NotNil(t, insights.ClusterProfile)
		assert.Equal(t, []int64{1, 2}, insights.ClusterProfile.UserIDs)
		assert.Len(t, insights.Insights, 4)

		rec, ok := insights.PeerRecommendations[3]
		require.True(t, ok)
		assert.Equal(t, 14000.0, rec.AvgPeerBudget)
		assert.Equal(t, 3, rec.Samples)
	})
}

func TestTopCategories(t *testing.T) {
	var budgets []model.BudgetPeriod
	add := func(id int64, n int) {
		for i := 0; i < n; i++ {
			budgets = append(budgets, model.BudgetPeriod{CategoryID: id})
		}
	}
	add(9, 1)
	add(4, 3)
	add(7, 2)
	add(2, 2)
	add(5, 1)
	add(1, 1)

	assert.Equal(t, []int64{4, 2, 7, 1, 5}, TopCategories(budgets, 5))
	assert.Empty(t, TopCategories(nil, 5))
}

func TestNarrative(t *testing.T) {
	assert.Equal(t, []string{"Not enough data for personalized insights"}, Narrative(nil))

	got := Narrative(&model.ClusterProfile{
		UserCount:          3,
		AvgBudgetAdherence: 0.85,
		AvgMonthlySpending: 350000,
		AvgCategories:      9,
		AvgAgeMonths:       24,
	})
	assert.Equal(t, []string{
		"You're in a group of highly disciplined budgeters who stick close to their plans",
		"You're in a high-spending group - focus on identifying savings opportunities",
		"Your group tracks spending across many categories - excellent for detailed budgeting",
		"You're grouped with experienced users who have established spending patterns",
	}, got)

	got = Narrative(&model.ClusterProfile{
		UserCount:          2,
		AvgBudgetAdherence: 0.7,
		AvgMonthlySpending: 150001,
		AvgCategories:      6,
		AvgAgeMonths:       12,
	})
	assert.Equal(t, []string{
		"You're among users with good budget discipline, with room for improvement",
		"You're in a moderate-spending group with balanced financial habits",
		"Your group maintains good spending visibility across key categories",
		"You're among newer users still developing their budgeting habits",
	}, got)

	got = Narrative(&model.ClusterProfile{UserCount: 2, AvgBudgetAdherence: 0.6, AvgMonthlySpending: 150000, AvgCategories: 5})
	assert.Equal(t, "You're in a group that tends to go over budget - consider more realistic planning", got[0])
	assert.Equal(t, "You're in a conservative-spending group - great for building savings", got[1])
	assert.Equal(t, "Your group prefers simple budgeting with fewer categories", got[2])
}

func TestCutoff(t *testing.T) {
	assert.Equal(t, time.Date(2024, time.August, 16, 12, 0, 0, 0, time.UTC), Cutoff(testNow, 1))
}
