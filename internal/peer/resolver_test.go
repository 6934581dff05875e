package peer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	samples []model.PeerSample
	err     error
	calls   int
}

func (f *fakeSource) PeerSamples(_ context.Context, _ []int64, _ int64, _ time.Time) ([]model.PeerSample, error) {
	f.calls++
	return f.samples, f.err
}

func sample(userID, planned, actual int64) model.PeerSample {
	return model.PeerSample{UserID: userID, CategoryID: 4, PlannedCents: planned, ActualSpentCents: actual}
}

func TestAggregate(t *testing.T) {
	rec := Aggregate([]model.PeerSample{
		sample(2, 10000, 9000),
		sample(3, 20000, 25000),
		sample(3, 30000, 0),
		sample(5, 0, 4000),
	}, 3)
	require.NotNil(t, rec)

	assert.Equal(t, 3, rec.Samples)
	assert.Equal(t, 3, rec.PeerCount)
	assert.Equal(t, 20000.0, rec.AvgPeerBudget)
	assert.Equal(t, 34000.0/3, rec.AvgPeerSpending)
	assert.Equal(t, (1000.0+5000+30000)/3, rec.AvgVariance)
	assert.InDelta(t, 10000.0, rec.BudgetStd, 1e-9)
	assert.Equal(t, 10000.0, rec.MinBudget)
	assert.Equal(t, 30000.0, rec.MaxBudget)
}

func TestAggregate_TooFewSamples(t *testing.T) {
	assert.Nil(t, Aggregate(nil, 4))
	assert.Nil(t, Aggregate([]model.PeerSample{
		sample(2, 10000, 9000),
		sample(3, 20000, 25000),
		sample(4, 0, 100),
	}, 4))
}

func TestResolver_Recommend(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no peers skips the lookup", func(t *testing.T) {
		src := &fakeSource{}
		rec, err := NewResolver(src).Recommend(ctx, nil, 4, since)
		require.NoError(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, 0, src.calls)
	})

	t.Run("source error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewResolver(&fakeSource{err: boom}).Recommend(ctx, []int64{2}, 4, since)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("aggregates samples", func(t *testing.T) {
		src := &fakeSource{samples: []model.PeerSample{
			sample(2, 10000, 9000), sample(3, 12000, 11000), sample(3, 14000, 0),
		}}
		rec, err := NewResolver(src).Recommend(ctx, []int64{2, 3}, 4, since)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 2, rec.PeerCount)
		assert.Equal(t, 12000.0, rec.AvgPeerBudget)
	})
}
