// Package peer turns the budgets of similar users into a recommendation for
// one category.
package peer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

const (
	// MinSamples is the fewest qualifying peer budget lines for a recommendation.
	MinSamples = 3
	// DefaultWindowMonths is how far back peer budgets are considered.
	DefaultWindowMonths = 6
)

// SampleSource supplies peer budget lines matched with same-month spending.
type SampleSource interface {
	PeerSamples(ctx context.Context, userIDs []int64, categoryID int64, since time.Time) ([]model.PeerSample, error)
}

// Resolver looks up peer recommendations through a SampleSource.
type Resolver struct {
	source SampleSource
}

// NewResolver creates a Resolver backed by source.
func NewResolver(source SampleSource) *Resolver {
	return &Resolver{source: source}
}

// Recommend aggregates the peers' budgets for categoryID since the cutoff.
// It returns nil without error when there are no peers or too few samples.
func (r *Resolver) Recommend(ctx context.Context, peers []int64, categoryID int64, since time.Time) (*model.PeerRecommendation, error) {
	if len(peers) == 0 {
		return nil, nil
	}
	samples, err := r.source.PeerSamples(ctx, peers, categoryID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load peer samples for category %d: %w", categoryID, err)
	}
	return Aggregate(samples, len(peers)), nil
}

// Aggregate summarizes samples with a positive planned amount. It returns nil
// when fewer than MinSamples qualify.
func Aggregate(samples []model.PeerSample, peerCount int) *model.PeerRecommendation {
	var planned, actual, variance []float64
	for _, s := range samples {
		if s.PlannedCents <= 0 {
			continue
		}
		p := float64(s.PlannedCents)
		a := math.Abs(float64(s.ActualSpentCents))
		planned = append(planned, p)
		actual = append(actual, a)
		variance = append(variance, math.Abs(p-a))
	}
	if len(planned) < MinSamples {
		return nil
	}

	return &model.PeerRecommendation{
		AvgPeerBudget:   stats.Mean(planned),
		AvgPeerSpending: stats.Mean(actual),
		AvgVariance:     stats.Mean(variance),
		BudgetStd:       stats.SampleStd(planned),
		MinBudget:       stats.Min(planned),
		MaxBudget:       stats.Max(planned),
		Samples:         len(planned),
		PeerCount:       peerCount,
	}
}
