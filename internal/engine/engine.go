// Package engine orchestrates budget predictions: it loads a user's history,
// engineers features, trains request-scoped models and applies the decision
// policy to every category.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GitLars0/budget-forecast/internal/clustering"
	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/peer"
	"github.com/GitLars0/budget-forecast/internal/policy"
	"github.com/GitLars0/budget-forecast/internal/service"
)

// Request bounds.
const (
	MinTargetYear       = 2020
	MaxTargetYear       = 2030
	MinHistoricalMonths = 1
	MaxHistoricalMonths = 60

	// daysPerMonth approximates a month when turning a lookback into a cutoff.
	daysPerMonth = 30
)

// PredictionEngine implements service.PredictionService.
type PredictionEngine struct {
	provider service.DataProvider
	peers    *peer.Resolver
	policy   *policy.Policy
	now      func() time.Time
	config   Config
}

// Config holds configuration options for the prediction engine.
type Config struct {
	// Clock anchors lookback windows. Nil means time.Now.
	Clock            func() time.Time
	PeerWindowMonths int
	UserClusters     int
	Timeout          time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PeerWindowMonths: peer.DefaultWindowMonths,
		UserClusters:     clustering.DefaultUserClusters,
		Timeout:          30 * time.Second,
	}
}

var _ service.PredictionService = (*PredictionEngine)(nil)

// New creates a prediction engine with the default configuration.
func New(provider service.DataProvider) *PredictionEngine {
	return NewWithConfig(provider, DefaultConfig())
}

// NewWithConfig creates a prediction engine with custom configuration.
func NewWithConfig(provider service.DataProvider, config Config) *PredictionEngine {
	defaults := DefaultConfig()
	if config.PeerWindowMonths <= 0 {
		config.PeerWindowMonths = defaults.PeerWindowMonths
	}
	if config.UserClusters <= 0 {
		config.UserClusters = defaults.UserClusters
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	return &PredictionEngine{
		provider: provider,
		peers:    peer.NewResolver(provider),
		policy:   policy.Default(),
		now:      now,
		config:   config,
	}
}

// Cutoff is the start of a lookback window of the given number of months.
func Cutoff(now time.Time, months int) time.Time {
	return now.AddDate(0, 0, -months*daysPerMonth)
}

// history is the per-user input of a request.
type history struct {
	budgets  []model.BudgetPeriod
	spending []model.SpendingRecord
	accounts []model.AccountUsage
}

// loadHistory fetches the three per-user result sets concurrently.
func (e *PredictionEngine) loadHistory(ctx context.Context, userID int64, since time.Time) (history, error) {
	var h history
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		budgets, err := e.provider.BudgetPeriods(gctx, userID, since)
		if err != nil {
			return fmt.Errorf("failed to load budgets: %w", err)
		}
		h.budgets = budgets
		return nil
	})
	g.Go(func() error {
		spending, err := e.provider.SpendingRecords(gctx, userID, since)
		if err != nil {
			return fmt.Errorf("failed to load spending: %w", err)
		}
		h.spending = spending
		return nil
	})
	g.Go(func() error {
		accounts, err := e.provider.AccountUsage(gctx, userID, since)
		if err != nil {
			return fmt.Errorf("failed to load account usage: %w", err)
		}
		h.accounts = accounts
		return nil
	})

	if err := g.Wait(); err != nil {
		return history{}, err
	}
	return h, nil
}

// clusterUsers assigns every user with activity in the window to a cohort.
func (e *PredictionEngine) clusterUsers(ctx context.Context, since time.Time) (map[int64]model.UserClusterAssignment, error) {
	rows, err := e.provider.UserProfileRows(ctx, since, e.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load user profiles: %w", err)
	}
	return clustering.ClusterUsers(rows, e.config.UserClusters), nil
}

// peerSince is the start of the peer window.
func (e *PredictionEngine) peerSince() time.Time {
	return e.now().AddDate(0, -e.config.PeerWindowMonths, 0)
}

// withRequest attaches a request-scoped logger to ctx.
func withRequest(ctx context.Context, op string, userID int64) (context.Context, *slog.Logger) {
	logger := common.Logger(ctx).With(
		"request_id", uuid.NewString(),
		"operation", op,
		"user_id", userID,
	)
	return common.WithLogger(ctx, logger), logger
}

func validateUser(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive, got %d", common.ErrInvalidRequest, userID)
	}
	return nil
}

func validateMonths(months int) error {
	if months < MinHistoricalMonths || months > MaxHistoricalMonths {
		return fmt.Errorf("%w: historical months must be between %d and %d, got %d",
			common.ErrInvalidRequest, MinHistoricalMonths, MaxHistoricalMonths, months)
	}
	return nil
}

func validatePredictRequest(req service.PredictRequest) error {
	if err := validateUser(req.UserID); err != nil {
		return err
	}
	if req.TargetMonth < 1 || req.TargetMonth > 12 {
		return fmt.Errorf("%w: target month must be between 1 and 12, got %d", common.ErrInvalidRequest, req.TargetMonth)
	}
	if req.TargetYear < MinTargetYear || req.TargetYear > MaxTargetYear {
		return fmt.Errorf("%w: target year must be between %d and %d, got %d",
			common.ErrInvalidRequest, MinTargetYear, MaxTargetYear, req.TargetYear)
	}
	return validateMonths(req.HistoricalMonths)
}
