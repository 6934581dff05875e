package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/service"
)

// topCategoryCount is how many of the user's most budgeted categories get
// peer recommendations.
const topCategoryCount = 5

// Narrative thresholds. Spending is in cents per month.
const (
	disciplinedAdherence = 0.8
	goodAdherence        = 0.6
	highSpending         = 300000
	moderateSpending     = 150000
	manyCategories       = 8
	someCategories       = 5
	experiencedMonths    = 12
)

// UserInsights places the user in a cohort of similar users and reports what
// those peers budget for the user's main categories.
func (e *PredictionEngine) UserInsights(ctx context.Context, userID int64, historicalMonths int) (*service.UserInsights, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validateMonths(historicalMonths); err != nil {
		return nil, err
	}
	ctx, logger := withRequest(ctx, "user_insights", userID)

	since := Cutoff(e.now(), historicalMonths)
	clusters, err := e.clusterUsers(ctx, since)
	if err != nil {
		return nil, err
	}

	insights := &service.UserInsights{
		UserID:              userID,
		PeerRecommendations: map[int64]model.PeerRecommendation{},
	}

	assignment, ok := clusters[userID]
	if !ok {
		logger.Info("User could not be clustered", "clustered_users", len(clusters))
		insights.Message = "Insufficient data for user clustering"
		return insights, nil
	}

	budgets, err := e.provider.BudgetPeriods(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	peerSince := e.peerSince()
	for _, categoryID := range TopCategories(budgets, topCategoryCount) {
		rec, err := e.peers.Recommend(ctx, assignment.Peers, categoryID, peerSince)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			insights.PeerRecommendations[categoryID] = *rec
		}
	}

	clusterID := assignment.ClusterID
	profile := assignment.Profile
	insights.ClusterID = &clusterID
	insights.ClusterProfile = &profile
	insights.SimilarUsersCount = len(assignment.Peers)
	insights.Insights = Narrative(&profile)

	logger.Info("User insights complete",
		"cluster_id", clusterID,
		"similar_users", insights.SimilarUsersCount,
		"peer_categories", len(insights.PeerRecommendations))
	return insights, nil
}

// TopCategories returns up to n category ids ordered by how many budget lines
// they have, most first. Ties go to the lower id.
func TopCategories(budgets []model.BudgetPeriod, n int) []int64 {
	counts := make(map[int64]int)
	for _, b := range budgets {
		counts[b.CategoryID]++
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// Narrative describes a cohort in plain language.
func Narrative(profile *model.ClusterProfile) []string {
	if profile == nil || profile.UserCount == 0 {
		return []string{"Not enough data for personalized insights"}
	}

	var out []string
	switch {
	case profile.AvgBudgetAdherence > disciplinedAdherence:
		out = append(out, "You're in a group of highly disciplined budgeters who stick close to their plans")
	case profile.AvgBudgetAdherence > goodAdherence:
		out = append(out, "You're among users with good budget discipline, with room for improvement")
	default:
		out = append(out, "You're in a group that tends to go over budget - consider more realistic planning")
	}

	switch {
	case profile.AvgMonthlySpending > highSpending:
		out = append(out, "You're in a high-spending group - focus on identifying savings opportunities")
	case profile.AvgMonthlySpending > moderateSpending:
		out = append(out, "You're in a moderate-spending group with balanced financial habits")
	default:
		out = append(out, "You're in a conservative-spending group - great for building savings")
	}

	switch {
	case profile.AvgCategories > manyCategories:
		out = append(out, "Your group tracks spending across many categories - excellent for detailed budgeting")
	case profile.AvgCategories > someCategories:
		out = append(out, "Your group maintains good spending visibility across key categories")
	default:
		out = append(out, "Your group prefers simple budgeting with fewer categories")
	}

	if profile.AvgAgeMonths > experiencedMonths {
		out = append(out, "You're grouped with experienced users who have established spending patterns")
	} else {
		out = append(out, "You're among newer users still developing their budgeting habits")
	}
	return out
}
