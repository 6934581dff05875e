package clustering

import (
	"log/slog"
	"math"
	"sort"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

// DefaultUserClusters is the requested cluster count when none is configured.
const DefaultUserClusters = 5

// BuildUserFeatures folds per-category profile rows into one aggregate per
// user, ordered by ascending user id.
func BuildUserFeatures(rows []model.UserProfileRow) []model.UserFeatures {
	type acc struct {
		first  model.UserProfileRow
		sums   model.UserFeatures
		volSum float64
		avgTxn float64
		avgBud float64
		n      int
	}

	byUser := make(map[int64]*acc)
	var ids []int64
	for _, r := range rows {
		a, ok := byUser[r.UserID]
		if !ok {
			a = &acc{first: r}
			byUser[r.UserID] = a
			ids = append(ids, r.UserID)
		}
		a.sums.TotalSpent += finite(r.TotalSpent)
		a.sums.TransactionCount += finite(r.TransactionCount)
		a.sums.BudgetCount += finite(r.BudgetCount)
		a.avgTxn += finite(r.AvgTransaction)
		a.volSum += finite(r.SpendingVolatility)
		a.avgBud += finite(r.AvgBudget)
		a.n++
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.UserFeatures, 0, len(ids))
	for _, id := range ids {
		a := byUser[id]
		n := float64(a.n)
		f := model.UserFeatures{
			UserID:             id,
			TotalSpent:         a.sums.TotalSpent,
			TransactionCount:   a.sums.TransactionCount,
			BudgetCount:        a.sums.BudgetCount,
			AvgTransaction:     a.avgTxn / n,
			SpendingVolatility: a.volSum / n,
			AvgBudget:          a.avgBud / n,
			AccountAgeMonths:   finite(a.first.AccountAgeMonths),
			AccountCount:       finite(a.first.AccountCount),
			UniqueCategories:   finite(a.first.UniqueCategories),
			TotalExpenses:      finite(a.first.TotalExpenses),
			TotalIncome:        finite(a.first.TotalIncome),
			ActiveMonths:       finite(a.first.ActiveMonths),
		}

		f.ExpenseToIncomeRatio = 1.0
		if f.TotalIncome > 0 {
			f.ExpenseToIncomeRatio = f.TotalExpenses / f.TotalIncome
		}
		if f.ActiveMonths > 0 {
			f.AvgMonthlySpending = f.TotalExpenses / f.ActiveMonths
		}
		f.BudgetAdherence = 0.5
		if f.AvgBudget > 0 {
			f.BudgetAdherence = 1 - math.Abs(f.TotalExpenses-f.AvgBudget)/f.AvgBudget
		}
		out = append(out, f)
	}
	return out
}

// EffectiveUserClusters is min(requested, max(2, n/2)).
func EffectiveUserClusters(requested, users int) int {
	if requested <= 0 {
		requested = DefaultUserClusters
	}
	return min(requested, max(2, users/2))
}

// ClusterUsers groups users into behavioral cohorts. Each user is assigned a
// cluster, the cluster's profile, and up to model.MaxPeers peers in ascending
// user id order. Fewer than two users yields an empty mapping.
func ClusterUsers(rows []model.UserProfileRow, requested int) map[int64]model.UserClusterAssignment {
	out := make(map[int64]model.UserClusterAssignment)

	users := BuildUserFeatures(rows)
	if len(users) < 2 {
		slog.Info("Not enough users to cluster", "users", len(users))
		return out
	}

	points := make([][]float64, len(users))
	for i, u := range users {
		points[i] = []float64{
			finite(u.AvgMonthlySpending),
			finite(u.ExpenseToIncomeRatio),
			finite(u.BudgetAdherence),
			finite(u.SpendingVolatility),
			finite(u.UniqueCategories),
			finite(u.AccountAgeMonths),
		}
	}
	points = StandardScale(points)

	k := min(EffectiveUserClusters(requested, len(users)), DistinctRows(points))
	slog.Debug("Clustering users", "users", len(users), "clusters", k)

	res, err := KMeans(points, KMeansOptions{K: k, Runs: 10})
	if err != nil {
		slog.Warn("User clustering failed", "error", err, "users", len(users))
		return out
	}

	// Users are in ascending id order, so first-appearance numbering from
	// KMeans already orders clusters by their smallest member.
	members := make(map[int][]model.UserFeatures)
	for i, u := range users {
		members[res.Labels[i]] = append(members[res.Labels[i]], u)
	}

	profiles := make(map[int]model.ClusterProfile, len(members))
	for id, group := range members {
		profiles[id] = profileOf(group)
	}

	for i, u := range users {
		cid := res.Labels[i]
		profile := profiles[cid]
		peers := make([]int64, 0, min(len(profile.UserIDs), model.MaxPeers))
		for _, peer := range profile.UserIDs {
			if peer == u.UserID {
				continue
			}
			if len(peers) == model.MaxPeers {
				break
			}
			peers = append(peers, peer)
		}
		out[u.UserID] = model.UserClusterAssignment{
			UserID:    u.UserID,
			ClusterID: cid,
			Profile:   profile,
			Peers:     peers,
		}
	}
	return out
}

func profileOf(group []model.UserFeatures) model.ClusterProfile {
	p := model.ClusterProfile{UserCount: len(group)}
	var spend, ratio, adherence, cats, age []float64
	for _, u := range group {
		p.UserIDs = append(p.UserIDs, u.UserID)
		spend = append(spend, u.AvgMonthlySpending)
		ratio = append(ratio, u.ExpenseToIncomeRatio)
		adherence = append(adherence, u.BudgetAdherence)
		cats = append(cats, u.UniqueCategories)
		age = append(age, u.AccountAgeMonths)
	}
	p.AvgMonthlySpending = stats.Mean(spend)
	p.AvgExpenseRatio = stats.Mean(ratio)
	p.AvgBudgetAdherence = stats.Mean(adherence)
	p.AvgCategories = stats.Mean(cats)
	p.AvgAgeMonths = stats.Mean(age)
	return p
}

func finite(v float64) float64 {
	return stats.Finite(v, 0)
}
