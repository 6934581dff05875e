package model

import "time"

// UserProfileRow is one (user, category) aggregate over the lookback window,
// carrying the user-level stats repeated on every row.
type UserProfileRow struct {
	UserSince          time.Time
	Category           string
	UserID             int64
	CategoryID         int64
	TotalSpent         float64
	TransactionCount   float64
	AvgTransaction     float64
	SpendingVolatility float64
	AvgBudget          float64
	BudgetCount        float64
	AccountAgeMonths   float64
	AccountCount       float64
	UniqueCategories   float64
	TotalExpenses      float64
	TotalIncome        float64
	ActiveMonths       float64
}

// UserFeatures is the per-user aggregate used for clustering.
type UserFeatures struct {
	UserID             int64
	TotalSpent         float64
	TransactionCount   float64
	AvgTransaction     float64
	SpendingVolatility float64
	AvgBudget          float64
	BudgetCount        float64
	AccountAgeMonths   float64
	AccountCount       float64
	UniqueCategories   float64
	TotalExpenses      float64
	TotalIncome        float64
	ActiveMonths       float64

	ExpenseToIncomeRatio float64
	AvgMonthlySpending   float64
	BudgetAdherence      float64
}

// ClusterProfile summarizes the members of one user cluster.
type ClusterProfile struct {
	UserIDs            []int64 `json:"user_ids"`
	UserCount          int     `json:"user_count"`
	AvgMonthlySpending float64 `json:"avg_monthly_spending"`
	AvgExpenseRatio    float64 `json:"avg_expense_ratio"`
	AvgBudgetAdherence float64 `json:"avg_budget_adherence"`
	AvgCategories      float64 `json:"avg_categories"`
	AvgAgeMonths       float64 `json:"avg_age_months"`
}

// UserCluster is a behavioral cohort of users.
type UserCluster struct {
	Profile   ClusterProfile
	ClusterID int
}

// UserClusterAssignment places one user in a cluster together with a ranked
// list of peers from the same cluster.
type UserClusterAssignment struct {
	Profile   ClusterProfile
	Peers     []int64
	UserID    int64
	ClusterID int
}

// MaxPeers caps the peer list recorded for each user.
const MaxPeers = 10

// PeerSample is one peer budget line matched with that peer's spending in
// the same month.
type PeerSample struct {
	PeriodStart      time.Time
	UserID           int64
	CategoryID       int64
	PlannedCents     int64
	ActualSpentCents int64
}

// PeerRecommendation aggregates peer budgets for a category.
type PeerRecommendation struct {
	AvgPeerBudget   float64 `json:"avg_peer_budget"`
	AvgPeerSpending float64 `json:"avg_peer_spending"`
	AvgVariance     float64 `json:"avg_variance"`
	BudgetStd       float64 `json:"budget_std"`
	MinBudget       float64 `json:"min_budget"`
	MaxBudget       float64 `json:"max_budget"`
	Samples         int     `json:"samples"`
	PeerCount       int     `json:"peer_count"`
}
