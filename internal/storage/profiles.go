package storage

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
)

const daysPerMonth = 30.0

// userProfileQuery aggregates expenses per (user, category) and joins each
// row with the user's budget and account-level stats. SQLite has no STDDEV,
// so the sum of squares is returned for the volatility.
const userProfileQuery = `
	WITH user_spending AS (
		SELECT t.user_id,
		       t.category_id,
		       COALESCE(c.name, 'Uncategorized') AS category,
		       SUM(ABS(t.amount_cents)) AS total_spent,
		       COUNT(t.id) AS transaction_count,
		       AVG(ABS(t.amount_cents)) AS avg_transaction,
		       SUM(t.amount_cents * t.amount_cents) AS sum_squares
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.txn_date >= ?
		  AND t.amount_cents < 0
		GROUP BY t.user_id, t.category_id
	),
	user_budgets AS (
		SELECT b.user_id,
		       bi.category_id,
		       AVG(bi.planned_cents) AS avg_budget,
		       COUNT(bi.id) AS budget_count
		FROM budgets b
		JOIN budget_items bi ON b.id = bi.budget_id
		WHERE b.period_start >= ?
		GROUP BY b.user_id, bi.category_id
	),
	user_stats AS (
		SELECT u.id AS user_id,
		       u.created_at,
		       (SELECT COUNT(*) FROM accounts a WHERE a.user_id = u.id) AS account_count,
		       COUNT(DISTINCT t.category_id) AS unique_categories,
		       SUM(CASE WHEN t.amount_cents < 0 THEN -t.amount_cents ELSE 0 END) AS total_expenses,
		       SUM(CASE WHEN t.amount_cents > 0 THEN t.amount_cents ELSE 0 END) AS total_income,
		       COUNT(DISTINCT substr(t.txn_date, 1, 7)) AS active_months
		FROM users u
		JOIN transactions t ON u.id = t.user_id
		WHERE t.txn_date >= ?
		GROUP BY u.id, u.created_at
	)
	SELECT us.user_id,
	       COALESCE(us.category_id, 0),
	       us.category,
	       us.total_spent,
	       us.transaction_count,
	       us.avg_transaction,
	       us.sum_squares,
	       COALESCE(ub.avg_budget, 0),
	       COALESCE(ub.budget_count, 0),
	       st.created_at,
	       st.account_count,
	       st.unique_categories,
	       st.total_expenses,
	       st.total_income,
	       st.active_months
	FROM user_spending us
	JOIN user_stats st ON us.user_id = st.user_id
	LEFT JOIN user_budgets ub ON us.user_id = ub.user_id AND us.category_id = ub.category_id
	WHERE us.total_spent > 0
	ORDER BY us.user_id, us.category`

// UserProfileRows returns one aggregate row per (user, category) with expenses
// on or after since, across all users. asOf anchors account age.
func (s *SQLiteStorage) UserProfileRows(ctx context.Context, since, asOf time.Time) ([]model.UserProfileRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	cutoff := formatTime(since)
	rows, err := s.db.QueryContext(ctx, userProfileQuery, cutoff, cutoff, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query user profiles: %w", err)
	}
	defer rows.Close()

	var out []model.UserProfileRow
	for rows.Next() {
		var (
			r          model.UserProfileRow
			sumSquares float64
			created    string
		)
		if err := rows.Scan(&r.UserID, &r.CategoryID, &r.Category,
			&r.TotalSpent, &r.TransactionCount, &r.AvgTransaction, &sumSquares,
			&r.AvgBudget, &r.BudgetCount, &created,
			&r.AccountCount, &r.UniqueCategories, &r.TotalExpenses, &r.TotalIncome, &r.ActiveMonths); err != nil {
			return nil, fmt.Errorf("failed to scan user profile: %w", err)
		}
		if r.UserSince, err = parseTime(created); err != nil {
			return nil, err
		}
		r.SpendingVolatility = sampleStd(r.TransactionCount, r.AvgTransaction, sumSquares)
		r.AccountAgeMonths = accountAgeMonths(r.UserSince, asOf)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user profiles: %w", err)
	}
	return out, nil
}

// sampleStd recovers the sample standard deviation from a count, mean and sum
// of squares. It is 0 for fewer than two values.
func sampleStd(n, mean, sumSquares float64) float64 {
	if n < 2 {
		return 0
	}
	variance := (sumSquares - n*mean*mean) / (n - 1)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// accountAgeMonths counts whole days between since and asOf in 30-day months.
func accountAgeMonths(since, asOf time.Time) float64 {
	days := math.Floor(asOf.Sub(since).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / daysPerMonth
}

// PeerSamples returns the budget lines of the given users for one category
// starting on or after since. Categories belong to their users, so a peer's
// category matches when its name equals the requested category's name,
// ignoring case. Each line carries the peer's expenses in that category for
// the calendar month the budget period starts in. A split transaction counts
// through its split lines only.
func (s *SQLiteStorage) PeerSamples(ctx context.Context, userIDs []int64, categoryID int64, since time.Time) ([]model.PeerSample, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	query := fmt.Sprintf(`
		SELECT b.user_id, bi.category_id, b.period_start, bi.planned_cents,
		       COALESCE(spent.total_spent, 0)
		FROM budget_items bi
		JOIN budgets b ON bi.budget_id = b.id
		JOIN categories c ON bi.category_id = c.id
		LEFT JOIN (
			SELECT user_id, category_id, month, SUM(amount) AS total_spent
			FROM (
				SELECT t.user_id,
				       t.category_id,
				       substr(t.txn_date, 1, 7) AS month,
				       -t.amount_cents AS amount
				FROM transactions t
				WHERE t.amount_cents < 0
				  AND t.txn_date >= ?
				  AND NOT EXISTS (SELECT 1 FROM transaction_splits ts WHERE ts.parent_txn_id = t.id)
				UNION ALL
				SELECT t.user_id,
				       ts.category_id,
				       substr(t.txn_date, 1, 7) AS month,
				       -ts.amount_cents AS amount
				FROM transaction_splits ts
				JOIN transactions t ON ts.parent_txn_id = t.id
				WHERE ts.amount_cents < 0
				  AND t.txn_date >= ?
			)
			GROUP BY user_id, category_id, month
		) spent ON spent.category_id = bi.category_id
		       AND spent.user_id = b.user_id
		       AND spent.month = substr(b.period_start, 1, 7)
		WHERE b.user_id IN (%s)
		  AND lower(c.name) = (SELECT lower(name) FROM categories WHERE id = ?)
		  AND b.period_start >= ?
		ORDER BY b.user_id, b.period_start`, placeholders)

	cutoff := formatTime(since)
	args := make([]any, 0, len(userIDs)+4)
	args = append(args, cutoff, cutoff)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, categoryID, cutoff)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query peer samples: %w", err)
	}
	defer rows.Close()

	var samples []model.PeerSample
	for rows.Next() {
		var (
			p     model.PeerSample
			start string
		)
		if err := rows.Scan(&p.UserID, &p.CategoryID, &start, &p.PlannedCents, &p.ActualSpentCents); err != nil {
			return nil, fmt.Errorf("failed to scan peer sample: %w", err)
		}
		if p.PeriodStart, err = parseTime(start); err != nil {
			return nil, err
		}
		samples = append(samples, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating peer samples: %w", err)
	}
	return samples, nil
}
