package model

import (
	"sort"
	"time"
)

// Transaction is a single posted transaction. Amounts are signed minor units:
// negative for expenses, positive for income.
type Transaction struct {
	Date        time.Time
	Description string
	// ExternalID is the bank's identifier for imported transactions.
	ExternalID  string
	CategoryID  *int64
	ID          int64
	UserID      int64
	AccountID   int64
	AmountCents int64
}

// IsExpense reports whether the transaction moves money out.
func (t Transaction) IsExpense() bool {
	return t.AmountCents < 0
}

// Split assigns part of a parent transaction to its own category.
type Split struct {
	ID          int64
	ParentID    int64
	CategoryID  int64
	AmountCents int64
}

// SpendingRecord is a normalized expense attributed to one category.
// AmountCents is always non-negative.
type SpendingRecord struct {
	Date         time.Time
	CategoryName string
	Description  string
	CategoryID   int64
	SourceID     int64
	AmountCents  int64
}

// Month returns the calendar month of the record.
func (s SpendingRecord) Month() int {
	return int(s.Date.Month())
}

// MergeSpending combines direct transactions and split lines into spending
// records. Only expenses are kept. A parent transaction that has splits
// contributes exclusively through those splits, so its amount is never
// counted twice. Splits take the parent's date and description but keep their
// own category. names maps category ids to display names and may be nil.
func MergeSpending(txns []Transaction, splits []Split, names map[int64]string) []SpendingRecord {
	parents := make(map[int64]Transaction, len(txns))
	for _, t := range txns {
		parents[t.ID] = t
	}

	hasSplits := make(map[int64]bool, len(splits))
	for _, s := range splits {
		hasSplits[s.ParentID] = true
	}

	records := make([]SpendingRecord, 0, len(txns)+len(splits))
	for _, t := range txns {
		if !t.IsExpense() || t.CategoryID == nil || hasSplits[t.ID] {
			continue
		}
		records = append(records, SpendingRecord{
			CategoryID:   *t.CategoryID,
			CategoryName: names[*t.CategoryID],
			AmountCents:  -t.AmountCents,
			Date:         t.Date,
			Description:  t.Description,
			SourceID:     t.ID,
		})
	}

	for _, s := range splits {
		parent, ok := parents[s.ParentID]
		if !ok || s.AmountCents >= 0 {
			continue
		}
		records = append(records, SpendingRecord{
			CategoryID:   s.CategoryID,
			CategoryName: names[s.CategoryID],
			AmountCents:  -s.AmountCents,
			Date:         parent.Date,
			Description:  parent.Description,
			SourceID:     parent.ID,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records
}

// AccountUsage summarizes how an account is used for one category.
// It is a diversity signal only, never a spending source.
type AccountUsage struct {
	AccountName      string
	AccountType      AccountType
	AccountID        int64
	CategoryID       int64
	TransactionCount int64
	AverageCents     float64
}
