package model

import "time"

// BudgetPeriod is one planned line item: the amount budgeted for a category
// within a budget's period. It is an immutable historical fact.
type BudgetPeriod struct {
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CategoryName string
	CategoryKind CategoryKind
	BudgetID     int64
	UserID       int64
	CategoryID   int64
	PlannedCents int64
}

// Month returns the calendar month the period starts in.
func (b BudgetPeriod) Month() int {
	return int(b.PeriodStart.Month())
}

// Quarter returns the calendar quarter (1-4) the period starts in.
func (b BudgetPeriod) Quarter() int {
	return QuarterOf(b.Month())
}

// Year returns the calendar year the period starts in.
func (b BudgetPeriod) Year() int {
	return b.PeriodStart.Year()
}

// Weekday returns the day of week the period starts on.
func (b BudgetPeriod) Weekday() time.Weekday {
	return b.PeriodStart.Weekday()
}

// Contains reports whether t falls on a day of the period. PeriodEnd names
// the last day, so any time of day on it is included.
func (b BudgetPeriod) Contains(t time.Time) bool {
	y, m, d := b.PeriodEnd.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, b.PeriodEnd.Location())
	return !t.Before(b.PeriodStart) && t.Before(next)
}

// QuarterOf maps a 1-based month to its 1-based quarter.
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

// Budget is a period header that owns line items.
type Budget struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Items       []BudgetItem
	ID          int64
	UserID      int64
}

// BudgetItem plans an amount for a single category inside a budget.
type BudgetItem struct {
	ID           int64
	CategoryID   int64
	PlannedCents int64
}
