// Package seed generates deterministic demo households: users with accounts,
// categories, monthly budgets and the transactions that play out against them.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// Store is what the generator writes to.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	CreateAccount(ctx context.Context, acc *model.Account) error
	CreateCategory(ctx context.Context, cat *model.Category) error
	SaveBudget(ctx context.Context, b *model.Budget) error
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	SaveSplits(ctx context.Context, splits []model.Split) error
}

// Options controls the size and shape of the generated data.
type Options struct {
	// End is any time in the last generated month.
	End    time.Time
	Users  int
	Months int
	Seed   uint64
}

// DefaultOptions generates a year of data for a small group of users.
func DefaultOptions(end time.Time) Options {
	return Options{Users: 12, Months: 12, Seed: 42, End: end}
}

// Archetype is a spending personality.
type Archetype struct {
	Name string
	// Scale multiplies every base budget.
	Scale float64
	// Adherence is the typical ratio of spending to budget.
	Adherence float64
	// Noise is the relative spread of monthly spending around Adherence.
	Noise float64
}

// Archetypes cycle across generated users.
var Archetypes = []Archetype{
	{Name: "frugal", Scale: 0.6, Adherence: 0.9, Noise: 0.05},
	{Name: "balanced", Scale: 1.0, Adherence: 1.0, Noise: 0.1},
	{Name: "spender", Scale: 1.8, Adherence: 1.15, Noise: 0.25},
}

// categorySpec is a budget category with a base monthly amount and an
// optional seasonal peak.
type categorySpec struct {
	name       string
	baseCents  int64
	peakMonths []time.Month
	peakFactor float64
}

var categorySpecs = []categorySpec{
	{name: "Groceries", baseCents: 45000},
	{name: "Food & Dining", baseCents: 20000},
	{name: "Transportation", baseCents: 12000},
	{name: "Utilities", baseCents: 15000},
	{name: "Entertainment", baseCents: 8000},
	{name: "Travel", baseCents: 10000, peakMonths: []time.Month{time.June, time.July, time.August}, peakFactor: 4},
	{name: "Gifts & Charitable", baseCents: 5000, peakMonths: []time.Month{time.November, time.December}, peakFactor: 6},
}

const (
	incomeName       = "Salary"
	baseIncomeCents  = 450000
	splitProbability = 0.15
)

// Summary counts what a run created.
type Summary struct {
	Users        int
	Budgets      int
	Transactions int
	Splits       int
}

// Generator writes demo data to a Store.
type Generator struct {
	store Store
	rng   *rand.Rand
	opts  Options
}

// New returns a generator for opts. Zero values fall back to DefaultOptions.
func New(store Store, opts Options) *Generator {
	defaults := DefaultOptions(opts.End)
	if opts.End.IsZero() {
		defaults.End = time.Now().UTC()
		opts.End = defaults.End
	}
	if opts.Users <= 0 {
		opts.Users = defaults.Users
	}
	if opts.Months <= 0 {
		opts.Months = defaults.Months
	}
	if opts.Seed == 0 {
		opts.Seed = defaults.Seed
	}
	return &Generator{
		store: store,
		opts:  opts,
		rng:   rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xda3e39cb94b95bdb)),
	}
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// Run creates every user. progress, when non-nil, is called once per user.
func (g *Generator) Run(ctx context.Context, progress func()) (Summary, error) {
	var sum Summary
	for i := 0; i < g.opts.Users; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := g.household(ctx, i, &sum); err != nil {
			return sum, fmt.Errorf("failed to seed user %d: %w", i+1, err)
		}
		if progress != nil {
			progress()
		}
	}
	return sum, nil
}

// Months returns the first day of every generated month, oldest first.
func (g *Generator) Months() []time.Time {
	end := time.Date(g.opts.End.Year(), g.opts.End.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]time.Time, g.opts.Months)
	for i := range months {
		months[i] = end.AddDate(0, i-g.opts.Months+1, 0)
	}
	return months
}

func (g *Generator) household(ctx context.Context, index int, sum *Summary) error {
	arch := Archetypes[index%len(Archetypes)]
	months := g.Months()

	user := model.User{
		Name:      fmt.Sprintf("%s-%02d", arch.Name, index+1),
		CreatedAt: months[0].AddDate(0, -g.rng.IntN(24), 0),
	}
	if err := g.store.CreateUser(ctx, &user); err != nil {
		return err
	}
	sum.Users++

	account := model.Account{UserID: user.ID, Name: "Everyday checking", Type: model.AccountChecking}
	if err := g.store.CreateAccount(ctx, &account); err != nil {
		return err
	}
	card := model.Account{UserID: user.ID, Name: "Rewards card", Type: model.AccountCredit}
	if err := g.store.CreateAccount(ctx, &card); err != nil {
		return err
	}

	categories := make([]model.Category, len(categorySpecs))
	for i, spec := range categorySpecs {
		categories[i] = model.Category{UserID: user.ID, Name: spec.name, Kind: model.CategoryKindExpense}
		if err := g.store.CreateCategory(ctx, &categories[i]); err != nil {
			return err
		}
	}
	income := model.Category{UserID: user.ID, Name: incomeName, Kind: model.CategoryKindIncome}
	if err := g.store.CreateCategory(ctx, &income); err != nil {
		return err
	}

	for _, start := range months {
		budget := model.Budget{
			UserID:      user.ID,
			PeriodStart: start,
			PeriodEnd:   start.AddDate(0, 1, -1),
		}
		txns := []model.Transaction{{
			UserID:      user.ID,
			AccountID:   account.ID,
			CategoryID:  &income.ID,
			Date:        start,
			AmountCents: int64(float64(baseIncomeCents) * arch.Scale),
			Description: "Payroll",
		}}

		for i, spec := range categorySpecs {
			planned := plannedCents(spec, arch, start.Month())
			budget.Items = append(budget.Items, model.BudgetItem{CategoryID: categories[i].ID, PlannedCents: planned})

			spent := float64(planned) * arch.Adherence * (1 + arch.Noise*g.rng.NormFloat64())
			for _, amount := range g.purchases(spent) {
				acc := account.ID
				if g.rng.IntN(3) == 0 {
					acc = card.ID
				}
				txns = append(txns, model.Transaction{
					UserID:      user.ID,
					AccountID:   acc,
					CategoryID:  &categories[i].ID,
					Date:        start.AddDate(0, 0, g.rng.IntN(daysIn(start))),
					AmountCents: -amount,
					Description: spec.name,
				})
			}
		}

		if err := g.store.SaveBudget(ctx, &budget); err != nil {
			return err
		}
		sum.Budgets++

		if err := g.store.SaveTransactions(ctx, txns); err != nil {
			return err
		}
		sum.Transactions += len(txns)

		splits := g.splits(txns, categories)
		if len(splits) > 0 {
			if err := g.store.SaveSplits(ctx, splits); err != nil {
				return err
			}
			sum.Splits += len(splits)
		}
	}
	return nil
}

// plannedCents rounds a category's budget for a month to whole dollars.
func plannedCents(spec categorySpec, arch Archetype, month time.Month) int64 {
	amount := float64(spec.baseCents) * arch.Scale
	for _, m := range spec.peakMonths {
		if m == month {
			amount *= spec.peakFactor
		}
	}
	return int64(math.Round(amount/100)) * 100
}

// purchases breaks a month's spending into a few positive amounts.
func (g *Generator) purchases(total float64) []int64 {
	if total < 100 {
		return nil
	}
	n := 1 + g.rng.IntN(5)
	weights := make([]float64, n)
	var sum float64
	for i := range weights {
		weights[i] = 0.5 + g.rng.Float64()
		sum += weights[i]
	}
	out := make([]int64, 0, n)
	for _, w := range weights {
		if cents := int64(math.Round(total * w / sum)); cents > 0 {
			out = append(out, cents)
		}
	}
	return out
}

// splits occasionally divides a grocery run between groceries and dining.
func (g *Generator) splits(txns []model.Transaction, categories []model.Category) []model.Split {
	groceries, dining := categories[0].ID, categories[1].ID
	var out []model.Split
	for _, t := range txns {
		if t.CategoryID == nil || *t.CategoryID != groceries || t.AmountCents > -200 {
			continue
		}
		if g.rng.Float64() >= splitProbability {
			continue
		}
		part := t.AmountCents / 4
		out = append(out,
			model.Split{ParentID: t.ID, CategoryID: groceries, AmountCents: t.AmountCents - part},
			model.Split{ParentID: t.ID, CategoryID: dining, AmountCents: part},
		)
	}
	return out
}

func daysIn(month time.Time) int {
	return month.AddDate(0, 1, -1).Day()
}
