package policy

import (
	"log/slog"
	"math"
	"sort"

	"github.com/GitLars0/budget-forecast/internal/model"
)

var inf = math.Inf(1)

// Family groups strategies that explain themselves the same way.
type Family int

// Reasoning families.
const (
	FamilyHistory Family = iota
	FamilyStableHistory
	FamilyAccurateBudgeter
	FamilyPeer
	FamilyEnsemble
)

// Decision is the outcome of one strategy.
type Decision struct {
	Label      string
	Amount     float64
	Confidence float64
	Family     Family
}

// Strategy is one guarded branch of the policy. Decide reports false when the
// strategy does not apply, letting evaluation continue with the next one.
type Strategy interface {
	Name() string
	Priority() int
	Decide(in Input) (Decision, bool)
}

// FallbackLabel marks a decision produced by the safety net.
const FallbackLabel = "Fallback Historical Average"

// Policy evaluates strategies in ascending priority; the first that decides
// wins.
type Policy struct {
	strategies []Strategy
}

// New builds a policy from strategies, ordered by priority. Strategies with
// equal priority keep their given order.
func New(strategies ...Strategy) *Policy {
	ordered := append([]Strategy(nil), strategies...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &Policy{strategies: ordered}
}

// Default is the production strategy order.
func Default() *Policy {
	return New(
		InsufficientData{},
		VeryLowAccuracy{},
		AccurateBudgeter{},
		PeerInformed{},
		NeutralAccuracy{},
		GoodAccuracy{},
		StablePattern{},
		Blended{},
		StatisticalFallback{},
	)
}

// Strategies returns the strategy names in evaluation order.
func (p *Policy) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}
	return names
}

// Decide runs the strategies against in. The result always has a label and
// a finite amount, and its confidence lies within the model bounds.
func (p *Policy) Decide(in Input) Decision {
	var (
		d       Decision
		decided bool
	)
	for _, s := range p.strategies {
		if d, decided = s.Decide(in); decided {
			slog.Debug("Strategy selected", "category", in.CategoryName, "strategy", s.Name(), "amount", d.Amount)
			break
		}
	}

	if !decided || d.Label == "" || math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		slog.Warn("No strategy produced a prediction, using fallback", "category", in.CategoryName)
		d = Decision{
			Amount:     in.BudgetAvg,
			Label:      FallbackLabel,
			Confidence: in.BaseConfidence() * 0.6,
			Family:     FamilyHistory,
		}
	}

	d.Confidence = ClampConfidence(d.Confidence)
	return d
}

// ClampConfidence bounds c to [model.MinConfidence, model.MaxConfidence].
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return model.MinConfidence
	}
	return max(model.MinConfidence, min(model.MaxConfidence, c))
}
