package policy

import (
	"fmt"
	"math"

	"github.com/GitLars0/budget-forecast/internal/stats"
)

// Thresholds shared by the strategies.
const (
	minDataPoints         = 3
	peerDataPointsLimit   = 5
	minPeerSamples        = 3
	veryLowAccuracy       = 0.2
	neutralAccuracy       = 0.5
	accurateBudgeterBand  = 0.02
	inflationBuffer       = 1.02
	overspendRatio        = 1.05
	underspendRatio       = 0.95
	stableChangeFraction  = 0.02
	maxPeerWeight         = 0.6
	maxPeerConfidence     = 0.8
	peerConfidenceBase    = 0.4
	peerConfidencePerItem = 0.05
)

// InsufficientData keeps the budget baseline for categories with fewer than
// three periods.
type InsufficientData struct{}

func (InsufficientData) Name() string  { return "insufficient-data" }
func (InsufficientData) Priority() int { return 10 }

func (InsufficientData) Decide(in Input) (Decision, bool) {
	if in.DataPoints >= minDataPoints {
		return Decision{}, false
	}
	return Decision{
		Amount:     in.BudgetAvg,
		Confidence: in.BaseConfidence() * 0.6,
		Label:      "Historical Average (insufficient data)",
		Family:     FamilyHistory,
	}, true
}

// VeryLowAccuracy keeps the budget baseline when spending rarely matches it.
type VeryLowAccuracy struct{}

func (VeryLowAccuracy) Name() string  { return "very-low-accuracy" }
func (VeryLowAccuracy) Priority() int { return 20 }

func (VeryLowAccuracy) Decide(in Input) (Decision, bool) {
	if in.Accuracy >= veryLowAccuracy {
		return Decision{}, false
	}
	return Decision{
		Amount:     in.BudgetAvg,
		Confidence: in.BaseConfidence() * in.AccuracyFactor() * 0.7,
		Label:      "Historical Average (very low accuracy)",
		Family:     FamilyHistory,
	}, true
}

// AccurateBudgeter keeps the budget, plus a small inflation buffer, when
// spending lands within 2% of it. It takes precedence over every model blend.
type AccurateBudgeter struct{}

func (AccurateBudgeter) Name() string  { return "accurate-budgeter" }
func (AccurateBudgeter) Priority() int { return 30 }

func (AccurateBudgeter) Decide(in Input) (Decision, bool) {
	if !in.HasModels() || in.SpendingAvg <= 0 || in.BudgetAvg <= 0 {
		return Decision{}, false
	}
	if math.Abs(in.SpendingRatio()-1) >= accurateBudgeterBand {
		return Decision{}, false
	}
	return Decision{
		Amount:     max(in.BudgetAvg, in.SpendingAvg*inflationBuffer),
		Confidence: in.BaseConfidence() * in.AccuracyFactor() * in.Agreement() * 0.92,
		Label:      "Accurate Budgeter (spending ≈ budget)",
		Family:     FamilyAccurateBudgeter,
	}, true
}

// PeerInformed leans on similar users when the category has little history.
// Without enough peer samples it does not decide.
type PeerInformed struct{}

func (PeerInformed) Name() string  { return "peer-informed" }
func (PeerInformed) Priority() int { return 40 }

func (PeerInformed) Decide(in Input) (Decision, bool) {
	if in.DataPoints >= peerDataPointsLimit || in.Peers == nil {
		return Decision{}, false
	}
	peer := in.Peers()
	if peer == nil || peer.Samples < minPeerSamples {
		return Decision{}, false
	}

	d := Decision{
		Confidence: min(maxPeerConfidence, peerConfidenceBase+float64(peer.Samples)*peerConfidencePerItem),
		Family:     FamilyPeer,
	}
	if in.BudgetAvg > 0 {
		w := min(maxPeerWeight, float64(peer.Samples)/10)
		d.Amount = in.BudgetAvg*(1-w) + peer.AvgPeerBudget*w
		d.Label = fmt.Sprintf("Peer-Informed Prediction (%d similar users)", peer.PeerCount)
	} else {
		d.Amount = peer.AvgPeerBudget
		d.Label = fmt.Sprintf("Peer-Based Recommendation (%d similar users)", peer.PeerCount)
	}
	return d, true
}

// NeutralAccuracy blends mostly toward history when there is no spending
// evidence to judge the budgets by.
type NeutralAccuracy struct{}

func (NeutralAccuracy) Name() string  { return "neutral-accuracy" }
func (NeutralAccuracy) Priority() int { return 50 }

func (NeutralAccuracy) Decide(in Input) (Decision, bool) {
	if !in.HasModels() || in.Accuracy != neutralAccuracy {
		return Decision{}, false
	}
	ml, base := in.MLAmount(), in.BaseConfidence()
	if in.MLChange() > in.MaxReasonableChange() {
		return Decision{
			Amount:     in.BudgetAvg*0.9 + ml*0.1,
			Confidence: base * in.Agreement() * 0.7,
			Label:      "Conservative Historical (ML too extreme, neutral accuracy)",
			Family:     FamilyEnsemble,
		}, true
	}
	return Decision{
		Amount:     in.BudgetAvg*0.8 + ml*0.2,
		Confidence: base * in.Agreement() * 0.85,
		Label:      "Conservative Ensemble (neutral accuracy)",
		Family:     FamilyEnsemble,
	}, true
}

// GoodAccuracy trusts the models more when spending tracks the budgets.
type GoodAccuracy struct{}

func (GoodAccuracy) Name() string  { return "good-accuracy" }
func (GoodAccuracy) Priority() int { return 60 }

func (GoodAccuracy) Decide(in Input) (Decision, bool) {
	if !in.HasModels() || in.Accuracy <= neutralAccuracy {
		return Decision{}, false
	}
	ml := in.MLAmount()
	d := Decision{
		Confidence: in.BaseConfidence() * in.AccuracyFactor() * in.Agreement() * 0.85,
		Family:     FamilyEnsemble,
	}
	switch {
	case in.SpendingAvg > 0 && in.SpendingAvg > in.BudgetAvg*overspendRatio:
		anchor := max(in.BudgetAvg, in.SpendingAvg*underspendRatio)
		d.Amount = anchor*0.7 + ml*0.3
		d.Label = "Spending-Informed Ensemble (spending > budget)"
	case in.MLChange() > in.MaxReasonableChange():
		d.Amount = in.BudgetAvg*0.95 + ml*0.05
		d.Label = "Conservative Historical (ML too extreme)"
	default:
		d.Amount = in.BudgetAvg*0.6 + ml*0.4
		d.Label = "Confident Ensemble (good accuracy)"
	}
	return d, true
}

// StablePattern keeps the baseline when the models barely move it.
type StablePattern struct{}

func (StablePattern) Name() string  { return "stable-pattern" }
func (StablePattern) Priority() int { return 70 }

func (StablePattern) Decide(in Input) (Decision, bool) {
	if !in.HasModels() || in.MLChange() >= in.BudgetAvg*stableChangeFraction {
		return Decision{}, false
	}
	return Decision{
		Amount:     in.BudgetAvg,
		Confidence: in.BaseConfidence() * in.AccuracyFactor() * in.Agreement() * 0.95,
		Label:      "Historical Average (stable pattern)",
		Family:     FamilyStableHistory,
	}, true
}

// Blended mixes the models with whichever baseline best describes the user's
// spending against their budgets.
type Blended struct{}

func (Blended) Name() string  { return "blended-ensemble" }
func (Blended) Priority() int { return 80 }

func (Blended) Decide(in Input) (Decision, bool) {
	if !in.HasModels() {
		return Decision{}, false
	}
	ml := in.MLAmount()
	d := Decision{
		Confidence: in.BaseConfidence() * in.AccuracyFactor() * in.Agreement() * 0.9,
		Family:     FamilyEnsemble,
	}
	if in.SpendingAvg > 0 {
		switch ratio := in.SpendingRatio(); {
		case ratio > overspendRatio:
			d.Amount = min(ml, in.SpendingAvg*1.1)
			d.Label = "Spending-Aware Ensemble (tend to overspend)"
		case ratio < underspendRatio:
			d.Amount = in.BudgetAvg*0.7 + ml*0.3
			d.Label = "Conservative Ensemble (good at budgeting)"
		default:
			d.Amount = in.SpendingAvg*0.8 + ml*0.2
			d.Label = "Balanced Ensemble (reasonable budgeter)"
		}
		return d, true
	}
	d.Amount = in.BudgetAvg*0.85 + ml*0.15
	d.Label = "Conservative Ensemble (no spending history)"
	return d, true
}

// StatisticalFallback averages the category's planned amounts. It always
// decides.
type StatisticalFallback struct{}

func (StatisticalFallback) Name() string  { return "statistical-fallback" }
func (StatisticalFallback) Priority() int { return 90 }

func (StatisticalFallback) Decide(in Input) (Decision, bool) {
	return Decision{
		Amount:     stats.Mean(in.PlannedAmounts),
		Confidence: in.BaseConfidence() * 0.7,
		Label:      "Historical Average",
		Family:     FamilyHistory,
	}, true
}
