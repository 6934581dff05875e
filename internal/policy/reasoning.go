package policy

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GitLars0/budget-forecast/internal/model"
)

// notableDifferenceCents is the smallest difference worth mentioning.
const notableDifferenceCents = 50

// Reasoning explains a decision in a few "; "-separated clauses.
func Reasoning(in Input, d Decision) string {
	var reasons []string
	diff := d.Amount - in.BudgetAvg

	switch d.Family {
	case FamilyAccurateBudgeter:
		reasons = append(reasons, "Maintaining budget "+dollars(in.BudgetAvg)+" (accurate budgeter)")
		if math.Abs(diff) > notableDifferenceCents {
			if diff > 0 {
				reasons = append(reasons, "small "+signedDollars(diff)+" inflation buffer")
			} else {
				reasons = append(reasons, signedDollars(diff)+" adjustment")
			}
		}
	case FamilyPeer:
		reasons = append(reasons, "Based on similar users: "+dollars(d.Amount))
		if in.BudgetAvg > 0 && math.Abs(diff) > notableDifferenceCents {
			reasons = append(reasons, "peers suggest "+signedDollars(diff)+" vs your history")
		}
	case FamilyStableHistory:
		reasons = append(reasons, "Based on budget average "+dollars(in.BudgetAvg)+" (stable pattern)")
	case FamilyHistory:
		reasons = append(reasons, "Based on budget average "+dollars(in.BudgetAvg))
	default:
		reasons = append(reasons, "Conservative ML prediction", "budget average "+dollars(in.BudgetAvg))
		if math.Abs(diff) > notableDifferenceCents {
			reasons = append(reasons, "ML suggests "+signedDollars(diff)+" adjustment")
		}
	}

	if in.SpendingAvg > 0 {
		reasons = append(reasons, "spending avg "+dollars(in.SpendingAvg))
	}

	switch {
	case d.Family == FamilyAccurateBudgeter:
		reasons = append(reasons, "consistent spending pattern")
	case in.Behavior != "" && in.Behavior != model.BehaviorUnknown:
		reasons = append(reasons, strings.ToLower(string(in.Behavior))+" spending pattern")
	}

	switch in.Seasonal {
	case model.SeasonalHoliday, model.SeasonalSummer, model.SeasonalIrregular:
		reasons = append(reasons, strings.ToLower(string(in.Seasonal))+" budget")
	}

	if in.HistoricalCount < 3 {
		reasons = append(reasons, "(limited historical data)")
	}

	return strings.Join(reasons, "; ")
}

// dollars renders an amount in cents as "$12.34", rounding to the cent.
func dollars(cents float64) string {
	d := decimal.NewFromFloat(cents).Shift(-2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// signedDollars is dollars with an explicit sign.
func signedDollars(cents float64) string {
	if cents >= 0 {
		return "+" + dollars(cents)
	}
	return dollars(cents)
}
