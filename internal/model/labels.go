package model

// Behavior classifies how a category's spending behaves.
type Behavior string

// Behavior labels, ordered from least to most volatile.
const (
	BehaviorConservative Behavior = "Conservative"
	BehaviorBalanced     Behavior = "Balanced"
	BehaviorVolatile     Behavior = "Volatile"
	BehaviorUnknown      Behavior = "Unknown"
)

// SeasonalPattern describes the monthly shape of a category's budget.
type SeasonalPattern string

// Seasonal pattern labels.
const (
	SeasonalHoliday      SeasonalPattern = "Holiday seasonal"
	SeasonalSummer       SeasonalPattern = "Summer seasonal"
	SeasonalIrregular    SeasonalPattern = "Irregular seasonal"
	SeasonalStable       SeasonalPattern = "Stable"
	SeasonalInsufficient SeasonalPattern = "Insufficient data"
	SeasonalLimited      SeasonalPattern = "Limited data"
	SeasonalUnknown      SeasonalPattern = "Unknown"
)

// Trend is the direction of a category's planned amounts.
type Trend string

// Trend labels.
const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// trendThresholdCents is one dollar of change per period.
const trendThresholdCents = 100

// ClassifyTrend turns a per-period slope in cents into a Trend.
func ClassifyTrend(slope float64) Trend {
	switch {
	case slope > trendThresholdCents:
		return TrendIncreasing
	case slope < -trendThresholdCents:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
