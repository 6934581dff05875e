// Package seasonal classifies the monthly shape of each category's budget.
package seasonal

import (
	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

const (
	minPeriods      = 4
	minMonths       = 3
	variationCutoff = 0.3
	monthsInYear    = 12
)

var (
	holidayMonths = map[int]bool{11: true, 12: true, 1: true}
	summerMonths  = map[int]bool{6: true, 7: true, 8: true}
)

// Detect labels every category found in vectors.
func Detect(vectors []model.FeatureVector) map[int64]model.SeasonalPattern {
	order, groups := model.GroupByCategory(vectors)
	out := make(map[int64]model.SeasonalPattern, len(order))
	for _, id := range order {
		out[id] = Classify(groups[id])
	}
	return out
}

// Classify labels one category's vectors by the spread of its monthly mean
// planned amounts and the months where those amounts peak.
func Classify(vectors []model.FeatureVector) model.SeasonalPattern {
	if len(vectors) < minPeriods {
		return model.SeasonalInsufficient
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, v := range vectors {
		sums[v.Month] += v.TargetAmount
		counts[v.Month]++
	}
	if len(sums) < minMonths {
		return model.SeasonalLimited
	}

	monthly := make(map[int]float64, len(sums))
	values := make([]float64, 0, len(sums))
	for m := 1; m <= monthsInYear; m++ {
		if n, ok := counts[m]; ok {
			monthly[m] = sums[m] / float64(n)
			values = append(values, monthly[m])
		}
	}

	mean := stats.Mean(values)
	var cv float64
	if mean > 0 {
		cv = stats.SampleStd(values) / mean
	}
	if cv < variationCutoff {
		return model.SeasonalStable
	}

	series := make([]float64, monthsInYear)
	for i := range series {
		if v, ok := monthly[i+1]; ok {
			series[i] = v
		} else {
			series[i] = mean
		}
	}

	peaks := PeakMonths(series, mean)
	if len(peaks) == 0 {
		return model.SeasonalStable
	}
	for _, m := range peaks {
		if holidayMonths[m] {
			return model.SeasonalHoliday
		}
	}
	for _, m := range peaks {
		if summerMonths[m] {
			return model.SeasonalSummer
		}
	}
	return model.SeasonalIrregular
}

// PeakMonths returns the 1-based positions of local maxima in series whose
// value exceeds height. A peak must be strictly higher than both neighbours;
// a flat top counts once, at its middle. The first and last values are never
// peaks.
func PeakMonths(series []float64, height float64) []int {
	var peaks []int
	n := len(series)
	i := 1
	for i < n-1 {
		if series[i-1] < series[i] {
			ahead := i + 1
			for ahead < n-1 && series[ahead] == series[i] {
				ahead++
			}
			if series[ahead] < series[i] {
				mid := (i + ahead - 1) / 2
				if series[mid] > height {
					peaks = append(peaks, mid+1)
				}
				i = ahead
				continue
			}
		}
		i++
	}
	return peaks
}
