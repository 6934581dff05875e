package clustering

import (
	"log/slog"
	"sort"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

// minBehaviorSamples is the fewest feature vectors worth clustering.
const minBehaviorSamples = 3

// Column order of the behavior feature matrix.
const (
	colAccuracy = iota
	colVolatility
	colFrequency
	colTrend
	behaviorColumns
)

// CategoryBehaviors labels each category Conservative, Balanced or Volatile.
// Every feature vector is one sample; features are min-max scaled and
// clustered into at most three groups. Groups are ranked by mean scaled
// volatility (ties broken by higher mean accuracy) so the labels carry meaning
// regardless of k-means numbering. A category takes the label of its most
// recent vector. Fewer than three vectors yields an empty mapping.
func CategoryBehaviors(vectors []model.FeatureVector) map[int64]model.Behavior {
	out := make(map[int64]model.Behavior)
	if len(vectors) < minBehaviorSamples {
		return out
	}

	points := MinMaxScale(behaviorMatrix(vectors))

	k := min(3, len(points), DistinctRows(points))
	res, err := KMeans(points, KMeansOptions{K: k})
	if err != nil {
		slog.Warn("Category clustering failed", "error", err, "samples", len(points))
		return out
	}

	labels := rankBehaviors(points, res.Labels, len(res.Centroids))

	latest := make(map[int64]int)
	for i, v := range vectors {
		if j, ok := latest[v.CategoryID]; !ok || !v.PeriodStart.Before(vectors[j].PeriodStart) {
			latest[v.CategoryID] = i
		}
	}
	for id, i := range latest {
		out[id] = labels[res.Labels[i]]
	}
	return out
}

func behaviorMatrix(vectors []model.FeatureVector) [][]float64 {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, behaviorColumns)
		row[colAccuracy] = stats.Finite(v.BudgetAccuracy, 0)
		row[colVolatility] = stats.Finite(v.SpendingVolatility, 0)
		row[colFrequency] = stats.Finite(v.SpendingFrequency, 0)
		row[colTrend] = stats.Finite(v.HistoricalTrend, 0)
		rows[i] = row
	}
	return rows
}

// rankBehaviors maps cluster ids to labels by ascending mean volatility.
func rankBehaviors(points [][]float64, labels []int, k int) map[int]model.Behavior {
	type summary struct {
		volatility float64
		accuracy   float64
		id         int
	}

	sums := make([]summary, k)
	counts := make([]int, k)
	for i, p := range points {
		c := labels[i]
		sums[c].id = c
		sums[c].volatility += p[colVolatility]
		sums[c].accuracy += p[colAccuracy]
		counts[c]++
	}
	for c := range sums {
		if counts[c] > 0 {
			sums[c].volatility /= float64(counts[c])
			sums[c].accuracy /= float64(counts[c])
		}
	}

	sort.SliceStable(sums, func(i, j int) bool {
		if sums[i].volatility != sums[j].volatility {
			return sums[i].volatility < sums[j].volatility
		}
		return sums[i].accuracy > sums[j].accuracy
	})

	var order []model.Behavior
	switch k {
	case 1:
		order = []model.Behavior{model.BehaviorBalanced}
	case 2:
		order = []model.Behavior{model.BehaviorConservative, model.BehaviorVolatile}
	default:
		order = []model.Behavior{model.BehaviorConservative, model.BehaviorBalanced, model.BehaviorVolatile}
	}

	out := make(map[int]model.Behavior, k)
	for rank, s := range sums {
		out[s.id] = order[min(rank, len(order)-1)]
	}
	return out
}

// MinMaxScale rescales every column to [0,1]. Constant columns become 0.
func MinMaxScale(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	dim := len(rows[0])
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	copy(lo, rows[0])
	copy(hi, rows[0])
	for _, r := range rows[1:] {
		for d, v := range r {
			lo[d] = min(lo[d], v)
			hi[d] = max(hi[d], v)
		}
	}

	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, dim)
		for d, v := range r {
			if span := hi[d] - lo[d]; span > 0 {
				scaled[d] = (v - lo[d]) / span
			}
		}
		out[i] = scaled
	}
	return out
}

// StandardScale centers every column and divides by its population standard
// deviation. Constant columns become 0.
func StandardScale(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	dim := len(rows[0])
	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = make([]float64, dim)
	}
	col := make([]float64, len(rows))
	for d := 0; d < dim; d++ {
		for i, r := range rows {
			col[i] = r[d]
		}
		mean, std := stats.Mean(col), stats.PopStd(col)
		for i, r := range rows {
			if std > 0 {
				out[i][d] = (r[d] - mean) / std
			}
		}
	}
	return out
}
