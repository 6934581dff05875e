package ensemble

import (
	"github.com/GitLars0/budget-forecast/internal/stats"
)

// Scaler standardizes columns to zero mean and unit variance using the
// statistics of the rows it was fitted on.
type Scaler struct {
	mean []float64
	std  []float64
}

// FitScaler computes column means and population standard deviations.
func FitScaler(rows [][]float64) *Scaler {
	if len(rows) == 0 {
		return &Scaler{}
	}
	dim := len(rows[0])
	s := &Scaler{mean: make([]float64, dim), std: make([]float64, dim)}
	col := make([]float64, len(rows))
	for d := 0; d < dim; d++ {
		for i, r := range rows {
			col[i] = r[d]
		}
		s.mean[d] = stats.Mean(col)
		s.std[d] = stats.PopStd(col)
	}
	return s
}

// Transform scales one row. Zero-variance columns map to 0.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for d, v := range row {
		if d >= len(s.mean) {
			out[d] = v
			continue
		}
		if s.std[d] > 0 {
			out[d] = (v - s.mean[d]) / s.std[d]
		}
	}
	return out
}

// TransformAll scales every row.
func (s *Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.Transform(r)
	}
	return out
}
