package ensemble

import (
	"fmt"
	"math"

	"github.com/sajari/regression"

	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/stats"
)

// DefaultAlpha is the ridge penalty.
const DefaultAlpha = 1.0

var errEmptyTraining = fmt.Errorf("%w: no training rows", common.ErrInsufficientData)

// Linear is an L2-regularized least-squares model.
//
// The penalty is expressed as extra observations: for every column j the
// rows +sqrt(alpha/2)*e_j and -sqrt(alpha/2)*e_j with target 0. On
// standardized inputs and a centered target this leaves the intercept at 0
// and solves (XᵀX + alpha·I)β = Xᵀy.
type Linear struct {
	reg    *regression.Regression
	offset float64
}

// FitLinear trains a ridge model. Inputs should already be standardized.
func FitLinear(x [][]float64, y []float64, alpha float64) (*Linear, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errEmptyTraining
	}
	dim := len(x[0])
	offset := stats.Mean(y)

	r := new(regression.Regression)
	r.SetObserved("budget")
	for i := 0; i < dim; i++ {
		name := fmt.Sprintf("x%d", i)
		if i < len(FeatureNames) && dim == len(FeatureNames) {
			name = FeatureNames[i]
		}
		r.SetVar(i, name)
	}

	for i, row := range x {
		r.Train(regression.DataPoint(y[i]-offset, row))
	}
	if alpha > 0 {
		w := math.Sqrt(alpha / 2)
		for j := 0; j < dim; j++ {
			for _, sign := range []float64{1, -1} {
				row := make([]float64, dim)
				row[j] = sign * w
				r.Train(regression.DataPoint(0, row))
			}
		}
	}

	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("failed to fit ridge model: %w", err)
	}
	return &Linear{reg: r, offset: offset}, nil
}

// Predict evaluates the model for one standardized row.
func (l *Linear) Predict(row []float64) (float64, error) {
	p, err := l.reg.Predict(row)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate ridge model: %w", err)
	}
	return l.offset + p, nil
}

// Coefficients returns the intercept followed by one weight per column.
func (l *Linear) Coefficients() []float64 {
	return l.reg.GetCoeffs()
}
