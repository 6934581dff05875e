package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/GitLars0/budget-forecast/internal/common"
	"github.com/GitLars0/budget-forecast/internal/model"
)

// MinTrainingSamples is the fewest vectors a request needs before any model
// is trained.
const MinTrainingSamples = 5

// Model names reported alongside predictions.
const (
	ModelLinear = "linear"
	ModelForest = "forest"
)

// Prediction is one model's suggested amount in cents.
type Prediction struct {
	Model string
	Value float64
}

// Ensemble is the set of models trained for a single request. A nil
// *Ensemble is valid and predicts nothing.
type Ensemble struct {
	scaler     *Scaler
	linear     *Linear
	forest     *Forest
	importance map[string]float64
	samples    int
}

// Train fits the linear and forest models on every vector of the request.
// It returns nil when there are too few vectors, when ctx expires, or when
// fitting fails; failures are logged rather than returned.
func Train(ctx context.Context, vectors []model.FeatureVector) (e *Ensemble) {
	defer func() {
		if r := recover(); r != nil {
			common.LogWarn(ctx, "Model training panicked", common.Fields{"panic": fmt.Sprint(r)})
			e = nil
		}
	}()

	e, err := fit(ctx, vectors)
	switch {
	case errors.Is(err, common.ErrInsufficientData):
		common.Logger(ctx).Debug("Skipping model training", "samples", len(vectors), "required", MinTrainingSamples)
		return nil
	case err != nil:
		common.LogWarn(ctx, "Failed to train models", common.Fields{"error": err.Error()})
		return nil
	}

	common.Logger(ctx).Info("Trained models", "samples", len(vectors))
	return e
}

// fit trains both models. Errors wrap common.ErrInsufficientData below
// MinTrainingSamples and common.ErrFitFailed when a model cannot be fitted.
func fit(ctx context.Context, vectors []model.FeatureVector) (*Ensemble, error) {
	if len(vectors) < MinTrainingSamples {
		return nil, fmt.Errorf("%w: %d vectors, need %d", common.ErrInsufficientData, len(vectors), MinTrainingSamples)
	}

	rows := make([][]float64, len(vectors))
	targets := make([]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = Row(v)
		targets[i] = Target(v)
	}

	scaler := FitScaler(rows)
	x := scaler.TransformAll(rows)

	linear, err := FitLinear(x, targets, DefaultAlpha)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrFitFailed, ModelLinear, err)
	}

	forest, err := FitForest(ctx, x, targets, DefaultForestOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrFitFailed, ModelForest, err)
	}

	importance := make(map[string]float64, len(FeatureNames))
	for i, v := range forest.Importance() {
		importance[FeatureNames[i]] = v
	}

	return &Ensemble{
		scaler:     scaler,
		linear:     linear,
		forest:     forest,
		importance: importance,
		samples:    len(vectors),
	}, nil
}

// Predict asks every model for an amount for the category described by
// latest, moved to targetMonth. Only finite, non-negative outputs are kept.
func (e *Ensemble) Predict(ctx context.Context, latest model.FeatureVector, targetMonth int) []Prediction {
	if e == nil {
		return nil
	}

	row := e.scaler.Transform(Row(ForTarget(latest, targetMonth)))

	var out []Prediction
	keep := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			common.LogWarn(ctx, "Discarding invalid model prediction", common.Fields{
				"model":       name,
				"value":       v,
				"category_id": latest.CategoryID,
			})
			return
		}
		out = append(out, Prediction{Model: name, Value: v})
	}

	if v, err := e.linear.Predict(row); err != nil {
		common.LogWarn(ctx, "Linear model prediction failed", common.Fields{"error": err.Error()})
	} else {
		keep(ModelLinear, v)
	}
	keep(ModelForest, e.forest.Predict(row))

	return out
}

// FeatureImportance returns a copy of the forest's importance per feature.
func (e *Ensemble) FeatureImportance() map[string]float64 {
	if e == nil {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(e.importance))
	for k, v := range e.importance {
		out[k] = v
	}
	return out
}

// Samples is the number of vectors the models were trained on.
func (e *Ensemble) Samples() int {
	if e == nil {
		return 0
	}
	return e.samples
}
