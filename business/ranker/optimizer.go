package ranker

import (
	"fmt"
	"math"
)

// TrainingInstance is one prepared example: the feature values shown, the
// click label and the 0-indexed rank position it was shown at.
type TrainingInstance struct {
	Features [FeatureDim]float64
	Label    float64
	Position int
}

// Gradient is the per-key partial derivative of the position-weighted
// binary cross-entropy loss.
type Gradient [FeatureDim]float64

// positionWeight corrects for position bias: a non-click at an early rank
// carries more signal than one far down the list.
func positionWeight(position int) float64 {
	if position < 0 {
		position = 0
	}
	return 1.0 / (1.0 + float64(position))
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// predictClick is the model: p(click) = sigmoid(w · x).
func predictClick(weights, features [FeatureDim]float64) float64 {
	z := 0.0
	for i := 0; i < int(FeatureDim); i++ {
		z += weights[i] * features[i]
	}
	return sigmoid(z)
}

// ComputeGradient evaluates the batch under the given weights and returns
// the descent gradient together with the mean position-weighted loss.
// Pure function; same inputs always produce the same outputs.
func ComputeGradient(weights [FeatureDim]float64, batch []TrainingInstance) (Gradient, float64) {
	var grad Gradient
	if len(batch) == 0 {
		return grad, 0
	}

	loss := 0.0
	for _, ex := range batch {
		p := predictClick(weights, ex.Features)
		pw := positionWeight(ex.Position)

		loss += pw * bceLoss(ex.Label, p)

		// d/dw of pw * BCE(label, sigmoid(w·x)) = pw * (p - label) * x
		for i := 0; i < int(FeatureDim); i++ {
			grad[i] += (p - ex.Label) * pw * ex.Features[i]
		}
	}

	n := float64(len(batch))
	for i := range grad {
		grad[i] /= n
	}
	return grad, loss / n
}

// bceLoss with clamped probabilities so a saturated sigmoid never yields an
// infinite loss term.
func bceLoss(label, p float64) float64 {
	const eps = 1e-12
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return -(label*math.Log(p) + (1-label)*math.Log(1-p))
}

// ApplyUpdate takes one gradient-descent step and re-applies constraints:
// the base-score weight is clamped non-negative. A non-finite result aborts
// the whole training run with Divergence.
func ApplyUpdate(weights [FeatureDim]float64, grad Gradient, learningRate float64) ([FeatureDim]float64, error) {
	var next [FeatureDim]float64
	for i := 0; i < int(FeatureDim); i++ {
		next[i] = weights[i] - learningRate*grad[i]
		if math.IsNaN(next[i]) || math.IsInf(next[i], 0) {
			return weights, fmt.Errorf("weight %s non-finite after update: %w",
				FeatureKey(i), ErrDivergence)
		}
	}

	if next[FeatureBaseScore] < 0 {
		next[FeatureBaseScore] = 0
	}
	return next, nil
}

// ValidationLoss evaluates weights on a held-out partition without updating
// anything.
func ValidationLoss(weights [FeatureDim]float64, batch []TrainingInstance) float64 {
	_, loss := ComputeGradient(weights, batch)
	return loss
}
