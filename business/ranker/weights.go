package ranker

import (
	"time"
)

// WeightVector is a versioned, immutable set of scoring coefficients.
// A new version is always a new object; nothing edits a published vector.
type WeightVector struct {
	Version   uint64              `json:"version"`
	Schema    int                 `json:"schema"`
	Values    [FeatureDim]float64 `json:"values"`
	CreatedAt time.Time           `json:"created_at"`
	Note      string              `json:"note"`
}

// Map renders the weights with named feature keys.
func (w *WeightVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureDim)
	for k := FeatureKey(0); k < FeatureDim; k++ {
		out[k.String()] = w.Values[k]
	}
	return out
}

// DefaultWeightValues seed version 1 when no history exists yet. Hand-tuned
// to be sane before the first training run promotes learned weights.
func DefaultWeightValues() [FeatureDim]float64 {
	var v [FeatureDim]float64
	v[FeatureBaseScore] = 1.0
	v[FeatureThemeMatchCount] = 2.0
	v[FeatureDifficultyDelta] = 1.5
	v[FeatureDurationDelta] = 1.0
	v[FeatureBudgetRatio] = -2.0
	v[FeatureStatusCode] = 0.5
	v[FeatureDaysUntilDeparture] = -0.5
	v[FeatureGeoMatchLevel] = 3.0
	return v
}
