package ranker

import "fmt"

// Score computes the linear match score: the dot product of the feature
// vector and the weight vector. Both sides carry a schema version standing
// in for their key set; a disagreement is an error, never a zero-fill.
//
// Safe for concurrent use: weight vectors are immutable once published.
func Score(fv FeatureVector, wv *WeightVector) (float64, error) {
	if wv == nil {
		return 0, fmt.Errorf("score: nil weight vector")
	}
	if fv.Schema != wv.Schema {
		return 0, fmt.Errorf("score: feature schema %d vs weight schema %d: %w",
			fv.Schema, wv.Schema, ErrSchemaMismatch)
	}

	sum := 0.0
	for i := 0; i < int(FeatureDim); i++ {
		sum += fv.Values[i] * wv.Values[i]
	}
	return sum, nil
}
