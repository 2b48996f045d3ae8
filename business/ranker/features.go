package ranker

import (
	"time"

	"tripmatch/domain"
)

// SchemaVersion ties the feature extractor to the weight vectors it can be
// scored against. Bump it whenever a feature is added, removed or re-encoded,
// and retrain before deploying.
const SchemaVersion = 1

// FeatureKey enumerates the closed feature set. Dense array storage keeps
// scoring a fixed-size dot product and makes a missing/extra key impossible
// to construct.
type FeatureKey int

const (
	FeatureBaseScore FeatureKey = iota
	FeatureThemeMatchCount
	FeatureDifficultyDelta
	FeatureDurationDelta
	FeatureBudgetRatio
	FeatureStatusCode
	FeatureDaysUntilDeparture
	FeatureGeoMatchLevel

	FeatureDim
)

var featureKeyNames = [FeatureDim]string{
	"base_score",
	"theme_match_count",
	"difficulty_delta",
	"duration_delta",
	"budget_ratio",
	"status_code",
	"days_until_departure",
	"geo_match_level",
}

func (k FeatureKey) String() string {
	if k < 0 || k >= FeatureDim {
		return "unknown"
	}
	return featureKeyNames[k]
}

// FeatureVector is the fixed-schema numeric encoding of one
// (trip, preferences) pair.
type FeatureVector struct {
	Schema int                 `json:"schema"`
	Values [FeatureDim]float64 `json:"values"`
}

// Map renders the vector with named keys, for responses and logged examples.
func (fv FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureDim)
	for k := FeatureKey(0); k < FeatureDim; k++ {
		out[k.String()] = fv.Values[k]
	}
	return out
}

// FeatureVectorFromMap rebuilds a vector from a named-key map, e.g. one
// echoed back by the logging collaborator. Every key must be known and every
// known key present, otherwise the schema no longer matches.
func FeatureVectorFromMap(m map[string]float64, schema int) (FeatureVector, error) {
	if schema != SchemaVersion || len(m) != int(FeatureDim) {
		return FeatureVector{}, ErrSchemaMismatch
	}

	var fv FeatureVector
	fv.Schema = schema
	for k := FeatureKey(0); k < FeatureDim; k++ {
		v, ok := m[k.String()]
		if !ok {
			return FeatureVector{}, ErrSchemaMismatch
		}
		fv.Values[k] = v
	}
	return fv, nil
}

// Geo match levels: 0 = no match, 1 = continent match, 2 = country match.
const (
	geoMatchNone      = 0.0
	geoMatchContinent = 1.0
	geoMatchCountry   = 2.0
)

// ExtractFeatures encodes how well a trip occurrence matches the given
// preferences. Pure and deterministic: the reference time is passed in so
// one request scores every candidate against the same clock.
func ExtractFeatures(trip domain.TripCandidate, prefs domain.SearchPreferences, now time.Time) FeatureVector {
	var fv FeatureVector
	fv.Schema = SchemaVersion

	fv.Values[FeatureBaseScore] = 1.0
	fv.Values[FeatureThemeMatchCount] = themeMatchCount(trip.ThemeIDs, prefs.ThemeIDs)
	fv.Values[FeatureDifficultyDelta] = difficultyDelta(trip.Difficulty, prefs.Difficulty)
	fv.Values[FeatureDurationDelta] = durationDelta(trip.DurationDays, prefs.MinDurationDays, prefs.MaxDurationDays)
	fv.Values[FeatureBudgetRatio] = budgetRatio(trip.Price, prefs.BudgetCeiling)
	fv.Values[FeatureStatusCode] = statusCode(trip.Status)
	fv.Values[FeatureDaysUntilDeparture] = daysUntilDeparture(trip.DepartureDate, now)
	fv.Values[FeatureGeoMatchLevel] = geoMatchLevel(trip, prefs)

	return fv
}

// themeMatchCount counts distinct shared theme IDs. Preferences are sorted
// and deduped by normalization, but trip themes come straight from the
// inventory column in stored order and may repeat.
func themeMatchCount(tripThemes, prefThemes []uint) float64 {
	if len(tripThemes) == 0 || len(prefThemes) == 0 {
		return 0
	}
	wanted := make(map[uint]bool, len(prefThemes))
	for _, id := range prefThemes {
		wanted[id] = false
	}
	count := 0
	for _, id := range tripThemes {
		if matched, ok := wanted[id]; ok && !matched {
			wanted[id] = true
			count++
		}
	}
	return float64(count)
}

// difficultyDelta is the negated absolute distance from the target
// difficulty; 0 when no target is set.
func difficultyDelta(tripDifficulty int, target *int) float64 {
	if target == nil {
		return 0
	}
	d := tripDifficulty - *target
	if d < 0 {
		d = -d
	}
	return -float64(d)
}

// durationDelta is 0 inside the requested range and the negated distance in
// days outside it. Missing bounds are open.
func durationDelta(days int, minDays, maxDays *int) float64 {
	if minDays != nil && days < *minDays {
		return -float64(*minDays - days)
	}
	if maxDays != nil && days > *maxDays {
		return -float64(days - *maxDays)
	}
	return 0
}

// budgetRatio encodes price pressure against the budget ceiling: 0 when no
// ceiling is set, otherwise price/ceiling capped at 4 so one overpriced trip
// cannot dominate the gradient.
func budgetRatio(price float64, ceiling *float64) float64 {
	if ceiling == nil || *ceiling <= 0 {
		return 0
	}
	r := price / *ceiling
	if r > 4 {
		r = 4
	}
	return r
}

// statusCode: guaranteed departures rank above plain availability, last
// places in between.
func statusCode(status string) float64 {
	switch status {
	case domain.TripStatusGuaranteed:
		return 2
	case domain.TripStatusLastPlaces:
		return 1
	default:
		return 0
	}
}

// daysUntilDeparture in whole days, clamped to [0, 365] and scaled to [0, 1].
func daysUntilDeparture(departure, now time.Time) float64 {
	days := departure.Sub(now).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days > 365 {
		days = 365
	}
	return float64(int(days)) / 365
}

func geoMatchLevel(trip domain.TripCandidate, prefs domain.SearchPreferences) float64 {
	for _, id := range prefs.CountryIDs {
		if id == trip.CountryID {
			return geoMatchCountry
		}
	}
	for _, c := range prefs.Continents {
		if c == trip.Continent {
			return geoMatchContinent
		}
	}
	if len(prefs.CountryIDs) == 0 && len(prefs.Continents) == 0 {
		// no geo filter at all: neutral continent-level credit
		return geoMatchContinent
	}
	return geoMatchNone
}
