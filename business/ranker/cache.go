package ranker

import (
	"context"

	"tripmatch/domain"
)

// ScoreCache fronts the scoring path with two independent caches:
// normalized preferences keyed by the raw payload fingerprint (long TTL) and
// per-trip scores keyed by (trip ID, preference fingerprint, weight version)
// (short TTL). Binding the weight version into the score key is what makes a
// weight deployment invalidate every stale score at once.
//
// Implementations must degrade gracefully: a backend failure is reported as
// a miss, never as an error to the caller. Caching is an optimization here,
// not a correctness dependency.
type ScoreCache interface {
	GetScore(ctx context.Context, tripID uint64, fingerprint string, weightVersion uint64) (domain.ScoredTrip, bool)
	SetScore(ctx context.Context, fingerprint string, st domain.ScoredTrip)

	GetPreferences(ctx context.Context, rawFingerprint string) (domain.SearchPreferences, bool)
	SetPreferences(ctx context.Context, rawFingerprint string, prefs domain.SearchPreferences)
}

// NopCache disables caching entirely; every lookup is a miss.
type NopCache struct{}

func (NopCache) GetScore(context.Context, uint64, string, uint64) (domain.ScoredTrip, bool) {
	return domain.ScoredTrip{}, false
}

func (NopCache) SetScore(context.Context, string, domain.ScoredTrip) {}

func (NopCache) GetPreferences(context.Context, string) (domain.SearchPreferences, bool) {
	return domain.SearchPreferences{}, false
}

func (NopCache) SetPreferences(context.Context, string, domain.SearchPreferences) {}
