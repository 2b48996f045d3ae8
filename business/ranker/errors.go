package ranker

import "errors"

var (
	// ErrInvalidPreferences marks malformed or contradictory search filters.
	// Surfaced to the caller immediately, never retried.
	ErrInvalidPreferences = errors.New("invalid preferences")

	// ErrSchemaMismatch marks a feature/weight key-set disagreement. Fatal to
	// the current request; indicates an extractor/weight deployment skew that
	// has to be fixed out-of-band.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrInsufficientTrainingData aborts a training run before any update is
	// attempted.
	ErrInsufficientTrainingData = errors.New("insufficient training data")

	// ErrDivergence marks numeric instability during a gradient update. The
	// whole run is discarded; active weights stay in force.
	ErrDivergence = errors.New("weight update diverged")

	// ErrCacheUnavailable marks a transient cache backend failure. Callers
	// fall back to direct computation; never surfaced over the API.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrRunInProgress is returned when a training run is triggered while
	// another one holds the run lock.
	ErrRunInProgress = errors.New("training run already in progress")

	// ErrVersionNotFound is returned by rollback for an unknown weight version.
	ErrVersionNotFound = errors.New("weight version not found")
)
