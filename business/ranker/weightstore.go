package ranker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tripmatch/pkg/logger"
)

// WeightHistoryRepository persists the append-only weight history plus the
// pointer naming the currently active version. The history is the only state
// this engine keeps across restarts.
type WeightHistoryRepository interface {
	Append(ctx context.Context, wv *WeightVector) error
	SetActiveVersion(ctx context.Context, version uint64) error
	ActiveVersion(ctx context.Context) (uint64, bool, error)
	Get(ctx context.Context, version uint64) (*WeightVector, bool, error)
	List(ctx context.Context, limit int) ([]*WeightVector, error)
	MaxVersion(ctx context.Context) (uint64, error)
}

// WeightStore holds the live weight snapshot. Reads never block or lock:
// GetActive is a single atomic pointer load, so a publish in flight can
// never hand a reader a half-updated vector.
type WeightStore struct {
	active atomic.Pointer[WeightVector]

	mu          sync.Mutex // guards publish/rollback
	nextVersion uint64
	repo        WeightHistoryRepository
}

func NewWeightStore(repo WeightHistoryRepository) *WeightStore {
	return &WeightStore{repo: repo}
}

// Load restores the active snapshot from history, seeding version 1 with
// default weights when the history is empty.
func (s *WeightStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxVersion, err := s.repo.MaxVersion(ctx)
	if err != nil {
		return fmt.Errorf("load weight history: %w", err)
	}

	if maxVersion == 0 {
		seed := &WeightVector{
			Version:   1,
			Schema:    SchemaVersion,
			Values:    DefaultWeightValues(),
			CreatedAt: time.Now().UTC(),
			Note:      "seed defaults",
		}
		if err := s.repo.Append(ctx, seed); err != nil {
			return fmt.Errorf("seed default weights: %w", err)
		}
		if err := s.repo.SetActiveVersion(ctx, seed.Version); err != nil {
			return fmt.Errorf("activate seed weights: %w", err)
		}
		s.active.Store(seed)
		s.nextVersion = 2
		logger.Info("weight store seeded", "version", seed.Version)
		return nil
	}

	activeVersion, ok, err := s.repo.ActiveVersion(ctx)
	if err != nil {
		return fmt.Errorf("load active weight version: %w", err)
	}
	if !ok {
		activeVersion = maxVersion
	}

	wv, found, err := s.repo.Get(ctx, activeVersion)
	if err != nil {
		return fmt.Errorf("load active weights: %w", err)
	}
	if !found {
		return fmt.Errorf("active weight version %d missing from history", activeVersion)
	}

	s.active.Store(wv)
	s.nextVersion = maxVersion + 1
	logger.Info("weight store loaded", "active_version", wv.Version, "next_version", s.nextVersion)
	return nil
}

// GetActive returns the live snapshot. Never blocks, never returns a
// partially written vector.
func (s *WeightStore) GetActive() *WeightVector {
	return s.active.Load()
}

// Publish appends a new version to history and atomically swaps it in.
// Readers in flight keep the prior snapshot; new readers see the new one.
func (s *WeightStore) Publish(ctx context.Context, values [FeatureDim]float64, note string) (*WeightVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wv := &WeightVector{
		Version:   s.nextVersion,
		Schema:    SchemaVersion,
		Values:    values,
		CreatedAt: time.Now().UTC(),
		Note:      note,
	}

	if err := s.repo.Append(ctx, wv); err != nil {
		return nil, fmt.Errorf("persist weight version %d: %w", wv.Version, err)
	}
	// The history row exists even if activation fails below; the version
	// number is spent either way.
	s.nextVersion++

	if err := s.repo.SetActiveVersion(ctx, wv.Version); err != nil {
		return nil, fmt.Errorf("activate weight version %d: %w", wv.Version, err)
	}

	s.active.Store(wv)
	ActiveWeightVersion.Set(float64(wv.Version))

	logger.Info("weights published", "version", wv.Version, "note", note)
	return wv, nil
}

// Rollback re-activates an exact historical version. The history stays
// append-only; only the active pointer moves.
func (s *WeightStore) Rollback(ctx context.Context, version uint64) (*WeightVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wv, found, err := s.repo.Get(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("load weight version %d: %w", version, err)
	}
	if !found {
		return nil, fmt.Errorf("rollback to version %d: %w", version, ErrVersionNotFound)
	}

	if err := s.repo.SetActiveVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("activate weight version %d: %w", version, err)
	}

	s.active.Store(wv)
	ActiveWeightVersion.Set(float64(wv.Version))

	logger.Warn("weights rolled back", "version", version)
	return wv, nil
}

// History lists past versions, most recent first.
func (s *WeightStore) History(ctx context.Context, limit int) ([]*WeightVector, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit)
}
