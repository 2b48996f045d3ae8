package ranker

import (
	"context"
	"encoding/json"
	"fmt"

	"tripmatch/domain"
	"tripmatch/pkg/logger"

	"gorm.io/datatypes"
)

// TripRepository is the inventory collaborator: it supplies candidate trip
// occurrences, read-only to the engine.
type TripRepository interface {
	ListAvailable(ctx context.Context) ([]domain.TripCandidate, error)
}

// TrainingExampleWriter appends impression rows on behalf of the logging
// collaborator. The pipeline never writes through this; only the intake
// adapter does.
type TrainingExampleWriter interface {
	SaveExample(ctx context.Context, ex domain.TrainingExample) error
}

// ImpressionEvent is one shown-result record handed in by the logging
// collaborator, echoing back the feature values the rank response carried.
type ImpressionEvent struct {
	SessionID string
	TripID    uint64
	Position  int
	Clicked   bool
	DwellMS   *int64
	Converted *bool
	Features  map[string]float64
	Context   map[string]any
}

// RankerService is the serving facade: normalization, candidate loading,
// top-K selection and the operational controls around the weight store.
type RankerService struct {
	tripRepo      TripRepository
	exampleWriter TrainingExampleWriter
	selector      *Selector
	store         *WeightStore
	pipeline      *Pipeline

	cache    ScoreCache
	defaultK int
	maxK     int
}

func NewRankerService(
	tripRepo TripRepository,
	exampleWriter TrainingExampleWriter,
	selector *Selector,
	store *WeightStore,
	pipeline *Pipeline,
	cache ScoreCache,
	defaultK, maxK int,
) *RankerService {
	if cache == nil {
		cache = NopCache{}
	}
	if defaultK <= 0 {
		defaultK = 10
	}
	if maxK < defaultK {
		maxK = defaultK
	}
	return &RankerService{
		tripRepo:      tripRepo,
		exampleWriter: exampleWriter,
		selector:      selector,
		store:         store,
		pipeline:      pipeline,
		cache:         cache,
		defaultK:      defaultK,
		maxK:          maxK,
	}
}

// Rank normalizes the raw preferences, pulls the candidate pool from
// inventory and returns the top k matches, ordered deterministically.
func (s *RankerService) Rank(ctx context.Context, raw domain.RawPreferences, k int) ([]domain.ScoredTrip, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if k <= 0 {
		k = s.defaultK
	}
	if k > s.maxK {
		k = s.maxK
	}

	rawFP := RawFingerprint(raw)
	prefs, ok := s.cache.GetPreferences(ctx, rawFP)
	if !ok {
		var err error
		prefs, err = NormalizePreferences(raw)
		if err != nil {
			return nil, err
		}
		s.cache.SetPreferences(ctx, rawFP, prefs)
	}

	candidates, err := s.tripRepo.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidate trips: %w", err)
	}

	recs, err := s.selector.SelectTopK(ctx, candidates, prefs, k)
	if err != nil {
		return nil, err
	}

	tid := TraceIDFromContext(ctx)
	logger.Debug("rank served",
		"trace_id", tid,
		"k", k,
		"candidate_count", len(candidates),
		"returned", len(recs),
		"weight_version", s.store.GetActive().Version,
	)
	return recs, nil
}

// RecordImpression validates one logged impression against the live feature
// schema and appends it to the training log.
func (s *RankerService) RecordImpression(ctx context.Context, ev ImpressionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if ev.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if ev.Position < 0 {
		return fmt.Errorf("position must be 0-indexed and non-negative")
	}

	fv, err := FeatureVectorFromMap(ev.Features, SchemaVersion)
	if err != nil {
		return fmt.Errorf("impression features: %w", err)
	}

	raw, err := json.Marshal(fv.Values[:])
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	ex := domain.TrainingExample{
		SessionID:     ev.SessionID,
		TripID:        ev.TripID,
		Position:      ev.Position,
		Clicked:       ev.Clicked,
		DwellMS:       ev.DwellMS,
		Converted:     ev.Converted,
		SchemaVersion: fv.Schema,
		FeaturesRaw:   raw,
		Context:       datatypes.JSONMap(ev.Context),
	}

	if err := s.exampleWriter.SaveExample(ctx, ex); err != nil {
		return fmt.Errorf("save training example: %w", err)
	}
	return nil
}

// ---- administrative surface ----

func (s *RankerService) ActiveWeights() *WeightVector {
	return s.store.GetActive()
}

func (s *RankerService) WeightHistory(ctx context.Context, limit int) ([]*WeightVector, error) {
	return s.store.History(ctx, limit)
}

func (s *RankerService) Rollback(ctx context.Context, version uint64) (*WeightVector, error) {
	return s.store.Rollback(ctx, version)
}

func (s *RankerService) TriggerTraining(ctx context.Context) (*RunReport, error) {
	return s.pipeline.Run(ctx)
}

func (s *RankerService) PipelineState() PipelineState {
	return s.pipeline.State()
}
