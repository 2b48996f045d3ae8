package ranker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tripmatch/domain"

	"github.com/stretchr/testify/assert"
)

type memTripRepo struct {
	trips []domain.TripCandidate
	calls int
}

func (r *memTripRepo) ListAvailable(_ context.Context) ([]domain.TripCandidate, error) {
	r.calls++
	return r.trips, nil
}

type captureWriter struct {
	saved []domain.TrainingExample
}

func (w *captureWriter) SaveExample(_ context.Context, ex domain.TrainingExample) error {
	w.saved = append(w.saved, ex)
	return nil
}

func newTestService(t *testing.T, trips []domain.TripCandidate) (*RankerService, *captureWriter) {
	t.Helper()
	store, _ := newTestStore(t)
	writer := &captureWriter{}
	selector := NewSelector(store, nil, 4)
	pipeline := NewPipeline(&memExampleRepo{}, store, DefaultTrainingConfig())

	svc := NewRankerService(&memTripRepo{trips: trips}, writer, selector, store, pipeline, nil, 10, 100)
	return svc, writer
}

func serviceTrips() []domain.TripCandidate {
	departure := time.Now().AddDate(0, 2, 0)
	return []domain.TripCandidate{
		{ID: 1, ThemeIDs: []uint{1, 2}, Status: domain.TripStatusGuaranteed, DepartureDate: departure},
		{ID: 2, ThemeIDs: []uint{1}, Status: domain.TripStatusAvailable, DepartureDate: departure},
		{ID: 3, ThemeIDs: []uint{9}, Status: domain.TripStatusAvailable, DepartureDate: departure},
	}
}

func TestRankReturnsDeterministicOrdering(t *testing.T) {
	svc, _ := newTestService(t, serviceTrips())
	raw := domain.RawPreferences{ThemeIDs: []uint{2, 1}}

	first, err := svc.Rank(context.Background(), raw, 3)
	assert.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Equal(t, uint64(1), first[0].TripID)

	second, err := svc.Rank(context.Background(), raw, 3)
	assert.NoError(t, err)

	a, err := json.Marshal(first)
	assert.NoError(t, err)
	b, err := json.Marshal(second)
	assert.NoError(t, err)
	assert.Equal(t, string(a), string(b), "identical requests produce identical responses")
}

func TestRankClampsK(t *testing.T) {
	svc, _ := newTestService(t, serviceTrips())

	// k <= 0 falls back to the default
	got, err := svc.Rank(context.Background(), domain.RawPreferences{}, -5)
	assert.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = svc.Rank(context.Background(), domain.RawPreferences{}, 2)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRankRejectsInvalidPreferences(t *testing.T) {
	svc, _ := newTestService(t, serviceTrips())

	_, err := svc.Rank(context.Background(), domain.RawPreferences{
		MinDurationDays: intPtr(10),
		MaxDurationDays: intPtr(3),
	}, 5)
	assert.ErrorIs(t, err, ErrInvalidPreferences)
}

func TestRecordImpressionPersistsValidatedFeatures(t *testing.T) {
	svc, writer := newTestService(t, serviceTrips())

	fv := ExtractFeatures(serviceTrips()[0], domain.SearchPreferences{}, time.Now())
	err := svc.RecordImpression(context.Background(), ImpressionEvent{
		SessionID: "sess-1",
		TripID:    1,
		Position:  0,
		Clicked:   true,
		Features:  fv.Map(),
	})
	assert.NoError(t, err)
	assert.Len(t, writer.saved, 1)

	saved := writer.saved[0]
	assert.Equal(t, "sess-1", saved.SessionID)
	assert.Equal(t, SchemaVersion, saved.SchemaVersion)

	var values []float64
	assert.NoError(t, json.Unmarshal(saved.FeaturesRaw, &values))
	assert.Len(t, values, int(FeatureDim))
	assert.Equal(t, fv.Values[:], values)
}

func TestRecordImpressionValidation(t *testing.T) {
	svc, writer := newTestService(t, serviceTrips())
	features := ExtractFeatures(serviceTrips()[0], domain.SearchPreferences{}, time.Now()).Map()

	err := svc.RecordImpression(context.Background(), ImpressionEvent{
		TripID:   1,
		Features: features,
	})
	assert.Error(t, err, "session id is required")

	err = svc.RecordImpression(context.Background(), ImpressionEvent{
		SessionID: "sess-1",
		Position:  -1,
		Features:  features,
	})
	assert.Error(t, err, "position must be non-negative")

	err = svc.RecordImpression(context.Background(), ImpressionEvent{
		SessionID: "sess-1",
		Features:  map[string]float64{"base_score": 1},
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	assert.Empty(t, writer.saved)
}
