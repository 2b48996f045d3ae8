package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"tripmatch/business/ranker"
	"tripmatch/domain"

	"github.com/stretchr/testify/assert"
)

type stubEventService struct {
	got ranker.ImpressionEvent
	err error
}

func (s *stubEventService) RecordImpression(_ context.Context, ev ranker.ImpressionEvent) error {
	s.got = ev
	return s.err
}

func testNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func impressionBody(t *testing.T) string {
	t.Helper()
	features := ranker.ExtractFeatures(domain.TripCandidate{ID: 7}, domain.SearchPreferences{}, testNow()).Map()
	body, err := json.Marshal(map[string]any{
		"session_id": "sess-abc",
		"trip_id":    7,
		"position":   2,
		"clicked":    true,
		"features":   features,
	})
	assert.NoError(t, err)
	return string(body)
}

func TestLogImpressionRecordsEvent(t *testing.T) {
	svc := &stubEventService{}
	h := NewEventHandler(svc)

	rec := performJSON(h.LogImpression, http.MethodPost, "/api/v1/events", impressionBody(t))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sess-abc", svc.got.SessionID)
	assert.Equal(t, uint64(7), svc.got.TripID)
	assert.Equal(t, 2, svc.got.Position)
	assert.True(t, svc.got.Clicked)
	assert.Len(t, svc.got.Features, int(ranker.FeatureDim))
}

func TestLogImpressionRequiresSessionAndFeatures(t *testing.T) {
	h := NewEventHandler(&stubEventService{})

	rec := performJSON(h.LogImpression, http.MethodPost, "/api/v1/events",
		`{"trip_id": 7, "position": 0, "features": {"base_score": 1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performJSON(h.LogImpression, http.MethodPost, "/api/v1/events",
		`{"session_id": "sess-abc", "trip_id": 7, "position": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogImpressionMapsSchemaMismatchTo400(t *testing.T) {
	svc := &stubEventService{err: ranker.ErrSchemaMismatch}
	h := NewEventHandler(svc)

	rec := performJSON(h.LogImpression, http.MethodPost, "/api/v1/events", impressionBody(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
