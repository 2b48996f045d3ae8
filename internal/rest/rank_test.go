package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tripmatch/business/ranker"
	"tripmatch/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubRankService struct {
	trips []domain.ScoredTrip
	err   error
	gotK  int
}

func (s *stubRankService) Rank(_ context.Context, _ domain.RawPreferences, k int) ([]domain.ScoredTrip, error) {
	s.gotK = k
	return s.trips, s.err
}

func performJSON(h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h(c)
	return rec
}

func TestRankReturnsScoredTrips(t *testing.T) {
	svc := &stubRankService{trips: []domain.ScoredTrip{
		{TripID: 3, Score: 42.0, WeightVersion: 1},
		{TripID: 7, Score: 38.5, WeightVersion: 1},
	}}
	h := NewRankHandler(svc)

	body := `{"preferences": {"theme_ids": [1, 2]}, "k": 2}`
	rec := performJSON(h.Rank, http.MethodPost, "/api/v1/rank", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.gotK)
	assert.Contains(t, rec.Body.String(), `"trip_id":3`)
	assert.Contains(t, rec.Body.String(), `"weight_version":1`)
}

func TestRankRejectsMalformedBody(t *testing.T) {
	h := NewRankHandler(&stubRankService{})

	rec := performJSON(h.Rank, http.MethodPost, "/api/v1/rank", `{"k": "two"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performJSON(h.Rank, http.MethodPost, "/api/v1/rank", `{"k": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankMapsInvalidPreferencesTo400(t *testing.T) {
	svc := &stubRankService{err: ranker.ErrInvalidPreferences}
	h := NewRankHandler(svc)

	rec := performJSON(h.Rank, http.MethodPost, "/api/v1/rank",
		`{"preferences": {"min_duration_days": 14, "max_duration_days": 7}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankMapsInternalErrorTo500(t *testing.T) {
	svc := &stubRankService{err: errors.New("database gone")}
	h := NewRankHandler(svc)

	rec := performJSON(h.Rank, http.MethodPost, "/api/v1/rank", `{"preferences": {}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
