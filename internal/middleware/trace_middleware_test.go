package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tripmatch/business/ranker"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func traceRequest(t *testing.T, requestID string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if requestID != "" {
		req.Header.Set(echo.HeaderXRequestID, requestID)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	h := TraceMiddleware()(func(c echo.Context) error {
		got = ranker.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(c))
	return got, rec
}

func TestTraceMiddlewarePropagatesRequestID(t *testing.T) {
	got, rec := traceRequest(t, "req-123")
	assert.Equal(t, "req-123", got)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestTraceMiddlewareGeneratesID(t *testing.T) {
	got, rec := traceRequest(t, "")
	assert.NotEmpty(t, got)
	assert.Equal(t, got, rec.Header().Get(echo.HeaderXRequestID))
}
