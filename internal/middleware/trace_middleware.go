package middleware

import (
	"context"

	"tripmatch/business/ranker"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TraceMiddleware tags every request with an ID, echoes it back in the
// X-Request-ID header and stows it on the request context so downstream
// logging can correlate entries.
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			ctx := context.WithValue(c.Request().Context(), ranker.TraceIDKey, rid)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
