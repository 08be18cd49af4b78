package middleware

import (
	"time"

	"dojo-hub/metrics"

	"github.com/labstack/echo/v4"
)

// RequestMetrics records request counts and latency per route.
func RequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(c.Request().Method, route, responseStatus(c, err), time.Since(start).Seconds())
			return err
		}
	}
}
