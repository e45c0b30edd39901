package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
)

// unmatchedPath labels requests that reached no registered route.
const unmatchedPath = "unmatched"

// Middleware records request count, latency and in-flight gauges. The path
// label is the matched route, or unmatchedPath when no route matched.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			method := strings.ToUpper(c.Request().Method)
			path := c.Path()
			if path == "" || c.RouteInfo().Name == echo.NotFoundRouteName {
				path = unmatchedPath
			}

			m.httpInflight.WithLabelValues(method, path).Inc()
			start := time.Now()

			err := next(c)

			m.httpInflight.WithLabelValues(method, path).Dec()
			m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			m.httpRequests.WithLabelValues(method, path, strconv.Itoa(responseStatus(c, err))).Inc()

			return err
		}
	}
}

// responseStatus returns the status that was or will be written. Errors are
// rendered by the error handler after middleware returns.
func responseStatus(c *echo.Context, err error) int {
	if err != nil {
		var sc echo.HTTPStatusCoder
		if errors.As(err, &sc) {
			return sc.StatusCode()
		}
		return http.StatusInternalServerError
	}
	resp, unwrapErr := echo.UnwrapResponse(c.Response())
	if unwrapErr != nil || resp.Status == 0 {
		return http.StatusOK
	}
	return resp.Status
}
