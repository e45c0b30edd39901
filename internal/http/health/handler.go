package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/echo-tickets/internal/platform/logging"
)

// readyTimeout bounds a single readiness check.
const readyTimeout = 2 * time.Second

// Response is the payload for the health endpoints.
type Response struct {
	Status string `json:"status"`
}

// Checker reports whether a dependency is ready to serve traffic.
type Checker interface {
	Ready(ctx context.Context) error
}

// Handler is the liveness endpoint.
func Handler(c *echo.Context) error {
	return c.JSON(http.StatusOK, Response{Status: "healthy"})
}

// Readiness returns an endpoint that answers 200 while checker is ready and
// 503 otherwise. Failures are logged, never returned to the caller.
func Readiness(checker Checker) echo.HandlerFunc {
	return func(c *echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		defer cancel()

		if err := checker.Ready(ctx); err != nil {
			applog.LogWarn(ctx, "readiness check failed", slog.Any("error", err))
			return c.JSON(http.StatusServiceUnavailable, Response{Status: "unavailable"})
		}
		return c.JSON(http.StatusOK, Response{Status: "ready"})
	}
}
