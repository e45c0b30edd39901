package docs

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/echo-tickets/internal/platform/logging"
)

//go:embed swagger-ui.html
var swaggerUI []byte

// Register wires documentation routes.
// - GET /api-docs/openapi.json serves the OpenAPI document at specPath.
// - GET /api-docs serves an embedded Swagger UI page.
//
// A missing spec file is logged at startup; the route then answers 404.
func Register(e *echo.Echo, specPath string) {
	if _, err := os.Stat(specPath); err != nil {
		applog.LogWarn(context.Background(), "openapi document not found",
			slog.String("path", specPath), slog.Any("error", err))
	}

	e.GET("/api-docs/openapi.json", func(c *echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-cache")
		return c.File(specPath)
	})

	e.GET("/api-docs", func(c *echo.Context) error {
		return c.HTMLBlob(http.StatusOK, swaggerUI)
	})
}
