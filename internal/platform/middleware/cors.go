package middleware

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

// CORS returns Echo middleware for the read-only API. An empty allowedOrigins
// allows any origin.
func CORS(allowedOrigins ...string) echo.MiddlewareFunc {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Accept",
			"X-Request-ID",
			"traceparent",
		},
		ExposeHeaders: []string{
			"Link",
			"Retry-After",
			"X-Request-ID",
		},
		MaxAge: 300,
	})
}
