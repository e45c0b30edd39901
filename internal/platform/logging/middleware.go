package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
)

// RequestLogger returns Echo middleware that enriches the request context
// with an slog logger carrying Cloud Trace metadata and the request ID.
// The trace comes from traceparent, or X-Cloud-Trace-Context when absent.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			projectID := resolveProjectID()
			reqID, _ := c.Get("request_id").(string)

			tc, _ := traceFromHeaders(c.Request().Header)
			traceID := tc.resource(projectID)
			if traceID == "" && reqID != "" {
				traceID = reqID
			}

			logger := loggerWithTrace(Logger(), tc, projectID, reqID)

			ctx := c.Request().Context()
			ctx = contextWithTraceID(ctx, traceID)
			ctx = contextWithLogger(ctx, logger)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// AccessLogger returns Echo middleware that logs a structured summary after
// each request. Server errors log at error level and client errors at warn,
// so degraded list traffic stands out from normal reads.
func AccessLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()

			err := next(c)

			resp, unwrapErr := echo.UnwrapResponse(c.Response())
			status := 0
			size := 0
			if unwrapErr == nil {
				status = resp.Status
				size = int(resp.Size)
			}

			req := c.Request()
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", size),
				slog.Duration("duration", time.Since(start)),
			}
			if route := c.Path(); route != "" {
				attrs = append(attrs, slog.String("route", route))
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			ctx := req.Context()
			LoggerFromContext(ctx).LogAttrs(ctx, accessLevel(status), "request completed", attrs...)

			return err
		}
	}
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
