package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/labstack/echo/v5"
)

func TestHandler_ReturnsHealthy(t *testing.T) {
	e := echo.New()
	e.GET("/health", Handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected status 'healthy', got %q", body.Status)
	}
}

func TestHandler_ContentTypeJSON(t *testing.T) {
	e := echo.New()
	e.GET("/health", Handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	ct := rec.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestHandler_CBORNotSupported(t *testing.T) {
	e := echo.New()
	e.GET("/health", Handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept", "application/cbor")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Health endpoint uses c.JSON directly, so always returns JSON regardless of Accept.
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		// May be CBOR if handler respects Accept header; try CBOR.
		if cborErr := cbor.Unmarshal(rec.Body.Bytes(), &body); cborErr != nil {
			t.Fatalf("failed to decode response as JSON or CBOR: json=%v cbor=%v", err, cborErr)
		}
	}
	if body.Status != "healthy" {
		t.Fatalf("expected status 'healthy', got %q", body.Status)
	}
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Ready(ctx context.Context) error { return f(ctx) }

func TestReadiness_Ready(t *testing.T) {
	e := echo.New()
	e.GET("/health/ready", Readiness(checkerFunc(func(context.Context) error { return nil })))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ready" {
		t.Fatalf("expected status 'ready', got %q", body.Status)
	}
}

func TestReadiness_Unavailable(t *testing.T) {
	e := echo.New()
	e.GET("/health/ready", Readiness(checkerFunc(func(context.Context) error {
		return errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	})))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatal("dependency error leaked into the response")
	}
}

func TestReadiness_HasDeadline(t *testing.T) {
	var hasDeadline bool
	e := echo.New()
	e.GET("/health/ready", Readiness(checkerFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	if !hasDeadline {
		t.Fatal("expected readiness check to run with a deadline")
	}
}
