package logging

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"sync"
)

const (
	traceparentHeader = "traceparent"
	// cloudTraceHeader is set by Google front ends when no traceparent is sent.
	cloudTraceHeader = "X-Cloud-Trace-Context"
)

// W3C Trace Context format: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceHeaderRe = regexp.MustCompile(
	`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`,
)

// Cloud trace format: TRACE_ID/SPAN_ID;o=OPTIONS with a decimal span ID.
var cloudTraceRe = regexp.MustCompile(`^([0-9a-fA-F]{32})(?:/([0-9]+))?(?:;o=([01]))?$`)

var (
	projectIDOnce   sync.Once
	cachedProjectID string
)

// traceContext is the trace identity of an inbound request.
type traceContext struct {
	traceID string
	spanID  string
	sampled bool
}

func parseTraceparent(v string) (traceContext, bool) {
	m := traceHeaderRe.FindStringSubmatch(v)
	if len(m) != 5 {
		return traceContext{}, false
	}
	return traceContext{traceID: m[2], spanID: m[3], sampled: m[4] == "01"}, true
}

func parseCloudTrace(v string) (traceContext, bool) {
	m := cloudTraceRe.FindStringSubmatch(v)
	if m == nil {
		return traceContext{}, false
	}
	tc := traceContext{traceID: m[1], sampled: m[3] == "1"}
	if m[2] != "" {
		span, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return traceContext{}, false
		}
		tc.spanID = fmt.Sprintf("%016x", span)
	}
	return tc, true
}

// traceFromHeaders prefers traceparent over the Cloud trace header.
func traceFromHeaders(h http.Header) (traceContext, bool) {
	if tc, ok := parseTraceparent(h.Get(traceparentHeader)); ok {
		return tc, true
	}
	return parseCloudTrace(h.Get(cloudTraceHeader))
}

func (tc traceContext) resource(projectID string) string {
	if projectID == "" || tc.traceID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", projectID, tc.traceID)
}

func loggerWithTrace(base *slog.Logger, tc traceContext, projectID, requestID string) *slog.Logger {
	if base == nil {
		base = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	attrs := traceAttrs(tc, projectID)
	if requestID != "" {
		attrs = append(attrs, slog.String("requestId", requestID))
	}
	if len(attrs) == 0 {
		return base
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return base.With(args...)
}

func traceAttrs(tc traceContext, projectID string) []slog.Attr {
	resource := tc.resource(projectID)
	if resource == "" {
		return nil
	}
	attrs := []slog.Attr{slog.String("logging.googleapis.com/trace", resource)}
	if tc.spanID != "" {
		attrs = append(attrs, slog.String("logging.googleapis.com/spanId", tc.spanID))
	}
	return append(attrs, slog.Bool("logging.googleapis.com/trace_sampled", tc.sampled))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolveProjectID() string {
	projectIDOnce.Do(func() {
		cachedProjectID = firstNonEmpty(
			os.Getenv("FIREBASE_PROJECT_ID"),
			os.Getenv("GOOGLE_CLOUD_PROJECT"),
			os.Getenv("GCP_PROJECT"),
			os.Getenv("GCLOUD_PROJECT"),
			os.Getenv("PROJECT_ID"),
		)
	})
	return cachedProjectID
}
