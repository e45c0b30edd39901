package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/janisto/echo-tickets/internal/platform/logging"
)

// stubStore records every call and answers from scripted responses.
type stubStore struct {
	mu      sync.Mutex
	queries []Query
	probes  int

	probeErr error
	// selectFn answers the n-th Select call, counting from 0.
	selectFn func(n int, q Query) (*Page, error)
}

func (s *stubStore) Probe(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes++
	return s.probeErr
}

func (s *stubStore) Select(_ context.Context, q Query) (*Page, error) {
	s.mu.Lock()
	n := len(s.queries)
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.selectFn == nil {
		return &Page{}, nil
	}
	return s.selectFn(n, q)
}

func (s *stubStore) recorded() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

// countingObserver tallies Observer calls.
type countingObserver struct {
	mu          sync.Mutex
	probeFailed int
	skipped     int
	outcomes    map[string]int
}

func (o *countingObserver) ProbeFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.probeFailed++
}

func (o *countingObserver) Outcome(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[path]++
}

func (o *countingObserver) RecordSkipped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped++
}

// logCapture returns a context whose logger writes JSON lines to the
// returned buffer.
func logCapture() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return logging.WithLogger(context.Background(), logger), &buf
}

// logEntries decodes every JSON line whose message equals msg.
func logEntries(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to unmarshal log line %q: %v", line, err)
		}
		if entry["msg"] == msg {
			out = append(out, entry)
		}
	}
	return out
}
