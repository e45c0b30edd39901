package ticket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type slowProbeStore struct {
	stubStore
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (s *slowProbeStore) Probe(_ context.Context, _ string) error {
	s.calls.Add(1)
	<-s.release
	return s.err
}

func TestProber_CachesSuccess(t *testing.T) {
	store := &stubStore{}
	p := newProber(store, time.Minute)

	for range 3 {
		if err := p.probe(context.Background(), "tickets"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.probes != 1 {
		t.Fatalf("expected 1 store probe, got %d", store.probes)
	}
}

func TestProber_DoesNotCacheFailure(t *testing.T) {
	store := &stubStore{probeErr: errors.New("down")}
	p := newProber(store, time.Minute)

	for range 2 {
		if err := p.probe(context.Background(), "tickets"); err == nil {
			t.Fatal("expected probe error")
		}
	}
	if store.probes != 2 {
		t.Fatalf("expected 2 store probes, got %d", store.probes)
	}
}

func TestProber_NoTTLProbesEveryTime(t *testing.T) {
	store := &stubStore{}
	p := newProber(store, 0)

	for range 3 {
		_ = p.probe(context.Background(), "tickets")
	}
	if store.probes != 3 {
		t.Fatalf("expected 3 store probes, got %d", store.probes)
	}
}

func TestProber_Forget(t *testing.T) {
	store := &stubStore{}
	p := newProber(store, time.Minute)

	_ = p.probe(context.Background(), "tickets")
	p.forget("tickets")
	_ = p.probe(context.Background(), "tickets")
	if store.probes != 2 {
		t.Fatalf("expected 2 store probes after forget, got %d", store.probes)
	}
}

func TestProber_SharesConcurrentCalls(t *testing.T) {
	store := &slowProbeStore{release: make(chan struct{})}
	p := newProber(store, 0)

	const callers = 5
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for range callers {
		wg.Go(func() {
			started <- struct{}{}
			_ = p.probe(context.Background(), "tickets")
		})
	}
	for range callers {
		<-started
	}
	// Give every caller time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	if n := store.calls.Load(); n != 1 {
		t.Fatalf("expected 1 shared probe, got %d", n)
	}
}

func TestProber_CallerCancellation(t *testing.T) {
	store := &slowProbeStore{release: make(chan struct{})}
	defer close(store.release)
	p := newProber(store, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.probe(ctx, "tickets"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
