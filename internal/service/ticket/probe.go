package ticket

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const probeTimeout = 5 * time.Second

// prober runs Store.Probe at most once at a time per table and remembers
// successful probes for ttl. Failures are never cached.
type prober struct {
	store Store
	ttl   time.Duration
	cache *gocache.Cache
	sf    singleflight.Group
}

func newProber(store Store, ttl time.Duration) *prober {
	p := &prober{store: store, ttl: ttl}
	if ttl > 0 {
		p.cache = gocache.New(ttl, 2*ttl)
	}
	return p
}

// probe reports whether table answered. Concurrent callers share one store
// call; each caller still returns as soon as its own ctx is done.
func (p *prober) probe(ctx context.Context, table string) error {
	if p.cache != nil {
		if _, ok := p.cache.Get(table); ok {
			return nil
		}
	}

	ch := p.sf.DoChan(table, func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
		defer cancel()
		err := p.store.Probe(pctx, table)
		if err == nil && p.cache != nil {
			p.cache.Set(table, struct{}{}, p.ttl)
		}
		return nil, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// forget drops any cached probe result for table.
func (p *prober) forget(table string) {
	if p.cache != nil {
		p.cache.Delete(table)
	}
}
