package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/janisto/echo-tickets/internal/platform/logging"
	"github.com/janisto/echo-tickets/internal/platform/pagination"
)

// Outcome paths reported to the Observer.
const (
	PathPrimary     = "primary"
	PathFallback    = "fallback"
	PathUnavailable = "unavailable"
)

// Service lists tickets.
type Service interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
}

// ListResult is one page of validated tickets. On the fallback path Total is
// 0, TotalKnown is false and Degraded is true.
type ListResult struct {
	Tickets    []Ticket
	Total      int64
	TotalKnown bool
	Degraded   bool
	Offset     int
	Limit      int
}

// Observer receives counters from the list path. A nil Observer is ignored.
type Observer interface {
	ProbeFailed()
	Outcome(path string)
	RecordSkipped()
}

// Options configures a Lister.
type Options struct {
	// Table is the store table to read. Defaults to "tickets".
	Table string
	// MaxLimit caps the page size. Defaults to pagination.MaxLimit.
	MaxLimit int
	// ProbeTTL is how long a successful probe is remembered. Zero probes
	// on every request.
	ProbeTTL time.Duration
	Observer Observer
}

// Lister is the tolerant list path over a Store.
type Lister struct {
	store    Store
	table    string
	maxLimit int
	prober   *prober
	observer Observer
}

var _ Service = (*Lister)(nil)

// NewLister returns a Lister reading from store.
func NewLister(store Store, opts Options) *Lister {
	if opts.Table == "" {
		opts.Table = "tickets"
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = pagination.MaxLimit
	}
	return &Lister{
		store:    store,
		table:    opts.Table,
		maxLimit: opts.MaxLimit,
		prober:   newProber(store, opts.ProbeTTL),
		observer: opts.Observer,
	}
}

// Table returns the table the Lister reads.
func (l *Lister) Table() string {
	return l.table
}

// primaryOutcome is the result of the filtered, counted select.
type primaryOutcome struct {
	page *Page
	err  error
}

func (o primaryOutcome) ok() bool {
	return o.err == nil && o.page != nil
}

// fallbackFor maps a failed primary outcome to the minimal query retried in
// its place. It reports false for a successful outcome.
func fallbackFor(o primaryOutcome, table string, limit int) (Query, bool) {
	if o.ok() {
		return Query{}, false
	}
	return FallbackQuery(table, limit), true
}

// List returns a page of tickets matching q. Only a failure of both the
// primary and the fallback select is returned as ErrStoreUnavailable.
// Context cancellation is returned as is.
func (l *Lister) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must be non-negative", ErrInvalidQuery)
	}
	p := pagination.Params{Offset: q.Offset, Limit: q.Limit}.Normalize(l.maxLimit)
	q.Offset, q.Limit = p.Offset, p.Limit

	err := l.prober.probe(ctx, l.table)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		l.probeFailed()
		logging.LogStoreEvent(ctx, slog.LevelWarn, "store probe failed", "probe", l.table, err, nil)
	}

	primary := l.runPrimary(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Offset: q.Offset, Limit: q.Limit}
	page := primary.page
	if fq, retry := fallbackFor(primary, l.table, q.Limit); !retry {
		result.Total = page.Total
		result.TotalKnown = page.TotalKnown
		l.outcome(PathPrimary)
	} else {
		l.prober.forget(l.table)
		logging.LogStoreEvent(ctx, slog.LevelWarn, "primary query failed, using fallback",
			"fallback", l.table, primary.err, nil)

		fallback, ferr := l.store.Select(ctx, fq)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ferr == nil && fallback == nil {
			ferr = errors.New("nil page")
		}
		if ferr != nil {
			l.outcome(PathUnavailable)
			logging.LogStoreEvent(ctx, slog.LevelError, "fallback query failed",
				"unavailable", l.table, ferr, nil)
			return nil, fmt.Errorf("%w: primary: %w; fallback: %w", ErrStoreUnavailable, primary.err, ferr)
		}
		page = fallback
		result.Degraded = true
		l.outcome(PathFallback)
	}

	result.Tickets = l.validate(ctx, page.Records, q.Limit)
	return result, nil
}

func (l *Lister) runPrimary(ctx context.Context, q ListQuery) primaryOutcome {
	page, err := l.store.Select(ctx, BuildQuery(l.table, q))
	if err == nil && page == nil {
		err = errors.New("nil page")
	}
	return primaryOutcome{page: page, err: err}
}

// validate converts rows into tickets in store order, skipping and logging
// rows that fail FromRecord. At most limit tickets are returned.
func (l *Lister) validate(ctx context.Context, rows []RawRecord, limit int) []Ticket {
	tickets := make([]Ticket, 0, min(len(rows), limit))
	for _, raw := range rows {
		if len(tickets) == limit {
			break
		}
		t, err := FromRecord(raw)
		if err != nil {
			details := map[string]any{"fields": raw.Fields()}
			var recErr *RecordError
			if errors.As(err, &recErr) {
				if len(recErr.Missing) > 0 {
					details["missing"] = recErr.Missing
				}
				if len(recErr.Malformed) > 0 {
					details["malformed"] = recErr.Malformed
				}
			}
			l.recordSkipped()
			logging.LogStoreEvent(ctx, slog.LevelWarn, "skipping malformed record", "skip", l.table, nil, details)
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets
}

func (l *Lister) probeFailed() {
	if l.observer != nil {
		l.observer.ProbeFailed()
	}
}

func (l *Lister) outcome(path string) {
	if l.observer != nil {
		l.observer.Outcome(path)
	}
}

func (l *Lister) recordSkipped() {
	if l.observer != nil {
		l.observer.RecordSkipped()
	}
}

// Ready probes the store directly, bypassing the probe cache.
func (l *Lister) Ready(ctx context.Context) error {
	return l.store.Probe(ctx, l.table)
}
