package ticket

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janisto/echo-tickets/internal/platform/pagination"
)

// MemoryStore implements Store with in-process tables. It is used for local
// development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]RawRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]RawRecord)}
}

// CreateTable makes table exist even when it holds no rows.
func (m *MemoryStore) CreateTable(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[table]; !ok {
		m.tables[table] = []RawRecord{}
	}
}

// Insert appends copies of rows to table, creating it if needed.
func (m *MemoryStore) Insert(table string, rows ...RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rows {
		m.tables[table] = append(m.tables[table], maps.Clone(r))
	}
}

func (m *MemoryStore) Probe(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.tables[table]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}

func (m *MemoryStore) Select(ctx context.Context, q Query) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, ErrInvalidQuery
	}

	m.mu.RLock()
	rows, ok := m.tables[q.Table]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, q.Table)
	}

	matched := make([]RawRecord, 0, len(rows))
	for _, r := range rows {
		keep, err := matchAll(r, q.Conditions)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		if keep {
			matched = append(matched, maps.Clone(r))
		}
	}
	m.mu.RUnlock()

	if q.Order != nil {
		sortRecords(matched, *q.Order)
	}

	page := &Page{Records: pagination.Slice(matched, pagination.Params{Offset: q.Offset, Limit: q.Limit})}
	if q.Count {
		page.Total = int64(len(matched))
		page.TotalKnown = true
	}
	return page, nil
}

func matchAll(r RawRecord, conds []Condition) (bool, error) {
	for _, c := range conds {
		ok, err := match(r, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(r RawRecord, c Condition) (bool, error) {
	switch want := c.Value.(type) {
	case int64:
		got, ok := r.Int64(c.Field)
		if !ok {
			return false, nil
		}
		return compare(c.Op, cmpInt(got, want))
	case int:
		got, ok := r.Int64(c.Field)
		if !ok {
			return false, nil
		}
		return compare(c.Op, cmpInt(got, int64(want)))
	case string:
		if c.Op != OpEq {
			return false, fmt.Errorf("%w: %s on string field %s", ErrUnsupportedOp, c.Op, c.Field)
		}
		got, ok := r.String(c.Field)
		return ok && got == want, nil
	case time.Time:
		got, ok := r.Time(c.Field)
		if !ok {
			return false, nil
		}
		return compare(c.Op, got.Compare(want))
	}
	return false, fmt.Errorf("%w: value type %T for field %s", ErrUnsupportedOp, c.Value, c.Field)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compare(op Op, c int) (bool, error) {
	switch op {
	case OpEq:
		return c == 0, nil
	case OpGte:
		return c >= 0, nil
	case OpLt:
		return c < 0, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
}

// sortRecords orders rows by o.Field as a timestamp. Rows whose field does
// not parse sort last; ties keep insertion order.
func sortRecords(rows []RawRecord, o Order) {
	slices.SortStableFunc(rows, func(a, b RawRecord) int {
		ta, okA := a.Time(o.Field)
		tb, okB := b.Time(o.Field)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		if o.Descending {
			return tb.Compare(ta)
		}
		return ta.Compare(tb)
	})
}

var sampleStatuses = []string{"minted", "pending", "transferred", "redeemed", "revoked"}

// SampleRecords returns n well-formed ticket rows spread over a few users and
// events, created one hour apart ending at base.
func SampleRecords(n int, base time.Time) []RawRecord {
	rows := make([]RawRecord, 0, n)
	for i := range n {
		rows = append(rows, RawRecord{
			FieldID:            uuid.NewString(),
			FieldUserID:        int64(i % 4),
			FieldEventID:       int64(100 + i%3),
			FieldWalletAddress: fmt.Sprintf("0x%040x", i+1),
			FieldTokenID:       fmt.Sprintf("%d", 1000+i),
			FieldStatus:        sampleStatuses[i%len(sampleStatuses)],
			FieldMetadata:      map[string]any{"seat": fmt.Sprintf("A%d", i+1)},
			FieldCreatedAt:     base.Add(-time.Duration(i) * time.Hour).UTC(),
		})
	}
	return rows
}
