package ticket

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable is returned when neither the primary nor the
	// fallback query could be served.
	ErrStoreUnavailable = errors.New("ticket store unavailable")

	// ErrInvalidQuery is returned for negative pagination parameters.
	ErrInvalidQuery = errors.New("invalid list query")

	// ErrTableNotFound is returned by Store.Probe when the table does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrUnsupportedOp is returned by stores for a Condition they cannot express.
	ErrUnsupportedOp = errors.New("unsupported filter operator")
)

// Page is what a Store returns for one Query. TotalKnown is false when the
// query did not ask for a count.
type Page struct {
	Records    []RawRecord
	Total      int64
	TotalKnown bool
}

// Store is the filtered-query client the list path reads through.
// Connection pooling and per-call timeouts belong to the implementation.
type Store interface {
	// Probe checks that table is reachable.
	Probe(ctx context.Context, table string) error

	// Select runs q and returns the matching rows in store order.
	Select(ctx context.Context, q Query) (*Page, error)
}
