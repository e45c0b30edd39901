package ticket

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const countAlias = "total"

// FirestoreStore implements Store over Firestore collections. Each table is
// a top-level collection.
type FirestoreStore struct {
	client *firestore.Client
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreStore creates a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Probe fetches at most one document. An empty collection is reachable.
func (s *FirestoreStore) Probe(ctx context.Context, table string) error {
	it := s.client.Collection(table).Limit(1).Documents(ctx)
	defer it.Stop()

	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return categorizeError(table, err)
	}
	return nil
}

func (s *FirestoreStore) Select(ctx context.Context, q Query) (*Page, error) {
	if q.Table == "" {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidQuery)
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, ErrInvalidQuery
	}

	fq := s.client.Collection(q.Table).Query
	for _, c := range q.Conditions {
		op, err := firestoreOperator(c.Op)
		if err != nil {
			return nil, err
		}
		fq = fq.Where(c.Field, op, c.Value)
	}

	if q.Order != nil {
		dir := firestore.Asc
		if q.Order.Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.Order.Field, dir)
	}

	// Ordering excludes documents without the order field, so the count runs
	// over the ordered query to match what paging can reach.
	page := &Page{}
	if q.Count {
		total, err := s.count(ctx, fq)
		if err != nil {
			return nil, categorizeError(q.Table, err)
		}
		page.Total = total
		page.TotalKnown = true
	}
	if q.Offset > 0 {
		fq = fq.Offset(q.Offset)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	docs, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, categorizeError(q.Table, err)
	}
	page.Records = make([]RawRecord, 0, len(docs))
	for _, doc := range docs {
		rec := RawRecord(doc.Data())
		if rec == nil {
			rec = RawRecord{}
		}
		if _, ok := rec[FieldID]; !ok {
			rec[FieldID] = doc.Ref.ID
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

func (s *FirestoreStore) count(ctx context.Context, fq firestore.Query) (int64, error) {
	res, err := fq.NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return 0, err
	}
	switch v := res[countAlias].(type) {
	case *firestorepb.Value:
		return v.GetIntegerValue(), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("unexpected count result %T", res[countAlias])
}

func firestoreOperator(op Op) (string, error) {
	switch op {
	case OpEq:
		return "==", nil
	case OpGte:
		return ">=", nil
	case OpLt:
		return "<", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
}

// categorizeError wraps a Firestore error with its gRPC code so logs tell a
// missing index from a transient fault.
func categorizeError(table string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s: %w", ErrTableNotFound, table, err)
	case codes.FailedPrecondition:
		return fmt.Errorf("query on %s needs an index: %w", table, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("transient firestore fault on %s: %w", table, err)
	case codes.InvalidArgument:
		return fmt.Errorf("firestore rejected query on %s: %w", table, err)
	}
	return fmt.Errorf("firestore %s: %w", table, err)
}
