package ticket

import "time"

// ListQuery carries the caller's pagination and optional equality filters.
// It is built once per request at the HTTP boundary.
type ListQuery struct {
	Offset int
	Limit  int

	UserID        Optional[int64]
	EventID       Optional[int64]
	WalletAddress Optional[string]
	Status        Optional[string]

	// Creation date range: CreatedFrom inclusive, CreatedTo exclusive.
	CreatedFrom Optional[time.Time]
	CreatedTo   Optional[time.Time]
}

// Op is a comparison operator understood by every Store.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLt  Op = "lt"
)

// Condition is a single filter applied to a field.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Order is a sort on one field.
type Order struct {
	Field      string
	Descending bool
}

// Query is a store-neutral select. The zero values of Order, Offset and
// Count mean unordered, from the start, and no total.
type Query struct {
	Table      string
	Conditions []Condition
	Order      *Order
	Offset     int
	Limit      int
	Count      bool
}

// DefaultOrder is the only supported ordering: newest first.
var DefaultOrder = Order{Field: FieldCreatedAt, Descending: true}

// BuildQuery translates q into the primary query against table. Each
// optional filter contributes a condition only when it is set, whatever its
// value. Ordering, pagination and the count request are applied last.
func BuildQuery(table string, q ListQuery) Query {
	out := Query{Table: table}

	if v, ok := q.UserID.Get(); ok {
		out.Conditions = append(out.Conditions, Condition{Field: FieldUserID, Op: OpEq, Value: v})
	}
	if v, ok := q.EventID.Get(); ok {
		out.Conditions = append(out.Conditions, Condition{Field: FieldEventID, Op: OpEq, Value: v})
	}
	if v, ok := q.WalletAddress.Get(); ok {
		out.Conditions = append(out.Conditions, Condition{Field: FieldWalletAddress, Op: OpEq, Value: v})
	}
	if v, ok := q.Status.Get(); ok {
		out.Conditions = append(out.Conditions, Condition{Field: FieldStatus, Op: OpEq, Value: v})
	}
	if v, ok := q.CreatedFrom.Get(); ok {
		out.Conditions = append(out.Conditions, Condition{Field: FieldCreatedAt, Op: OpGte, Value: v.UTC()})
	}
	if v, ok := q.CreatedTo.Get(); ok {
		out.Conditions = append(out.Conditions, Condition{Field: FieldCreatedAt, Op: OpLt, Value: v.UTC()})
	}

	order := DefaultOrder
	out.Order = &order
	out.Offset = q.Offset
	out.Limit = q.Limit
	out.Count = true
	return out
}

// FallbackQuery is the minimal select issued after the primary query
// fails: the same table and limit, nothing else.
func FallbackQuery(table string, limit int) Query {
	return Query{Table: table, Limit: limit}
}
