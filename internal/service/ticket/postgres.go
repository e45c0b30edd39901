package ticket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// totalColumn carries the window count on every row of a counted select.
const totalColumn = "__total"

// Postgres error codes the store classifies.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// PostgresOptions tunes the connection pool.
type PostgresOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	// QueryTimeout bounds each store call. Zero leaves it to the caller.
	QueryTimeout time.Duration
}

// PostgresStore implements Store over a pgx connection pool. It reads the
// Supabase tickets table directly.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to dsn. A non-empty key replaces the password in
// dsn. The pool is pinged before it is returned.
func OpenPostgres(ctx context.Context, dsn, key string, opts PostgresOptions) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgxpool config: %w", err)
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
		cfg.MaxConnIdleTime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	return NewPostgresStore(pool, opts.QueryTimeout), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, timeout: timeout}
}

// Pool returns the underlying pool.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func (s *PostgresStore) Probe(ctx context.Context, table string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var oid *string
	if err := s.pool.QueryRow(ctx, "SELECT to_regclass($1)::text", table).Scan(&oid); err != nil {
		return fmt.Errorf("probe %s: %w", table, err)
	}
	if oid == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}

func (s *PostgresStore) Select(ctx context.Context, q Query) (*Page, error) {
	sql, args, err := buildSelectSQL(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classifyPgError(q.Table, err)
	}
	records, total, err := scanRecords(rows, q.Count)
	if err != nil {
		return nil, classifyPgError(q.Table, err)
	}

	page := &Page{Records: records}
	if q.Count {
		// The window count is absent when the offset skips every row.
		if len(records) == 0 && q.Offset > 0 {
			countSQL, countArgs, err := buildCountSQL(q)
			if err != nil {
				return nil, err
			}
			if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
				return nil, classifyPgError(q.Table, err)
			}
		}
		page.Total = total
		page.TotalKnown = true
	}
	return page, nil
}

func scanRecords(rows pgx.Rows, counted bool) ([]RawRecord, int64, error) {
	defer rows.Close()

	var (
		records []RawRecord
		total   int64
	)
	cols := rows.FieldDescriptions()
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, 0, err
		}
		rec := make(RawRecord, len(cols))
		for i, col := range cols {
			name := col.Name
			if counted && name == totalColumn {
				if n, ok := toInt64(vals[i]); ok {
					total = n
				}
				continue
			}
			rec[name] = normalizeValue(vals[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// normalizeValue converts pgx scan types that RawRecord accessors do not
// understand into plain Go values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		if i, err := x.Int64Value(); err == nil && i.Valid {
			return i.Int64
		}
		if f, err := x.Float64Value(); err == nil && f.Valid {
			return f.Float64
		}
		return nil
	}
	return v
}

func classifyPgError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable:
			return fmt.Errorf("%w: %s: %w", ErrTableNotFound, table, err)
		case pgUndefinedColumn:
			return fmt.Errorf("schema mismatch on %s: %w", table, err)
		}
	}
	return fmt.Errorf("select %s: %w", table, err)
}

func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func sqlOperator(op Op) (string, error) {
	switch op {
	case OpEq:
		return "=", nil
	case OpGte:
		return ">=", nil
	case OpLt:
		return "<", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedOp, op)
}

// whereClause renders conds as positional predicates starting at $1.
func whereClause(conds []Condition) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		op, err := sqlOperator(c.Op)
		if err != nil {
			return "", nil, err
		}
		args = append(args, c.Value)
		parts = append(parts, quoteIdent(c.Field)+" "+op+" $"+strconv.Itoa(len(args)))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func buildSelectSQL(q Query) (string, []any, error) {
	if q.Table == "" {
		return "", nil, fmt.Errorf("%w: empty table", ErrInvalidQuery)
	}
	if q.Offset < 0 || q.Limit < 0 {
		return "", nil, ErrInvalidQuery
	}

	var b strings.Builder
	b.WriteString("SELECT *")
	if q.Count {
		b.WriteString(", COUNT(*) OVER() AS " + quoteIdent(totalColumn))
	}
	b.WriteString(" FROM " + quoteIdent(q.Table))

	where, args, err := whereClause(q.Conditions)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(where)

	if q.Order != nil {
		b.WriteString(" ORDER BY " + quoteIdent(q.Order.Field))
		if q.Order.Descending {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return b.String(), args, nil
}

func buildCountSQL(q Query) (string, []any, error) {
	where, args, err := whereClause(q.Conditions)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM " + quoteIdent(q.Table) + where, args, nil
}
