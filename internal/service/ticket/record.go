package ticket

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/janisto/echo-tickets/internal/platform/timeutil"
)

// RawRecord is one untyped row as returned by a store. Field presence is
// not guaranteed, and lookups never panic on missing keys.
type RawRecord map[string]any

// Lookup returns the value stored under key and whether the key exists.
// A present key may still hold nil.
func (r RawRecord) Lookup(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	return v, ok
}

// Fields returns the record's field names in sorted order.
func (r RawRecord) Fields() []string {
	return slices.Sorted(maps.Keys(r))
}

// String returns the value under key rendered as text. Strings, byte
// slices, UUIDs and integers are accepted; anything else reports false.
func (r RawRecord) String(key string) (string, bool) {
	v, ok := r.Lookup(key)
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case [16]byte:
		return uuid.UUID(x).String(), true
	case uuid.UUID:
		return x.String(), true
	case json.Number:
		return x.String(), true
	}
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

// Int64 returns the value under key as an integer. Floats are accepted only
// when integral, and numeric strings are parsed.
func (r RawRecord) Int64(key string) (int64, bool) {
	v, ok := r.Lookup(key)
	if !ok || v == nil {
		return 0, false
	}
	return toInt64(v)
}

// Time returns the value under key as a UTC timestamp. Text values are
// parsed with timeutil.Parse.
func (r RawRecord) Time(key string) (time.Time, bool) {
	v, ok := r.Lookup(key)
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case string:
		t, err := timeutil.Parse(x)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// Map returns the value under key when it is a JSON-like object.
func (r RawRecord) Map(key string) (map[string]any, bool) {
	v, ok := r.Lookup(key)
	if !ok || v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
