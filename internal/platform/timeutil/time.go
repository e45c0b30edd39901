package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// RFC3339Millis is the wire format for API timestamps.
	RFC3339Millis = "2006-01-02T15:04:05.000Z07:00"

	// RFC3339Micros is the log timestamp format.
	RFC3339Micros = "2006-01-02T15:04:05.000000Z07:00"
)

// Layouts accepted by Parse, tried in order. The last three cover the text
// forms Postgres emits for timestamptz columns and bare dates.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

var errEmptyTime = errors.New("timeutil: empty time value")

// Time wraps time.Time and always serializes as UTC with millisecond precision.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// Now returns the current time.
func Now() Time {
	return Time{Time: time.Now()}
}

// Parse reads a timestamp in any of the layouts stores commonly return.
// Values without a zone are interpreted as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTime
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: unrecognized time %q", s)
}

// MarshalJSON renders the time as an RFC 3339 string with milliseconds.
func (t Time) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(RFC3339Millis)+2)
	b = append(b, '"')
	b = t.UTC().AppendFormat(b, RFC3339Millis)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON accepts RFC 3339 strings with or without fractional seconds.
// A JSON null leaves the value unchanged.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timeutil: invalid JSON time %s", s)
	}
	parsed, err := parseRFC3339(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalCBOR encodes the time as a CBOR tag 0 (standard date/time string).
func (t Time) MarshalCBOR() ([]byte, error) {
	s := t.UTC().Format(RFC3339Millis)
	data := make([]byte, 0, len(s)+3)
	data = append(data, 0xc0)
	return appendCBORTextString(data, s), nil
}

// UnmarshalCBOR decodes a tag 0 date/time string or a bare text string.
func (t *Time) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return errors.New("timeutil: empty CBOR data")
	}
	if data[0] == 0xc0 {
		data = data[1:]
	}
	s, err := decodeCBORTextString(data)
	if err != nil {
		return err
	}
	parsed, err := parseRFC3339(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseRFC3339(s string) (time.Time, error) {
	if parsed, err := time.Parse(RFC3339Millis, s); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: parse %q: %w", s, err)
	}
	return parsed, nil
}

func appendCBORTextString(dst []byte, s string) []byte {
	n := len(s)
	switch {
	case n < 24:
		dst = append(dst, 0x60+byte(n))
	case n < 1<<8:
		dst = append(dst, 0x78, byte(n))
	case n < 1<<16:
		dst = append(dst, 0x79, byte(n>>8), byte(n))
	default:
		dst = append(dst, 0x7a, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
	return append(dst, s...)
}

func decodeCBORTextString(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("timeutil: empty CBOR text string")
	}
	if data[0]>>5 != 3 {
		return "", fmt.Errorf("timeutil: expected CBOR text string, got major type %d", data[0]>>5)
	}

	info := data[0] & 0x1f
	rest := data[1:]
	var n int
	switch {
	case info < 24:
		n = int(info)
	case info == 24:
		if len(rest) < 1 {
			return "", errors.New("timeutil: truncated CBOR length")
		}
		n = int(rest[0])
		rest = rest[1:]
	case info == 25:
		if len(rest) < 2 {
			return "", errors.New("timeutil: truncated CBOR length")
		}
		n = int(rest[0])<<8 | int(rest[1])
		rest = rest[2:]
	case info == 26:
		if len(rest) < 4 {
			return "", errors.New("timeutil: truncated CBOR length")
		}
		n = int(rest[0])<<24 | int(rest[1])<<16 | int(rest[2])<<8 | int(rest[3])
		rest = rest[4:]
	default:
		return "", fmt.Errorf("timeutil: unsupported CBOR length encoding %d", info)
	}

	if len(rest) < n {
		return "", errors.New("timeutil: truncated CBOR text string")
	}
	return string(rest[:n]), nil
}
