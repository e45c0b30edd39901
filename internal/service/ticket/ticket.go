package ticket

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Field names of the tickets table.
const (
	FieldID            = "id"
	FieldUserID        = "user_id"
	FieldEventID       = "event_id"
	FieldWalletAddress = "wallet_address"
	FieldTokenID       = "token_id"
	FieldStatus        = "status"
	FieldMetadata      = "metadata"
	FieldCreatedAt     = "created_at"
)

// ErrInvalidRecord is matched by every *RecordError.
var ErrInvalidRecord = errors.New("invalid ticket record")

// Ticket is a validated ticket row.
type Ticket struct {
	ID            string
	UserID        int64
	EventID       int64
	WalletAddress string
	TokenID       string
	Status        string
	Metadata      map[string]any
	CreatedAt     time.Time
}

// RecordError describes why a RawRecord could not become a Ticket.
type RecordError struct {
	Missing   []string
	Malformed []string
}

func (e *RecordError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ","))
	}
	if len(e.Malformed) > 0 {
		parts = append(parts, "malformed "+strings.Join(e.Malformed, ","))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRecord, strings.Join(parts, "; "))
}

func (e *RecordError) Unwrap() error {
	return ErrInvalidRecord
}

// FromRecord builds a Ticket from raw. It never panics: a record lacking a
// required field, or holding one of the wrong shape, yields a *RecordError.
// Optional fields with an unexpected shape are left empty.
func FromRecord(raw RawRecord) (Ticket, error) {
	var (
		t      Ticket
		recErr RecordError
		ok     bool
	)

	check := func(field string, parsed bool) {
		if parsed {
			return
		}
		if v, present := raw.Lookup(field); !present || v == nil {
			recErr.Missing = append(recErr.Missing, field)
			return
		}
		recErr.Malformed = append(recErr.Malformed, field)
	}

	t.ID, ok = raw.String(FieldID)
	check(FieldID, ok && t.ID != "")
	t.UserID, ok = raw.Int64(FieldUserID)
	check(FieldUserID, ok)
	t.EventID, ok = raw.Int64(FieldEventID)
	check(FieldEventID, ok)
	t.CreatedAt, ok = raw.Time(FieldCreatedAt)
	check(FieldCreatedAt, ok)

	if len(recErr.Missing) > 0 || len(recErr.Malformed) > 0 {
		return Ticket{}, &recErr
	}

	t.WalletAddress, _ = raw.String(FieldWalletAddress)
	t.TokenID, _ = raw.String(FieldTokenID)
	t.Status, _ = raw.String(FieldStatus)
	t.Metadata, _ = raw.Map(FieldMetadata)

	return t, nil
}
