package tickets

import (
	"net/url"
	"time"

	"github.com/janisto/echo-tickets/internal/platform/respond"
	"github.com/janisto/echo-tickets/internal/platform/timeutil"
	ticketsvc "github.com/janisto/echo-tickets/internal/service/ticket"
)

// ListInput defines query parameters for listing tickets. Filter presence is
// read from the raw query string, so the zero values here do not mean absent.
type ListInput struct {
	Offset        int    `query:"offset"         validate:"min=0"`
	Limit         int    `query:"limit"          validate:"min=0"`
	UserID        int64  `query:"user_id"`
	EventID       int64  `query:"event_id"`
	WalletAddress string `query:"wallet_address" validate:"omitempty,eth_addr"`
	Status        string `query:"status"         validate:"omitempty,oneof=minted pending transferred redeemed revoked"`
	CreatedFrom   string `query:"created_from"`
	CreatedTo     string `query:"created_to"`
}

// toQuery builds the service query. raw is the request's query string and
// decides which filters were supplied.
func (in ListInput) toQuery(raw url.Values) (ticketsvc.ListQuery, error) {
	q := ticketsvc.ListQuery{Offset: in.Offset, Limit: in.Limit}
	var fields []respond.ErrorDetail

	if raw.Has("user_id") {
		if raw.Get("user_id") == "" {
			fields = append(fields, emptyField("user_id"))
		}
		q.UserID = ticketsvc.Some(in.UserID)
	}
	if raw.Has("event_id") {
		if raw.Get("event_id") == "" {
			fields = append(fields, emptyField("event_id"))
		}
		q.EventID = ticketsvc.Some(in.EventID)
	}
	if raw.Has("wallet_address") {
		q.WalletAddress = ticketsvc.Some(in.WalletAddress)
	}
	if raw.Has("status") {
		q.Status = ticketsvc.Some(in.Status)
	}

	var from, to time.Time
	if raw.Has("created_from") {
		t, err := timeutil.Parse(in.CreatedFrom)
		if err != nil {
			fields = append(fields, timeField("created_from", in.CreatedFrom))
		} else {
			from = t
			q.CreatedFrom = ticketsvc.Some(t)
		}
	}
	if raw.Has("created_to") {
		t, err := timeutil.Parse(in.CreatedTo)
		if err != nil {
			fields = append(fields, timeField("created_to", in.CreatedTo))
		} else {
			to = t
			q.CreatedTo = ticketsvc.Some(t)
		}
	}
	if q.CreatedFrom.IsSet() && q.CreatedTo.IsSet() && !to.After(from) {
		fields = append(fields, respond.ErrorDetail{
			Message:  "created_to must be after created_from",
			Location: "query.created_to",
			Value:    in.CreatedTo,
		})
	}

	if len(fields) > 0 {
		return ticketsvc.ListQuery{}, respond.Error422("validation failed", fields...)
	}
	return q, nil
}

func emptyField(name string) respond.ErrorDetail {
	return respond.ErrorDetail{
		Message:  name + " must not be empty",
		Location: "query." + name,
	}
}

func timeField(name, value string) respond.ErrorDetail {
	return respond.ErrorDetail{
		Message:  name + " must be an RFC 3339 timestamp or a YYYY-MM-DD date",
		Location: "query." + name,
		Value:    value,
	}
}
