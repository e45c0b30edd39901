package tickets

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	applog "github.com/janisto/echo-tickets/internal/platform/logging"
	"github.com/janisto/echo-tickets/internal/platform/pagination"
	"github.com/janisto/echo-tickets/internal/platform/respond"
	"github.com/janisto/echo-tickets/internal/platform/timeutil"
	ticketsvc "github.com/janisto/echo-tickets/internal/service/ticket"
)

// retryAfterSeconds is sent with 503 responses.
const retryAfterSeconds = 5

// Register wires ticket routes into the provided group.
func Register(g *echo.Group, svc ticketsvc.Service) {
	g.GET("/tickets", handleList(svc))
}

// handleList godoc
//
//	@Summary		List tickets
//	@Description	Returns a page of tickets, newest first. If the filtered query fails the
//	@Description	endpoint answers from an unfiltered fallback read and marks the page degraded.
//	@Tags			tickets
//	@Produce		json,application/cbor
//	@Param			offset			query		int		false	"Rows to skip"						minimum(0)
//	@Param			limit			query		int		false	"Rows per page, capped at 100"		minimum(0)
//	@Param			user_id			query		int		false	"Owner filter; 0 is a valid value"
//	@Param			event_id		query		int		false	"Event filter"
//	@Param			wallet_address	query		string	false	"Wallet filter"
//	@Param			status			query		string	false	"Status filter"	Enums(minted, pending, transferred, redeemed, revoked)
//	@Param			created_from	query		string	false	"Created at or after (RFC 3339)"
//	@Param			created_to		query		string	false	"Created before (RFC 3339)"
//	@Success		200				{object}	ListData
//	@Failure		400				{object}	respond.ProblemDetails
//	@Failure		422				{object}	respond.ProblemDetails
//	@Failure		500				{object}	respond.ProblemDetails
//	@Failure		503				{object}	respond.ProblemDetails
//	@Header			200				{string}	Link	"RFC 8288 pagination links"
//	@Router			/tickets [get]
func handleList(svc ticketsvc.Service) echo.HandlerFunc {
	return func(c *echo.Context) error {
		var input ListInput
		if err := c.Bind(&input); err != nil {
			return err
		}
		if err := c.Validate(&input); err != nil {
			return err
		}

		raw := c.Request().URL.Query()
		q, err := input.toQuery(raw)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		result, err := svc.List(ctx, q)
		if err != nil {
			return mapServiceError(ctx, err)
		}

		if result.TotalKnown {
			p := pagination.Params{Offset: result.Offset, Limit: result.Limit}
			if link := pagination.BuildLinkHeader(c.Request().URL.Path, raw, p, result.Total); link != "" {
				c.Response().Header().Set("Link", link)
			}
		}
		return respond.Negotiate(c, http.StatusOK, toListData(result))
	}
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ticketsvc.ErrStoreUnavailable):
		applog.LogError(ctx, "ticket store unavailable", err)
		return respond.Error503("ticket store unavailable").WithRetryAfter(retryAfterSeconds)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		applog.LogWarn(ctx, "ticket list aborted")
		return respond.Error503("request aborted")
	case errors.Is(err, ticketsvc.ErrInvalidQuery):
		return respond.Error422("offset and limit must be non-negative")
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return respond.Error500("internal error")
	}
}

func toListData(r *ticketsvc.ListResult) ListData {
	out := ListData{
		Tickets:    make([]Ticket, len(r.Tickets)),
		Total:      r.Total,
		TotalKnown: r.TotalKnown,
		Degraded:   r.Degraded,
		Offset:     r.Offset,
		Limit:      r.Limit,
	}
	for i, t := range r.Tickets {
		out.Tickets[i] = Ticket{
			ID:            t.ID,
			UserID:        t.UserID,
			EventID:       t.EventID,
			WalletAddress: t.WalletAddress,
			TokenID:       t.TokenID,
			Status:        t.Status,
			Metadata:      t.Metadata,
			CreatedAt:     timeutil.Time{Time: t.CreatedAt},
		}
	}
	return out
}
