package tickets

import "github.com/janisto/echo-tickets/internal/platform/timeutil"

// Ticket represents a ticket in list responses.
type Ticket struct {
	ID            string         `json:"id"                       example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	UserID        int64          `json:"user_id"                  example:"42"`
	EventID       int64          `json:"event_id"                 example:"7"`
	WalletAddress string         `json:"wallet_address,omitempty" example:"0x52908400098527886E0F7030069857D2E4169EE7"`
	TokenID       string         `json:"token_id,omitempty"       example:"1001"`
	Status        string         `json:"status,omitempty"         example:"minted"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     timeutil.Time  `json:"created_at"               example:"2024-01-15T10:30:00.000Z"`
}

// ListData is the response body for the ticket list. When degraded is true
// the rows came from an unfiltered fallback read and total is 0 with
// total_known false; clients must not treat that total as a row count.
type ListData struct {
	Tickets    []Ticket `json:"tickets"`
	Total      int64    `json:"total"       example:"125"`
	TotalKnown bool     `json:"total_known" example:"true"`
	Degraded   bool     `json:"degraded"    example:"false"`
	Offset     int      `json:"offset"      example:"0"`
	Limit      int      `json:"limit"       example:"20"`
}
