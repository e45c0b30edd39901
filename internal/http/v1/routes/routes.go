package routes

import (
	"github.com/labstack/echo/v5"

	"github.com/janisto/echo-tickets/internal/http/v1/tickets"
	ticketsvc "github.com/janisto/echo-tickets/internal/service/ticket"
)

// Register wires all v1 routes into the provided group.
func Register(v1 *echo.Group, svc ticketsvc.Service) {
	tickets.Register(v1, svc)
}
