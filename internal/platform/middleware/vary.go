package middleware

import "github.com/labstack/echo/v5"

// Vary returns Echo middleware that adds Accept, plus any extra headers, to
// the Vary header on all responses. Accept selects between JSON and CBOR
// (RFC 9110 Section 12.5.5); pass "Origin" when CORS is restricted to a list.
func Vary(extra ...string) echo.MiddlewareFunc {
	values := append([]string{"Accept"}, extra...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			for _, v := range values {
				h.Add("Vary", v)
			}
			return next(c)
		}
	}
}
