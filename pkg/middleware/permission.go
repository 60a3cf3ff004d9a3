package middleware

import (
	"github.com/labstack/echo/v4"

	"sa-auth/internal/apierr"
	"sa-auth/internal/users"
)

// RequirePermission gates a route on a single permission string held by the
// authenticated user. Must run after Authenticate.
func RequirePermission(p users.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			dto, ok := c.Get("user").(*users.DTO)
			if !ok || dto == nil {
				return apierr.Respond(c, apierr.ErrUnauthorized)
			}
			if !dto.HasPermission(p) {
				return apierr.Respond(c, apierr.ErrForbidden)
			}
			return next(c)
		}
	}
}
