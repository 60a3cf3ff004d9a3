package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"sa-auth/internal/apierr"
	"sa-auth/internal/users"
)

// TokenValidator decodes a bearer token into the caller's identity.
type TokenValidator interface {
	Validate(token string) (*users.DTO, error)
}

// SessionChecker reports the refresh token stored for a user, or "" when no
// session exists.
type SessionChecker interface {
	Find(ctx context.Context, userID string) (string, error)
}

// Authenticate verifies the bearer token and requires a live session for the
// subject. Every failure maps to the same generic 401 so callers cannot
// tell which check tripped.
func Authenticate(tokens TokenValidator, sessions SessionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if header == "" || token == "" {
				return apierr.Respond(c, apierr.ErrUnauthorized)
			}
			dto, err := tokens.Validate(token)
			if err != nil {
				return apierr.Respond(c, apierr.ErrUnauthorized)
			}
			stored, err := sessions.Find(c.Request().Context(), dto.ID.Hex())
			if err != nil || stored == "" {
				return apierr.Respond(c, apierr.ErrUnauthorized)
			}
			c.Set("user", dto)
			return next(c)
		}
	}
}
