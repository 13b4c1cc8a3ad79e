package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillgraph/internal/service"
)

// Identifier resolves an Authorization header into an identity.
type Identifier interface {
	Identify(ctx context.Context, header string) service.Identity
}

// Identify resolves the caller once per request and attaches the identity
// to the request context, where resolvers and handlers read it with
// service.IdentityFrom.  It never rejects a request: a bad or missing token
// just leaves the caller anonymous.
func Identify(auth Identifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			id := auth.Identify(r.Context(), r.Header.Get(echo.HeaderAuthorization))
			c.SetRequest(r.WithContext(service.WithIdentity(r.Context(), id)))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous callers with 401.  It must run after Identify.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !service.IdentityFrom(c.Request().Context()).Authenticated() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			return next(c)
		}
	}
}

// callerID names the caller for rate limiting.
func callerID(c echo.Context) string {
	if id := service.IdentityFrom(c.Request().Context()); id.Authenticated() {
		return id.UserID
	}
	return "anon"
}
