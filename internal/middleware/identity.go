// Package middleware provides shared request processing for handlers.
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/jpbreysse/svelteblog/internal/model"
	"github.com/jpbreysse/svelteblog/internal/repository"
	"github.com/jpbreysse/svelteblog/internal/utils"
)

// CookieName is the cookie the session token travels in.
const CookieName = "auth_token"

const identityKey = "identity"

// Identity resolves the session cookie to a live, approved user on every
// request. An absent, expired, forged or otherwise malformed token and a
// user that is no longer approved all resolve to anonymous; resolution
// never fails the request. The resolved *model.Identity (or nil) is stored
// in the request context for handlers and downstream middleware.
func Identity(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := utils.ParseSessionToken(secret, cookie.Value)
			if err != nil {
				// Expired and forged tokens are deliberately not
				// distinguished outside of diagnostics.
				c.Logger().Debugf("session token rejected: %v", err)
				return next(c)
			}
			id, err := claims.UserID()
			if err != nil {
				return next(c)
			}
			u, err := users.GetApprovedByID(c.Request().Context(), id)
			if err != nil {
				return next(c)
			}
			c.Set(identityKey, &model.Identity{
				ID:        u.ID,
				Email:     u.Email,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Role:      u.Role,
			})
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity resolved for this request, or nil
// when the request is anonymous.
func CurrentIdentity(c echo.Context) *model.Identity {
	if v, ok := c.Get(identityKey).(*model.Identity); ok {
		return v
	}
	return nil
}
