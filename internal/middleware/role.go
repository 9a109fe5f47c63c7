package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireUser aborts anonymous requests with 401. It assumes the Identity
// middleware has already run.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentIdentity(c) == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"success": false,
					"error":   "Authentication required",
				})
			}
			return next(c)
		}
	}
}

// RequireAdmin aborts requests whose identity is missing or does not carry
// the admin role with 403.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentIdentity(c).IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"error":   "Admin access required",
				})
			}
			return next(c)
		}
	}
}
