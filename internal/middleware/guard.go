package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/auth"
)

// The guard middleware wraps the auth package checks for echo routes.  The
// 401 body is deliberately uniform: it never reveals whether the token was
// malformed, expired or belonged to a deleted user.  The 403 body names
// the missing capability class but never enumerates the required set.

// RequireAuth rejects unauthenticated requests.  Use it for routes that
// need an identity but no particular role or permission.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Identity(c) == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			return next(c)
		}
	}
}

// RequireRoles enforces that the identity holds any of the given roles
// (superuser always passes).  Unauthenticated requests get 401 before any
// role information is considered.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch auth.RequireRoles(Identity(c), roles) {
			case nil:
				return next(c)
			case auth.ErrUnauthenticated:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			default:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "missing required role"})
			}
		}
	}
}

// RequirePermissions enforces that the identity holds all of the given
// permissions (superuser always passes).  Unauthenticated requests get 401
// before any permission information is considered.
func RequirePermissions(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch auth.RequirePermissions(Identity(c), permissions) {
			case nil:
				return next(c)
			case auth.ErrUnauthenticated:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			default:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "missing required permission"})
			}
		}
	}
}
