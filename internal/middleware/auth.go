package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/auth"
)

// identityKey is the context key under which the resolved identity is
// stored.  It is set exactly once by Authenticate and read-only afterwards.
const identityKey = "user"

// Identity returns the identity resolved for this request, or nil when the
// request is unauthenticated.
func Identity(c echo.Context) *auth.UserInformation {
	if v, ok := c.Get(identityKey).(*auth.UserInformation); ok {
		return v
	}
	return nil
}

// Authenticate resolves the request identity from the Authorization header
// and attaches it to the context.  The pipeline is: parse the bearer token,
// verify the signature, look the user id up in the identity cache, fill the
// cache from the resolver on a miss.
//
// Every authentication failure (missing header, bad token, unknown or
// ineligible user) simply leaves the identity unset and lets the request
// continue; the guard middleware is the single place that turns a missing
// identity into a 401.  Only infrastructure failures on the resolution
// path abort the request, with a 500, because partial or guessed identity
// must never be attached.
func Authenticate(tokens *auth.TokenService, cache *auth.IdentityCache, resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			userID, ok := tokens.Verify(raw)
			if !ok {
				return next(c)
			}

			ctx := c.Request().Context()
			if info, hit := cache.Get(ctx, userID); hit {
				c.Set(identityKey, &info)
				return next(c)
			}

			info, err := resolver.Resolve(ctx, userID)
			if err == auth.ErrUnauthenticated {
				// Valid signature but the subject is gone, suspended or
				// unverified.  Degrade to "no identity".
				return next(c)
			}
			if err != nil {
				log.Printf("auth: identity resolution failed for user %d: %v", userID, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			cache.Set(ctx, info)
			c.Set(identityKey, &info)
			return next(c)
		}
	}
}
