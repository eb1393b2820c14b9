package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"backoffice-api/internal/config"
	"backoffice-api/internal/handler"
	"backoffice-api/internal/middleware"
)

// RegisterRoutes registers the unauthenticated informational endpoints:
// the health check used by load balancers and the application banner.
func RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Home(cfg))
}

// RegisterAuth registers the authentication endpoints under /v1/auth.
// None of them require an existing session; all of them sit behind the
// rate limiter because they are the abuse surface (credential stuffing,
// email bombing).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.Use(middleware.RateLimit(rlCfg, rdb))

	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/resend-verification", a.ResendVerification)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
}

// RegisterProfile registers the authenticated self-service endpoints.
// Authenticate attaches the identity; RequireAuth turns its absence into
// a 401 before any handler runs.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, authenticate echo.MiddlewareFunc) {
	g := e.Group("/v1/profile")
	g.Use(authenticate)
	g.Use(middleware.RequireAuth())

	g.GET("", p.Profile)
	g.PATCH("", p.UpdateProfile)
	g.PATCH("/password", p.UpdatePassword)
}

// RegisterSettings registers the RBAC administration endpoints.  Each
// resource is guarded by its own permission set; the guard runs after
// Authenticate so unauthenticated callers always get a 401, never a 403.
func RegisterSettings(e *echo.Echo, u *handler.UserAdminHandler, r *handler.RoleAdminHandler,
	p *handler.PermissionAdminHandler, s *handler.SelectHandler, authenticate echo.MiddlewareFunc) {
	g := e.Group("/v1/settings")
	g.Use(authenticate)

	g.GET("/user", u.List, middleware.RequirePermissions("user list"))
	g.POST("/user", u.Create, middleware.RequirePermissions("user create"))
	g.GET("/user/:id", u.Detail, middleware.RequirePermissions("user view"))
	g.PATCH("/user/:id", u.Update, middleware.RequirePermissions("user edit"))
	g.DELETE("/user/:id", u.Delete, middleware.RequirePermissions("user delete"))

	g.GET("/role", r.List, middleware.RequirePermissions("role list"))
	g.POST("/role", r.Create, middleware.RequirePermissions("role create"))
	g.GET("/role/:id", r.Detail, middleware.RequirePermissions("role view"))
	g.PATCH("/role/:id", r.Update, middleware.RequirePermissions("role edit"))
	g.DELETE("/role/:id", r.Delete, middleware.RequirePermissions("role delete"))

	g.GET("/permission", p.List, middleware.RequirePermissions("permission list"))
	g.POST("/permission", p.Create, middleware.RequirePermissions("permission create"))
	g.GET("/permission/:id", p.Detail, middleware.RequirePermissions("permission view"))
	g.PATCH("/permission/:id", p.Update, middleware.RequirePermissions("permission edit"))
	g.DELETE("/permission/:id", p.Delete, middleware.RequirePermissions("permission delete"))

	// Option lists only need an authenticated session: they back the
	// pickers inside forms that are themselves permission guarded.
	g.GET("/select/role", s.Roles, middleware.RequireAuth())
	g.GET("/select/permission", s.Permissions, middleware.RequireAuth())
}
