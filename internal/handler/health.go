package handler // declare the package name; contains HTTP handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/config"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Home returns the application banner with name, environment and server
// time.  It is the only unauthenticated informational endpoint.
func Home(cfg config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"app_name": cfg.AppName,
			"app_env":  cfg.Env,
			"date":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
