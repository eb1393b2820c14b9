package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/repository"
)

// SelectHandler serves the lightweight option lists behind the admin UI
// dropdowns.
type SelectHandler struct {
	RBAC *repository.RBACRepo
}

func NewSelectHandler(r *repository.RBACRepo) *SelectHandler {
	return &SelectHandler{RBAC: r}
}

// Roles lists the assignable roles.  The superuser sentinel is excluded:
// it is never assigned through the UI.
func (h *SelectHandler) Roles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.RBAC.RolesExcludingSuperuser(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]echo.Map, 0, len(roles))
	for _, r := range roles {
		out = append(out, echo.Map{"id": r.ID, "name": r.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// Permissions lists every permission keyed by its group label.
func (h *SelectHandler) Permissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	grouped, err := h.RBAC.PermissionsGrouped(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, grouped)
}
