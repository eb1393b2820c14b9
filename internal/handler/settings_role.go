package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"
)

// RoleAdminHandler implements the settings/role CRUD.  Renaming a role or
// changing its permission grants alters the resolved identity of every
// user holding it, so those users' cache entries are invalidated after
// the mutation commits.
type RoleAdminHandler struct {
	RBAC  *repository.RBACRepo
	Cache *auth.IdentityCache
}

func NewRoleAdminHandler(r *repository.RBACRepo, cache *auth.IdentityCache) *RoleAdminHandler {
	return &RoleAdminHandler{RBAC: r, Cache: cache}
}

type roleReq struct {
	Name          string   `json:"name"`
	PermissionIDs []uint64 `json:"permission_ids"`
}

// List returns a page of roles.  The superuser sentinel is a real row and
// does appear here; only the select endpoint hides it.
func (h *RoleAdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	roles, total, err := h.RBAC.ListRoles(ctx, c.QueryParam("search"), page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	items := make([]echo.Map, 0, len(roles))
	for _, r := range roles {
		items = append(items, echo.Map{
			"id": r.ID, "name": r.Name,
			"created_at": r.CreatedAt, "updated_at": r.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": pageMeta(page, limit, total),
	})
}

// Create inserts a role with its permission grants.
func (h *RoleAdminHandler) Create(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name must be at least 2 characters"})
	}
	if req.Name == model.SuperuserRole {
		// The sentinel is seeded, never created through the API.
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name is reserved"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.RBAC.CreateRole(ctx, req.Name, req.PermissionIDs)
	if err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "role name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create role failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Detail returns the role with the full permission assignment matrix,
// grouped by permission group label.
func (h *RoleAdminHandler) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.RBAC.GetRoleDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id": d.Role.ID, "name": d.Role.Name,
		"created_at": d.Role.CreatedAt, "updated_at": d.Role.UpdatedAt,
		"permissions": d.Groups,
	})
}

// Update renames a role and replaces its permission grants, then drops the
// cached identity of every user holding the role.
func (h *RoleAdminHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name must be at least 2 characters"})
	}
	if req.Name == model.SuperuserRole {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name is reserved"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Collect holders before mutating; failing the lookup afterwards would
	// leave stale authorization data cached.
	holders, err := h.RBAC.UsersWithRole(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.RBAC.UpdateRole(ctx, id, req.Name, req.PermissionIDs); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "role name already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	for _, uid := range holders {
		h.Cache.Invalidate(ctx, uid)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Role updated."})
}

// Delete removes a role and its join rows, then drops the cached identity
// of every user that held it.  Holders are collected before the delete
// because the join rows are gone afterwards.
func (h *RoleAdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	holders, err := h.RBAC.UsersWithRole(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.RBAC.DeleteRole(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	for _, uid := range holders {
		h.Cache.Invalidate(ctx, uid)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Role deleted."})
}
