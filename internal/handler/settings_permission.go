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
	"backoffice-api/internal/repository"
)

// PermissionAdminHandler implements the settings/permission CRUD.  Create
// accepts several names under one group in a single batch.  Renaming or
// deleting a permission changes the flattened permission list of every
// user whose roles grant it, so those users' cache entries are dropped.
type PermissionAdminHandler struct {
	RBAC  *repository.RBACRepo
	Cache *auth.IdentityCache
}

func NewPermissionAdminHandler(r *repository.RBACRepo, cache *auth.IdentityCache) *PermissionAdminHandler {
	return &PermissionAdminHandler{RBAC: r, Cache: cache}
}

type permissionCreateReq struct {
	Names []string `json:"name"`
	Group string   `json:"group"`
}
type permissionUpdateReq struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// List returns a page of permissions with search over name and group.
func (h *PermissionAdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	perms, total, err := h.RBAC.ListPermissions(ctx, c.QueryParam("search"), page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	items := make([]echo.Map, 0, len(perms))
	for _, p := range perms {
		items = append(items, echo.Map{
			"id": p.ID, "name": p.Name, "group": p.Group,
			"created_at": p.CreatedAt, "updated_at": p.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": pageMeta(page, limit, total),
	})
}

// Create inserts a batch of permission names under one group.
func (h *PermissionAdminHandler) Create(c echo.Context) error {
	var req permissionCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Group = strings.TrimSpace(req.Group)
	if len(req.Group) < 2 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "group must be at least 2 characters"})
	}
	if len(req.Names) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "at least one name is required"})
	}
	names := make([]string, 0, len(req.Names))
	for _, n := range req.Names {
		n = strings.TrimSpace(n)
		if len(n) < 2 {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "names must be at least 2 characters"})
		}
		names = append(names, n)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.RBAC.CreatePermissions(ctx, names, req.Group); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "permission name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create permission failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Permissions created for group " + req.Group + "."})
}

// Detail returns a single permission.
func (h *PermissionAdminHandler) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.RBAC.GetPermission(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "permission not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id": p.ID, "name": p.Name, "group": p.Group,
		"created_at": p.CreatedAt, "updated_at": p.UpdatedAt,
	})
}

// Update renames a permission or moves it to another group, then drops
// the cached identity of every user granted it.
func (h *PermissionAdminHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req permissionUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Group = strings.TrimSpace(req.Group)
	if len(req.Name) < 2 || len(req.Group) < 2 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and group must be at least 2 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	holders, err := h.RBAC.UsersWithPermission(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.RBAC.UpdatePermission(ctx, id, req.Name, req.Group); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "permission not found"})
		case errors.Is(err, repository.ErrNameExists):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "permission name already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	for _, uid := range holders {
		h.Cache.Invalidate(ctx, uid)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Permission updated."})
}

// Delete removes a permission and its role grants, then drops the cached
// identity of every user that was granted it.
func (h *PermissionAdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	holders, err := h.RBAC.UsersWithPermission(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if err := h.RBAC.DeletePermission(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "permission not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	for _, uid := range holders {
		h.Cache.Invalidate(ctx, uid)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Permission deleted."})
}
