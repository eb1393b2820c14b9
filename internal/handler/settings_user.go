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
	"backoffice-api/internal/config"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"
)

// UserAdminHandler implements the settings/user CRUD.  Every mutation that
// touches a user's fields or role assignments invalidates that user's
// cached identity after the transaction commits and before responding.
type UserAdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	RBAC  *repository.RBACRepo
	Cache *auth.IdentityCache
}

func NewUserAdminHandler(cfg config.Config, u *repository.UserRepo, r *repository.RBACRepo, cache *auth.IdentityCache) *UserAdminHandler {
	return &UserAdminHandler{Cfg: cfg, Users: u, RBAC: r, Cache: cache}
}

type userCreateReq struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Status   string   `json:"status"`
	Remark   *string  `json:"remark"`
	RoleIDs  []uint64 `json:"role_ids"`
}
type userUpdateReq struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Status  string   `json:"status"`
	Remark  *string  `json:"remark"`
	RoleIDs []uint64 `json:"role_ids"`
}

type userListItem struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List returns a page of users with search over name and email.
func (h *UserAdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	users, total, err := h.Users.List(ctx, repository.ListUsersParams{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, userListItem{
			ID: u.ID, Name: u.Name, Email: u.Email, Status: u.Status,
			Roles: u.Roles, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": pageMeta(page, limit, total),
	})
}

// Create inserts a user with optional role assignments.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req userCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || !validEmail(req.Email) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and a valid email are required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.Status != "" && !validStatus(req.Status) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.checkRolesExist(ctx, req.RoleIDs); err != nil {
		return respondRoleCheck(c, err)
	}

	uid, err := h.Users.Create(ctx, repository.CreateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Status:   req.Status,
		Remark:   req.Remark,
		RoleIDs:  req.RoleIDs,
	}, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email already exists"})
		case errors.Is(err, repository.ErrNotFound):
			// A role disappeared between the precheck and the insert.
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": uid})
}

// Detail returns a single user with its assigned roles.
func (h *UserAdminHandler) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Users.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	roles := make([]echo.Map, 0, len(d.Roles))
	for _, r := range d.Roles {
		roles = append(roles, echo.Map{"id": r.ID, "name": r.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id": d.ID, "name": d.Name, "email": d.Email, "status": d.Status,
		"remark": d.Remark, "roles": roles,
		"created_at": d.CreatedAt, "updated_at": d.UpdatedAt,
	})
}

// Update rewrites the user's fields and replaces its role set, then drops
// the cached identity.
func (h *UserAdminHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || !validEmail(req.Email) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and a valid email are required"})
	}
	if req.Status != "" && !validStatus(req.Status) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.checkRolesExist(ctx, req.RoleIDs); err != nil {
		return respondRoleCheck(c, err)
	}

	if err := h.Users.Update(ctx, id, repository.UpdateUserParams{
		Name:    req.Name,
		Email:   req.Email,
		Status:  req.Status,
		Remark:  req.Remark,
		RoleIDs: req.RoleIDs,
	}); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	h.Cache.Invalidate(ctx, id)

	return c.JSON(http.StatusOK, echo.Map{"message": "User updated."})
}

// Delete soft-deletes a user and drops the cached identity, which cuts
// off any still-valid bearer tokens at the next request.
func (h *UserAdminHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Cache.Invalidate(ctx, id)

	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted."})
}

// checkRolesExist verifies every role id before the mutation starts so the
// caller gets a 404 rather than a half-applied update.
func (h *UserAdminHandler) checkRolesExist(ctx context.Context, roleIDs []uint64) error {
	for _, rid := range roleIDs {
		if _, err := h.RBAC.GetRole(ctx, rid); err != nil {
			return err
		}
	}
	return nil
}

func respondRoleCheck(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
}

func validStatus(s string) bool {
	switch s {
	case model.StatusActive, model.StatusInactive, model.StatusSuspended, model.StatusBlocked:
		return true
	}
	return false
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func pageMeta(page, limit, total int) echo.Map {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return echo.Map{"page": page, "limit": limit, "total_count": total}
}
