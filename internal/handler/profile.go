package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/config"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/repository"
	"backoffice-api/internal/utils"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Cache    *auth.IdentityCache
	Resolver *auth.Resolver
}

func NewProfileHandler(cfg config.Config, u *repository.UserRepo, cache *auth.IdentityCache, res *auth.Resolver) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: u, Cache: cache, Resolver: res}
}

type updateProfileReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
type updatePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Profile echoes the identity the middleware resolved for this request.
func (h *ProfileHandler) Profile(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.Identity(c))
}

// UpdateProfile changes the user's own name and email.  The cached
// identity is invalidated after the update commits, then re-primed with
// freshly resolved data before responding.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	ident := middleware.Identity(c)

	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || !validEmail(req.Email) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and a valid email are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, ident.ID, req.Name, req.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email already in use"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	// Invalidate first, then re-prime: a reader racing this request gets
	// either a miss or the fresh value, never the stale one.
	h.Cache.Invalidate(ctx, ident.ID)
	info, err := h.Resolver.Resolve(ctx, ident.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve identity failed"})
	}
	h.Cache.Set(ctx, info)

	return c.JSON(http.StatusOK, info)
}

// UpdatePassword verifies the current password before storing a new hash.
// The cached identity is invalidated before responding.
func (h *ProfileHandler) UpdatePassword(c echo.Context) error {
	ident := middleware.Identity(c)

	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "current password is incorrect"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, ident.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Cache.Invalidate(ctx, ident.ID)

	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated."})
}
