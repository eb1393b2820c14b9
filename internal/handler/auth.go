package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"backoffice-api/internal/auth"
	"backoffice-api/internal/config"
	"backoffice-api/internal/model"
	"backoffice-api/internal/queue"
	"backoffice-api/internal/repository"
	"backoffice-api/internal/utils"
)

// AuthHandler bundles dependencies for the authentication endpoints.
type AuthHandler struct {
	Cfg          config.Config
	Users        *repository.UserRepo
	ActionTokens *repository.TokenRepo
	Tokens       *auth.TokenService
	Cache        *auth.IdentityCache
	Resolver     *auth.Resolver
	Events       *queue.Publisher // nil drops events and mail silently
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, at *repository.TokenRepo,
	ts *auth.TokenService, cache *auth.IdentityCache, res *auth.Resolver, ev *queue.Publisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, ActionTokens: at, Tokens: ts, Cache: cache, Resolver: res, Events: ev}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type tokenReq struct {
	Token string `json:"token"`
}
type emailReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Register creates an active but unverified user and queues the
// verification email.  The response is neutral on purpose.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, repository.CreateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Status:   model.StatusActive,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if err := h.sendVerification(ctx, uid, req.Name, req.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue verification failed"})
	}

	h.publishEvent(ctx, c, "register", uid, req.Email)

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registration successful. Please check your email to verify your account.",
	})
}

// Login verifies credentials, resolves and caches the identity and
// returns a signed bearer token alongside it.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.publishEvent(ctx, c, "login_failed", 0, req.Email)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.publishEvent(ctx, c, "login_failed", u.ID, req.Email)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if u.EmailVerifiedAt == nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email not verified"})
	}
	if u.Status != model.StatusActive {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "account is not active, please contact an administrator"})
	}

	info, err := h.Resolver.Resolve(ctx, u.ID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve identity failed"})
	}
	h.Cache.Set(ctx, info)

	token, err := h.Tokens.Sign(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	h.publishEvent(ctx, c, "login", u.ID, req.Email)

	return c.JSON(http.StatusOK, echo.Map{
		"user_information": info,
		"access_token":     token,
	})
}

// VerifyEmail consumes a single-use verification token and stamps the
// user's email as verified.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.ActionTokens.ConsumeVerification(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid or expired verification token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	h.Cache.Invalidate(ctx, uid)

	return c.JSON(http.StatusOK, echo.Map{"message": "Email verified successfully."})
}

// ResendVerification re-issues the verification token.  Unknown emails
// succeed silently so the endpoint cannot be used to probe for accounts.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || !validEmail(strings.ToLower(strings.TrimSpace(req.Email))) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "valid email required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Do not leak account existence.
			return c.JSON(http.StatusOK, echo.Map{"message": "If the account exists, a verification email has been sent."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.EmailVerifiedAt != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email already verified"})
	}

	if err := h.sendVerification(ctx, u.ID, u.Name, u.Email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue verification failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "If the account exists, a verification email has been sent."})
}

// ForgotPassword issues a reset token.  Unknown emails succeed silently,
// the same policy as ResendVerification.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || !validEmail(strings.ToLower(strings.TrimSpace(req.Email))) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "valid email required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	neutral := echo.Map{"message": "If the account exists, a password reset email has been sent."}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, neutral)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	token, err := utils.RandomToken(48)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	exp := time.Now().UTC().Add(h.Cfg.ActionTTL)
	if err := h.ActionTokens.IssueReset(ctx, u.ID, token, exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	if h.Events != nil {
		_ = h.Events.PublishEmail(ctx, queue.EmailMessage{
			To:      u.Email,
			Subject: "Reset Password",
			Body: fmt.Sprintf("Hi %s,\n\nReset your password using the link below:\n%s/auth/reset-password?token=%s\n\nIf you did not request this, you can ignore this email.\n",
				u.Name, h.Cfg.ClientURL, token),
		})
	}
	return c.JSON(http.StatusOK, neutral)
}

// ResetPassword consumes a reset token and stores the new password.  The
// cached identity is dropped before responding.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "token required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.Password != req.PasswordConfirmation {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "password confirmation does not match"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	uid, err := h.ActionTokens.ConsumeReset(ctx, strings.TrimSpace(req.Token), hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid or expired reset token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	h.Cache.Invalidate(ctx, uid)

	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset."})
}

// sendVerification issues a fresh verification token and queues the mail.
func (h *AuthHandler) sendVerification(ctx context.Context, uid uint64, name, email string) error {
	token, err := utils.RandomToken(48)
	if err != nil {
		return err
	}
	exp := time.Now().UTC().Add(h.Cfg.ActionTTL)
	if err := h.ActionTokens.IssueVerification(ctx, uid, token, exp); err != nil {
		return err
	}
	if h.Events != nil {
		// Mail failures are logged by the publisher and ignored here; the
		// user can always request a resend.
		_ = h.Events.PublishEmail(ctx, queue.EmailMessage{
			To:      email,
			Subject: "Email verification",
			Body: fmt.Sprintf("Hi %s,\n\nVerify your email address using the link below:\n%s/auth/verify-email?token=%s\n",
				name, h.Cfg.ClientURL, token),
		})
	}
	return nil
}

// publishEvent emits an analytics event for the login/register flows.
func (h *AuthHandler) publishEvent(ctx context.Context, c echo.Context, event string, uid uint64, email string) {
	if h.Events == nil {
		return
	}
	_ = h.Events.PublishAuthEvent(ctx, queue.AuthEvent{
		Event:     event,
		UserID:    uid,
		Email:     email,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		At:        time.Now().UTC().Format(time.RFC3339),
	})
}

// validEmail applies the same loose shape check the rest of the API uses;
// real validation happens when the verification mail round-trips.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
