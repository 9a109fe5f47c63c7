// Package handler implements the HTTP boundary. Handlers validate payloads,
// invoke repository operations with the resolved identity and translate the
// error kinds into transport responses.
package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jpbreysse/svelteblog/internal/config"
	"github.com/jpbreysse/svelteblog/internal/middleware"
	"github.com/jpbreysse/svelteblog/internal/model"
	"github.com/jpbreysse/svelteblog/internal/queue"
	"github.com/jpbreysse/svelteblog/internal/repository"
	queue_publisher "github.com/jpbreysse/svelteblog/internal/service"
	"github.com/jpbreysse/svelteblog/internal/utils"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthHandler bundles dependencies for registration, login and account
// endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Log   *zap.Logger
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register creates a pending account. The new user cannot log in until an
// admin approves the registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)

	errs := map[string]string{}
	if !emailRe.MatchString(req.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if utf8.RuneCountInString(req.FirstName) < 2 {
		errs["first_name"] = "First name must be at least 2 characters"
	}
	if utf8.RuneCountInString(req.LastName) < 2 {
		errs["last_name"] = "Last name must be at least 2 characters"
	}
	if len(req.Password) < 6 {
		errs["password"] = "Password must be at least 6 characters"
	}
	if req.Password != req.ConfirmPassword {
		errs["confirm_password"] = "Passwords do not match"
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"errors":  map[string]string{"email": "An account with this email already exists"},
			})
		}
		h.Log.Error("register user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to create account. Please try again.",
		})
	}

	// Best-effort notification; a broker outage must not fail the signup.
	ev := queue.UserRegisteredEvent{
		UserID:       u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		RegisteredAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishUserRegistered(pubCtx, ev)
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Account created. An administrator must approve it before you can log in.",
		"user":    u,
	})
}

// Login verifies credentials, issues a session token and stores it in an
// HTTP-only, same-site cookie valid for the session TTL.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)

	errs := map[string]string{}
	if !emailRe.MatchString(req.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if req.Password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.VerifyLogin(ctx, req.Email, req.Password)
	if err != nil {
		var notApproved *repository.NotApprovedError
		switch {
		case errors.Is(err, repository.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   "Invalid email or password",
			})
		case errors.As(err, &notApproved):
			msg := "Your account is not approved yet."
			switch notApproved.Status {
			case model.StatusPending:
				msg = "Your account is pending approval. Please wait for an administrator to approve your account."
			case model.StatusRejected:
				msg = "Your account has been rejected. Please contact an administrator."
			}
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": msg})
		default:
			h.Log.Error("login", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success": false,
				"error":   "An error occurred during login. Please try again.",
			})
		}
	}

	token, exp, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, u.Email,
		string(u.Role), string(u.Status), h.Cfg.SessionTTL)
	if err != nil {
		h.Log.Error("issue session token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "An error occurred during login. Please try again.",
		})
	}
	c.SetCookie(h.sessionCookie(token, int(h.Cfg.SessionTTL.Seconds())))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    u,
		"expires": exp,
	})
}

// Logout clears the session cookie. Tokens cannot be revoked server-side;
// an unexpired token simply stops being presented.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the resolved identity of the current request.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": middleware.CurrentIdentity(c)})
}

// ChangePassword overwrites the current user's password after verifying the
// existing one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "All fields are required"})
	}
	if req.NewPassword != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "New passwords do not match"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "New password must be at least 8 characters long"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ChangePassword(ctx, ident.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Current password is incorrect"})
		}
		h.Log.Error("change password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to change password. Please try again.",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password changed successfully!"})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteStrictMode,
	}
}
