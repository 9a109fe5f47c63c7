package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jpbreysse/svelteblog/internal/middleware"
	"github.com/jpbreysse/svelteblog/internal/model"
	"github.com/jpbreysse/svelteblog/internal/repository"
)

// AdminHandler implements the admin-only user management and maintenance
// endpoints. All routes are behind the RequireAdmin middleware; the
// repository re-checks the acting role on top of that.
type AdminHandler struct {
	Users *repository.UserRepo
	Posts *repository.PostRepo
	Log   *zap.Logger
}

func NewAdminHandler(users *repository.UserRepo, posts *repository.PostRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Posts: posts, Log: log}
}

type resetPasswordReq struct {
	UserID      uint64 `json:"user_id"`
	NewPassword string `json:"new_password"`
}

// ListUsers returns every user newest-first for the approval overview.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}

// ApproveUser handles POST /v1/admin/users/:id/approve.
func (h *AdminHandler) ApproveUser(c echo.Context) error {
	return h.setStatus(c, model.StatusApproved)
}

// RejectUser handles POST /v1/admin/users/:id/reject.
func (h *AdminHandler) RejectUser(c echo.Context) error {
	return h.setStatus(c, model.StatusRejected)
}

func (h *AdminHandler) setStatus(c echo.Context, next model.Status) error {
	admin := middleware.CurrentIdentity(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.SetStatus(ctx, admin.ID, id, next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "user not found"})
		case errors.Is(err, repository.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "status transition not allowed"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Admin access required"})
		default:
			h.Log.Error("set user status", zap.Error(err), zap.Uint64("user_id", id))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}

// ResetPassword overwrites a user's password without a current-password
// check. This is an intentional admin override.
func (h *AdminHandler) ResetPassword(c echo.Context) error {
	admin := middleware.CurrentIdentity(c)

	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if req.UserID == 0 || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "User ID and new password are required"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "New password must be at least 8 characters long"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ResetPassword(ctx, admin.ID, req.UserID, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Target user not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Admin access required"})
		default:
			h.Log.Error("reset password", zap.Error(err), zap.Uint64("target_id", req.UserID))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Failed to reset password. Please try again."})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password reset successfully!"})
}

// DeleteAllPosts is the bulk maintenance endpoint: removes every post with
// its tag links and prunes orphaned tags.
func (h *AdminHandler) DeleteAllPosts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	posts, tags, err := h.Posts.DeleteAll(ctx)
	if err != nil {
		h.Log.Error("delete all posts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"deleted": echo.Map{"posts": posts, "tags": tags},
	})
}
