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
	"github.com/jpbreysse/svelteblog/internal/repository"
)

// PostHandler implements the authenticated post mutations.
type PostHandler struct {
	Posts *repository.PostRepo
	Log   *zap.Logger
}

func NewPostHandler(posts *repository.PostRepo, log *zap.Logger) *PostHandler {
	return &PostHandler{Posts: posts, Log: log}
}

type postReq struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (p *postReq) validate() map[string]string {
	errs := map[string]string{}
	if p.Title == "" {
		errs["title"] = "Title is required"
	}
	if p.Content == "" {
		errs["content"] = "Content is required"
	}
	return errs
}

// Create handles POST /v1/posts. The authenticated user becomes the author.
func (h *PostHandler) Create(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)

	var req postReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.Posts.Create(ctx, ident.ID, req.Title, req.Content, req.Category, req.Tags)
	if err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "a post with the same slug already exists"})
		}
		h.Log.Error("create post", zap.Error(err), zap.Uint64("author_id", ident.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"post":    post,
		"message": "Post created successfully",
	})
}

// Update handles PUT /v1/posts/:id. Only the author or an admin may update;
// slug, excerpt and read-time are recomputed and the tag set replaced.
func (h *PostHandler) Update(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id"})
	}

	var req postReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.Posts.Update(ctx, id, ident.ID, req.Title, req.Content, req.Category, req.Tags)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Post not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Unauthorized to edit this post"})
		case errors.Is(err, repository.ErrSlugExists):
			return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "a post with the same slug already exists"})
		default:
			h.Log.Error("update post", zap.Error(err), zap.Uint64("post_id", id))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"post":    post,
		"message": "Post updated successfully",
	})
}

// Delete handles DELETE /v1/posts/:id with the same ownership rule as
// Update.
func (h *PostHandler) Delete(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Posts.Delete(ctx, id, ident.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Post not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "Unauthorized to delete this post"})
		default:
			h.Log.Error("delete post", zap.Error(err), zap.Uint64("post_id", id))
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Post deleted successfully"})
}
