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

// PublicHandler exposes the read paths: post listings, single posts and the
// aggregated views. None of these require authentication, with one
// exception: the per-user listing (?user=) is only honored for
// authenticated callers because it includes unpublished posts.
type PublicHandler struct {
	Posts *repository.PostRepo
	Log   *zap.Logger
}

func NewPublicHandler(posts *repository.PostRepo, log *zap.Logger) *PublicHandler {
	return &PublicHandler{Posts: posts, Log: log}
}

// ListPosts handles GET /v1/posts with optional ?search=, ?category= and
// ?user= filters.
func (h *PublicHandler) ListPosts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	search := c.QueryParam("search")
	category := c.QueryParam("category")
	userParam := c.QueryParam("user")

	var (
		posts []model.Post
		err   error
	)
	switch {
	case userParam != "" && middleware.CurrentIdentity(c) != nil:
		var uid uint64
		uid, err = strconv.ParseUint(userParam, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid user id"})
		}
		posts, err = h.Posts.ListByAuthor(ctx, uid)
	case search != "":
		if category == "all" {
			category = ""
		}
		posts, err = h.Posts.Search(ctx, search, category)
	case category != "" && category != "all":
		posts, err = h.Posts.ListByCategory(ctx, category)
	default:
		posts, err = h.Posts.ListAll(ctx)
	}
	if err != nil {
		h.Log.Error("list posts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "posts": posts, "count": len(posts)})
}

// GetPost handles GET /v1/posts/:id. Only published posts are visible here.
func (h *PublicHandler) GetPost(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Post not found"})
		}
		h.Log.Error("get post", zap.Error(err), zap.Uint64("post_id", id))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "post": post})
}

// GetPostBySlug handles GET /v1/posts/slug/:slug.
func (h *PublicHandler) GetPostBySlug(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.Posts.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Post not found"})
		}
		h.Log.Error("get post by slug", zap.Error(err), zap.String("slug", c.Param("slug")))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "post": post})
}

// Categories handles GET /v1/categories.
func (h *PublicHandler) Categories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	categories, err := h.Posts.ListCategories(ctx)
	if err != nil {
		h.Log.Error("list categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "categories": categories})
}

// Tags handles GET /v1/tags.
func (h *PublicHandler) Tags(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tags, err := h.Posts.ListTags(ctx)
	if err != nil {
		h.Log.Error("list tags", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "tags": tags})
}

// Stats handles GET /v1/stats.
func (h *PublicHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Posts.Stats(ctx)
	if err != nil {
		h.Log.Error("stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stats": stats})
}
