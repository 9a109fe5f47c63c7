// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jpbreysse/svelteblog/internal/handler"
	"github.com/jpbreysse/svelteblog/internal/middleware"
	"github.com/jpbreysse/svelteblog/internal/repository"
)

// Register wires every route onto the provided Echo instance. The identity
// resolver runs on all routes so handlers can read the resolved identity
// (or anonymous); RequireUser/RequireAdmin gate the protected groups.
func Register(e *echo.Echo, secret string, users *repository.UserRepo,
	auth *handler.AuthHandler, posts *handler.PostHandler,
	public *handler.PublicHandler, admin *handler.AdminHandler) {

	e.Use(middleware.Identity(secret, users))

	e.GET("/healthz", handler.Health)

	// Unauthenticated auth flows.
	a := e.Group("/v1/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.POST("/logout", auth.Logout)

	// Public read paths.
	e.GET("/v1/posts", public.ListPosts)
	e.GET("/v1/posts/slug/:slug", public.GetPostBySlug)
	e.GET("/v1/posts/:id", public.GetPost)
	e.GET("/v1/categories", public.Categories)
	e.GET("/v1/tags", public.Tags)
	e.GET("/v1/stats", public.Stats)

	// Routes that need an authenticated, approved user.
	u := e.Group("/v1", middleware.RequireUser())
	u.GET("/me", auth.Me)
	u.POST("/users/change-password", auth.ChangePassword)
	u.POST("/posts", posts.Create)
	u.PUT("/posts/:id", posts.Update)
	u.DELETE("/posts/:id", posts.Delete)

	// Admin-only user management and maintenance.
	ad := e.Group("/v1/admin", middleware.RequireAdmin())
	ad.GET("/users", admin.ListUsers)
	ad.POST("/users/:id/approve", admin.ApproveUser)
	ad.POST("/users/:id/reject", admin.RejectUser)
	ad.POST("/reset-password", admin.ResetPassword)
	ad.DELETE("/posts", admin.DeleteAllPosts)
}
