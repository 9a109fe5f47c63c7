package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/jpbreysse/svelteblog/internal/config"
	"github.com/jpbreysse/svelteblog/internal/database"
	"github.com/jpbreysse/svelteblog/internal/handler"
	"github.com/jpbreysse/svelteblog/internal/queue"
	"github.com/jpbreysse/svelteblog/internal/repository"
	"github.com/jpbreysse/svelteblog/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	if cfg.Env == "dev" {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	posts := repository.NewPostRepo(db)

	auth := handler.NewAuthHandler(cfg, users, logger)
	postH := handler.NewPostHandler(posts, logger)
	public := handler.NewPublicHandler(posts, logger)
	admin := handler.NewAdminHandler(users, posts, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	router.Register(e, cfg.JWTSecret, users, auth, postH, public, admin)

	go queue.StartRegistrationConsumer()

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
