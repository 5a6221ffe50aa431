package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calshare/core/cache"
	"calshare/core/config"
	"calshare/core/constants"
	"calshare/core/database"
	"calshare/core/logger"
	"calshare/core/middleware"

	"calshare/modules/access"
	"calshare/modules/auth"
	authRepo "calshare/modules/auth/repository"
	authService "calshare/modules/auth/service"
	"calshare/modules/defaultshare"
	dsRepo "calshare/modules/defaultshare/repository"
	"calshare/modules/event"
	"calshare/modules/label"
	labelRepo "calshare/modules/label/repository"
	"calshare/modules/notification"
	notifService "calshare/modules/notification/service"
	"calshare/modules/relationship"
	relRepo "calshare/modules/relationship/repository"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Run boots the whole service: config, logging, postgres, redis, the task
// queue and every HTTP module, then blocks until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewCache(cfg.Redis)
	if err != nil {
		return err
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// The auth service backs the auth middleware, so it is built before any
	// routes are registered.
	auths := authService.NewAuthService(authRepo.NewAuthRepository(db), redisCache)
	mw := middleware.NewMiddleware(auths)
	auth.Init(api, auths, mw)

	// Shared repositories: the engine modules cascade through each other's
	// tables inside single transactions.
	labels := labelRepo.NewLabelRepository(db)
	relationships := relRepo.NewRelationshipRepository(db)
	defaultShares := dsRepo.NewDefaultShareRepository(db)

	notificationService := notification.Init(api, db, mw, queueClient)
	accessSvc, accessRepository := access.Init(api, db, mw, notificationService)
	relationship.Init(api, db, mw, relationships, labels, notificationService)
	label.Init(api, db, mw, labels, relationships, defaultShares, accessSvc)
	defaultshare.Init(api, db, mw, defaultShares, labels, relationships, accessSvc)
	event.Init(api, db, mw, accessSvc, accessRepository, defaultShares)

	queueServer := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
	})
	mux := asynq.NewServeMux()
	worker := notifService.NewDeliveryWorker()
	mux.HandleFunc(constants.TaskNotificationDeliver, worker.HandleDeliver)

	go func() {
		if err := queueServer.Run(mux); err != nil {
			logger.Error("Server:Run:QueueServer:Error:", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:Start:Error:", err)
		}
	}()
	logger.Info("Server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	queueServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
