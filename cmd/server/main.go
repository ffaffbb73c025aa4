package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/api"
	"github.com/chiebuka-eze/msgcore/internal/config"
	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/messages"
	"github.com/chiebuka-eze/msgcore/internal/middleware"
	"github.com/chiebuka-eze/msgcore/internal/notify"
	"github.com/chiebuka-eze/msgcore/internal/observ"
	"github.com/chiebuka-eze/msgcore/internal/rooms"
	"github.com/chiebuka-eze/msgcore/internal/sidebar"
	"github.com/chiebuka-eze/msgcore/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Gateways. All persistent state lives behind the store client;
	// realtime delivery goes through the pub/sub server's HTTP API.
	storeClient := store.NewClient(cfg.StoreURL, cfg.PluginID, logger)
	fanoutClient := fanout.NewClient(cfg.CentrifugoURL, cfg.CentrifugoAPIKey, cfg.PluginURL)
	coordinator := fanout.NewCoordinator(fanoutClient, logger)
	notifier := notify.NewClient(cfg.NotifyURL)

	// Sidebar cache is optional: without REDIS_URL every sidebar read
	// goes to the store.
	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		cache = redis.NewClient(opts)
		defer cache.Close()
	}

	sidebarSvc := sidebar.NewService(storeClient, coordinator, cache, logger)
	roomSvc := rooms.NewService(storeClient, coordinator, sidebarSvc, logger)
	messageSvc := messages.NewService(storeClient, roomSvc, coordinator, notifier, logger)

	roomHandler := api.NewRoomHandler(roomSvc, logger)
	messageHandler := api.NewMessageHandler(messageSvc, logger)
	sidebarHandler := api.NewSidebarHandler(sidebarSvc, logger)
	memberHandler := api.NewMemberHandler(storeClient, logger)
	authHandler := api.NewAuthHandler(cfg.JWTSecret, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/token", authHandler.Token)

	v1 := srv.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.POST("/org/:org_id/rooms", roomHandler.Create)
	v1.GET("/org/:org_id/rooms", roomHandler.List)
	v1.GET("/org/:org_id/rooms/:room_id", roomHandler.Get)
	v1.PATCH("/org/:org_id/rooms/:room_id", roomHandler.Update)
	v1.PUT("/org/:org_id/rooms/:room_id/members", roomHandler.AddMembers)
	v1.DELETE("/org/:org_id/rooms/:room_id/members/:member_id", roomHandler.RemoveMember)
	v1.GET("/org/:org_id/members/:member_id/rooms", roomHandler.MemberRooms)

	v1.POST("/org/:org_id/rooms/:room_id/messages", messageHandler.Create)
	v1.GET("/org/:org_id/rooms/:room_id/messages", messageHandler.List)
	v1.GET("/org/:org_id/rooms/:room_id/messages/:message_id", messageHandler.Get)
	v1.PUT("/org/:org_id/rooms/:room_id/messages/:message_id", messageHandler.Edit)
	v1.POST("/org/:org_id/rooms/:room_id/messages/:message_id/threads", messageHandler.AddThread)
	v1.GET("/org/:org_id/rooms/:room_id/messages/:message_id/threads", messageHandler.ListThreads)
	v1.PUT("/org/:org_id/messages/:message_id/threads/:thread_id", messageHandler.EditThread)

	v1.GET("/org/:org_id/members", memberHandler.List)
	v1.GET("/org/:org_id/members/:member_id/sidebar", sidebarHandler.Get)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting msgcore",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Scheduled fan-out and notifications run to completion even when
	// the triggering client is gone; drain them before exit.
	messageSvc.WaitNotifications()
	sidebarSvc.Wait()
	coordinator.Wait()
	return nil
}
