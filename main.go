package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnTengye/jobtracker/client"
	"github.com/AnTengye/jobtracker/config"
	"github.com/AnTengye/jobtracker/handler"
	"github.com/AnTengye/jobtracker/middleware"
	"github.com/AnTengye/jobtracker/pkg/logger"
	"github.com/AnTengye/jobtracker/service"
	"github.com/AnTengye/jobtracker/web"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Populate the environment from .env when present
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully",
		"store", cfg.Store.Driver,
		"storage", cfg.Storage.Driver,
		"web", cfg.Web.Enabled,
	)

	ctx := context.Background()

	store, err := openStore(ctx, &cfg.Store)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	files, err := openFileStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize CV storage", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it events are dropped and rate limits are per process
	var (
		events  service.Publisher = service.NopPublisher{}
		limiter middleware.Limiter
		window  = time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	)
	if cfg.Redis.URL != "" {
		rdb, err := service.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		events = service.NewRedisPublisher(rdb, cfg.Redis.EventChannel)
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.Requests, window)
	} else {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, window)
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(service.NewAuthService(store), &cfg.Auth)
	appHandler := handler.NewApplicationHandler(service.NewApplicationService(store, files, events))

	gin.SetMode(gin.ReleaseMode)
	router, err := newRouter(&cfg.Server, limiter)
	if err != nil {
		slog.Error("invalid trusted proxies", "error", err)
		os.Exit(1)
	}

	api := router.Group("/api", middleware.CORS(), middleware.BodyLimit(cfg.MaxUploadBytes()))
	handler.RegisterAPI(api, authHandler, appHandler, &cfg.Auth)

	if cfg.Web.Enabled {
		timeout := time.Duration(cfg.Web.RequestTimeoutSeconds) * time.Second
		ui, err := web.New(client.New(cfg.Web.APIBaseURL, timeout), &cfg.Web)
		if err != nil {
			slog.Error("failed to initialize web UI", "error", err)
			os.Exit(1)
		}
		ui.Mount(router, middleware.BodyLimit(cfg.MaxUploadBytes()))
		slog.Info("web UI enabled", "api_base_url", cfg.Web.APIBaseURL)
	}

	router.NoRoute(handler.NotFound)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server exited gracefully")
}

// newRouter builds the engine with the shared middleware chain. Client
// addresses come from X-Forwarded-For only when the peer is a trusted proxy.
func newRouter(cfg *config.ServerConfig, limiter middleware.Limiter) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cacheMiddleware())
	router.Use(middleware.RateLimit(limiter))
	return router, nil
}

// openStore returns the repository selected by store.driver.
func openStore(ctx context.Context, cfg *config.StoreConfig) (service.Store, error) {
	if cfg.Driver != config.StorePostgres {
		slog.Warn("using in-memory store, data is lost on restart")
		return service.NewMemoryStore(), nil
	}

	pool, err := service.NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := service.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// openFileStore returns the CV store selected by storage.driver.
func openFileStore(ctx context.Context, cfg *config.Config) (service.FileStore, error) {
	if cfg.Storage.Driver != config.StorageMinio {
		local, err := service.NewLocalFileStore(cfg.Storage.UploadDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	minioStore, err := service.NewMinioFileStore(&cfg.Minio)
	if err != nil {
		return nil, err
	}
	if err := minioStore.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return minioStore, nil
}

// cacheMiddleware keeps API responses and rendered pages out of caches
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") || c.Request.Method != http.MethodGet {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		} else {
			c.Header("Cache-Control", "private, no-cache")
		}
		c.Next()
	}
}
