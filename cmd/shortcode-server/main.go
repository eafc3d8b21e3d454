package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/shortcode/pkg/shortcode/cache"
	"github.com/mikepea/shortcode/pkg/shortcode/config"
	"github.com/mikepea/shortcode/pkg/shortcode/database"
	"github.com/mikepea/shortcode/pkg/shortcode/logger"
	"github.com/mikepea/shortcode/pkg/shortcode/models"
	"github.com/mikepea/shortcode/pkg/shortcode/server"
	"github.com/redis/go-redis/v9"

	_ "github.com/mikepea/shortcode/api/swagger"
)

// @title shortcode API
// @version 1.0
// @description A URL shortener with an admin API for managing short links.

// @contact.name shortcode maintainers
// @contact.url https://github.com/mikepea/shortcode

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin token. Format: "Bearer {token}"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("shortcode failed: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	loggerClient, err := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = loggerClient.Sync() }()

	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	loggerClient.Infof("configuration loaded: %+v", cfg.Redacted())

	db, err := database.Connect(cfg.DB, database.LogLevelFor(cfg.Log.Level))
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			loggerClient.Warn("failed to close database", logger.Error(err))
		}
	}()

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	loggerClient.Info("database migrations completed", logger.String("driver", cfg.DB.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var linkCache cache.Cache = cache.Nop{}
	if cfg.CacheEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.Redis.Addr)
		client, err := cache.Connect(ctx, cache.OptionsFromConfig(cfg.Redis), loggerClient)
		if err != nil {
			return err
		}
		defer closeRedis(client, loggerClient)
		linkCache = cache.NewRedis(client, cfg.Cache.TTL)
		loggerClient.Info("redirect cache enabled", logger.Duration("ttl", cfg.Cache.TTL))
	}

	if !cfg.AdminEnabled() {
		loggerClient.Warn("admin token not configured, every /api/admin request will be rejected")
	}
	loggerClient.Info("admin api", logger.Bool("enabled", cfg.AdminEnabled()))

	router := server.NewRouter(server.Deps{
		DB:         db,
		Cache:      linkCache,
		Logger:     loggerClient,
		AdminToken: cfg.AdminToken,
		Swagger:    cfg.Swagger,
	})
	srv := server.New(cfg.ListenAddr, router, loggerClient)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		loggerClient.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	loggerClient.Info("server stopped")
	return nil
}

func closeRedis(client *redis.Client, loggerClient logger.Logger) {
	if err := client.Close(); err != nil {
		loggerClient.Warn("failed to close redis client", logger.Error(err))
	}
}
