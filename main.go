package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/club-pos/config"
	"github.com/yeremiapane/club-pos/database"
	"github.com/yeremiapane/club-pos/router"
	"github.com/yeremiapane/club-pos/services"
	"github.com/yeremiapane/club-pos/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.JWTSecret == "" {
		utils.ErrorLogger.Warn("JWT_SECRET not set, using the development secret")
	}
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db, services.DefaultSettings().Values()); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	if cfg.AdminPassword != "" {
		created, err := services.NewUserService(db).EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to create initial admin: %v", err)
		}
		if !created {
			utils.InfoLogger.Debug("Users exist, skipping initial admin")
		}
	}

	r := router.SetupRouter(db, router.Options{
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
		SecureCookie: cfg.IsRelease(),
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Printf("Error setting trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.InfoLogger.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Forced shutdown: %v", err)
	}
}
