package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bankprofile/internal/app"
	"bankprofile/internal/config"
	"bankprofile/internal/database"
	"bankprofile/internal/domain/profile"
	jwtsvc "bankprofile/internal/pkg/jwt"
	"bankprofile/internal/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	if logger.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("database connect failed", zap.Error(err))
	}
	if err := profile.Migrate(db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	var store profile.Store = profile.NewRepository(db)
	if cfg.CacheEnabled() {
		rdb := profile.NewRedisClient(cfg.RedisAddrs, cfg.RedisPassword, len(cfg.RedisAddrs) > 1)
		defer rdb.Close()
		store = profile.NewCachedStore(store, rdb, cfg.ProfileCacheTTL, zl)
		zl.Info("profile cache enabled", zap.Strings("redis", cfg.RedisAddrs))
	}

	hub := profile.NewHub(zl)
	sessions := profile.NewSessions(store, hub, profile.SessionsConfig{
		SavedFlagDelay: cfg.SavedFlagDelay,
		IdleTTL:        cfg.EditorIdleTTL,
		MaxPerUser:     cfg.EditorMaxPerUser,
	}, zl)

	router := app.NewRouter(app.Deps{
		Logger:         zl,
		JWT:            jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Store:          store,
		Sessions:       sessions,
		Hub:            hub,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sessions.Run(ctx, cfg.EditorSweepInterval)
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown failed", zap.Error(err))
	}
	sessions.Stop()
	<-sweeperDone
}
