package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"referral_rewards/internal/api"
	"referral_rewards/internal/repository"
	"referral_rewards/internal/service"
	"referral_rewards/pkg/auth"
	"referral_rewards/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	jwtAuth := auth.NewJWTAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	feed := service.NewReferralFeed()
	authService := service.NewAuthService(repo, jwtAuth, feed)
	userService := service.NewUserService(repo)
	referralService := service.NewReferralService(repo, repo, feed)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewAuthRoutes(a, authService)
	api.NewUserRoutes(a, userService, jwtAuth)
	api.NewReferralRoutes(a, referralService, jwtAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
