package api

import (
	"net/http"

	"referral_rewards/internal/service"
	"referral_rewards/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type authRoutes struct {
	as service.AuthServiceI
}

func NewAuthRoutes(handler *gin.RouterGroup, as service.AuthServiceI) {
	r := &authRoutes{as: as}
	h := handler.Group("/auth")
	{
		h.POST("/register", r.Register)
		h.POST("/login", r.Login)
	}
}

type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=1"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	ReferralCode string `json:"referral_code"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (r *authRoutes) Register(c *gin.Context) {
	log := logger.Logger()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := r.as.Register(c.Request.Context(), service.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (r *authRoutes) Login(c *gin.Context) {
	log := logger.Logger()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("failed to bind login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := r.as.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Info("failed to login", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
