package api

import (
	"net/http"
	"time"

	"referral_rewards/internal/model"
	"referral_rewards/internal/service"
	"referral_rewards/pkg/auth"
	"referral_rewards/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type userRoutes struct {
	us service.UserServiceI
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.JWTAuth) {
	r := &userRoutes{us: us}
	h := handler.Group("/users")
	h.Use(a.AuthMiddleware())
	{
		h.GET("", r.ListUsers)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/referral", r.GetReferralCode)
		h.GET("/:id", r.GetUserByID)
	}
}

// contextUserID pulls the authenticated user's ID set by the auth
// middleware.
func contextUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(auth.ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ReferralCode uuid.UUID `json:"referral_code"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		ReferralCode: user.ReferralCode,
		Points:       user.Points,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func (r *userRoutes) ListUsers(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.ListUsers(c.Request.Context())
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	out := make([]UserResponse, len(users))
	for i, user := range users {
		out[i] = toUserResponse(user)
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	var out []gin.H
	for _, user := range users {
		out = append(out, gin.H{
			"name":   user.Name,
			"points": user.Points,
		})
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetReferralCode(c *gin.Context) {
	log := logger.Logger()

	userID, ok := contextUserID(c)
	if !ok {
		log.Error("user id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	code, err := r.us.GetReferralCode(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to get referral code", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"referral_code": code.String()})
}

func (r *userRoutes) GetUserByID(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Info("failed to parse user id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := r.us.GetUserByID(c.Request.Context(), id)
	if err != nil {
		log.Info("failed to get user", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
