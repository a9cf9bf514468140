package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"referral_rewards/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextUserIDKey is where the auth middleware stores the authenticated
// user's ID on the gin context.
const ContextUserIDKey = "user_id"

var ErrInvalidToken = errors.New("invalid token")

type JWTAuth struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewJWTAuth(secret string, tokenTTL time.Duration) *JWTAuth {
	return &JWTAuth{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// IssueToken signs an HS256 bearer token bound to the user's identity,
// valid for the configured TTL.
func (a *JWTAuth) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken parses the token and returns the user identity it is bound
// to. Expired, malformed or wrongly-signed tokens all yield ErrInvalidToken.
func (a *JWTAuth) VerifyToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

// AuthMiddleware authenticates requests carrying "Authorization: Bearer
// <token>". Websocket clients cannot set headers from the browser, so a
// "token" query parameter is accepted as a fallback.
func (a *JWTAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		switch {
		case strings.HasPrefix(authHeader, "Bearer "):
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		case authHeader == "":
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		userID, err := a.VerifyToken(tokenString)
		if err != nil {
			log.Info("invalid bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
