package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuth_IssueAndVerify(t *testing.T) {
	a := NewJWTAuth("test-secret", time.Hour)
	userID := uuid.New()

	token, err := a.IssueToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := a.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	a := NewJWTAuth("test-secret", -time.Minute)

	token, err := a.IssueToken(uuid.New())
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	issuer := NewJWTAuth("secret-a", time.Hour)
	verifier := NewJWTAuth("secret-b", time.Hour)

	token, err := issuer.IssueToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuth_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a := NewJWTAuth("test-secret", time.Hour)
	userID := uuid.New()

	router := gin.New()
	router.GET("/protected", a.AuthMiddleware(), func(c *gin.Context) {
		id, _ := c.Get(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"user_id": id.(uuid.UUID).String()})
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := a.IssueToken(userID)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("token as query parameter", func(t *testing.T) {
		token, err := a.IssueToken(userID)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cr3tPass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3tPass", hash)

	assert.True(t, CheckPassword("s3cr3tPass", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
