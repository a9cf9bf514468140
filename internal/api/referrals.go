package api

import (
	"net/http"
	"time"

	"referral_rewards/internal/service"
	"referral_rewards/pkg/auth"
	"referral_rewards/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type referralRoutes struct {
	rs service.ReferralServiceI
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, a *auth.JWTAuth) {
	r := &referralRoutes{rs: rs}
	h := handler.Group("/referrals")
	h.Use(a.AuthMiddleware())
	{
		h.GET("/check", r.CheckReferrals)
		h.GET("/ws", r.ReferralFeed)
	}
}

type referralEntry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type ReferralSummaryResponse struct {
	Referrals []referralEntry `json:"referrals"`
	Points    int             `json:"points"`
}

func (r *referralRoutes) CheckReferrals(c *gin.Context) {
	log := logger.Logger()

	userID, ok := contextUserID(c)
	if !ok {
		log.Error("user id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	summary, err := r.rs.GetReferralSummary(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to get referral summary", zap.Error(err))
		status, msg := serviceErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	out := ReferralSummaryResponse{
		Referrals: make([]referralEntry, len(summary.Referrals)),
		Points:    summary.Points,
	}
	for i, ref := range summary.Referrals {
		out.Referrals[i] = referralEntry{
			ID:        ref.ID,
			Name:      ref.Name,
			Email:     ref.Email,
			CreatedAt: ref.ReferredAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

type feedMessage struct {
	Type string                `json:"type"`
	Data service.ReferralEvent `json:"data"`
}

// ReferralFeed streams referral credit events to the authenticated referrer
// over a websocket until the client disconnects.
func (r *referralRoutes) ReferralFeed(c *gin.Context) {
	log := logger.Logger()

	userID, ok := contextUserID(c)
	if !ok {
		log.Error("user id not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := r.rs.Subscribe(userID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}

			out, err := json.Marshal(feedMessage{
				Type: "referral_credited",
				Data: event,
			})
			if err != nil {
				log.Error("failed to marshal feed message", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				log.Info("websocket write failed, closing feed",
					zap.String("user_id", userID.String()),
					zap.Error(err))
				return
			}

		case <-done:
			return
		}
	}
}
