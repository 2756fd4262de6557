package handlers

import (
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
)

// VapidPublicKey hands the client the key it needs to subscribe. Public so
// the service worker can fetch it before login.
func (h *Handler) VapidPublicKey(c *gin.Context) {
	if h.push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.push.PublicKey()})
}

// SubscribePush stores the caller's browser push subscription.
func (h *Handler) SubscribePush(c *gin.Context) {
	if h.push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	var sub webpush.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil || sub.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.push.SaveSubscription(ctx, userID, sub); err != nil {
		log.Printf("SubscribePush error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscription saved"})
}
