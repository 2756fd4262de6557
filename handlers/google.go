package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"socialgram/models"
)

// DriveAuthURL hands the client the consent URL for connecting their drive.
func (h *Handler) DriveAuthURL(c *gin.Context) {
	if h.drive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Drive integration is not configured"})
		return
	}

	userID := c.GetString("userId")
	c.JSON(http.StatusOK, gin.H{"authUrl": h.drive.AuthURL(userID)})
}

type DriveCallbackRequest struct {
	Code string `json:"code" binding:"required"`
}

// DriveCallback completes the OAuth exchange and stores the token bundle on
// the user. Connecting produces a system notification with no sender.
func (h *Handler) DriveCallback(c *gin.Context) {
	if h.drive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Drive integration is not configured"})
		return
	}

	var req DriveCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is required"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	tokens, err := h.drive.Exchange(ctx, req.Code)
	if err != nil {
		log.Printf("Drive token exchange error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	_, err = h.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"googleDriveConnected": true,
			"googleDriveTokens":    tokens,
			"updatedAt":            time.Now().Unix(),
		}},
	)
	if err != nil {
		log.Printf("Drive connect update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect Google Drive"})
		return
	}

	h.emitNotification(ctx, models.Notification{
		Recipient: userID,
		Sender:    primitive.NilObjectID,
		Type:      models.NotificationDriveConnect,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Google Drive connected successfully", "connected": true})
}

// DriveStatus reports whether the caller's drive is connected and whether a
// token bundle is on file.
func (h *Handler) DriveStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("Drive status error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch drive status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":      user.GoogleDriveConnected,
		"hasValidTokens": user.GoogleDriveTokens != nil && user.GoogleDriveTokens.RefreshToken != "",
	})
}

// DriveDisconnect drops the stored tokens and flips the connection flag.
func (h *Handler) DriveDisconnect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	_, err := h.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":   bson.M{"googleDriveConnected": false, "updatedAt": time.Now().Unix()},
			"$unset": bson.M{"googleDriveTokens": ""},
		},
	)
	if err != nil {
		log.Printf("Drive disconnect error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect Google Drive"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Google Drive disconnected", "connected": false})
}

// UploadMedia pushes a multipart file into the caller's drive and returns
// the media descriptor to embed in a post.
func (h *Handler) UploadMedia(c *gin.Context) {
	if h.drive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Drive integration is not configured"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		log.Printf("UploadMedia user lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	if !user.GoogleDriveConnected || user.GoogleDriveTokens == nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":                  "Please connect your Google Drive first",
			"requireDriveConnection": true,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("UploadMedia open error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	defer file.Close()

	media, err := h.drive.Upload(ctx, user.GoogleDriveTokens,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		log.Printf("UploadMedia drive error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file to Google Drive"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": media})
}
