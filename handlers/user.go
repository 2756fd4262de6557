package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"socialgram/models"
	"socialgram/store"
)

type UpdateProfileRequest struct {
	FullName       *string `json:"fullName" binding:"omitempty,max=100"`
	Bio            *string `json:"bio" binding:"omitempty,max=500"`
	ProfilePicture *string `json:"profilePicture"`
	IsPrivate      *bool   `json:"isPrivate"`
}

// GetProfile returns a user by username together with whether the caller
// follows them.
func (h *Handler) GetProfile(c *gin.Context) {
	username := c.Param("id")

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	err := h.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("GetProfile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user profile"})
		return
	}

	isFollowing := false
	if viewerID, ok := currentUserID(c); ok {
		for _, follower := range user.Followers {
			if follower == viewerID {
				isFollowing = true
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "isFollowing": isFollowing})
}

// ToggleFollow flips the follow relationship between the caller and the
// target user. Each side is a guarded atomic update, so concurrent toggles
// cannot lose counter updates.
func (h *Handler) ToggleFollow(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if actorID == targetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.users.FindOne(ctx, bson.M{"_id": targetID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("ToggleFollow target lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow/unfollow user"})
		return
	}

	// The actor's following set decides the direction for both documents.
	var actor models.User
	following, err := store.Toggle(ctx, h.users, actorID, store.Following, targetID, &actor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("ToggleFollow actor update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow/unfollow user"})
		return
	}

	var target models.User
	if following {
		_, err = store.Add(ctx, h.users, targetID, store.Followers, actorID, &target)
	} else {
		_, err = store.Remove(ctx, h.users, targetID, store.Followers, actorID, &target)
	}
	if err != nil {
		log.Printf("ToggleFollow target update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow/unfollow user"})
		return
	}
	if target.ID.IsZero() {
		// raced with another toggle; read current counts for the response
		if err := h.users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target); err != nil {
			log.Printf("ToggleFollow target read error: %v", err)
		}
	}

	if following {
		if err := h.notifier.Emit(ctx, models.Notification{
			Recipient: targetID,
			Sender:    actorID,
			Type:      models.NotificationFollow,
		}); err != nil {
			// notification loss does not undo the follow
			log.Printf("ToggleFollow notification error: %v", err)
		}
	}

	h.mirror.UserStats(actorID.Hex(), actor.FollowersCount, actor.FollowingCount, actor.PostsCount)
	h.mirror.UserStats(targetID.Hex(), target.FollowersCount, target.FollowingCount, target.PostsCount)

	c.JSON(http.StatusOK, gin.H{
		"following":      following,
		"followersCount": target.FollowersCount,
	})
}

// UpdateProfile applies the caller's partial profile edits.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := bson.M{"updatedAt": time.Now().Unix()}
	if req.FullName != nil {
		updates["fullName"] = *req.FullName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.ProfilePicture != nil {
		updates["profilePicture"] = *req.ProfilePicture
	}
	if req.IsPrivate != nil {
		updates["isPrivate"] = *req.IsPrivate
	}

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	err := h.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		log.Printf("UpdateProfile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

// emitNotification is shared by the post and comment handlers; notification
// loss never fails the triggering action.
func (h *Handler) emitNotification(ctx context.Context, n models.Notification) {
	if err := h.notifier.Emit(ctx, n); err != nil {
		log.Printf("Notification error (%s): %v", n.Type, err)
	}
}
