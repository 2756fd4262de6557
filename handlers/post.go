package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"socialgram/models"
	"socialgram/sheets"
	"socialgram/store"
)

type CreatePostRequest struct {
	Type        string             `json:"type" binding:"required,oneof=text image video"`
	Caption     string             `json:"caption" binding:"max=2000"`
	TextContent string             `json:"textContent" binding:"max=5000"`
	MediaFiles  []models.MediaFile `json:"mediaFiles"`
	Tags        []string           `json:"tags"`
	Location    string             `json:"location"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Type == models.PostTypeText && strings.TrimSpace(req.TextContent) == "" && strings.TrimSpace(req.Caption) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text content is required"})
		return
	}
	if req.Type != models.PostTypeText && len(req.MediaFiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media files are required for image and video posts"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var author models.User
	err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&author)
	if err != nil {
		log.Printf("CreatePost author lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Media lives in the author's drive; a media post without a connection
	// has nowhere to point.
	if req.Type != models.PostTypeText && !author.GoogleDriveConnected {
		c.JSON(http.StatusForbidden, gin.H{
			"error":                  "Please connect your Google Drive first",
			"requireDriveConnection": true,
		})
		return
	}

	now := time.Now().Unix()
	post := models.Post{
		ID:          primitive.NewObjectID(),
		Author:      userID,
		Type:        req.Type,
		Caption:     req.Caption,
		TextContent: req.TextContent,
		MediaFiles:  req.MediaFiles,
		Likes:       []primitive.ObjectID{},
		SavedBy:     []primitive.ObjectID{},
		Tags:        req.Tags,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if post.MediaFiles == nil {
		post.MediaFiles = []models.MediaFile{}
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	if _, err := h.posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	if err := store.Inc(ctx, h.users, userID, "postsCount", 1, &author); err != nil {
		log.Printf("CreatePost postsCount error: %v", err)
	}

	h.mirror.PostCreated(post)
	h.mirror.UserStats(userID.Hex(), author.FollowersCount, author.FollowingCount, author.PostsCount)

	post.AuthorInfo = &models.Author{
		ID:             author.ID,
		Username:       author.Username,
		FullName:       author.FullName,
		ProfilePicture: author.ProfilePicture,
		IsVerified:     author.IsVerified,
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

// GetPosts returns the feed: non-archived posts, newest first, paginated,
// with authors attached.
func (h *Handler) GetPosts(c *gin.Context) {
	page, limit := pagination(c)

	ctx, cancel := requestContext()
	defer cancel()

	filter := bson.M{"isArchived": false}

	count, err := h.posts.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("GetPosts count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "isArchived", Value: false}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorInfo"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorInfo"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	posts, err := h.aggregatePosts(ctx, pipeline)
	if err != nil {
		log.Printf("GetPosts aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       posts,
		"totalPages":  totalPages(count, limit),
		"currentPage": page,
	})
}

// GetUserPosts returns one user's posts, newest first.
func (h *Handler) GetUserPosts(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "author", Value: userID}, {Key: "isArchived", Value: false}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorInfo"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorInfo"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	posts, err := h.aggregatePosts(ctx, pipeline)
	if err != nil {
		log.Printf("GetUserPosts aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *Handler) GetPost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: postID}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorInfo"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorInfo"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}

	posts, err := h.aggregatePosts(ctx, pipeline)
	if err != nil {
		log.Printf("GetPost aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}
	if len(posts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": posts[0]})
}

// ToggleLike flips the caller's like on a post and reports the new count.
func (h *Handler) ToggleLike(c *gin.Context) {
	h.toggleReaction(c, store.Likes, true)
}

// ToggleSave flips the caller's save on a post. Saves are private, no
// notification is produced.
func (h *Handler) ToggleSave(c *gin.Context) {
	h.toggleReaction(c, store.SavedBy, false)
}

func (h *Handler) toggleReaction(c *gin.Context, field store.Field, notifyAuthor bool) {
	actorID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var post models.Post
	added, err := store.Toggle(ctx, h.posts, postID, field, actorID, &post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		log.Printf("Toggle %s error: %v", field.Set, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	if added && notifyAuthor {
		h.emitNotification(ctx, models.Notification{
			Recipient: post.Author,
			Sender:    actorID,
			Type:      models.NotificationLike,
			Post:      &postID,
		})
	}

	switch field.Set {
	case store.Likes.Set:
		h.mirror.PostStatsChanged(postID.Hex(), sheets.PostStats{Likes: &post.LikesCount})
		c.JSON(http.StatusOK, gin.H{"liked": added, "likesCount": post.LikesCount})
	case store.SavedBy.Set:
		h.mirror.PostStatsChanged(postID.Hex(), sheets.PostStats{Saved: &post.SavedCount})
		c.JSON(http.StatusOK, gin.H{"saved": added, "savedCount": post.SavedCount})
	}
}

func (h *Handler) aggregatePosts(ctx context.Context, pipeline mongo.Pipeline) ([]models.Post, error) {
	cursor, err := h.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].AuthorInfo == nil {
			posts[i].AuthorInfo = fallbackAuthor(posts[i].Author)
		}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}
