package handlers

import (
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

type CreateCommentRequest struct {
	Text          string `json:"text" binding:"required,max=1000"`
	ParentComment string `json:"parentComment"`
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}

	userID, ok := currentUserID(c)
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
	err = h.posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("CreateComment post lookup error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentComment != "" {
		id, err := primitive.ObjectIDFromHex(req.ParentComment)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent comment ID"})
			return
		}
		// the parent must be a comment on the same post
		err = h.comments.FindOne(ctx, bson.M{"_id": id, "post": postID}).Err()
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent comment not found"})
			return
		}
		if err != nil {
			log.Printf("CreateComment parent lookup error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
			return
		}
		parentID = &id
	}

	now := time.Now().Unix()
	comment := models.Comment{
		ID:            primitive.NewObjectID(),
		Post:          postID,
		Author:        userID,
		Text:          text,
		Likes:         []primitive.ObjectID{},
		Replies:       []primitive.ObjectID{},
		ParentComment: parentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := h.comments.InsertOne(ctx, comment); err != nil {
		log.Printf("CreateComment insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	if parentID != nil {
		if _, err := h.comments.UpdateOne(ctx,
			bson.M{"_id": *parentID},
			bson.M{"$addToSet": bson.M{"replies": comment.ID}},
		); err != nil {
			log.Printf("CreateComment reply link error: %v", err)
		}
	}

	if err := store.Inc(ctx, h.posts, postID, "commentsCount", 1, &post); err != nil {
		log.Printf("CreateComment commentsCount error: %v", err)
	}

	h.mirror.PostStatsChanged(postID.Hex(), sheets.PostStats{Comments: &post.CommentsCount})

	h.emitNotification(ctx, models.Notification{
		Recipient: post.Author,
		Sender:    userID,
		Type:      models.NotificationComment,
		Post:      &postID,
		Comment:   &comment.ID,
	})

	var author models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&author); err == nil {
		comment.AuthorInfo = &models.Author{
			ID:             author.ID,
			Username:       author.Username,
			FullName:       author.FullName,
			ProfilePicture: author.ProfilePicture,
			IsVerified:     author.IsVerified,
		}
	} else {
		comment.AuthorInfo = fallbackAuthor(userID)
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "comment": comment})
}

// GetComments returns a post's top-level comments, oldest first, each with
// its author and its replies (reply authors included).
func (h *Handler) GetComments(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	page, limit := pagination(c)

	ctx, cancel := requestContext()
	defer cancel()

	filter := bson.M{"post": postID, "parentComment": nil}

	count, err := h.comments.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("GetComments count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	cursor, err := h.comments.Aggregate(ctx, commentsPipeline(postID, page, limit))
	if err != nil {
		log.Printf("GetComments aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	defer cursor.Close(ctx)

	var comments []bson.M
	if err := cursor.All(ctx, &comments); err != nil {
		log.Printf("GetComments decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	if comments == nil {
		comments = []bson.M{}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":    comments,
		"totalPages":  totalPages(count, limit),
		"currentPage": page,
	})
}

// commentsPipeline pages through a post's top-level comments newest first,
// attaching each comment's author and its replies with their authors.
func commentsPipeline(postID primitive.ObjectID, page, limit int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "post", Value: postID}, {Key: "parentComment", Value: nil}}}},
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
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "comments"},
			{Key: "localField", Value: "replies"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "replies"},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
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
			}},
		}}},
	}
}
