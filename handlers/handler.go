package handlers

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"socialgram/database"
	"socialgram/drive"
	"socialgram/models"
	"socialgram/notify"
	"socialgram/push"
	"socialgram/sheets"
)

const requestTimeout = 10 * time.Second

// Handler carries every dependency the route handlers use. The external
// service clients are injected rather than process-wide singletons so tests
// can swap them and credentials stay per-instance.
type Handler struct {
	users         *mongo.Collection
	posts         *mongo.Collection
	comments      *mongo.Collection
	notifications *mongo.Collection

	notifier *notify.Emitter
	mirror   *sheets.Mirror
	drive    *drive.Service
	push     *push.Sender

	jwtSecret []byte
}

func New(db *mongo.Database, jwtSecret []byte, mirror *sheets.Mirror, driveSvc *drive.Service, pushSender *push.Sender) *Handler {
	h := &Handler{
		users:         db.Collection(database.Users),
		posts:         db.Collection(database.Posts),
		comments:      db.Collection(database.Comments),
		notifications: db.Collection(database.Notifications),
		mirror:        mirror,
		drive:         driveSvc,
		push:          pushSender,
		jwtSecret:     jwtSecret,
	}
	h.notifier = notify.NewEmitter(h.notifications, pusherOrNil(pushSender))
	return h
}

// pusherOrNil avoids storing a typed nil in the emitter's interface field.
func pusherOrNil(s *push.Sender) notify.Pusher {
	if s == nil {
		return nil
	}
	return s
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// pagination reads ?page and ?limit, defaulting to page 1 of 20.
func pagination(c *gin.Context) (page, limit int64) {
	page, _ = strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func totalPages(count, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(count) / float64(limit)))
}

// fallbackAuthor is the null-safe stand-in when a referenced author document
// no longer exists; dependent reads must not fail because of it.
func fallbackAuthor(id primitive.ObjectID) *models.Author {
	return &models.Author{ID: id, Username: "unknown", FullName: "Unknown User"}
}
