// Package notify creates notification records for actions that target a
// different user than the actor, and hands them to the web push pipeline.
package notify

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"socialgram/models"
)

// Inserter is the slice of *mongo.Collection the emitter needs.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{},
		opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Pusher delivers a best-effort push message to a user's browser.
type Pusher interface {
	Notify(recipient primitive.ObjectID, title, body string)
}

type Emitter struct {
	notifications Inserter
	pusher        Pusher
}

// NewEmitter builds an emitter. pusher may be nil when push is not configured.
func NewEmitter(notifications Inserter, pusher Pusher) *Emitter {
	return &Emitter{notifications: notifications, pusher: pusher}
}

// Emit persists the notification unless the actor targets themselves, in
// which case nothing is written. The caller decides how to treat a persist
// failure; the primary write is never rolled back here.
func (e *Emitter) Emit(ctx context.Context, n models.Notification) error {
	if n.Recipient == n.Sender {
		return nil
	}

	n.ID = primitive.NewObjectID()
	n.IsRead = false
	n.CreatedAt = time.Now().Unix()
	if n.Message == "" {
		n.Message = defaultMessage(n.Type)
	}

	if _, err := e.notifications.InsertOne(ctx, n); err != nil {
		return err
	}

	if e.pusher != nil {
		e.pusher.Notify(n.Recipient, pushTitle(n.Type), n.Message)
	}
	return nil
}

func defaultMessage(kind string) string {
	switch kind {
	case models.NotificationFollow:
		return "started following you"
	case models.NotificationComment:
		return "commented on your post"
	case models.NotificationLike:
		return "liked your post"
	case models.NotificationDriveConnect:
		return "Google Drive connected successfully!"
	}
	return ""
}

func pushTitle(kind string) string {
	switch kind {
	case models.NotificationFollow:
		return "New follower"
	case models.NotificationComment:
		return "New comment"
	case models.NotificationLike:
		return "New like"
	case models.NotificationDriveConnect:
		return "Google Drive"
	}
	return "Notification"
}
