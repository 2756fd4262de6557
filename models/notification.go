package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	NotificationLike         = "like"
	NotificationComment      = "comment"
	NotificationFollow       = "follow"
	NotificationDriveConnect = "drive_connect"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	// Zero for system notifications (drive_connect).
	Sender  primitive.ObjectID  `bson:"sender,omitempty" json:"sender"`
	Type    string              `bson:"type" json:"type"`
	Post    *primitive.ObjectID `bson:"post,omitempty" json:"post,omitempty"`
	Comment *primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	Message string              `bson:"message" json:"message"`
	IsRead  bool                `bson:"isRead" json:"isRead"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`

	SenderInfo *Author `bson:"senderInfo,omitempty" json:"senderInfo,omitempty"`
}
