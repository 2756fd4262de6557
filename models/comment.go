package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Comment struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Post   primitive.ObjectID `bson:"post" json:"post"`
	Author primitive.ObjectID `bson:"author" json:"author"`
	Text   string             `bson:"text" json:"text"`

	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	LikesCount int                  `bson:"likesCount" json:"likesCount"`

	// One level of threading: replies hold the child comment ids.
	Replies       []primitive.ObjectID `bson:"replies" json:"replies"`
	ParentComment *primitive.ObjectID  `bson:"parentComment,omitempty" json:"parentComment,omitempty"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`

	AuthorInfo *Author `bson:"authorInfo,omitempty" json:"user,omitempty"`
}
