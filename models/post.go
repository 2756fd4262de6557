package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	PostTypeText  = "text"
	PostTypeImage = "image"
	PostTypeVideo = "video"
)

// MediaFile describes one uploaded file living in the author's Google Drive.
type MediaFile struct {
	FileID        string `bson:"fileId" json:"fileId"`
	FileName      string `bson:"fileName" json:"fileName"`
	MimeType      string `bson:"mimeType" json:"mimeType"`
	WebViewLink   string `bson:"webViewLink" json:"webViewLink"`
	ThumbnailLink string `bson:"thumbnailLink" json:"thumbnailLink"`
}

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author      primitive.ObjectID `bson:"author" json:"author"`
	Type        string             `bson:"type" json:"type"`
	Caption     string             `bson:"caption,omitempty" json:"caption"`
	TextContent string             `bson:"textContent,omitempty" json:"textContent"`
	MediaFiles  []MediaFile        `bson:"mediaFiles" json:"mediaFiles"`

	Likes         []primitive.ObjectID `bson:"likes" json:"likes"`
	LikesCount    int                  `bson:"likesCount" json:"likesCount"`
	CommentsCount int                  `bson:"commentsCount" json:"commentsCount"`
	SavedBy       []primitive.ObjectID `bson:"savedBy" json:"savedBy"`
	SavedCount    int                  `bson:"savedCount" json:"savedCount"`

	Tags       []string `bson:"tags" json:"tags"`
	Location   string   `bson:"location,omitempty" json:"location"`
	IsArchived bool     `bson:"isArchived" json:"isArchived"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`

	// Populated in responses only.
	AuthorInfo *Author `bson:"authorInfo,omitempty" json:"user,omitempty"`
}
