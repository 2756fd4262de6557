package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// DriveTokens is the opaque OAuth bundle stored when a user connects
// their Google Drive. Never serialized into API responses.
type DriveTokens struct {
	AccessToken  string `bson:"access_token" json:"-"`
	RefreshToken string `bson:"refresh_token" json:"-"`
	ExpiryDate   int64  `bson:"expiry_date" json:"-"`
}

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email" json:"email"`
	Password       *string            `bson:"password,omitempty" json:"-"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Bio            string             `bson:"bio" json:"bio"`
	ProfilePicture string             `bson:"profilePicture" json:"profilePicture"`

	GoogleDriveConnected bool         `bson:"googleDriveConnected" json:"googleDriveConnected"`
	GoogleDriveTokens    *DriveTokens `bson:"googleDriveTokens,omitempty" json:"-"`

	// Relationship sets and their denormalized counters. The counters are
	// always adjusted in the same document write as the sets.
	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	FollowersCount int                  `bson:"followersCount" json:"followersCount"`
	FollowingCount int                  `bson:"followingCount" json:"followingCount"`
	PostsCount     int                  `bson:"postsCount" json:"postsCount"`

	IsVerified bool `bson:"isVerified" json:"isVerified"`
	IsPrivate  bool `bson:"isPrivate" json:"isPrivate"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`
}

// Author is the subset of user fields embedded in post, comment and
// notification responses.
type Author struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	FullName       string             `bson:"fullName" json:"fullName"`
	ProfilePicture string             `bson:"profilePicture" json:"profilePicture"`
	IsVerified     bool               `bson:"isVerified" json:"isVerified"`
}
