// Package store keeps denormalized counters in lockstep with their backing
// membership sets. Every mutation is a single guarded document update, so the
// counter and the set change together and concurrent requests cannot lose
// increments the way a read-then-write sequence would.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the slice of *mongo.Collection this package needs.
type Collection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Field pairs a membership set with its counter.
type Field struct {
	Set   string
	Count string
}

var (
	Likes     = Field{Set: "likes", Count: "likesCount"}
	SavedBy   = Field{Set: "savedBy", Count: "savedCount"}
	Followers = Field{Set: "followers", Count: "followersCount"}
	Following = Field{Set: "following", Count: "followingCount"}
)

// Add inserts member into the set and bumps the counter, in one update. The
// filter requires the member to be absent, so repeated calls are no-ops and
// two concurrent adds can only count once. Returns whether the document was
// changed; the updated document is decoded into out when provided.
func Add(ctx context.Context, c Collection, id primitive.ObjectID, f Field, member primitive.ObjectID, out interface{}) (bool, error) {
	filter := bson.M{"_id": id, f.Set: bson.M{"$ne": member}}
	update := bson.M{
		"$addToSet": bson.M{f.Set: member},
		"$inc":      bson.M{f.Count: 1},
		"$set":      bson.M{"updatedAt": time.Now().Unix()},
	}
	return apply(ctx, c, filter, update, out)
}

// Remove is the inverse of Add: the filter requires membership, the update
// pulls the member and decrements the counter. The counter is clamped at zero
// afterwards to absorb any pre-existing drift.
func Remove(ctx context.Context, c Collection, id primitive.ObjectID, f Field, member primitive.ObjectID, out interface{}) (bool, error) {
	filter := bson.M{"_id": id, f.Set: member}
	update := bson.M{
		"$pull": bson.M{f.Set: member},
		"$inc":  bson.M{f.Count: -1},
		"$set":  bson.M{"updatedAt": time.Now().Unix()},
	}
	removed, err := apply(ctx, c, filter, update, out)
	if err != nil || !removed {
		return removed, err
	}
	return true, clamp(ctx, c, id, f.Count)
}

// Toggle flips the member's presence in the set. It tries Add first; if the
// member is already present it falls through to Remove. A concurrent toggle
// can slip between the two attempts, so the pair is retried once before
// giving up. ErrNoDocuments means the document does not exist.
func Toggle(ctx context.Context, c Collection, id primitive.ObjectID, f Field, member primitive.ObjectID, out interface{}) (added bool, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := Add(ctx, c, id, f, member, out)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		ok, err = Remove(ctx, c, id, f, member, out)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return false, mongo.ErrNoDocuments
}

// Inc adjusts a bare counter that has no backing set (commentsCount,
// postsCount). Negative deltas are clamped at zero afterwards.
func Inc(ctx context.Context, c Collection, id primitive.ObjectID, counter string, delta int, out interface{}) error {
	update := bson.M{
		"$inc": bson.M{counter: delta},
		"$set": bson.M{"updatedAt": time.Now().Unix()},
	}
	ok, err := apply(ctx, c, bson.M{"_id": id}, update, out)
	if err != nil {
		return err
	}
	if !ok {
		return mongo.ErrNoDocuments
	}
	if delta < 0 {
		return clamp(ctx, c, id, counter)
	}
	return nil
}

func apply(ctx context.Context, c Collection, filter, update bson.M, out interface{}) (bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := c.FindOneAndUpdate(ctx, filter, update, opts)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	if out != nil {
		if err := res.Decode(out); err != nil {
			return false, err
		}
	}
	return true, nil
}

func clamp(ctx context.Context, c Collection, id primitive.ObjectID, counter string) error {
	_, err := c.UpdateOne(ctx,
		bson.M{"_id": id, counter: bson.M{"$lt": 0}},
		bson.M{"$set": bson.M{counter: 0}},
	)
	return err
}
