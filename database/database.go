package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	Users         = "users"
	Posts         = "posts"
	Comments      = "comments"
	Notifications = "notifications"
	Subscriptions = "subscriptions"
)

// Connect dials MongoDB and returns the application database handle.
func Connect(uri, name string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(name)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB successfully")
	return db, nil
}

// ensureIndexes creates the indexes the handlers rely on. Uniqueness of
// username and email is enforced here, not by the pre-insert lookup in the
// register handler: two concurrent registrations both pass that lookup, and
// only the index makes the second insert fail.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(Users).Indexes().CreateMany(ctx, userIndexes())
	return err
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}

func Disconnect(db *mongo.Database) error {
	if db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Client().Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
