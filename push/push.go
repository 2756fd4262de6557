// Package push stores browser push subscriptions and delivers web push
// messages. Delivery is fire-and-forget: failures are logged and expired
// subscriptions are dropped, nothing propagates to the caller.
package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Subscription struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	UserID primitive.ObjectID   `bson:"userId"`
	Sub    webpush.Subscription `bson:"sub"`
}

// subscriptionStore is the slice of *mongo.Collection the sender needs.
type subscriptionStore interface {
	FindOne(ctx context.Context, filter interface{},
		opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{},
		opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type sendFunc func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

type Sender struct {
	subs       subscriptionStore
	publicKey  string
	privateKey string
	subscriber string
	send       sendFunc
}

// NewSender returns nil when the VAPID key pair is not configured, which
// disables push delivery everywhere.
func NewSender(subs *mongo.Collection, publicKey, privateKey, subscriber string) *Sender {
	if publicKey == "" || privateKey == "" {
		return nil
	}
	if subscriber == "" {
		subscriber = "mailto:admin@socialgram.app"
	}
	return &Sender{
		subs:       subs,
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		send:       webpush.SendNotification,
	}
}

func (s *Sender) PublicKey() string {
	return s.publicKey
}

// SaveSubscription upserts the user's browser subscription.
func (s *Sender) SaveSubscription(ctx context.Context, userID primitive.ObjectID, sub webpush.Subscription) error {
	_, err := s.subs.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"userId": userID, "sub": sub}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Notify sends a push message to the user's stored subscription, if any.
func (s *Sender) Notify(userID primitive.ObjectID, title, body string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in push notification: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.deliver(ctx, userID, title, body)
	}()
}

func (s *Sender) deliver(ctx context.Context, userID primitive.ObjectID, title, body string) {
	var sub Subscription
	err := s.subs.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return
	}
	if err != nil {
		log.Printf("Failed to find subscription for user %s: %v", userID.Hex(), err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title":     title,
		"body":      body,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		log.Printf("Failed to marshal push payload: %v", err)
		return
	}

	// A non-nil error here means the request never completed; the push
	// service's verdict arrives as the response status.
	resp, err := s.send(payload, &sub.Sub, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             30,
	})
	if err != nil {
		log.Printf("Failed to send push notification to user %s: %v", userID.Hex(), err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		// Subscription is gone, stop retrying it on future sends.
		log.Printf("Push subscription for user %s expired, removing it", userID.Hex())
		if _, err := s.subs.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
			log.Printf("Failed to delete expired subscription: %v", err)
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		log.Printf("Push service rejected notification for user %s: %d", userID.Hex(), resp.StatusCode)
	}
}
