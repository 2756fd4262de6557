package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"socialgram/models"
)

type fakeInserter struct {
	docs []models.Notification
	err  error
}

func (f *fakeInserter) InsertOne(_ context.Context, document interface{},
	_ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, document.(models.Notification))
	return &mongo.InsertOneResult{}, nil
}

type fakePusher struct {
	recipients []primitive.ObjectID
	titles     []string
}

func (f *fakePusher) Notify(recipient primitive.ObjectID, title, _ string) {
	f.recipients = append(f.recipients, recipient)
	f.titles = append(f.titles, title)
}

func TestEmitSkipsSelfTargetedActions(t *testing.T) {
	ins := &fakeInserter{}
	pusher := &fakePusher{}
	e := NewEmitter(ins, pusher)

	actor := primitive.NewObjectID()
	err := e.Emit(context.Background(), models.Notification{
		Recipient: actor,
		Sender:    actor,
		Type:      models.NotificationLike,
	})
	require.NoError(t, err)
	assert.Empty(t, ins.docs)
	assert.Empty(t, pusher.recipients)
}

func TestEmitPersistsUnreadNotification(t *testing.T) {
	ins := &fakeInserter{}
	pusher := &fakePusher{}
	e := NewEmitter(ins, pusher)

	recipient := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	err := e.Emit(context.Background(), models.Notification{
		Recipient: recipient,
		Sender:    sender,
		Type:      models.NotificationComment,
		Post:      &postID,
	})
	require.NoError(t, err)
	require.Len(t, ins.docs, 1)

	n := ins.docs[0]
	assert.False(t, n.IsRead)
	assert.False(t, n.ID.IsZero())
	assert.NotZero(t, n.CreatedAt)
	assert.Equal(t, "commented on your post", n.Message)
	assert.Equal(t, recipient, n.Recipient)
	assert.Equal(t, &postID, n.Post)

	require.Len(t, pusher.recipients, 1)
	assert.Equal(t, recipient, pusher.recipients[0])
	assert.Equal(t, "New comment", pusher.titles[0])
}

func TestEmitDefaultMessages(t *testing.T) {
	cases := map[string]string{
		models.NotificationFollow:       "started following you",
		models.NotificationLike:         "liked your post",
		models.NotificationComment:      "commented on your post",
		models.NotificationDriveConnect: "Google Drive connected successfully!",
	}
	for kind, want := range cases {
		ins := &fakeInserter{}
		e := NewEmitter(ins, nil)
		err := e.Emit(context.Background(), models.Notification{
			Recipient: primitive.NewObjectID(),
			Sender:    primitive.NewObjectID(),
			Type:      kind,
		})
		require.NoError(t, err)
		require.Len(t, ins.docs, 1)
		assert.Equal(t, want, ins.docs[0].Message)
	}
}

func TestEmitExplicitMessageWins(t *testing.T) {
	ins := &fakeInserter{}
	e := NewEmitter(ins, nil)

	err := e.Emit(context.Background(), models.Notification{
		Recipient: primitive.NewObjectID(),
		Sender:    primitive.NewObjectID(),
		Type:      models.NotificationFollow,
		Message:   "custom",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", ins.docs[0].Message)
}

func TestEmitSystemNotificationWithZeroSender(t *testing.T) {
	ins := &fakeInserter{}
	e := NewEmitter(ins, nil)

	// drive_connect targets the acting user; the zero sender keeps the
	// actor != recipient rule intact.
	err := e.Emit(context.Background(), models.Notification{
		Recipient: primitive.NewObjectID(),
		Type:      models.NotificationDriveConnect,
	})
	require.NoError(t, err)
	require.Len(t, ins.docs, 1)
	assert.True(t, ins.docs[0].Sender.IsZero())
}

func TestEmitSurfacesPersistError(t *testing.T) {
	want := errors.New("store unavailable")
	e := NewEmitter(&fakeInserter{err: want}, &fakePusher{})

	err := e.Emit(context.Background(), models.Notification{
		Recipient: primitive.NewObjectID(),
		Sender:    primitive.NewObjectID(),
		Type:      models.NotificationLike,
	})
	assert.ErrorIs(t, err, want)
}
