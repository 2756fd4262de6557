package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"socialgram/models"
)

type fakeValues struct {
	appends map[string][][]interface{}
	updates map[string][][]interface{}
	batches [][]Cell
	rows    [][]interface{}
	err     error
	done    chan struct{}
}

func newFakeValues() *fakeValues {
	return &fakeValues{
		appends: make(map[string][][]interface{}),
		updates: make(map[string][][]interface{}),
		done:    make(chan struct{}, 8),
	}
}

func (f *fakeValues) signal() {
	select {
	case f.done <- struct{}{}:
	default:
	}
}

func (f *fakeValues) Append(_ context.Context, readRange string, row []interface{}) error {
	defer f.signal()
	if f.err != nil {
		return f.err
	}
	f.appends[readRange] = append(f.appends[readRange], row)
	return nil
}

func (f *fakeValues) Get(_ context.Context, _ string) ([][]interface{}, error) {
	if f.err != nil {
		f.signal()
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeValues) Update(_ context.Context, readRange string, row []interface{}) error {
	defer f.signal()
	if f.err != nil {
		return f.err
	}
	f.updates[readRange] = append(f.updates[readRange], row)
	return nil
}

func (f *fakeValues) BatchUpdate(_ context.Context, cells []Cell) error {
	defer f.signal()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, cells)
	return nil
}

func wait(t *testing.T, f *fakeValues) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("mirror write never happened")
	}
}

func TestPostCreatedAppendsRow(t *testing.T) {
	api := newFakeValues()
	m := &Mirror{api: api}

	post := models.Post{
		ID:          primitive.NewObjectID(),
		Author:      primitive.NewObjectID(),
		Type:        models.PostTypeText,
		Caption:     "hello",
		TextContent: "first post",
		LikesCount:  0,
	}
	m.PostCreated(post)
	wait(t, api)

	rows := api.appends[postsRange]
	require.Len(t, rows, 1)
	row := rows[0]
	require.Len(t, row, 9)
	assert.Equal(t, post.ID.Hex(), row[0])
	assert.Equal(t, post.Author.Hex(), row[1])
	assert.Equal(t, "text", row[2])
	assert.Equal(t, "hello", row[3])
	assert.Equal(t, "first post", row[4])
}

func TestPostStatsChangedUpdatesMatchingRow(t *testing.T) {
	api := newFakeValues()
	m := &Mirror{api: api}

	postID := primitive.NewObjectID().Hex()
	api.rows = [][]interface{}{
		{"Post ID", "Author ID"},
		{"someother", "x"},
		{postID, "y"},
	}

	likes := 3
	comments := 1
	m.PostStatsChanged(postID, PostStats{Likes: &likes, Comments: &comments})
	wait(t, api)

	require.Len(t, api.batches, 1)
	cells := api.batches[0]
	require.Len(t, cells, 2)
	// row 3 of the sheet
	assert.Equal(t, "Posts!F3", cells[0].Range)
	assert.Equal(t, 3, cells[0].Value)
	assert.Equal(t, "Posts!G3", cells[1].Range)
	assert.Equal(t, 1, cells[1].Value)
}

func TestPostStatsChangedMissingRowIsSwallowed(t *testing.T) {
	api := newFakeValues()
	m := &Mirror{api: api}
	api.rows = [][]interface{}{{"Post ID"}}

	likes := 1
	// the row lookup fails; the error must stay inside the mirror
	m.PostStatsChanged("nope", PostStats{Likes: &likes})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, api.batches)
}

func TestUserLoginAndStatsRows(t *testing.T) {
	api := newFakeValues()
	m := &Mirror{api: api}

	m.UserLogin("u1", "alice", "registration")
	wait(t, api)
	m.UserStats("u1", 2, 3, 4)
	wait(t, api)

	logins := api.appends[loginsRange]
	require.Len(t, logins, 1)
	assert.Equal(t, []interface{}{"u1", "alice", "registration", logins[0][3]}, logins[0])

	stats := api.appends[userStatsRange]
	require.Len(t, stats, 1)
	assert.Equal(t, "u1", stats[0][0])
	assert.Equal(t, 2, stats[0][1])
	assert.Equal(t, 3, stats[0][2])
	assert.Equal(t, 4, stats[0][3])
}

func TestNilMirrorIsNoOp(t *testing.T) {
	var m *Mirror
	assert.NotPanics(t, func() {
		m.PostCreated(models.Post{})
		m.UserLogin("u", "n", "login")
		m.UserStats("u", 0, 0, 0)
		m.PostStatsChanged("p", PostStats{})
	})
}

func TestWriteFailureNeverPropagates(t *testing.T) {
	api := newFakeValues()
	api.err = errors.New("quota exceeded")
	m := &Mirror{api: api}

	assert.NotPanics(t, func() {
		m.UserLogin("u1", "alice", "login")
		wait(t, api)
	})
	assert.Empty(t, api.appends)
}

func TestInitWritesHeaderRows(t *testing.T) {
	api := newFakeValues()
	m := &Mirror{api: api}

	require.NoError(t, m.Init(context.Background()))
	assert.Len(t, api.updates["Posts!A1:I1"], 1)
	assert.Len(t, api.updates["Logins!A1:D1"], 1)
	assert.Len(t, api.updates["UserStats!A1:E1"], 1)
	assert.Equal(t, "Post ID", api.updates["Posts!A1:I1"][0][0])
}
