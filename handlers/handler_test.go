package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"socialgram/drive"
	"socialgram/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// perform runs a single handler against a JSON request, optionally with an
// authenticated user and a path parameter named "id".
func perform(t *testing.T, handler gin.HandlerFunc, method, body, userID, paramID string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		c.Set("userId", userID)
	}
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	handler(c)
	return w
}

func TestPaginationDefaultsAndClamps(t *testing.T) {
	cases := []struct {
		query     string
		wantPage  int64
		wantLimit int64
	}{
		{"", 1, 20},
		{"page=3&limit=50", 3, 50},
		{"page=0&limit=0", 1, 20},
		{"page=-2&limit=500", 1, 20},
		{"page=abc&limit=xyz", 1, 20},
	}

	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		page, limit := pagination(c)
		assert.Equal(t, tc.wantPage, page, "query %q", tc.query)
		assert.Equal(t, tc.wantLimit, limit, "query %q", tc.query)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), totalPages(0, 20))
	assert.Equal(t, int64(1), totalPages(1, 20))
	assert.Equal(t, int64(1), totalPages(20, 20))
	assert.Equal(t, int64(2), totalPages(21, 20))
	assert.Equal(t, int64(0), totalPages(5, 0))
}

func TestSignTokenRoundTrip(t *testing.T) {
	h := &Handler{jwtSecret: []byte("test-secret")}
	userID := primitive.NewObjectID()

	token, err := h.signToken(userID)
	require.NoError(t, err)

	claims := &middleware.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, userID.Hex(), claims.UserID)
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	h := &Handler{}

	cases := []string{
		`{}`,
		`{"username":"ab","email":"a@b.com","password":"secret1"}`,
		`{"username":"alice","email":"not-an-email","password":"secret1"}`,
		`{"username":"alice","email":"a@b.com","password":"short"}`,
	}
	for _, body := range cases {
		w := perform(t, h.Register, http.MethodPost, body, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestCreatePostRejectsInvalidType(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.CreatePost, http.MethodPost, `{"type":"audio"}`, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePostRejectsEmptyTextPost(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.CreatePost, http.MethodPost, `{"type":"text","textContent":"   "}`, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Text content is required")
}

func TestCreatePostRejectsMediaPostWithoutFiles(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.CreatePost, http.MethodPost, `{"type":"image","caption":"hi"}`, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Media files are required")
}

func TestCreateCommentRejectsBlankText(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.CreateComment, http.MethodPost, `{"text":"   "}`, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Comment text is required")
}

func TestCommentsPipelineSortsNewestFirst(t *testing.T) {
	pipeline := commentsPipeline(primitive.NewObjectID(), 1, 20)

	match, ok := pipeline[0][0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, bson.E{Key: "parentComment", Value: nil}, match[1])

	require.Equal(t, "$sort", pipeline[1][0].Key)
	sort, ok := pipeline[1][0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, sort)
}

func TestToggleFollowRejectsSelf(t *testing.T) {
	h := &Handler{}
	userID := primitive.NewObjectID()

	w := perform(t, h.ToggleFollow, http.MethodPost, "", userID.Hex(), userID.Hex())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot follow yourself")
}

func TestToggleFollowRejectsInvalidTargetID(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.ToggleFollow, http.MethodPost, "", primitive.NewObjectID().Hex(), "not-an-id")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleLikeRejectsInvalidPostID(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.ToggleLike, http.MethodPost, "", primitive.NewObjectID().Hex(), "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDriveEndpointsUnavailableWhenUnconfigured(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.DriveAuthURL, http.MethodGet, "", primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = perform(t, h.DriveCallback, http.MethodPost, `{"code":"abc"}`, primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = perform(t, h.UploadMedia, http.MethodPost, "", primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPushEndpointsUnavailableWhenUnconfigured(t *testing.T) {
	h := &Handler{}

	w := perform(t, h.VapidPublicKey, http.MethodGet, "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = perform(t, h.SubscribePush, http.MethodPost, `{"endpoint":"https://push"}`, primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDriveCallbackRequiresCode(t *testing.T) {
	h := &Handler{drive: drive.New("client-id", "client-secret", "http://localhost/callback")}

	w := perform(t, h.DriveCallback, http.MethodPost, `{}`, primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFallbackAuthorFillsPlaceholder(t *testing.T) {
	id := primitive.NewObjectID()
	author := fallbackAuthor(id)
	assert.Equal(t, id, author.ID)
	assert.Equal(t, "unknown", author.Username)
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := currentUserID(c)
	assert.False(t, ok)

	id := primitive.NewObjectID()
	c.Set("userId", id.Hex())
	got, ok := currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
