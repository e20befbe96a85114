package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ephemeral-photo-backend/internal/config"
	"ephemeral-photo-backend/internal/models"
	"ephemeral-photo-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedResponse struct {
	Items []models.FeedItem `json:"items"`
	Total int               `json:"total"`
}

func newTestApp(t *testing.T) (*app, services.ChangeFeed) {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Media:    config.MediaConfig{FallbackURL: "https://example.com/seed/%s"},
		JWT:      config.JWTConfig{Secret: "test-secret"},
	}

	st, err := openStores(context.Background(), cfg.Database)
	require.NoError(t, err)

	changes := services.NewLocalChangeFeed()
	return newApp(st, services.NoMediaStore{}, changes, nil, cfg), changes
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createUser(t *testing.T, h http.Handler) models.User {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/v1/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[models.User](t, rec)
	require.NotEmpty(t, user.Token)
	return user
}

func createPost(t *testing.T, h http.Handler, token string, caption string, tags ...string) *models.Post {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/v1/posts", token, services.CreatePostRequest{Caption: caption, Tags: tags})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[services.CreatePostResponse](t, rec).Post
}

func TestRouter_PublicEndpoints(t *testing.T) {
	a, _ := newTestApp(t)
	h := newRouter(a)

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/v1/feed", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/v1/feed", "garbage", nil).Code)
}

func TestRouter_PostLifecycle(t *testing.T) {
	a, _ := newTestApp(t)
	h := newRouter(a)
	owner, viewer := createUser(t, h), createUser(t, h)

	rec := call(t, h, http.MethodPost, "/api/v1/posts", owner.Token, services.CreatePostRequest{
		Caption: "Golden hour",
		Tags:    []string{"Sunset", "beach", "sunset"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[services.CreatePostResponse](t, rec)
	assert.True(t, created.MediaFallback)
	assert.Equal(t, "https://example.com/seed/"+created.Post.ID, created.Post.MediaRef)
	assert.Equal(t, []string{"sunset", "beach"}, created.Post.Tags)
	assert.Equal(t, "24h left", created.ExpiresIn)

	feed := decode[feedResponse](t, call(t, h, http.MethodGet, "/api/v1/feed", viewer.Token, nil))
	require.Equal(t, 1, feed.Total)
	assert.Equal(t, created.Post.ID, feed.Items[0].Post.ID)

	mine := decode[feedResponse](t, call(t, h, http.MethodGet, "/api/v1/posts/mine", viewer.Token, nil))
	assert.Zero(t, mine.Total)

	postPath := "/api/v1/posts/" + created.Post.ID
	caption := "Blue hour"
	update := services.UpdatePostRequest{Caption: &caption}

	assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodPatch, postPath, viewer.Token, update).Code)

	rec = call(t, h, http.MethodPatch, postPath, owner.Token, update)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Post](t, rec)
	assert.Equal(t, "Blue hour", updated.Caption)
	assert.Equal(t, created.Post.ExpiresAt.Unix(), updated.ExpiresAt.Unix(), "editing never extends expiry")

	tooLong := strings.Repeat("x", services.MaxCaptionLength+1)
	rec = call(t, h, http.MethodPatch, postPath, owner.Token, services.UpdatePostRequest{Caption: &tooLong})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/v1/posts/not-a-uuid", owner.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodDelete, postPath, viewer.Token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodDelete, postPath, owner.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, postPath, owner.Token, nil).Code)
}

func TestRouter_InvalidBody(t *testing.T) {
	a, _ := newTestApp(t)
	h := newRouter(a)
	user := createUser(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+user.Token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")

	huge := `{"caption":"` + strings.Repeat("x", 64<<10) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(huge))
	req.Header.Set("Authorization", "Bearer "+user.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request body too large")
}

func TestRouter_Discover(t *testing.T) {
	a, _ := newTestApp(t)
	h := newRouter(a)
	user := createUser(t, h)

	createPost(t, h, user.Token, "one", "sunset")
	createPost(t, h, user.Token, "two", "sun")
	createPost(t, h, user.Token, "three", "dogs")

	favorites := []string{"dogs"}
	rec := call(t, h, http.MethodPut, "/api/v1/profile", user.Token, services.UpdateProfileRequest{FavoriteTags: &favorites})
	require.Equal(t, http.StatusOK, rec.Code)

	tags := decode[services.TagsResponse](t, call(t, h, http.MethodGet, "/api/v1/discover/tags", user.Token, nil))
	assert.Equal(t, []string{"dogs"}, tags.Favorites)
	assert.Equal(t, []string{"dogs", "sun", "sunset"}, tags.Tags)
	assert.Equal(t, []string{"dogs", "sun", "sunset"}, tags.Chips)

	substring := decode[feedResponse](t, call(t, h, http.MethodGet, "/api/v1/discover?tag=sun", user.Token, nil))
	assert.Equal(t, 2, substring.Total)

	exact := decode[feedResponse](t, call(t, h, http.MethodGet, "/api/v1/discover?tag=sun&match=exact", user.Token, nil))
	assert.Equal(t, 1, exact.Total)

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodGet, "/api/v1/discover", user.Token, nil).Code)

	search := decode[services.SearchResult](t, call(t, h, http.MethodGet, "/api/v1/discover/search?q=SUNS", user.Token, nil))
	assert.Equal(t, "sunset", search.ResolvedTag)
	require.Len(t, search.Items, 1)

	empty := decode[services.SearchResult](t, call(t, h, http.MethodGet, "/api/v1/discover/search?q=", user.Token, nil))
	assert.Empty(t, empty.ResolvedTag)
	assert.Empty(t, empty.Items)
}

func TestRouter_RepliesAndNotifications(t *testing.T) {
	a, _ := newTestApp(t)
	h := newRouter(a)
	owner, fan := createUser(t, h), createUser(t, h)
	post := createPost(t, h, owner.Token, "hello")

	repliesPath := "/api/v1/posts/" + post.ID + "/replies"
	rec := call(t, h, http.MethodPost, repliesPath, fan.Token, services.ReplyRequest{Message: "love it"})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, repliesPath, owner.Token, services.ReplyRequest{Message: "me"}).Code)

	list := decode[struct {
		Replies []models.Reply `json:"replies"`
	}](t, call(t, h, http.MethodGet, repliesPath, owner.Token, nil))
	require.Len(t, list.Replies, 1)
	assert.Equal(t, "love it", list.Replies[0].Message)

	notifications := decode[services.NotificationsResponse](t, call(t, h, http.MethodGet, "/api/v1/notifications", owner.Token, nil))
	require.Len(t, notifications.Notifications, 1)
	assert.Equal(t, 1, notifications.Unseen)

	seenPath := "/api/v1/notifications/" + notifications.Notifications[0].ID + "/seen"
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, seenPath, fan.Token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodPost, seenPath, owner.Token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodPost, seenPath, owner.Token, nil).Code)

	notifications = decode[services.NotificationsResponse](t, call(t, h, http.MethodGet, "/api/v1/notifications", owner.Token, nil))
	assert.Zero(t, notifications.Unseen)
}

func TestRouter_Suggestions(t *testing.T) {
	a, _ := newTestApp(t)
	h := newRouter(a)
	user := createUser(t, h)

	rec := call(t, h, http.MethodPost, "/api/v1/suggestions/captions", user.Token, services.SuggestRequest{Context: "beach"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[services.SuggestResponse](t, rec)
	assert.True(t, resp.Fallback)
	assert.NotEmpty(t, resp.Suggestions)

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/v1/suggestions/poems", user.Token, nil).Code)
}

type snapshot struct {
	Type   string            `json:"type"`
	PostID string            `json:"post_id"`
	Unseen *int              `json:"unseen"`
	Data   []models.FeedItem `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg snapshot
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestRouter_WebSocketPushesSnapshots(t *testing.T) {
	a, changes := newTestApp(t)
	h := newRouter(a)

	ctx, cancel := context.WithCancel(context.Background())
	subscription, err := changes.Subscribe(ctx)
	require.NoError(t, err)
	go a.hub.Run(ctx, subscription)

	server := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		a.hub.Close()
		server.Close()
	})

	owner, fan := createUser(t, h), createUser(t, h)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + owner.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readMessage(t, conn)
	assert.Equal(t, "feed_snapshot", initial.Type)
	assert.Empty(t, initial.Data)

	post := createPost(t, h, owner.Token, "live", "now")

	pushed := readMessage(t, conn)
	assert.Equal(t, "feed_snapshot", pushed.Type)
	require.Len(t, pushed.Data, 1)
	assert.Equal(t, post.ID, pushed.Data[0].Post.ID)

	rec := call(t, h, http.MethodPost, "/api/v1/posts/"+post.ID+"/replies", fan.Token, services.ReplyRequest{Message: "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)

	notification := readMessage(t, conn)
	assert.Equal(t, "notification", notification.Type)
	assert.Equal(t, post.ID, notification.PostID)
	require.NotNil(t, notification.Unseen)
	assert.Equal(t, 1, *notification.Unseen)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	assert.Equal(t, "error", readMessage(t, conn).Type)
}

func TestRouter_WebSocketRejectsBadToken(t *testing.T) {
	a, _ := newTestApp(t)
	server := httptest.NewServer(newRouter(a))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
