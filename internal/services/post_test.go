package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ephemeral-photo-backend/internal/memstore"
	"ephemeral-photo-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostService(media *fakeMedia) (*PostService, *memstore.Store, *recordingFeed) {
	store := memstore.New()
	feed := &recordingFeed{}
	svc := NewPostService(store.Posts(), media, feed, "https://demo.example/%s.jpg")
	svc.now = fixedClock(testNow)
	return svc, store, feed
}

func TestPostService_CreatePost(t *testing.T) {
	media := &fakeMedia{}
	svc, store, feed := newPostService(media)
	ctx := context.Background()

	resp, err := svc.CreatePost(ctx, "owner-1", CreatePostRequest{
		Caption: "  sunset run  ",
		Tags:    []string{" Sunset", "sunset", "RUN", ""},
	})
	require.NoError(t, err)

	assert.False(t, resp.MediaFallback)
	assert.Contains(t, resp.UploadURL, "https://upload.example/owner-1/")
	assert.Equal(t, "24h left", resp.ExpiresIn)
	assert.Equal(t, "sunset run", resp.Post.Caption)
	assert.Equal(t, []string{"sunset", "run"}, resp.Post.Tags)
	assert.Equal(t, testNow, resp.Post.CreatedAt)
	assert.Equal(t, testNow.Add(24*time.Hour), resp.Post.ExpiresAt)
	assert.Equal(t, "https://cdn.example/owner-1/"+resp.Post.ID+".jpg", resp.Post.MediaRef)

	stored, err := store.Posts().GetByID(ctx, resp.Post.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Post.MediaRef, stored.MediaRef)
	assert.Equal(t, []models.ChangeKind{models.ChangePostCreated}, feed.kinds())
}

func TestPostService_CreatePost_MediaFallback(t *testing.T) {
	svc, store, _ := newPostService(&fakeMedia{err: errors.New("s3 unavailable")})

	resp, err := svc.CreatePost(context.Background(), "owner-1", CreatePostRequest{Caption: "hi"})
	require.NoError(t, err)

	assert.True(t, resp.MediaFallback)
	assert.Empty(t, resp.UploadURL)
	assert.Equal(t, "https://demo.example/"+resp.Post.ID+".jpg", resp.Post.MediaRef)

	_, err = store.Posts().GetByID(context.Background(), resp.Post.ID)
	assert.NoError(t, err)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	svc, _, feed := newPostService(&fakeMedia{})

	_, err := svc.CreatePost(context.Background(), "owner-1", CreatePostRequest{Caption: strings.Repeat("é", MaxCaptionLength+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePost(context.Background(), "owner-1", CreatePostRequest{ContentType: "video/mp4"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, feed.kinds())
}

func TestPostService_CreatePost_PublishFailureIsIgnored(t *testing.T) {
	svc, _, feed := newPostService(&fakeMedia{})
	feed.err = errors.New("redis down")

	_, err := svc.CreatePost(context.Background(), "owner-1", CreatePostRequest{Caption: "hi"})
	assert.NoError(t, err)
}

func TestPostService_GetPost(t *testing.T) {
	svc, store, _ := newPostService(&fakeMedia{})
	ctx := context.Background()

	live := seedPost(t, store, "owner-1", time.Hour, "art")
	expired := seedPost(t, store, "owner-1", 24*time.Hour, "art")

	got, err := svc.GetPost(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = svc.GetPost(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrPostExpired)

	_, err = svc.GetPost(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetPost(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_UpdatePost(t *testing.T) {
	svc, store, feed := newPostService(&fakeMedia{})
	ctx := context.Background()
	post := seedPost(t, store, "owner-1", time.Hour, "art")

	caption := "new caption"
	tags := []string{"Music", "LIVE", "music"}
	updated, err := svc.UpdatePost(ctx, "owner-1", post.ID, UpdatePostRequest{Caption: &caption, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, "new caption", updated.Caption)
	assert.Equal(t, []string{"music", "live"}, updated.Tags)
	assert.Equal(t, post.ExpiresAt, updated.ExpiresAt)

	stored, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ExpiresAt, stored.ExpiresAt)
	assert.Equal(t, []string{"music", "live"}, stored.Tags)
	assert.Equal(t, []models.ChangeKind{models.ChangePostUpdated}, feed.kinds())
}

func TestPostService_UpdatePost_Rules(t *testing.T) {
	svc, store, _ := newPostService(&fakeMedia{})
	ctx := context.Background()
	post := seedPost(t, store, "owner-1", time.Hour)
	expired := seedPost(t, store, "owner-1", 30*time.Hour)

	caption := "x"
	_, err := svc.UpdatePost(ctx, "intruder", post.ID, UpdatePostRequest{Caption: &caption})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdatePost(ctx, "owner-1", expired.ID, UpdatePostRequest{Caption: &caption})
	assert.ErrorIs(t, err, ErrPostExpired)

	long := strings.Repeat("a", MaxCaptionLength+1)
	_, err = svc.UpdatePost(ctx, "owner-1", post.ID, UpdatePostRequest{Caption: &long})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPostService_DeletePost(t *testing.T) {
	svc, store, feed := newPostService(&fakeMedia{})
	ctx := context.Background()
	post := seedPost(t, store, "owner-1", time.Hour)

	assert.ErrorIs(t, svc.DeletePost(ctx, "intruder", post.ID), ErrForbidden)
	require.NoError(t, svc.DeletePost(ctx, "owner-1", post.ID))

	_, err := store.Posts().GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []models.ChangeKind{models.ChangePostDeleted}, feed.kinds())
}

func TestPostService_Feed(t *testing.T) {
	svc, store, _ := newPostService(&fakeMedia{})
	ctx := context.Background()

	older := seedPost(t, store, "owner-1", 3*time.Hour)
	newer := seedPost(t, store, "owner-2", 10*time.Minute)
	seedPost(t, store, "owner-2", 25*time.Hour)

	items, err := svc.Feed(ctx)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].Post.ID)
	assert.Equal(t, "23h left", items[0].ExpiresIn)
	assert.Equal(t, "10m ago", items[0].Age)
	assert.Equal(t, older.ID, items[1].Post.ID)
	assert.Equal(t, "Unknown", items[1].Post.OwnerName)
}

func TestPostService_FeedEmpty(t *testing.T) {
	svc, _, _ := newPostService(&fakeMedia{})

	items, err := svc.Feed(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestPostService_MyPosts(t *testing.T) {
	svc, store, _ := newPostService(&fakeMedia{})
	mine := seedPost(t, store, "owner-1", time.Hour)
	seedPost(t, store, "owner-1", 48*time.Hour)
	seedPost(t, store, "owner-2", time.Hour)

	items, err := svc.MyPosts(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].Post.ID)
}
