package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxCaptionLength is the caption limit in characters
const MaxCaptionLength = 150

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/heic": true,
	"image/webp": true,
}

// PostService handles post creation, editing and the home feed
type PostService struct {
	posts       PostStore
	media       MediaStore
	changes     ChangeFeed
	fallbackURL string
	now         func() time.Time
}

// NewPostService creates a new post service. fallbackURL is a format string
// taking the post id and is stored as media reference when no upload URL can be issued.
func NewPostService(posts PostStore, media MediaStore, changes ChangeFeed, fallbackURL string) *PostService {
	return &PostService{
		posts:       posts,
		media:       media,
		changes:     changes,
		fallbackURL: fallbackURL,
		now:         time.Now,
	}
}

// CreatePostRequest represents a request to publish a post
type CreatePostRequest struct {
	Caption     string   `json:"caption"`
	Tags        []string `json:"tags"`
	ContentType string   `json:"content_type"`
}

// CreatePostResponse carries the stored post and where to upload its image
type CreatePostResponse struct {
	Post          *models.Post `json:"post"`
	UploadURL     string       `json:"upload_url,omitempty"`
	MediaFallback bool         `json:"media_fallback"`
	ExpiresIn     string       `json:"expires_in"`
}

// UpdatePostRequest changes caption and/or tags. Nil fields are left as is.
type UpdatePostRequest struct {
	Caption *string   `json:"caption"`
	Tags    *[]string `json:"tags"`
}

// CreatePost stores a new post expiring TTL after now. When no upload URL
// can be issued the post is still created with the fallback media reference.
func (s *PostService) CreatePost(ctx context.Context, ownerID string, req CreatePostRequest) (*CreatePostResponse, error) {
	caption, err := validateCaption(req.Caption)
	if err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !allowedContentTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidInput, contentType)
	}

	now := s.now()
	post := &models.Post{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Caption:   caption,
		Tags:      discovery.NormalizeTags(req.Tags),
		CreatedAt: now,
		ExpiresAt: discovery.ExpiresAt(now),
	}

	resp := &CreatePostResponse{Post: post}

	uploadURL, mediaRef, err := s.media.PresignUpload(ctx, mediaKey(ownerID, post.ID, contentType), contentType)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", ownerID).
			Str("post_id", post.ID).
			Msg("Upload URL unavailable, using fallback media")
		mediaRef = s.fallbackRef(post.ID)
		resp.MediaFallback = true
	} else {
		resp.UploadURL = uploadURL
	}
	post.MediaRef = mediaRef

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	resp.ExpiresIn = discovery.FormatRemaining(discovery.Remaining(now, post.ExpiresAt))
	s.publish(ctx, models.ChangePostCreated, post)

	return resp, nil
}

// GetPost returns a live post
func (s *PostService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !discovery.IsLive(*post, s.now()) {
		return nil, ErrPostExpired
	}
	return post, nil
}

// UpdatePost edits caption and tags of a live post owned by ownerID
func (s *PostService) UpdatePost(ctx context.Context, ownerID, postID string, req UpdatePostRequest) (*models.Post, error) {
	post, err := s.owned(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if !discovery.IsLive(*post, s.now()) {
		return nil, ErrPostExpired
	}

	if req.Caption != nil {
		caption, err := validateCaption(*req.Caption)
		if err != nil {
			return nil, err
		}
		post.Caption = caption
	}
	if req.Tags != nil {
		post.Tags = discovery.NormalizeTags(*req.Tags)
	}

	if err := s.posts.UpdateContent(ctx, post.ID, ownerID, post.Caption, post.Tags); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.publish(ctx, models.ChangePostUpdated, post)
	return post, nil
}

// DeletePost removes a post owned by ownerID, expired or not
func (s *PostService) DeletePost(ctx context.Context, ownerID, postID string) error {
	post, err := s.owned(ctx, ownerID, postID)
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, post.ID, ownerID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.publish(ctx, models.ChangePostDeleted, post)
	return nil
}

// Feed returns every live post as feed items, newest first
func (s *PostService) Feed(ctx context.Context) ([]models.FeedItem, error) {
	now := s.now()
	posts, err := s.posts.ListLive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	return discovery.Assemble(posts, now), nil
}

// MyPosts returns the caller's live posts
func (s *PostService) MyPosts(ctx context.Context, ownerID string) ([]models.FeedItem, error) {
	posts, err := s.posts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	return discovery.Assemble(posts, s.now()), nil
}

func (s *PostService) load(ctx context.Context, postID string) (*models.Post, error) {
	return loadPost(ctx, s.posts, postID)
}

// loadPost fetches a post by id, expired or not. Ids that are not UUIDs are
// reported as not found without hitting the store.
func loadPost(ctx context.Context, posts PostStore, postID string) (*models.Post, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	post, err := posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (s *PostService) owned(ctx context.Context, ownerID, postID string) (*models.Post, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return post, nil
}

// publish never fails the caller: the change is already persisted
func (s *PostService) publish(ctx context.Context, kind models.ChangeKind, post *models.Post) {
	change := models.Change{
		Kind:    kind,
		PostID:  post.ID,
		OwnerID: post.OwnerID,
		At:      s.now(),
	}
	if err := s.changes.Publish(ctx, change); err != nil {
		log.Error().
			Err(err).
			Str("post_id", post.ID).
			Str("kind", string(kind)).
			Msg("Failed to publish change")
	}
}

func (s *PostService) fallbackRef(postID string) string {
	if strings.Contains(s.fallbackURL, "%s") {
		return strings.ReplaceAll(s.fallbackURL, "%s", postID)
	}
	return s.fallbackURL
}

func validateCaption(caption string) (string, error) {
	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return "", fmt.Errorf("%w: caption must be at most %d characters", ErrInvalidInput, MaxCaptionLength)
	}
	return caption, nil
}
