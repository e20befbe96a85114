package services

import (
	"context"
	"errors"
	"time"

	"ephemeral-photo-backend/internal/models"
	"ephemeral-photo-backend/internal/repository"
)

var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = repository.ErrNotFound
	// ErrForbidden is returned when the caller does not own the entity
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is wrapped by every request validation error
	ErrInvalidInput = errors.New("invalid input")
	// ErrPostExpired is returned for posts past their expiry
	ErrPostExpired = errors.New("post expired")
)

// PostStore is the persistence the post and discovery services need
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	ListLive(ctx context.Context, now time.Time) ([]models.Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Post, error)
	UpdateContent(ctx context.Context, id, ownerID, caption string, tags []string) error
	Delete(ctx context.Context, id, ownerID string) error
}

// UserStore persists users and profiles
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *models.UserProfile) error
}

// ReplyStore persists replies and notifications
type ReplyStore interface {
	Create(ctx context.Context, reply *models.Reply, notification *models.Notification) error
	ListByPost(ctx context.Context, postID, participant string) ([]models.Reply, error)
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	CountUnseen(ctx context.Context, recipientID string) (int, error)
	MarkSeen(ctx context.Context, id, recipientID string) error
}

// MediaStore issues upload URLs for post images
type MediaStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (uploadURL, mediaRef string, err error)
}

// ChangeFeed delivers post collection changes to every subscriber in publish order
type ChangeFeed interface {
	Publish(ctx context.Context, change models.Change) error
	Subscribe(ctx context.Context) (<-chan models.Change, error)
}

// Completer returns a completion for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var (
	_ PostStore  = (*repository.PostRepository)(nil)
	_ UserStore  = (*repository.UserRepository)(nil)
	_ ReplyStore = (*repository.ReplyRepository)(nil)

	_ MediaStore = (*S3MediaStore)(nil)
	_ MediaStore = NoMediaStore{}
	_ ChangeFeed = (*LocalChangeFeed)(nil)
	_ ChangeFeed = (*RedisChangeFeed)(nil)
	_ Completer  = (*OpenAIClient)(nil)
)
