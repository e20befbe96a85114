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

const (
	// MaxReplyLength is the reply limit in characters
	MaxReplyLength = 500

	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// ReplyService handles replies to posts and the resulting notifications
type ReplyService struct {
	replies ReplyStore
	posts   PostStore
	changes ChangeFeed
	now     func() time.Time
}

// NewReplyService creates a new reply service
func NewReplyService(replies ReplyStore, posts PostStore, changes ChangeFeed) *ReplyService {
	return &ReplyService{
		replies: replies,
		posts:   posts,
		changes: changes,
		now:     time.Now,
	}
}

// ReplyRequest represents a reply to a post
type ReplyRequest struct {
	Message string `json:"message"`
}

// NotificationsResponse lists notifications with the number still unseen
type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unseen        int                   `json:"unseen"`
}

// SendReply stores a reply to a live post and notifies the post owner
func (s *ReplyService) SendReply(ctx context.Context, senderID, postID, message string) (*models.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(message) > MaxReplyLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", ErrInvalidInput, MaxReplyLength)
	}

	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !discovery.IsLive(*post, now) {
		return nil, ErrPostExpired
	}
	if post.OwnerID == senderID {
		return nil, fmt.Errorf("%w: cannot reply to your own post", ErrInvalidInput)
	}

	reply := &models.Reply{
		ID:          uuid.New().String(),
		PostID:      post.ID,
		SenderID:    senderID,
		RecipientID: post.OwnerID,
		Message:     message,
		CreatedAt:   now,
	}
	notification := &models.Notification{
		ID:          uuid.New().String(),
		ReplyID:     reply.ID,
		PostID:      post.ID,
		SenderID:    senderID,
		RecipientID: post.OwnerID,
		Message:     message,
		CreatedAt:   now,
	}

	if err := s.replies.Create(ctx, reply, notification); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	change := models.Change{
		Kind:        models.ChangeReply,
		PostID:      post.ID,
		OwnerID:     post.OwnerID,
		RecipientID: post.OwnerID,
		At:          now,
	}
	if err := s.changes.Publish(ctx, change); err != nil {
		log.Error().Err(err).Str("reply_id", reply.ID).Msg("Failed to publish reply")
	}

	return reply, nil
}

// ListReplies returns the replies visible to userID: the post owner sees
// all of them, anyone else only their own.
func (s *ReplyService) ListReplies(ctx context.Context, userID, postID string) ([]models.Reply, error) {
	post, err := loadPost(ctx, s.posts, postID)
	if err != nil {
		return nil, err
	}

	participant := userID
	if post.OwnerID == userID {
		participant = ""
	}

	replies, err := s.replies.ListByPost(ctx, post.ID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// Notifications returns the newest notifications of recipientID
func (s *ReplyService) Notifications(ctx context.Context, recipientID string, limit int) (*NotificationsResponse, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	notifications, err := s.replies.ListNotifications(ctx, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unseen, err := s.UnseenCount(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	return &NotificationsResponse{Notifications: notifications, Unseen: unseen}, nil
}

// UnseenCount returns how many notifications recipientID has not seen
func (s *ReplyService) UnseenCount(ctx context.Context, recipientID string) (int, error) {
	unseen, err := s.replies.CountUnseen(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return unseen, nil
}

// MarkSeen marks a notification of recipientID as seen
func (s *ReplyService) MarkSeen(ctx context.Context, recipientID, notificationID string) error {
	if _, err := uuid.Parse(notificationID); err != nil {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	if err := s.replies.MarkSeen(ctx, notificationID, recipientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to mark notification seen: %w", err)
	}
	return nil
}
