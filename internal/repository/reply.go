package repository

import (
	"context"
	"fmt"

	"ephemeral-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReplyRepository handles database operations for replies and notifications
type ReplyRepository struct {
	db *pgxpool.Pool
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *pgxpool.Pool) *ReplyRepository {
	return &ReplyRepository{db: db}
}

// Create stores a reply and the recipient's notification in one transaction
func (r *ReplyRepository) Create(ctx context.Context, reply *models.Reply, notification *models.Notification) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO replies (id, post_id, sender_id, recipient_id, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, reply.ID, reply.PostID, reply.SenderID, reply.RecipientID, reply.Message, reply.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO notifications (id, reply_id, post_id, sender_id, recipient_id, message, seen, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		`, notification.ID, notification.ReplyID, notification.PostID, notification.SenderID,
			notification.RecipientID, notification.Message, notification.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		return nil
	})
}

// ListByPost returns replies to a post, oldest first. An empty participant
// returns every reply; otherwise only replies sent or received by them.
func (r *ReplyRepository) ListByPost(ctx context.Context, postID, participant string) ([]models.Reply, error) {
	query := `
		SELECT id, post_id, sender_id, recipient_id, message, created_at
		FROM replies
		WHERE post_id = $1 AND ($2 = '' OR sender_id::text = $2 OR recipient_id::text = $2)
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, postID, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	defer rows.Close()

	replies := make([]models.Reply, 0)
	for rows.Next() {
		var reply models.Reply
		if err := rows.Scan(
			&reply.ID, &reply.PostID, &reply.SenderID, &reply.RecipientID,
			&reply.Message, &reply.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, reply)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replies: %w", err)
	}

	return replies, nil
}

// ListNotifications returns a recipient's notifications, newest first
func (r *ReplyRepository) ListNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, reply_id, post_id, sender_id, recipient_id, message, seen, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.ReplyID, &n.PostID, &n.SenderID, &n.RecipientID,
			&n.Message, &n.Seen, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountUnseen returns how many notifications the recipient has not seen yet
func (r *ReplyRepository) CountUnseen(ctx context.Context, recipientID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT seen`
	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkSeen flips a notification to seen. Only the recipient can do it and
// marking an already seen notification again changes nothing.
func (r *ReplyRepository) MarkSeen(ctx context.Context, id, recipientID string) error {
	query := `UPDATE notifications SET seen = TRUE WHERE id = $1 AND recipient_id = $2`
	result, err := r.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification seen: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}
