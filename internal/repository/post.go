package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist or is not visible to the caller
var ErrNotFound = errors.New("not found")

const postColumns = `
	p.id, p.owner_id, pr.display_name, p.caption, p.tags,
	p.media_ref, p.created_at, p.expires_at
`

const postFrom = `
	FROM posts p
	LEFT JOIN profiles pr ON pr.uid = p.owner_id
`

// PostRepository handles database operations for posts
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, owner_id, caption, tags, media_ref, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		post.ID, post.OwnerID, post.Caption, post.Tags, post.MediaRef, post.CreatedAt, post.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID, expired or not
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.id = $1`

	var row postRow
	err := r.db.QueryRow(ctx, query, id).Scan(row.fields()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	post := row.toPost()
	return &post, nil
}

// ListAll returns every stored post including expired ones
func (r *PostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	query := `SELECT ` + postColumns + postFrom
	return r.list(ctx, query)
}

// ListLive returns posts whose expiry is after now
func (r *PostRepository) ListLive(ctx context.Context, now time.Time) ([]models.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		WHERE p.expires_at > $1 OR (p.expires_at IS NULL AND p.created_at > $2)
		ORDER BY p.created_at DESC
	`
	return r.list(ctx, query, now, now.Add(-discovery.TTL))
}

// ListByOwner returns all posts of a user, newest first
func (r *PostRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC
	`
	return r.list(ctx, query, ownerID)
}

// UpdateContent changes caption and tags of a post owned by ownerID.
// Expiry is never touched.
func (r *PostRepository) UpdateContent(ctx context.Context, id, ownerID, caption string, tags []string) error {
	query := `UPDATE posts SET caption = $1, tags = $2 WHERE id = $3 AND owner_id = $4`
	result, err := r.db.Exec(ctx, query, caption, tags, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete deletes a post owned by ownerID
func (r *PostRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM posts WHERE id = $1 AND owner_id = $2`
	result, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// list scans post rows. NULL columns are replaced with defaults by toPost.
func (r *PostRepository) list(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var row postRow
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, row.toPost())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}
