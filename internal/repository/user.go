package repository

import (
	"context"
	"errors"
	"fmt"

	"ephemeral-photo-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users and their profiles
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user together with an empty profile
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, created_at) VALUES ($1, $2)`,
			user.ID, user.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO profiles (uid, favorite_tags) VALUES ($1, '{}') ON CONFLICT (uid) DO NOTHING`,
			user.ID,
		); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
}

// GetProfile retrieves a profile. A user without a profile row gets an empty one.
func (r *UserRepository) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	query := `SELECT uid, display_name, favorite_tags FROM profiles WHERE uid = $1`

	var row profileRow
	err := r.db.QueryRow(ctx, query, uid).Scan(&row.UID, &row.DisplayName, &row.FavoriteTags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.UserProfile{UID: uid, FavoriteTags: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile := row.toProfile()
	return &profile, nil
}

// UpsertProfile stores display name and favorite tags
func (r *UserRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO profiles (uid, display_name, favorite_tags)
		VALUES ($1, NULLIF($2, ''), $3)
		ON CONFLICT (uid) DO UPDATE
		SET display_name = EXCLUDED.display_name, favorite_tags = EXCLUDED.favorite_tags
	`
	_, err := r.db.Exec(ctx, query, profile.UID, profile.DisplayName, profile.FavoriteTags)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
