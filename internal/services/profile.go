package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"
)

// MaxDisplayNameLength is the display name limit in characters
const MaxDisplayNameLength = 40

// ProfileService handles display names and favorite tags
type ProfileService struct {
	users UserStore
}

// NewProfileService creates a new profile service
func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

// UpdateProfileRequest changes display name and/or favorites. Nil fields are left as is.
type UpdateProfileRequest struct {
	DisplayName  *string   `json:"display_name"`
	FavoriteTags *[]string `json:"favorite_tags"`
}

// GetProfile returns the caller's profile
func (s *ProfileService) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile stores the changed fields. Favorites are normalized and capped.
func (s *ProfileService) UpdateProfile(ctx context.Context, uid string, req UpdateProfileRequest) (*models.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if utf8.RuneCountInString(name) > MaxDisplayNameLength {
			return nil, fmt.Errorf("%w: display name must be at most %d characters", ErrInvalidInput, MaxDisplayNameLength)
		}
		profile.DisplayName = name
	}
	if req.FavoriteTags != nil {
		profile.FavoriteTags = discovery.NormalizeTags(*req.FavoriteTags)
	}
	profile.UID = uid

	if err := s.users.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}
