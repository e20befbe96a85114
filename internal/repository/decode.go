package repository

import (
	"strings"
	"time"

	"ephemeral-photo-backend/internal/discovery"
	"ephemeral-photo-backend/internal/models"
)

// UnknownOwner is shown for posts whose author has no display name
const UnknownOwner = "Unknown"

// postRow mirrors a posts row joined with the owner's profile. Every column
// that may be NULL is nullable here; toPost substitutes defaults.
type postRow struct {
	ID        string
	OwnerID   string
	OwnerName *string
	Caption   *string
	Tags      []string
	MediaRef  *string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

func (r *postRow) fields() []any {
	return []any{
		&r.ID, &r.OwnerID, &r.OwnerName, &r.Caption, &r.Tags,
		&r.MediaRef, &r.CreatedAt, &r.ExpiresAt,
	}
}

func (r *postRow) toPost() models.Post {
	post := models.Post{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		OwnerName: UnknownOwner,
		Tags:      cleanTags(r.Tags),
		CreatedAt: r.CreatedAt,
	}

	if r.OwnerName != nil && strings.TrimSpace(*r.OwnerName) != "" {
		post.OwnerName = *r.OwnerName
	}
	if r.Caption != nil {
		post.Caption = *r.Caption
	}
	if r.MediaRef != nil {
		post.MediaRef = *r.MediaRef
	}

	if r.ExpiresAt != nil {
		post.ExpiresAt = *r.ExpiresAt
	} else {
		post.ExpiresAt = discovery.ExpiresAt(r.CreatedAt)
	}

	return post
}

type profileRow struct {
	UID          string
	DisplayName  *string
	FavoriteTags []string
}

func (r *profileRow) toProfile() models.UserProfile {
	profile := models.UserProfile{
		UID:          r.UID,
		FavoriteTags: discovery.NormalizeTags(r.FavoriteTags),
	}
	if r.DisplayName != nil {
		profile.DisplayName = *r.DisplayName
	}
	return profile
}

// cleanTags lowercases stored tags and drops blanks. It never returns nil.
func cleanTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			result = append(result, tag)
		}
	}
	return result
}
