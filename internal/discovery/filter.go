package discovery

import (
	"sort"
	"strings"
	"time"

	"ephemeral-photo-backend/internal/models"
)

// MatchMode controls how a selected tag is compared with post tags
type MatchMode string

const (
	// MatchSubstring keeps a post when the tag is contained in any of its tags ("art" matches "artisan")
	MatchSubstring MatchMode = "substring"
	// MatchExact keeps a post only when one of its tags equals the selected tag
	MatchExact MatchMode = "exact"
)

// ParseMatchMode maps a query value onto a MatchMode, defaulting to MatchSubstring
func ParseMatchMode(s string) MatchMode {
	if MatchMode(strings.ToLower(strings.TrimSpace(s))) == MatchExact {
		return MatchExact
	}
	return MatchSubstring
}

// Filter returns the live posts carrying selectedTag, newest first
func Filter(posts []models.Post, selectedTag string, now time.Time) []models.Post {
	return FilterWithMode(posts, selectedTag, now, MatchSubstring)
}

// FilterWithMode is Filter with an explicit match mode
func FilterWithMode(posts []models.Post, selectedTag string, now time.Time, mode MatchMode) []models.Post {
	selectedTag = canonical(selectedTag)

	result := make([]models.Post, 0)
	for _, post := range posts {
		if !IsLive(post, now) {
			continue
		}
		if hasTag(post.Tags, selectedTag, mode) {
			result = append(result, post)
		}
	}

	sortNewestFirst(result)
	return result
}

func hasTag(tags []string, selected string, mode MatchMode) bool {
	for _, tag := range tags {
		tag = canonical(tag)
		if mode == MatchExact {
			if tag == selected {
				return true
			}
			continue
		}
		if strings.Contains(tag, selected) {
			return true
		}
	}
	return false
}

// sortNewestFirst orders by expiry descending, which equals creation
// descending since expiry is a fixed offset. ID breaks ties.
func sortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].ExpiresAt.Equal(posts[j].ExpiresAt) {
			return posts[i].ExpiresAt.After(posts[j].ExpiresAt)
		}
		return posts[i].ID < posts[j].ID
	})
}
